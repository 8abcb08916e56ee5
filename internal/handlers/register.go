package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conductionnl/commonground-gateway/internal/models"
	"github.com/conductionnl/commonground-gateway/internal/resolver"
	"github.com/conductionnl/commonground-gateway/internal/services"
)

type RegisterHandler struct {
	resolver *resolver.Resolver
	loginLog *services.LoginLogService
}

func NewRegisterHandler(res *resolver.Resolver, loginLog *services.LoginLogService) *RegisterHandler {
	return &RegisterHandler{
		resolver: res,
		loginLog: loginLog,
	}
}

type registerRequest struct {
	GivenName  string `json:"givenName"  binding:"required"`
	FamilyName string `json:"familyName" binding:"required"`
	Username   string `json:"username"   binding:"required,email"`
	Password   string `json:"password"   binding:"required,min=8"`
}

// Register creates a local account: a person record plus a user credential
// bound to it.
func (h *RegisterHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration payload"})
		return
	}

	user, err := h.resolver.Register(c.Request.Context(), resolver.RegisterInput{
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
		Username:   req.Username,
		Password:   req.Password,
	})
	if err != nil {
		if errors.Is(err, resolver.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "registration failed"})
		return
	}

	h.loginLog.Log(services.LoginLogEntry{
		Address: c.ClientIP(),
		Method:  models.LoginMethodRegister,
		Status:  "201",
	})

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID(),
		"username": user.String("username"),
	})
}
