package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conductionnl/commonground-gateway/internal/identity"
)

type IdentityHandler struct {
	assembler identity.Assembler
}

func NewIdentityHandler(assembler identity.Assembler) *IdentityHandler {
	return &IdentityHandler{assembler: assembler}
}

// Me assembles and returns the identity of the current session user.
func (h *IdentityHandler) Me(c *gin.Context) {
	username, _ := c.Get("username")
	name, ok := username.(string)
	if !ok || name == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	ident, err := h.assembler.Assemble(c.Request.Context(), identity.TypeUser, identity.Subject{
		Username: name,
	})
	if err != nil {
		if errors.Is(err, identity.ErrIdentityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "identity not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":    ident.Username,
		"displayName": ident.DisplayName,
		"person":      ident.Person,
		"roles":       ident.Roles,
		"type":        ident.Type,
		"resident":    ident.Resident,
	})
}
