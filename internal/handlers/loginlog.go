package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conductionnl/commonground-gateway/internal/services"
	"github.com/conductionnl/commonground-gateway/internal/store"
)

type LoginLogHandler struct {
	loginLog *services.LoginLogService
}

func NewLoginLogHandler(loginLog *services.LoginLogService) *LoginLogHandler {
	return &LoginLogHandler{loginLog: loginLog}
}

// List returns login-log entries, newest first, with pagination and
// optional method/address/time filters.
func (h *LoginLogHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	params := store.NewPaginationParams(page, pageSize)

	filters := store.LoginLogFilters{
		Method:  c.Query("method"),
		Address: c.Query("address"),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
			return
		}
		filters.Since = t
	}
	if until := c.Query("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid until timestamp"})
			return
		}
		filters.Until = t
	}

	logs, pagination, err := h.loginLog.GetLoginLogs(params, filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load login logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      logs,
		"pagination": pagination,
	})
}
