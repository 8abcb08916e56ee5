package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/conductionnl/commonground-gateway/internal/commonground"
	"github.com/conductionnl/commonground-gateway/internal/core"
)

type HealthHandler struct {
	checker *commonground.HealthChecker
	cache   core.Cache[[]string]
}

func NewHealthHandler(checker *commonground.HealthChecker, cache core.Cache[[]string]) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		cache:   cache,
	}
}

// Healthz probes the configured CommonGround components and the cache
// backend. A single unhealthy dependency degrades the whole report to 503.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx := c.Request.Context()
	healthy := true

	components := h.checker.Components()
	sort.Strings(components)

	report := make(map[string]string, len(components)+1)
	for _, component := range components {
		if err := h.checker.Check(ctx, component); err != nil {
			report[component] = err.Error()
			healthy = false
			continue
		}
		report[component] = "ok"
	}

	if err := h.cache.Health(ctx); err != nil {
		report["cache"] = err.Error()
		healthy = false
	} else {
		report["cache"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"healthy":    healthy,
		"components": report,
	})
}
