package commonground

import (
	"context"
	"fmt"
	"strings"

	retry "github.com/appleboy/go-httpretry"
)

// HealthChecker probes the CommonGround components. Probes run outside any
// login attempt, so they may retry.
type HealthChecker struct {
	baseURLs    map[string]string
	retryClient *retry.Client
}

func NewHealthChecker(baseURLs map[string]string, retryClient *retry.Client) *HealthChecker {
	normalized := make(map[string]string, len(baseURLs))
	for component, baseURL := range baseURLs {
		normalized[component] = strings.TrimRight(baseURL, "/")
	}
	return &HealthChecker{
		baseURLs:    normalized,
		retryClient: retryClient,
	}
}

// Components returns the names of all configured components.
func (h *HealthChecker) Components() []string {
	names := make([]string, 0, len(h.baseURLs))
	for component := range h.baseURLs {
		names = append(names, component)
	}
	return names
}

// Check probes one component. Any 2xx answer from its base URL counts as
// healthy.
func (h *HealthChecker) Check(ctx context.Context, component string) error {
	base, ok := h.baseURLs[component]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, component)
	}

	resp, err := h.retryClient.Get(ctx, base)
	if err != nil {
		return fmt.Errorf("%w: health %s: %v", ErrResourceUnavailable, component, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: health %s: HTTP %d", ErrResourceUnavailable, component, resp.StatusCode)
	}
	return nil
}
