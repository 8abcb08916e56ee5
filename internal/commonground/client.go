package commonground

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "github.com/appleboy/go-httpclient"

	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/core"
)

// ResourceClient is the contract the resolver and identity provider consume.
type ResourceClient interface {
	// ResolveURL turns a descriptor into an absolute URL. It is a pure
	// function of the descriptor and the configured base URLs.
	ResolveURL(d Descriptor) (string, error)

	// List fetches a filtered collection and unwraps the hydra envelope.
	// An empty result is a zero-length slice, never an error.
	List(ctx context.Context, d Descriptor, filter url.Values) ([]Resource, error)

	// Get fetches a single resource by absolute URL.
	Get(ctx context.Context, rawURL string) (Resource, error)

	// GetResource fetches a single resource by descriptor.
	GetResource(ctx context.Context, d Descriptor) (Resource, error)

	// Create posts a new resource to the collection named by the descriptor.
	Create(ctx context.Context, d Descriptor, body map[string]any) (Resource, error)

	// Application fetches the hosting application resource from the
	// application registry.
	Application(ctx context.Context) (Resource, error)
}

// Client talks to the CommonGround components over their REST interface.
// Requests authenticate with a shared secret header; there is no automatic
// retry on the login path.
type Client struct {
	baseURLs      map[string]string
	applicationID string
	httpClient    *http.Client
	metrics       core.MetricsRecorder
}

var _ ResourceClient = (*Client)(nil)

// New creates a resource client from configuration. The underlying HTTP
// client carries the shared-secret authentication header on every request.
func New(cfg *config.Config, m core.MetricsRecorder) (*Client, error) {
	client, err := httpclient.NewAuthClient(
		cfg.CommonGroundAuthMode,
		cfg.CommonGroundAuthSecret,
		httpclient.WithTimeout(cfg.CommonGroundTimeout),
		httpclient.WithHeaderName(cfg.CommonGroundAuthHeader),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	baseURLs := make(map[string]string, len(cfg.ComponentURLs))
	for component, baseURL := range cfg.ComponentURLs {
		baseURLs[component] = strings.TrimRight(baseURL, "/")
	}

	return &Client{
		baseURLs:      baseURLs,
		applicationID: cfg.ApplicationID,
		httpClient:    client,
		metrics:       m,
	}, nil
}

func (c *Client) ResolveURL(d Descriptor) (string, error) {
	base, ok := c.baseURLs[d.Component]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownComponent, d.Component)
	}
	u := base + "/" + d.Type
	if d.ID != "" {
		u += "/" + d.ID
	}
	return u, nil
}

// collectionEnvelope is the hydra pagination envelope the components wrap
// collection responses in.
type collectionEnvelope struct {
	Member     []Resource `json:"hydra:member"`
	TotalItems int        `json:"hydra:totalItems"`
}

func (c *Client) List(ctx context.Context, d Descriptor, filter url.Values) ([]Resource, error) {
	rawURL, err := c.ResolveURL(d)
	if err != nil {
		return nil, err
	}
	if len(filter) > 0 {
		rawURL += "?" + filter.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, rawURL, nil, d.Component, "list")
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrResourceUnavailable, d, err)
	}

	var envelope collectionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrInvalidResponse, d, err)
	}
	if envelope.Member == nil {
		return []Resource{}, nil
	}
	return envelope.Member, nil
}

func (c *Client) Get(ctx context.Context, rawURL string) (Resource, error) {
	body, err := c.do(ctx, http.MethodGet, rawURL, nil, componentForURL(c.baseURLs, rawURL), "get")
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrResourceUnavailable, rawURL, err)
	}

	var resource Resource
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrInvalidResponse, rawURL, err)
	}
	return resource, nil
}

func (c *Client) GetResource(ctx context.Context, d Descriptor) (Resource, error) {
	rawURL, err := c.ResolveURL(d)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, rawURL)
}

func (c *Client) Create(ctx context.Context, d Descriptor, body map[string]any) (Resource, error) {
	rawURL, err := c.ResolveURL(d)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s body: %w", d, err)
	}

	respBody, err := c.do(ctx, http.MethodPost, rawURL, jsonData, d.Component, "create")
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrResourceUnavailable, d, err)
	}

	var resource Resource
	if err := json.Unmarshal(respBody, &resource); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrInvalidResponse, d, err)
	}
	return resource, nil
}

func (c *Client) Application(ctx context.Context) (Resource, error) {
	return c.GetResource(ctx, Descriptor{
		Component: config.ComponentApplication,
		Type:      "applications",
		ID:        c.applicationID,
	})
}

// do performs one request and returns the response body. Non-2xx responses
// are errors carrying a bounded body preview.
func (c *Client) do(
	ctx context.Context,
	method, rawURL string,
	jsonBody []byte,
	component, operation string,
) ([]byte, error) {
	var reqBody io.Reader
	if jsonBody != nil {
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordResourceCall(component, operation, false, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordResourceCall(component, operation, false, time.Since(start))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordResourceCall(component, operation, false, time.Since(start))
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return nil, fmt.Errorf("HTTP %d - %s", resp.StatusCode, bodyPreview)
	}

	c.metrics.RecordResourceCall(component, operation, true, time.Since(start))
	return body, nil
}

// componentForURL maps an absolute URL back to its component name for
// metric labels. Unknown hosts label as "external".
func componentForURL(baseURLs map[string]string, rawURL string) string {
	for component, base := range baseURLs {
		if strings.HasPrefix(rawURL, base) {
			return component
		}
	}
	return "external"
}
