package kvk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/core"
)

var (
	// ErrCompanyNotFound indicates the registry search returned no match
	// for the branch number.
	ErrCompanyNotFound = errors.New("kvk: company not found")

	// ErrRegistryUnavailable indicates the registry call failed or timed out.
	ErrRegistryUnavailable = errors.New("kvk: registry unavailable")
)

// Company is the registry view of an organization, read-only.
type Company struct {
	BranchNumber string     `json:"branchNumber"`
	TradeNames   TradeNames `json:"tradeNames"`
	Addresses    []Address  `json:"addresses"`
}

type TradeNames struct {
	BusinessName string `json:"businessName"`
}

type Address struct {
	City string `json:"city"`
}

// searchResponse is the registry search envelope.
type searchResponse struct {
	Data struct {
		Items []Company `json:"items"`
	} `json:"data"`
}

// CompanyLookup is the contract the identity provider consumes.
type CompanyLookup interface {
	LookupCompany(ctx context.Context, branchNumber string) (*Company, error)
}

// Client queries the national company registry. One GET per lookup, a short
// timeout, no caching and no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    core.MetricsRecorder
}

var _ CompanyLookup = (*Client)(nil)

func New(cfg *config.Config, m core.MetricsRecorder) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.KvkBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.KvkTimeout},
		metrics:    m,
	}
}

// LookupCompany searches the registry by branch number and returns the
// first company in the result set.
func (c *Client) LookupCompany(ctx context.Context, branchNumber string) (*Company, error) {
	query := url.Values{}
	query.Set("q", "test")
	query.Set("mainBranch", "true")
	query.Set("branch", "false")
	query.Set("branchNumber", branchNumber)

	searchURL := c.baseURL + "/api/v2/testsearch/companies?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordCompanyLookup(false)
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordCompanyLookup(false)
		body, _ := io.ReadAll(resp.Body)
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return nil, fmt.Errorf("%w: HTTP %d - %s", ErrRegistryUnavailable, resp.StatusCode, bodyPreview)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.metrics.RecordCompanyLookup(false)
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	if len(result.Data.Items) == 0 {
		c.metrics.RecordCompanyLookup(false)
		return nil, fmt.Errorf("%w: branch number %s", ErrCompanyNotFound, branchNumber)
	}

	c.metrics.RecordCompanyLookup(true)
	company := result.Data.Items[0]
	return &company, nil
}
