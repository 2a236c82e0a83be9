// Package socrata is a client for Socrata SODA endpoints, used for the
// Washington state business-license dataset.
package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/tonasket-wiki/directory-cli/internal/resilience"
)

// DefaultBaseURL is the Washington open-data portal.
const DefaultBaseURL = "https://data.wa.gov"

// Record is one row of the business-license dataset. Fields mirror the
// dataset's column names; the caller is responsible for normalization.
type Record struct {
	UBI            string `json:"ubi"`
	BusinessName   string `json:"businessname"`
	LicenseStatus  string `json:"licensestatus"`
	LicenseNumber  string `json:"licensenumber"`
	LicenseType    string `json:"licensetype"`
	StreetAddress  string `json:"streetaddress"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zip            string `json:"zip"`
	Phone          string `json:"phone"`
	FirstIssueDate string `json:"firstissuedate"`
}

// Client queries a Socrata dataset with rate limiting and retries.
type Client struct {
	baseURL    string
	dataset    string
	appToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the request rate ceiling (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetry overrides the default retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// New creates a Client for one dataset. appToken may be empty; Socrata
// then applies shared anonymous throttling.
func New(baseURL, dataset, appToken string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		dataset:    dataset,
		appToken:   appToken,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupByName returns license records whose business name matches
// the given name (case-insensitive exact match on the dataset side).
func (c *Client) LookupByName(ctx context.Context, name string, limit int) ([]Record, error) {
	params := url.Values{
		"$where": {fmt.Sprintf("upper(businessname) = upper('%s')", escapeSoQL(name))},
		"$limit": {fmt.Sprintf("%d", clampLimit(limit))},
	}
	return c.query(ctx, params)
}

// LookupByUBI returns the license record for a Unified Business
// Identifier, or nil when the UBI is unknown.
func (c *Client) LookupByUBI(ctx context.Context, ubi string) (*Record, error) {
	params := url.Values{
		"ubi":    {ubi},
		"$limit": {"1"},
	}
	records, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// LookupByLocation returns license records for a ZIP code, optionally
// restricted to active licenses.
func (c *Client) LookupByLocation(ctx context.Context, zip string, limit int, activeOnly bool) ([]Record, error) {
	params := url.Values{
		"zip":    {zip},
		"$limit": {fmt.Sprintf("%d", clampLimit(limit))},
	}
	if activeOnly {
		params.Set("licensestatus", "Active")
	}
	return c.query(ctx, params)
}

func (c *Client) query(ctx context.Context, params url.Values) ([]Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "socrata: rate limit")
	}

	reqURL := fmt.Sprintf("%s/resource/%s.json?%s", c.baseURL, c.dataset, params.Encode())

	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("socrata", "query")
	return resilience.Do(ctx, cfg, func(ctx context.Context) ([]Record, error) {
		return c.doQuery(ctx, reqURL)
	})
}

func (c *Client) doQuery(ctx context.Context, reqURL string) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: build request")
	}
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("socrata: status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: read body")
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, eris.Wrap(err, "socrata: parse response")
	}
	return records, nil
}

// escapeSoQL doubles single quotes for interpolation into a SoQL
// string literal.
func escapeSoQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 25
	}
	return limit
}
