// Package electricitymaps provides a client for the Electricity Maps carbon
// intensity API.
package electricitymaps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/sells-group/enviro-impact/internal/resilience"
)

// ErrRateLimited is returned when the local rate limiter denies a call.
var ErrRateLimited = eris.New("electricitymaps: local rate limit exceeded")

// Client defines the Electricity Maps operations.
type Client interface {
	// LatestCarbonIntensity returns the most recent grid carbon intensity for
	// the configured country.
	LatestCarbonIntensity(ctx context.Context) (*Reading, error)
}

// Reading is a carbon intensity observation converted to kg CO2 per kWh.
type Reading struct {
	KgPerKWh  float64
	Timestamp time.Time
}

type latestResponse struct {
	CarbonIntensity *float64 `json:"carbonIntensity"` // g CO2eq per kWh
	Datetime        string   `json:"datetime"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithCountryCode sets the country queried. Default: NO.
func WithCountryCode(code string) Option {
	return func(c *httpClient) {
		c.countryCode = code
	}
}

// WithRateLimiter caps outbound calls. A denied call fails immediately
// instead of waiting.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	apiKey      string
	baseURL     string
	countryCode string
	http        *http.Client
	limiter     *rate.Limiter
}

// NewClient creates an Electricity Maps client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:      apiKey,
		baseURL:     "https://api.electricitymap.org",
		countryCode: "NO",
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) LatestCarbonIntensity(ctx context.Context) (*Reading, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	q := url.Values{}
	q.Set("countryCode", c.countryCode)
	reqURL := c.baseURL + "/v3/carbon-intensity/latest?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "electricitymaps: create request")
	}
	req.Header.Set("auth-token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "electricitymaps: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "electricitymaps: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("electricitymaps: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	var parsed latestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "electricitymaps: unmarshal response")
	}
	if parsed.CarbonIntensity == nil {
		return nil, eris.New("electricitymaps: response has no carbonIntensity")
	}

	ts, err := time.Parse(time.RFC3339, parsed.Datetime)
	if err != nil {
		return nil, eris.Wrapf(err, "electricitymaps: parse datetime %q", parsed.Datetime)
	}

	kg := decimal.NewFromFloat(*parsed.CarbonIntensity).Div(decimal.NewFromInt(1000)).Round(4)
	return &Reading{
		KgPerKWh:  kg.InexactFloat64(),
		Timestamp: ts.UTC(),
	}, nil
}
