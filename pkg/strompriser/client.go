// Package strompriser provides a client for the strompriser.no public price
// API.
package strompriser

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/sells-group/enviro-impact/internal/resilience"
)

// ErrRateLimited is returned when the local rate limiter denies a call.
var ErrRateLimited = eris.New("strompriser: local rate limit exceeded")

// regionIDs maps Norwegian power grid regions to strompriser region ids.
var regionIDs = map[string]int{
	"NO1": 1,
	"NO2": 2,
	"NO3": 3,
	"NO4": 4,
	"NO5": 5,
}

// Client defines the strompriser operations.
type Client interface {
	// AveragePrice returns the mean spot price in NOK per kWh for a power grid
	// region over the last 12 months.
	AveragePrice(ctx context.Context, powerGridRegion string) (float64, error)
}

// PricePoint is a single entry of the prices response.
type PricePoint struct {
	Price float64 `json:"price"`
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

// WithNow sets the clock used for the 12-month window.
func WithNow(now func() time.Time) Option {
	return func(c *httpClient) {
		c.now = now
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
	apiKey  string
	baseURL string
	http    *http.Client
	now     func() time.Time
	limiter *rate.Limiter
}

// NewClient creates a strompriser client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.strompriser.no",
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) AveragePrice(ctx context.Context, powerGridRegion string) (float64, error) {
	regionID, ok := regionIDs[powerGridRegion]
	if !ok {
		return 0, eris.Errorf("strompriser: invalid power region %q", powerGridRegion)
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return 0, ErrRateLimited
	}

	today := c.now().UTC()
	yearAgo := today.AddDate(0, 0, -365)

	q := url.Values{}
	q.Set("country", "Norway")
	q.Set("startDate", yearAgo.Format(time.DateOnly))
	q.Set("endDate", today.Format(time.DateOnly))
	q.Set("region", strconv.Itoa(regionID))
	reqURL := c.baseURL + "/public/prices?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, eris.Wrap(err, "strompriser: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "strompriser: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "strompriser: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("strompriser: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return 0, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return 0, statusErr
	}

	var points []PricePoint
	if err := json.Unmarshal(body, &points); err != nil {
		return 0, eris.Wrap(err, "strompriser: unmarshal response")
	}
	if len(points) == 0 {
		return 0, eris.Errorf("strompriser: no price data for %s", powerGridRegion)
	}

	sum := 0.0
	for _, p := range points {
		sum += p.Price
	}
	avg := decimal.NewFromFloat(sum / float64(len(points))).Round(4)
	return avg.InexactFloat64(), nil
}
