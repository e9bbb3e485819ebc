// Package eodhd provides a price gateway backed by the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/interfaces"
)

// flexFloat64 handles JSON values that may be either a number or a string.
// EODHD reports missing prices as "NA".
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	if string(data) == "null" {
		*f = 0
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// flexInt64 handles integer values that may arrive as strings.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	var num int64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexInt64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexInt64(num)
		return nil
	}
	if string(data) == "null" {
		*f = 0
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into int64", string(data))
}

const (
	DefaultBaseURL    = "https://eodhd.com/api"
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 10 // requests per second
	DefaultExchange   = "US"
	DefaultOptionPath = "/mp/unicornbay/options/contracts"
)

// Client implements interfaces.PriceGateway
type Client struct {
	baseURL    string
	apiKey     string
	exchange   string
	optionPath string
	quoteBatch int
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter

	cacheMu sync.Mutex
	quotes  map[string]cachedQuote
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithExchange sets the suffix appended to bare symbols ("AAPL" -> "AAPL.US").
// An empty exchange sends symbols unchanged.
func WithExchange(exchange string) ClientOption {
	return func(c *Client) {
		c.exchange = strings.ToUpper(strings.TrimSpace(exchange))
	}
}

// WithOptionPath sets the options contracts endpoint path
func WithOptionPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.optionPath = path
		}
	}
}

// WithQuoteBatch caps the tickers per /real-time request. Zero sends every
// requested ticker at once.
func WithQuoteBatch(n int) ClientOption {
	return func(c *Client) {
		c.quoteBatch = n
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		exchange:   DefaultExchange,
		optionPath: DefaultOptionPath,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		quotes:  make(map[string]cachedQuote),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig builds a client from the [clients.eodhd] section
func NewClientFromConfig(config *common.EODHDConfig, logger *common.Logger) *Client {
	return NewClient(config.APIKey,
		WithBaseURL(config.BaseURL),
		WithLogger(logger),
		WithRateLimit(config.RateLimit),
		WithTimeout(config.GetTimeout()),
		WithExchange(config.Exchange),
		WithOptionPath(config.OptionPath),
		WithQuoteBatch(config.QuoteBatch),
	)
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// ticker maps a ledger symbol to an EODHD ticker. Symbols already carrying
// an exchange suffix pass through.
func (c *Client) ticker(symbol string) string {
	if c.exchange == "" || strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + c.exchange
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", path).Dur("elapsed", elapsed).Msg("EODHD API request failed")
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().Str("endpoint", path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("EODHD API request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Ensure Client implements PriceGateway
var _ interfaces.PriceGateway = (*Client)(nil)
