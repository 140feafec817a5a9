// Package coingecko implements market.Fetcher against the CoinGecko v3 REST API.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/retrier"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public CoinGecko API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

const (
	defaultCurrency = "usd"
	defaultTimeout  = 30 * time.Second
	maxBodyBytes    = 10 << 20
	apiKeyHeader    = "x-cg-demo-api-key"
	userAgent       = "coinfav/1.0"
)

// ErrDecode marks a response body that could not be decoded.
var ErrDecode = errors.New("decode response")

var _ market.Fetcher = (*Client)(nil)

// Client is an HTTP price API client.
type Client struct {
	httpClient *http.Client
	config     Config
	retrier    *retrier.Retrier
	logger     *zap.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	APIKey   string
	Currency string
	Timeout  time.Duration
}

// Option is a function that configures the Client.
type Option func(*Client)

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		config: Config{
			BaseURL:  DefaultBaseURL,
			Currency: defaultCurrency,
			Timeout:  defaultTimeout,
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithBaseURL points the client at another API root, e.g. the pro API or a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.config.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIKey sets the demo API key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.config.APIKey = key
	}
}

// WithCurrency sets the quote currency (vs_currency).
func WithCurrency(currency string) Option {
	return func(c *Client) {
		if currency != "" {
			c.config.Currency = strings.ToLower(currency)
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.Timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom HTTP transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithRetrier retries rate-limited, server-side and transport failures.
func WithRetrier(r *retrier.Retrier) Option {
	return func(c *Client) {
		c.retrier = r
	}
}

// NewRetrier returns a retrier that only repeats Retryable failures.
func NewRetrier(maxRetries int) *retrier.Retrier {
	return retrier.New(
		retrier.WithMaxRetries(maxRetries),
		retrier.WithRetryIf(Retryable),
	)
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// FetchByIDs returns market rows for a comma-joined id list.
func (c *Client) FetchByIDs(ctx context.Context, ids string) ([]market.Asset, error) {
	query := url.Values{}
	query.Set("vs_currency", c.config.Currency)
	query.Set("ids", ids)

	assets, err := get[[]market.Asset](ctx, c, "/coins/markets", query, "markets")
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// FetchMarkets returns one page of assets ordered by market cap.
func (c *Client) FetchMarkets(ctx context.Context, page, perPage int) ([]market.Asset, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("vs_currency", c.config.Currency)
	query.Set("order", "market_cap_desc")
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	assets, err := get[[]market.Asset](ctx, c, "/coins/markets", query, "markets")
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// FetchDetail returns the detail record for one coin.
func (c *Client) FetchDetail(ctx context.Context, id string) (*market.AssetDetail, error) {
	query := url.Values{}
	query.Set("localization", "false")
	query.Set("tickers", "false")
	query.Set("community_data", "false")
	query.Set("developer_data", "false")

	resp, err := get[coinResponse](ctx, c, "/coins/"+url.PathEscape(id), query, "coin")
	if err != nil {
		return nil, err
	}
	return resp.toDetail(c.config.Currency), nil
}

// get decodes a GET response into a fresh T on every attempt.
func get[T any](ctx context.Context, c *Client, path string, query url.Values, what string) (T, error) {
	attempt := func(ctx context.Context) (T, error) {
		var out T
		err := c.do(ctx, path, query, &out, what)
		return out, err
	}
	if c.retrier == nil {
		return attempt(ctx)
	}
	return retrier.DoWithData(c.retrier, ctx, attempt)
}

func (c *Client) do(ctx context.Context, path string, query url.Values, out any, what string) error {
	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.config.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("price api request failed",
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", what, err)
	}

	c.logger.Debug("price api request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(body)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w %s: %w", ErrDecode, what, err)
	}
	return nil
}
