package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultQuotesURL = "https://brapi.dev/api"
	DefaultCacheTTL  = 15 * time.Minute
	defaultAttempts  = 3
)

var ErrQuoteNotFound = errors.New("quote not found")

type cachedQuote struct {
	price     float64
	fetchedAt time.Time
}

// QuoteClient fetches the latest market price of a ticker. Prices are cached per
// ticker and failed requests are retried.
type QuoteClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	cacheTTL   time.Duration
	attempts   int
	retryDelay time.Duration

	cache sync.Map
}

type QuoteOption func(*QuoteClient)

func WithQuotesBaseURL(baseURL string) QuoteOption {
	return func(c *QuoteClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithQuotesLogger(logger zerolog.Logger) QuoteOption {
	return func(c *QuoteClient) {
		c.logger = logger
	}
}

func WithQuotesRateLimit(requestsPerSecond int) QuoteOption {
	return func(c *QuoteClient) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

func WithQuotesTimeout(timeout time.Duration) QuoteOption {
	return func(c *QuoteClient) {
		c.httpClient.Timeout = timeout
	}
}

func WithQuotesCacheTTL(ttl time.Duration) QuoteOption {
	return func(c *QuoteClient) {
		c.cacheTTL = ttl
	}
}

func WithQuotesRetry(attempts int, delay time.Duration) QuoteOption {
	return func(c *QuoteClient) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.retryDelay = delay
	}
}

func NewQuoteClient(token string, opts ...QuoteOption) *QuoteClient {
	c := &QuoteClient{
		baseURL:    DefaultQuotesURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		logger:     zerolog.Nop(),
		cacheTTL:   DefaultCacheTTL,
		attempts:   defaultAttempts,
		retryDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type QuoteAPIError struct {
	StatusCode int
	Message    string
	Ticker     string
}

func (e *QuoteAPIError) Error() string {
	return fmt.Sprintf("quote API error: %s (status: %d, ticker: %s)", e.Message, e.StatusCode, e.Ticker)
}

type quoteResponse struct {
	Results []struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"results"`
}

// CurrentPrice returns the market price of ticker, served from cache while fresh.
// A stale cached price is returned when every fetch attempt fails.
func (c *QuoteClient) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	cached, ok := c.cache.Load(ticker)
	if ok && time.Since(cached.(cachedQuote).fetchedAt) < c.cacheTTL {
		c.logger.Debug().Str("ticker", ticker).Msg("using cached quote")
		return cached.(cachedQuote).price, nil
	}

	price, err := c.fetchWithRetry(ctx, ticker)
	if err != nil {
		if ok {
			c.logger.Warn().Err(err).Str("ticker", ticker).Msg("quote fetch failed, using stale price")
			return cached.(cachedQuote).price, nil
		}
		return 0, err
	}

	c.cache.Store(ticker, cachedQuote{price: price, fetchedAt: time.Now()})
	return price, nil
}

func (c *QuoteClient) fetchWithRetry(ctx context.Context, ticker string) (float64, error) {
	var lastErr error
	for i := 0; i < c.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		price, err := c.fetch(ctx, ticker)
		if err == nil {
			return price, nil
		}
		lastErr = err

		var apiErr *QuoteAPIError
		if errors.Is(err, ErrQuoteNotFound) || (errors.As(err, &apiErr) && apiErr.StatusCode < 500) {
			return 0, err
		}
		c.logger.Warn().Err(err).Str("ticker", ticker).Int("attempt", i+1).Msg("quote fetch failed")
	}
	return 0, lastErr
}

func (c *QuoteClient) fetch(ctx context.Context, ticker string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/quote/%s", c.baseURL, url.PathEscape(ticker))
	if c.token != "" {
		reqURL += "?" + url.Values{"token": {c.token}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w: %s", ErrQuoteNotFound, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, &QuoteAPIError{StatusCode: resp.StatusCode, Message: string(body), Ticker: ticker}
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode quote response: %w", err)
	}
	if len(payload.Results) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrQuoteNotFound, ticker)
	}
	return payload.Results[0].RegularMarketPrice, nil
}
