// Package shopback provides a client for the ShopBack Taiwan API, abstracted
// behind the Gateway interface for testability.
package shopback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wdzeng/shopback-bot/internal/metrics"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

const (
	defaultBaseURL    = "https://api-app.shopback.com.tw"
	defaultGraphQLURL = "https://api-app.shopback.com.tw/rs/graphql-auth"

	// Client identification headers required by the API. The key is shared by
	// all ShopBack clients and is not a user secret.
	shopbackAgent = "sbandroidagent/4.12.1"
	shopbackKey   = "q452R0g0muV3OXP8VoE7q3wshmm2rdI3"
)

// Gateway defines the remote operations the bot engine consumes.
type Gateway interface {
	Refresh(ctx context.Context, accessToken, refreshToken, userAgent string) (*TokenSet, error)
	SearchOffers(ctx context.Context, keyword string, page, size int) (*domain.OfferList, bool, error)
	ListFollowedOffers(ctx context.Context, accessToken string, page, size int) (*domain.OfferList, int, error)
	Follow(ctx context.Context, offerID int64, accessToken string) error
	GetProfile(ctx context.Context, accessToken, userAgent string) (*domain.Profile, error)
}

// Client implements Gateway against the real ShopBack API.
type Client struct {
	baseURL     string
	graphqlURL  string
	client      *http.Client
	rateLimiter *RateLimiter
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the default REST endpoint base.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithGraphQLURL overrides the default GraphQL endpoint.
func WithGraphQLURL(u string) Option {
	return func(c *Client) {
		c.graphqlURL = u
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimiter injects a rate limiter consulted before every API call.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = r
	}
}

// New creates a ShopBack API client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		graphqlURL: defaultGraphQLURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do executes one API request and returns the response body on any 2xx
// status. Non-2xx responses are returned as *apiFailure so callers can map
// endpoint-specific error codes before falling back to a generic APIError.
func (c *Client) do(ctx context.Context, operation string, req *http.Request) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	metrics.APICallsTotal.WithLabelValues(operation).Inc()

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(operation).Inc()
		return nil, fmt.Errorf("executing %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", operation, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.APIErrorsTotal.WithLabelValues(operation).Inc()

		var envelope errorResponse
		_ = json.Unmarshal(body, &envelope)
		return nil, &apiFailure{
			status:  resp.StatusCode,
			code:    envelope.Error.Code,
			message: envelope.Error.Message,
		}
	}

	return body, nil
}

// apiFailure is the raw upstream failure before endpoint-specific
// classification. It never escapes this package.
type apiFailure struct {
	status  int
	code    int
	message string
}

func (f *apiFailure) Error() string {
	return fmt.Sprintf("status %d, code %d: %s", f.status, f.code, f.message)
}

// generic converts an unclassified failure into the exported APIError.
func (f *apiFailure) generic() error {
	return &APIError{Status: f.status, Code: f.code, Message: f.message}
}

// asFailure extracts an *apiFailure from err, if present.
func asFailure(err error) (*apiFailure, bool) {
	var f *apiFailure
	ok := errors.As(err, &f)
	return f, ok
}

// setCommonHeaders attaches the client identification headers every endpoint
// expects.
func setCommonHeaders(req *http.Request) {
	req.Header.Set("x-shopback-agent", shopbackAgent)
	req.Header.Set("x-shopback-key", shopbackKey)
}
