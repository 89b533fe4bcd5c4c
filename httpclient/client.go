package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	guarderrors "github.com/guardkit/guardkit/errors"
	"github.com/guardkit/guardkit/logger"
	"github.com/guardkit/guardkit/resilience"
)

// Request describes an HTTP request to execute.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Client is an HTTP client guarded by resilience primitives.
type Client struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
	rl         *resilience.RateLimiter
	arl        *resilience.AdaptiveRateLimiter
	log        *logger.Logger
}

// New creates a client from config.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		log:        logger.WithComponent("httpclient"),
	}

	if cfg.CircuitBreaker != nil {
		c.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.AdaptiveRateLimiter != nil {
		c.arl = resilience.NewAdaptiveRateLimiter(*cfg.AdaptiveRateLimiter)
	} else if cfg.RateLimiter != nil {
		c.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}

	return c, nil
}

// Do executes a request with the configured resilience layers. The
// response is returned alongside the classified error for non-2xx
// statuses, so callers can still inspect the body.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.config.Retry != nil {
		return resilience.Retry(ctx, *c.config.Retry, func() (*Response, error) {
			return c.doOnce(ctx, req)
		})
	}
	return c.doOnce(ctx, req)
}

// Get executes a GET request.
func (c *Client) Get(ctx context.Context, path string, query map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post executes a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Breaker returns the client's circuit breaker, or nil.
func (c *Client) Breaker() *resilience.CircuitBreaker { return c.cb }

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client { return c.httpClient }

// doOnce executes a single attempt through the limiter and breaker.
func (c *Client) doOnce(ctx context.Context, req Request) (*Response, error) {
	if c.arl != nil {
		if _, err := c.arl.Wait(ctx); err != nil {
			return nil, err
		}
	} else if c.rl != nil {
		if _, err := c.rl.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if c.cb != nil {
		var resp *Response
		err := c.cb.Execute(func() error {
			var execErr error
			resp, execErr = c.executeRequest(ctx, req)
			return execErr
		})
		return resp, err
	}

	return c.executeRequest(ctx, req)
}

// executeRequest sends the request and classifies the outcome.
func (c *Client) executeRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, guarderrors.NetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, guarderrors.NetworkError(fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
	if classErr := guarderrors.FromStatusCode(resp.StatusCode, retryAfter); classErr != nil {
		c.recordFeedback(classErr)
		c.log.Debug("request failed", logger.Fields(
			logger.FieldDependency, c.config.Name,
			"method", req.Method,
			"path", req.Path,
			"status", resp.StatusCode,
		))
		return result, classErr
	}

	if c.arl != nil {
		c.arl.RecordSuccess()
	}
	return result, nil
}

// recordFeedback feeds throttling signals into the adaptive limiter.
func (c *Client) recordFeedback(err *guarderrors.RemoteError) {
	if c.arl == nil {
		return
	}
	if err.Code == guarderrors.ErrCodeRateLimited {
		c.arl.RecordRateLimitSignal()
	}
}

// buildRequest constructs an *http.Request from the client config.
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	url := req.Path
	if c.config.BaseURL != "" && !strings.HasPrefix(req.Path, "http://") && !strings.HasPrefix(req.Path, "https://") {
		url = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, guarderrors.Validation(fmt.Sprintf("encode request body: %v", err))
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, guarderrors.Validation(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// parseRetryAfter reads a Retry-After header value, either delay seconds
// or an HTTP date. Returns 0 when absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
