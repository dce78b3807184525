package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pders01/rmql/internal/debuglog"
	"github.com/pders01/rmql/internal/fetch"
)

const (
	DefaultEndpoint  = "https://rickandmortyapi.com/graphql"
	DefaultUserAgent = "rmql/1.0 (Rick and Morty browser; github.com/pders01/rmql)"
	DefaultTimeout   = 30 * time.Second

	maxErrorBody = 512
)

// Request is the JSON body posted to the endpoint.
type Request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is the standard GraphQL response envelope.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []Error         `json:"errors,omitempty"`
}

// HasData reports whether the server returned a non-null data member.
func (r *Response) HasData() bool {
	return len(r.Data) > 0 && !bytes.Equal(bytes.TrimSpace(r.Data), []byte("null"))
}

// Messages returns the message of every error in the response.
func (r *Response) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e Error) Error() string { return e.Message }

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

type Options struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
	// RateLimit is requests per second; zero disables limiting.
	RateLimit  float64
	RateBurst  int
	HTTPClient *http.Client
}

type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		endpoint:  opts.Endpoint,
		userAgent: opts.UserAgent,
		http:      hc,
		limiter:   limiter,
	}
}

func (c *Client) Endpoint() string { return c.endpoint }

// Do posts req and decodes the response envelope. GraphQL-level errors are
// returned inside the Response, not as an error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	id := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/graphql-response+json, application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", id)

	log := debuglog.WithFields(map[string]interface{}{
		"operation":  req.OperationName,
		"request_id": id,
	})
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", req.OperationName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warnf("status %d after %s", resp.StatusCode, time.Since(start))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	log.Debugf("completed in %s with %d errors", time.Since(start), len(out.Errors))
	return &out, nil
}

// StartCall runs Do in the background and reports through onComplete.
// The returned handle cancels the request; onComplete still runs, with
// the context error.
func (c *Client) StartCall(req Request, onComplete func(*Response, error)) fetch.CancelHandle {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		onComplete(c.Do(ctx, req))
	}()
	return fetch.CancelFunc(cancel)
}
