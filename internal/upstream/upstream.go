// Package upstream performs JSON GET requests against the external APIs with
// a per-call timeout and typed failures.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single upstream call
const DefaultTimeout = 10 * time.Second

// ErrTimeout is wrapped into errors from calls that exceeded their deadline
var ErrTimeout = errors.New("upstream request timed out")

// StatusError is returned for a non-2xx response
type StatusError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %s", e.Service, e.Status)
}

// Observer receives the outcome of every call
type Observer interface {
	UpstreamRequest(service string, duration time.Duration, err error)
}

// Client is a thin JSON client shared by the Octopus and carbon clients
type Client struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Observer   Observer
}

// New returns a Client that gives each call at most timeout
func New(timeout time.Duration, obs Observer) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{},
		Timeout:    timeout,
		Observer:   obs,
	}
}

// Request describes a single GET
type Request struct {
	Service  string
	URL      string
	Username string // basic auth, password is always empty
}

// GetJSON fetches req.URL and decodes the body into out
func (c *Client) GetJSON(ctx context.Context, req Request, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.Observer != nil {
			c.Observer.UpstreamRequest(req.Service, time.Since(start), err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Username != "" {
		httpReq.SetBasicAuth(req.Username, "")
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s after %s: %w", req.Service, c.Timeout, ErrTimeout)
		}
		return fmt.Errorf("fetching %s: %w", req.Service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Service:    req.Service,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s after %s: %w", req.Service, c.Timeout, ErrTimeout)
		}
		return fmt.Errorf("decoding %s response: %w", req.Service, err)
	}

	return nil
}

// Kind classifies an error for metrics and logs
func Kind(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "transport"
	}
}
