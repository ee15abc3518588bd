// ABOUTME: HTTP client for Mozilla Location Service style geolocate endpoints
// ABOUTME: Posts observed radio signatures and decodes the position response

package mls

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harper/geolocation/internal/models"
)

const (
	// DefaultEndpoint is the public MLS geolocate endpoint.
	DefaultEndpoint = "https://location.services.mozilla.com/v1/geolocate"

	// DefaultTimeout bounds a single geolocate call.
	DefaultTimeout = 10 * time.Second

	userAgent = "geolocation/1.0"

	// maxErrorBody limits how much of a failed response is kept for diagnostics.
	maxErrorBody = 4096
)

var (
	// ErrStatus is returned when the service answers with a non-success HTTP status.
	ErrStatus = errors.New("unexpected geolocate status")

	// ErrEmptyBody is returned when a successful response carries no body.
	ErrEmptyBody = errors.New("empty geolocate response body")
)

// StatusError carries the status code and body of a non-success response.
type StatusError struct {
	Code int
	Body string
	// API is the decoded error object, when the body contained one.
	API *APIError
}

func (e *StatusError) Error() string {
	if e.API != nil {
		return fmt.Sprintf("geolocate returned %d: %s", e.Code, e.API.Message)
	}
	return fmt.Sprintf("geolocate returned %d", e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Resolver maps a set of observed radio signatures to an estimated position.
type Resolver interface {
	Resolve(ctx context.Context, req *models.LocationRequest) (*Response, error)
}

// Client calls an MLS compatible geolocate endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check that Client implements Resolver.
var _ Resolver = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-call timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for endpoint using apiKey.
// An empty endpoint selects DefaultEndpoint.
func NewClient(endpoint, apiKey string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured geolocate URL without the API key.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Resolve performs one synchronous geolocate call.
// A non-success status, a transport error and an empty body are all errors;
// an error object embedded in a successful body is returned inside the Response.
func (c *Client) Resolve(ctx context.Context, req *models.LocationRequest) (*Response, error) {
	if req == nil {
		req = &models.LocationRequest{}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	target, err := c.requestURL()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("geolocate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{Code: resp.StatusCode, Body: string(body)}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			statusErr.API = envelope.Error
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	var out *Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out == nil {
		return nil, ErrEmptyBody
	}
	return out, nil
}

func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}
	if !strings.HasPrefix(u.Scheme, "http") {
		return "", fmt.Errorf("invalid endpoint %q: scheme must be http or https", c.endpoint)
	}
	if c.apiKey != "" {
		q := u.Query()
		q.Set("key", c.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
