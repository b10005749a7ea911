package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// BrowserClient uses browser-like headers to avoid 406 (Not Acceptable) errors
	BrowserClient ClientType = "browser"

	// CloudflareClient uses simple headers (like curl) to avoid 403 (Forbidden) errors
	// from Cloudflare-protected sites that block browser-like User-Agents
	CloudflareClient ClientType = "cloudflare"

	// DefaultClient sends Go's default headers
	DefaultClient ClientType = "default"
)

// DefaultTimeout bounds a whole request, body read included.
const DefaultTimeout = 15 * time.Second

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 10 << 20

var (
	// ErrUnexpectedStatus is returned (wrapped) for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrBodyTooLarge is returned when a response body exceeds MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body exceeds limit")
)

// StatusError carries the status code of a rejected response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Options configures a client.
type Options struct {
	Type         ClientType
	Timeout      time.Duration
	MaxBodyBytes int64
	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

// HTTPClient wraps an http.Client with configuration
type HTTPClient struct {
	client       *http.Client
	maxBodyBytes int64
}

// NewClient creates a new HTTP client with the specified type and default limits
func NewClient(clientType ClientType) *HTTPClient {
	return NewClientWithOptions(Options{Type: clientType})
}

// NewClientWithOptions creates a new HTTP client from opts, filling in defaults.
func NewClientWithOptions(opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Type == "" {
		opts.Type = BrowserClient
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: &headerTransport{base: base, clientType: opts.Type},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Follow up to 10 redirects
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &HTTPClient{
		client:       client,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// StandardClient returns the underlying http.Client. Requests sent through it
// carry the same profile headers and timeout.
func (c *HTTPClient) StandardClient() *http.Client {
	return c.client
}

// Do executes an HTTP request with the appropriate headers for the client type
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// Get is a convenience method for GET requests
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.Do(req)
}

// Fetch performs a GET and returns the body of a 2xx response along with its
// Content-Type. Any other status yields a *StatusError.
func (c *HTTPClient) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, "", fmt.Errorf("%w: %s is larger than %d bytes", ErrBodyTooLarge, url, c.maxBodyBytes)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// headerTransport sets the profile headers on every outgoing request
type headerTransport struct {
	base       http.RoundTripper
	clientType ClientType
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	setHeaders(req, t.clientType)
	return t.base.RoundTrip(req)
}

// setHeaders sets the appropriate headers based on client type
func setHeaders(req *http.Request, clientType ClientType) {
	switch clientType {
	case BrowserClient:
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	case CloudflareClient:
		// Cloudflare allows simple tools like curl but blocks browser-like User-Agents
		req.Header.Set("User-Agent", "curl/8.7.1")
		req.Header.Set("Accept", "*/*")

	default:
		// Default: use Go's default User-Agent
	}
}
