package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	// ErrTransport covers everything between issuing the request and
	// reading the last byte of the body, including non-2xx responses.
	ErrTransport = errors.New("transport failure")
	// ErrNonUTF8 is returned when the body was read but is not valid UTF-8.
	ErrNonUTF8 = errors.New("response body is not valid UTF-8")
)

// Client fetches remote resources as text.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64

	Stats *Stats
}

// NewClient creates a client. A zero timeout disables the request timeout,
// a non-positive maxBodyBytes disables the size limit.
func NewClient(timeout time.Duration, maxBodyBytes int64, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
		Stats:        NewStats(time.Hour),
	}
}

// Fetch issues a GET for rawURL with the given headers and returns the
// whole body.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers map[string]string) (body string, err error) {
	start := time.Now()
	defer func() { c.Stats.Record(time.Since(start).Milliseconds(), err != nil) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		// net/http sends req.Host, not a Host header entry.
		if strings.EqualFold(k, "Host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, string(respBody))
	}

	var r io.Reader = resp.Body
	if c.maxBodyBytes > 0 {
		r = io.LimitReader(resp.Body, c.maxBodyBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	if c.maxBodyBytes > 0 && int64(len(data)) > c.maxBodyBytes {
		return "", fmt.Errorf("%w: body exceeds %d bytes", ErrTransport, c.maxBodyBytes)
	}
	if !utf8.Valid(data) {
		return "", ErrNonUTF8
	}
	return string(data), nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
