// Package httpx wraps net/http with the configuration every outbound
// request in feedback shares: a fixed User-Agent, a connect timeout
// and an overall request timeout, with redirects followed.
//
// Two consumers exist: the feed fetcher, which pulls whole XML
// documents with GetString, and the download queue, which builds its
// own streaming requests through NewRequest/Do.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Client is a configured HTTP client.
//
// Example usage:
//
//	client := httpx.New("feedback/0.1.0", 5*time.Minute, 30*time.Second)
//
//	// Fetch feed XML
//	xml, err := client.GetString(ctx, "https://example.com/feed.rss")
//
//	// Stream a large file
//	req, _ := client.NewRequest(ctx, http.MethodGet, enclosureURL)
//	resp, err := client.Do(req)
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// New creates a client with the given User-Agent, overall request
// timeout and connect timeout. The overall timeout covers the whole
// exchange including reading the body; its expiry surfaces as an
// ordinary transport error.
func New(userAgent string, timeout, connectTimeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
			},
		},
		userAgent: userAgent,
	}
}

// NewRequest builds a request carrying the configured User-Agent and
// bound to ctx for cancellation.
func (c *Client) NewRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// Do executes the request. The caller owns the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// Get performs a GET request and returns the whole body.
//
// Returns an error if the request fails, the response status is not
// 200 OK, or reading the body fails. Use this for small documents
// only; the download queue streams large bodies itself.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// GetString performs a GET request and returns the body as a string.
// Convenience wrapper around Get for text content like feed XML.
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
