// Package network holds the HTTP client shared by asset downloads and script updates.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seamui/seamui/constant"
)

// Client is shared so connections to the same CDN are reused.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 20
	t.MaxConnsPerHost = 50
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 5 * time.Second
	return t
}

// StatusError is a response outside the 2xx range.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Get fetches url with the application User-Agent.
// The caller closes the body. Non-2xx responses are returned as *StatusError.
func Get(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	if client == nil {
		client = Client
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	return resp.Body, nil
}
