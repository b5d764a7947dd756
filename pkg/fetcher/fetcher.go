package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; site-indexer/1.0)"

	// maxBodyBytes caps a single page download.
	maxBodyBytes = 20 << 20
)

// ErrBodyTooLarge marks a page whose body exceeds the download cap.
var ErrBodyTooLarge = errors.New("response body too large")

// Source returns the raw markup of a page.
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchError carries the HTTP status of a failed fetch. Status is 0 when
// the request never got a response.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads pages over plain HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		maxBody:   maxBodyBytes,
	}
}

// Fetch performs a GET and returns the body of a 200 response.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("failed to make HTTP request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(body)) > f.maxBody {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, f.maxBody)}
	}
	return body, nil
}
