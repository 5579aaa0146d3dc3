package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"go-tamper-inspector/internal/logger"
	"go-tamper-inspector/pkg/models"
)

// HTTPFetcherOptions tunes the HTTP image fetcher
type HTTPFetcherOptions struct {
	Timeout            time.Duration
	MaxBytes           int64
	InsecureSkipVerify bool
	MaxAttempts        int
	// Backoff is multiplied by the attempt number before each retry
	Backoff time.Duration
}

// DefaultHTTPFetcherOptions returns 3 attempts with a 1s linear backoff
func DefaultHTTPFetcherOptions() HTTPFetcherOptions {
	return HTTPFetcherOptions{
		Timeout:     30 * time.Second,
		MaxBytes:    20 * 1024 * 1024,
		MaxAttempts: 3,
		Backoff:     time.Second,
	}
}

// HTTPImageFetcher downloads images over HTTP(S) with retries
type HTTPImageFetcher struct {
	client *http.Client
	opts   HTTPFetcherOptions
}

// NewHTTPImageFetcher creates an HTTP image fetcher
func NewHTTPImageFetcher(opts HTTPFetcherOptions) *HTTPImageFetcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	// Connection pooling tuned for single image downloads
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		},
	}

	return &HTTPImageFetcher{
		opts: opts,
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// Fetch downloads ref. 4xx responses are not retried; 5xx responses and
// transport errors are retried with a linear backoff that honours ctx.
func (h *HTTPImageFetcher) Fetch(ctx context.Context, ref string) (*models.ImageBlob, error) {
	var lastErr error

	for attempt := 0; attempt < h.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, time.Duration(attempt)*h.opts.Backoff); err != nil {
				return nil, fmt.Errorf("fetch aborted during backoff: %w", err)
			}
			logger.WithFields(logrus.Fields{
				"url":     ref,
				"attempt": attempt + 1,
				"error":   lastErr.Error(),
			}).Debug("Retrying image download")
		}

		blob, retryable, err := h.fetchOnce(ctx, ref)
		if err == nil {
			return blob, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, fmt.Errorf("failed to fetch image: %w", lastErr)
}

func (h *HTTPImageFetcher) fetchOnce(ctx context.Context, ref string) (*models.ImageBlob, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid URL: %w", err)
	}

	req.Header.Set("Accept", "image/png, image/jpeg, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Tamper-Inspector/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		// A cancelled context will not recover by retrying
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if resp.ContentLength > 0 && h.opts.MaxBytes > 0 && resp.ContentLength > h.opts.MaxBytes {
		return nil, false, tooLarge(h.opts.MaxBytes)
	}

	data, err := readLimited(resp.Body, h.opts.MaxBytes)
	if err != nil {
		return nil, ctx.Err() == nil && !isTooLarge(err), err
	}

	return &models.ImageBlob{
		Data:        data,
		Name:        nameFromURL(resp.Request.URL),
		ContentType: resp.Header.Get("Content-Type"),
		Source:      ref,
	}, false, nil
}

func nameFromURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	return baseName(u.Path)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
