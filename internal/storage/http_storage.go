package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "go-photo-qc/internal/errors"
)

// HTTPFetcher downloads images over HTTP(S) with retries on transient errors
type HTTPFetcher struct {
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
	maxBytes    int64
}

// NewHTTPFetcher creates an HTTP fetcher whose requests give up after timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{
		// Connection pooling sized for one image per request
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxAttempts: 3,
		backoff:     time.Second,
		maxBytes:    DefaultMaxImageBytes,
	}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, location string) (*Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, image/bmp, image/tiff, */*")
	req.Header.Set("User-Agent", "photoqc/1.0")

	var lastErr error
	for attempt := 0; attempt < h.maxAttempts; attempt++ {
		if attempt > 0 {
			// Linear backoff between retries
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("download canceled", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		blob, retry, err := h.try(req)
		if err == nil {
			return blob, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}
	return nil, apperrors.NewNetworkError(
		fmt.Sprintf("failed to fetch image after %d attempts", h.maxAttempts), lastErr)
}

// try performs one request. The bool reports whether a failure is worth retrying.
func (h *HTTPFetcher) try(req *http.Request) (*Blob, bool, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, false, apperrors.NewTimeoutError("download canceled", err)
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, apperrors.NewImageNotFoundError("image not found at "+req.URL.String(), nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// 4xx client errors are non-retryable
		return nil, false, apperrors.NewNetworkError(fmt.Sprintf("client error: status code %d", resp.StatusCode), nil)
	default:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	}

	data, err := readLimited(resp.Body, h.maxBytes)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			return nil, false, err
		}
		return nil, true, err
	}
	return &Blob{
		Location:    req.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, false, nil
}
