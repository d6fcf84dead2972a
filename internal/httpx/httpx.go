package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxAttempts = 2
	retryDelay  = 500 * time.Millisecond
)

// Get performs a GET with a single retry on transport failure or a
// retryable status. The body is always fully read so the underlying
// connection can be reused by http.Transport.
func Get(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, int, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("build request: %w", err)
		}
		for key, values := range header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("read body: %w", readErr)
			case retryable(resp.StatusCode) && attempt < maxAttempts:
				lastErr = fmt.Errorf("status %s", resp.Status)
			default:
				return body, resp.StatusCode, nil
			}
		}

		if attempt < maxAttempts {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			}
		}
	}

	return nil, 0, lastErr
}

func retryable(status int) bool {
	return status >= http.StatusInternalServerError ||
		status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout
}
