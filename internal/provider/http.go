package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"sentiment-lens/internal/domain"
)

const maxErrorBody = 512

// StatusError is a non-200 upstream response.
type StatusError struct {
	Source string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Source, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return domain.ErrSourceUnavailable
}

// getBody performs a GET and returns the response body. Transport failures
// and non-200 responses both wrap domain.ErrSourceUnavailable.
func getBody(ctx context.Context, client *http.Client, limiter *RateLimiter, source, url string, headers map[string]string) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s rate limit wait: %w", domain.ErrSourceUnavailable, source, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build %s request: %w", domain.ErrInvalidRequest, source, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request: %w", domain.ErrSourceUnavailable, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Source: source, Code: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", domain.ErrSourceUnavailable, source, err)
	}
	return body, nil
}
