package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// maxResponseBytes caps how much of a source response is read. External
// sources are untrusted; a runaway body must not exhaust memory.
const maxResponseBytes = 4 << 20

// HTTPSource fetches JSON payloads from a configured HTTP endpoint. Request
// params become query parameters. Server errors and throttling are reported
// as retryable so the client's backoff applies; client errors are not.
type HTTPSource struct {
	name     string
	endpoint string
	client   *http.Client
}

// NewHTTPSource creates a source for the named endpoint. A nil client gets a
// default with a 10 second timeout.
func NewHTTPSource(name, endpoint string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{name: name, endpoint: endpoint, client: client}
}

// Name returns the source name used in cache keys and TTL lookup.
func (s *HTTPSource) Name() string { return s.name }

// Fetch performs one GET against the endpoint.
func (s *HTTPSource) Fetch(ctx context.Context, params map[string]string) ([]byte, error) {
	if s.endpoint == "" {
		return nil, types.NewError(types.FETCH_FAILED,
			fmt.Sprintf("no endpoint configured for source %s", s.name))
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, types.WrapError(types.FETCH_FAILED, "invalid endpoint for source "+s.name, err)
	}
	query := u.Query()
	for key, value := range params {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, types.WrapError(types.FETCH_FAILED, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, types.NewRetryableError(types.FETCH_FAILED,
			fmt.Sprintf("source %s unreachable: %v", s.name, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.NewRetryableError(types.FETCH_RATE_LIMITED,
			fmt.Sprintf("source %s throttled the request", s.name))
	case resp.StatusCode >= 500:
		return nil, types.NewRetryableError(types.FETCH_FAILED,
			fmt.Sprintf("source %s returned status %d", s.name, resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, types.NewError(types.FETCH_FAILED,
			fmt.Sprintf("source %s rejected the request with status %d", s.name, resp.StatusCode))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, types.NewRetryableError(types.FETCH_FAILED,
			fmt.Sprintf("failed to read response from source %s: %v", s.name, err))
	}
	return payload, nil
}
