package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

func TestHTTPSourceFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Hanoi", r.URL.Query().Get("city"))
		w.Write([]byte(`{"places":[]}`))
	}))
	defer server.Close()

	source := NewHTTPSource("places", server.URL, server.Client())
	assert.Equal(t, "places", source.Name())

	payload, err := source.Fetch(context.Background(), map[string]string{"city": "Hanoi"})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"places":[]}`), payload)
}

func TestHTTPSourceStatusHandling(t *testing.T) {
	var status atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	source := NewHTTPSource("places", server.URL, server.Client())
	ctx := context.Background()

	status.Store(http.StatusInternalServerError)
	_, err := source.Fetch(ctx, nil)
	require.Error(t, err)
	assert.True(t, types.IsRetryable(err), "5xx is transient")

	status.Store(http.StatusTooManyRequests)
	_, err = source.Fetch(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, types.FETCH_RATE_LIMITED, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))

	status.Store(http.StatusNotFound)
	_, err = source.Fetch(ctx, nil)
	require.Error(t, err)
	assert.False(t, types.IsRetryable(err), "4xx will not improve on retry")
}

func TestHTTPSourceNoEndpoint(t *testing.T) {
	source := NewHTTPSource("weather", "", nil)
	_, err := source.Fetch(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, types.FETCH_FAILED, types.CodeOf(err))
	assert.False(t, types.IsRetryable(err))
}
