package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedHandler(t *testing.T, max int, window time.Duration) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mw := RateLimit(ctx, RateLimitConfig{
		Max:    max,
		Window: window,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-Test-Client")
		},
	})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(h http.Handler, client string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Test-Client", client)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsUpToMax(t *testing.T) {
	h := newLimitedHandler(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		rec := doRequest(h, "a")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := doRequest(h, "a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	h := newLimitedHandler(t, 1, time.Minute)

	require.Equal(t, http.StatusOK, doRequest(h, "a").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(h, "a").Code)

	assert.Equal(t, http.StatusOK, doRequest(h, "b").Code)
}

func TestRateLimit_WindowResets(t *testing.T) {
	h := newLimitedHandler(t, 1, 50*time.Millisecond)

	require.Equal(t, http.StatusOK, doRequest(h, "a").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(h, "a").Code)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, http.StatusOK, doRequest(h, "a").Code)
}

func TestRateLimit_Headers(t *testing.T) {
	h := newLimitedHandler(t, 5, time.Minute)

	rec := doRequest(h, "a")
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}
