package limiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestMiddlewareRejectsBurstOverflow(t *testing.T) {
	req := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewIPRateLimiter(ctx, rate.Every(time.Hour), 2)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		r.RemoteAddr = "198.51.100.7:40000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}

	req.Equal([]int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	other.RemoteAddr = "198.51.100.8:40000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	req.Equal(http.StatusNoContent, w.Code)
}

func TestSweepDropsIdleLimiters(t *testing.T) {
	req := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewIPRateLimiter(ctx, rate.Every(time.Hour), 1)
	l.GetLimiter("a")
	l.GetLimiter("b").Allow()

	removed, remaining := l.sweep(time.Now())
	req.Equal(1, removed)
	req.Equal(1, remaining)
}
