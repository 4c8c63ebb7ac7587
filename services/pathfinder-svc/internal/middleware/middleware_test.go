package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anyangle/pkg/apperror"
	"anyangle/pkg/logger"
	"anyangle/pkg/metrics"
	"anyangle/pkg/ratelimit"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) apperror.Body {
	t.Helper()
	var body apperror.Body
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(okHandler), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
	})

	t.Run("oversized header replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("x", 200))
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Len(t, seen, 36)
	})
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.ContextWithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()

	WriteError(rec, req, apperror.NewWithField(apperror.CodeInvalidGrid, "ragged rows", "grid"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, apperror.CodeInvalidGrid, body.Code)
	assert.Equal(t, "grid", body.Field)
	assert.Equal(t, "req-1", body.RequestID)
}

func TestLogging_PassesThrough(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestStatusRecorder_FirstCodeWins(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	_, _ = rec.Write([]byte("ok"))
	rec.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, rec.status)
}

func TestMetrics(t *testing.T) {
	m := metrics.NewIsolated("test", "")
	tracker := metrics.NewRequestTracker(m.HTTPRequestsInFlight)

	var active int
	h := Metrics(m, tracker, "/v1/paths")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		active = tracker.Active("/v1/paths")
		w.WriteHeader(http.StatusCreated)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/paths", nil))

	assert.Equal(t, 1, active)
	assert.Equal(t, 0, tracker.Active("/v1/paths"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/v1/paths", "201")))
}

func TestRecover(t *testing.T) {
	h := RequestID(Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.NotEmpty(t, body.RequestID)
}

func TestMaxBytes(t *testing.T) {
	var readErr error
	h := MaxBytes(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))

	var maxErr *http.MaxBytesError
	assert.True(t, errors.As(readErr, &maxErr))
}

// =============================================================================
// Rate limiting
// =============================================================================

type stubLimiter struct {
	decision *ratelimit.Decision
	err      error
	keys     []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (*ratelimit.Decision, error) {
	s.keys = append(s.keys, key)
	return s.decision, s.err
}

func (s *stubLimiter) Reset(context.Context, string) error { return nil }
func (s *stubLimiter) Close() error                        { return nil }

func TestRateLimit_Allowed(t *testing.T) {
	limiter := &stubLimiter{decision: &ratelimit.Decision{Allowed: true, Limit: 10, Remaining: 9}}
	h := RateLimit(RateLimitConfig{Limiter: limiter})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodPost, "/v1/paths", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, []string{"/v1/paths:10.0.0.1"}, limiter.keys)
}

func TestRateLimit_Rejected(t *testing.T) {
	m := metrics.NewIsolated("test", "")
	limiter := &stubLimiter{decision: &ratelimit.Decision{Limit: 10, RetryAfter: 1500 * time.Millisecond}}
	h := RateLimit(RateLimitConfig{Limiter: limiter, Metrics: m})(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/paths", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, apperror.CodeRateLimited, decodeBody(t, rec).Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ShortCircuitedTotal.WithLabelValues("rate_limited")))
	assert.Empty(t, apperror.ErrRateLimited.Details)
}

func TestRateLimit_FailOpenAndExclusions(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	h := RateLimit(RateLimitConfig{
		Limiter:      limiter,
		ExcludePaths: map[string]bool{"/health": true},
	})(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/algorithms", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, limiter.keys, 1)
}

func TestRateLimit_NilLimiter(t *testing.T) {
	h := RateLimit(RateLimitConfig{})(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
