package middleware

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catchall-api/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *metrics.Metrics {
	log := zerolog.Nop()
	return metrics.NewMetrics(&log)
}

func echoBodyHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(body)
	})
}

func TestDecompressHandle(t *testing.T) {
	t.Run("passes a plain body through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain payload"))
		rec := httptest.NewRecorder()

		DecompressHandle(echoBodyHandler(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "plain payload", rec.Body.String())
	})

	t.Run("decodes a gzip body", func(t *testing.T) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write([]byte("compressed payload"))
		require.NoError(t, err)
		require.NoError(t, gz.Close())

		req := httptest.NewRequest(http.MethodPost, "/", &buf)
		req.Header.Set("Content-Encoding", "gzip")
		rec := httptest.NewRecorder()

		DecompressHandle(echoBodyHandler(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "compressed payload", rec.Body.String())
	})

	t.Run("rejects a broken gzip body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip at all"))
		req.Header.Set("Content-Encoding", "gzip")
		rec := httptest.NewRecorder()

		DecompressHandle(echoBodyHandler(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCompressHandle(t *testing.T) {
	t.Run("compresses when the client accepts gzip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()

		CompressHandle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("response payload"))
		})).ServeHTTP(rec, req)

		require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		gz, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		decoded, err := io.ReadAll(gz)
		require.NoError(t, err)
		assert.Equal(t, "response payload", string(decoded))
	})

	t.Run("leaves the response alone otherwise", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		CompressHandle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("response payload"))
		})).ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, "response payload", rec.Body.String())
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("allows within limit", func(t *testing.T) {
		rl := NewRateLimiter(10, 10)
		for i := 0; i < 10; i++ {
			assert.True(t, rl.Allow("10.0.0.1"))
		}
	})

	t.Run("blocks over limit", func(t *testing.T) {
		rl := NewRateLimiter(1, 2)
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.False(t, rl.Allow("10.0.0.1"))
		assert.True(t, rl.Allow("10.0.0.2"))
	})

	t.Run("prevents unlimited growth", func(t *testing.T) {
		rl := NewRateLimiter(100, 200)
		for i := 0; i < maxTrackedClients+1; i++ {
			rl.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		}

		rl.mu.Lock()
		count := len(rl.limiters)
		rl.mu.Unlock()

		assert.LessOrEqual(t, count, maxTrackedClients)
	})
}

func TestRateLimitHandle(t *testing.T) {
	t.Run("rejects a client over budget", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		mtr := newTestMetrics()
		handler := RateLimitHandle(rl, mtr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:55000"

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, req)
		assert.Equal(t, http.StatusOK, first.Code)

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, req)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
	})
}

func TestRequestLogHandle(t *testing.T) {
	t.Run("passes the request through and counts it", func(t *testing.T) {
		log := zerolog.Nop()
		mtr := newTestMetrics()
		handler := RequestLogHandle(&log, mtr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("done"))
		}))

		req := httptest.NewRequest(http.MethodPost, "/things", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "done", rec.Body.String())

		scrape := httptest.NewRecorder()
		mtr.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Contains(t, scrape.Body.String(), `catchall_requests_total{method="POST",status="201"} 1`)
	})
}
