package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"catchall-api/internal/cache"
	"catchall-api/internal/config"
	"catchall-api/internal/forwarder/forwarder"
	"catchall-api/internal/metrics"
	"catchall-api/internal/recorder/modelcapture"
	"catchall-api/internal/recorder/recorder"
	storageErrors "catchall-api/internal/storage/errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	captures map[string]*modelcapture.CaptureRecord
	order    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{captures: make(map[string]*modelcapture.CaptureRecord)}
}

func (f *fakeStore) AddCapture(_ context.Context, rec *modelcapture.CaptureRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures[rec.CaptureID] = rec
	f.order = append(f.order, rec.CaptureID)
	return nil
}

func (f *fakeStore) GetCapture(_ context.Context, captureID string) (*modelcapture.CaptureRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.captures[captureID]
	if !ok {
		return nil, &storageErrors.NotFoundError{}
	}
	return rec, nil
}

func (f *fakeStore) GetRecentCaptures(_ context.Context, limit int) ([]modelcapture.CaptureRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := make([]modelcapture.CaptureRecord, 0, limit)
	for i := len(f.order) - 1; i >= 0 && len(recs) < limit; i-- {
		recs = append(recs, *f.captures[f.order[i]])
	}
	return recs, nil
}

func (f *fakeStore) CountCaptures(_ context.Context) (int64, map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byMethod := make(map[string]int64)
	for _, rec := range f.captures {
		byMethod[rec.Method]++
	}
	return int64(len(f.captures)), byMethod, nil
}

func (f *fakeStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.captures)
}

type disabledPublisher struct{}

func (disabledPublisher) Enabled() bool { return false }

func (disabledPublisher) PublishToExchange(string, amqp.Publishing) error { return nil }

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Capture.MaxBodyBytes = 65536
	cfg.Capture.CacheCapacity = 64
	cfg.Capture.RequestsPerSecond = 1000
	cfg.Capture.BurstSize = 1000
	cfg.Forward.MaxRetries = 1
	cfg.AMQP.CaptureExchangeName = "capture_exchange"
	return cfg
}

func newTestHandlers(cfg *config.Config) (*EndpointHandlers, *fakeStore) {
	log := zerolog.Nop()
	store := newFakeStore()
	mtr := metrics.NewMetrics(&log)
	rec := recorder.NewRecorder(&log, cfg, store, cache.NewLRU(cfg.Capture.CacheCapacity), disabledPublisher{}, mtr)
	fwd := forwarder.NewForwarder(cfg, &log)
	return NewEndpointHandlers(cfg, &log, rec, fwd, mtr), store
}

func doRequest(t *testing.T, router http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCatchallHandle(t *testing.T) {
	h, _ := newTestHandlers(newTestConfig())
	router := h.Router()

	t.Run("echoes a bare GET on the root path", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"method":"GET","path":"/","query_params":{}}`, rec.Body.String())
	})

	t.Run("echoes the request path", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/some/nested/path", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"method":"GET","path":"/some/nested/path","query_params":{}}`, rec.Body.String())
	})

	t.Run("echoes every captured method", func(t *testing.T) {
		for _, method := range []string{http.MethodDelete, http.MethodGet, http.MethodPatch, http.MethodPost, http.MethodPut} {
			rec := doRequest(t, router, method, "/some/path", "")
			require.Equal(t, http.StatusOK, rec.Code, method)
			assert.JSONEq(t, fmt.Sprintf(`{"method":%q,"path":"/some/path","query_params":{}}`, method), rec.Body.String())
		}
	})

	t.Run("echoes query parameters", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/search?flag=enabled&page=2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"method":"GET","path":"/search","query_params":{"flag":"enabled","page":"2"}}`, rec.Body.String())
	})

	t.Run("keeps the last occurrence of a repeated query key", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/search?key=first&other=x&key=last", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"method":"GET","path":"/search","query_params":{"key":"last","other":"x"}}`, rec.Body.String())
	})

	t.Run("rejects a method outside the captured set", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodHead, "/some/path", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("tags every response with a capture identifier", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/hooks/github", `{"action":"push"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Capture-Id"))
	})

	t.Run("records the request for later inspection", func(t *testing.T) {
		h, store := newTestHandlers(newTestConfig())
		router := h.Router()

		rec := doRequest(t, router, http.MethodPost, "/hooks/github?ref=main", `{"action":"push"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		captureID := rec.Header().Get("X-Capture-Id")
		require.NotEmpty(t, captureID)
		require.Equal(t, 1, store.len())

		lookup := doRequest(t, router, http.MethodGet, "/_api/v1/captures/"+captureID, "")
		require.Equal(t, http.StatusOK, lookup.Code)

		var capture struct {
			CaptureID   string            `json:"capture_id"`
			Method      string            `json:"method"`
			Path        string            `json:"path"`
			QueryParams map[string]string `json:"query_params"`
			Body        string            `json:"body"`
		}
		require.NoError(t, json.Unmarshal(lookup.Body.Bytes(), &capture))
		assert.Equal(t, captureID, capture.CaptureID)
		assert.Equal(t, "POST", capture.Method)
		assert.Equal(t, "/hooks/github", capture.Path)
		assert.Equal(t, map[string]string{"ref": "main"}, capture.QueryParams)
		assert.Equal(t, `{"action":"push"}`, capture.Body)
	})

	t.Run("truncates an oversized body", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Capture.MaxBodyBytes = 8
		h, _ := newTestHandlers(cfg)
		router := h.Router()

		rec := doRequest(t, router, http.MethodPost, "/big", "0123456789abcdef")
		require.Equal(t, http.StatusOK, rec.Code)
		captureID := rec.Header().Get("X-Capture-Id")

		lookup := doRequest(t, router, http.MethodGet, "/_api/v1/captures/"+captureID, "")
		require.Equal(t, http.StatusOK, lookup.Code)

		var capture struct {
			Body          string `json:"body"`
			BodyTruncated bool   `json:"body_truncated"`
		}
		require.NoError(t, json.Unmarshal(lookup.Body.Bytes(), &capture))
		assert.Equal(t, "01234567", capture.Body)
		assert.True(t, capture.BodyTruncated)
	})

	t.Run("does not capture the reserved subtree", func(t *testing.T) {
		h, store := newTestHandlers(newTestConfig())
		router := h.Router()

		rec := doRequest(t, router, http.MethodGet, "/_api/v1/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, store.len())
	})
}

func TestGetCapturesHandle(t *testing.T) {
	h, _ := newTestHandlers(newTestConfig())
	router := h.Router()

	for i := 0; i < 3; i++ {
		rec := doRequest(t, router, http.MethodPut, fmt.Sprintf("/items/%d", i), "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	t.Run("lists recorded captures newest first", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/_api/v1/captures?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var list struct {
			Captures []struct {
				Path string `json:"path"`
			} `json:"captures"`
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, 2, list.Count)
		require.Len(t, list.Captures, 2)
		assert.Equal(t, "/items/2", list.Captures[0].Path)
		assert.Equal(t, "/items/1", list.Captures[1].Path)
	})

	t.Run("rejects a malformed limit", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/_api/v1/captures?limit=lots", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a negative limit", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/_api/v1/captures?limit=-5", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetCaptureHandle(t *testing.T) {
	h, _ := newTestHandlers(newTestConfig())
	router := h.Router()

	t.Run("reports an unknown captureID", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/_api/v1/captures/0b05f3e0-6ed3-4d63-a7b9-0a1f2ffdb0e5", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetStatsHandle(t *testing.T) {
	h, _ := newTestHandlers(newTestConfig())
	router := h.Router()

	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/a", "").Code)
	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/b", "").Code)
	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/c", "").Code)

	rec := doRequest(t, router, http.MethodGet, "/_api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		TotalCaptures int64            `json:"total_captures"`
		ByMethod      map[string]int64 `json:"by_method"`
		CacheEntries  int              `json:"cache_entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 3, stats.TotalCaptures)
	assert.EqualValues(t, 2, stats.ByMethod["GET"])
	assert.EqualValues(t, 1, stats.ByMethod["POST"])
	assert.Equal(t, 3, stats.CacheEntries)
}

func TestGetDeliveriesHandle(t *testing.T) {
	h, _ := newTestHandlers(newTestConfig())
	router := h.Router()

	t.Run("returns an empty history", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/_api/v1/deliveries", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"deliveries":[],"count":0}`, rec.Body.String())
	})
}

func TestGetHealthHandle(t *testing.T) {
	h, _ := newTestHandlers(newTestConfig())
	router := h.Router()

	rec := doRequest(t, router, http.MethodGet, "/_api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Version)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestHandlers(newTestConfig())
	router := h.Router()

	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/observed", "").Code)

	rec := doRequest(t, router, http.MethodGet, "/_api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `catchall_requests_total{method="GET",status="200"}`)
	assert.Contains(t, rec.Body.String(), "catchall_capture_bytes_count")
}
