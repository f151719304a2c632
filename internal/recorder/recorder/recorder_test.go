package recorder

import (
	"context"
	"encoding/json"
	goErrors "errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"catchall-api/internal/bus/modelbus"
	"catchall-api/internal/cache"
	"catchall-api/internal/config"
	"catchall-api/internal/metrics"
	recorderErrors "catchall-api/internal/recorder/errors"
	"catchall-api/internal/recorder/modelcapture"
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
	getCalls int
	lastList int
	addErr   error
	getErr   error
	listErr  error
	countErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{captures: make(map[string]*modelcapture.CaptureRecord)}
}

func (f *fakeStore) AddCapture(_ context.Context, rec *modelcapture.CaptureRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.captures[rec.CaptureID] = rec
	f.order = append(f.order, rec.CaptureID)
	return nil
}

func (f *fakeStore) GetCapture(_ context.Context, captureID string) (*modelcapture.CaptureRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.captures[captureID]
	if !ok {
		return nil, &storageErrors.NotFoundError{}
	}
	return rec, nil
}

func (f *fakeStore) GetRecentCaptures(_ context.Context, limit int) ([]modelcapture.CaptureRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	recs := make([]modelcapture.CaptureRecord, 0, limit)
	for i := len(f.order) - 1; i >= 0 && len(recs) < limit; i-- {
		recs = append(recs, *f.captures[f.order[i]])
	}
	return recs, nil
}

func (f *fakeStore) CountCaptures(_ context.Context) (int64, map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, nil, f.countErr
	}
	byMethod := make(map[string]int64)
	for _, rec := range f.captures {
		byMethod[rec.Method]++
	}
	return int64(len(f.captures)), byMethod, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	enabled   bool
	published []amqp.Publishing
	err       error
}

func (f *fakePublisher) Enabled() bool {
	return f.enabled
}

func (f *fakePublisher) PublishToExchange(_ string, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func makeCapture(captureID, method, path string) *modelcapture.CaptureRecord {
	return &modelcapture.CaptureRecord{
		CaptureID:  captureID,
		Method:     method,
		Path:       path,
		Query:      map[string]string{},
		Headers:    map[string]string{},
		ReceivedAt: time.Now().UTC(),
	}
}

func newTestRecorder(store *fakeStore, lru *cache.LRU, pub *fakePublisher) *Recorder {
	log := zerolog.Nop()
	cfg := &config.Config{}
	cfg.AMQP.CaptureExchangeName = "capture_exchange"
	return NewRecorder(&log, cfg, store, lru, pub, metrics.NewMetrics(&log))
}

func TestRecorder_Record(t *testing.T) {
	t.Run("stores capture and publishes a notification", func(t *testing.T) {
		store := newFakeStore()
		lru := cache.NewLRU(8)
		pub := &fakePublisher{enabled: true}
		r := newTestRecorder(store, lru, pub)

		rec := makeCapture("cap-1", "POST", "/hooks/github")
		r.Record(context.Background(), rec, "test")

		require.Contains(t, store.captures, "cap-1")

		cached, ok := lru.Get("cap-1")
		require.True(t, ok)
		assert.Equal(t, "POST", cached.Method)

		require.Len(t, pub.published, 1)
		var msg modelbus.MsgCapture
		require.NoError(t, json.Unmarshal(pub.published[0].Body, &msg))
		assert.Equal(t, "cap-1", msg.CaptureID)
		assert.Equal(t, "POST", msg.Method)
		assert.Equal(t, "/hooks/github", msg.Path)
	})

	t.Run("skips publishing when the bus is disabled", func(t *testing.T) {
		store := newFakeStore()
		pub := &fakePublisher{enabled: false}
		r := newTestRecorder(store, cache.NewLRU(8), pub)

		r.Record(context.Background(), makeCapture("cap-2", "GET", "/"), "test")

		assert.Contains(t, store.captures, "cap-2")
		assert.Empty(t, pub.published)
	})

	t.Run("tolerates a storage failure", func(t *testing.T) {
		store := newFakeStore()
		store.addErr = goErrors.New("connection refused")
		lru := cache.NewLRU(8)
		pub := &fakePublisher{enabled: true}
		r := newTestRecorder(store, lru, pub)

		r.Record(context.Background(), makeCapture("cap-3", "PUT", "/x"), "test")

		_, ok := lru.Get("cap-3")
		assert.True(t, ok)
		assert.Len(t, pub.published, 1)
	})
}

func TestRecorder_Lookup(t *testing.T) {
	t.Run("returns a cached record without hitting storage", func(t *testing.T) {
		store := newFakeStore()
		lru := cache.NewLRU(8)
		r := newTestRecorder(store, lru, &fakePublisher{})

		lru.Put(makeCapture("cap-1", "GET", "/a"))

		rec, status, errCode := r.Lookup(context.Background(), "cap-1", "test")
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, errCode)
		assert.Equal(t, "cap-1", rec.CaptureID)
		assert.Zero(t, store.getCalls)
	})

	t.Run("falls back to storage and caches the result", func(t *testing.T) {
		store := newFakeStore()
		lru := cache.NewLRU(8)
		r := newTestRecorder(store, lru, &fakePublisher{})

		require.NoError(t, store.AddCapture(context.Background(), makeCapture("cap-2", "POST", "/b")))

		rec, status, errCode := r.Lookup(context.Background(), "cap-2", "test")
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, errCode)
		assert.Equal(t, "cap-2", rec.CaptureID)
		assert.Equal(t, 1, store.getCalls)

		_, ok := lru.Get("cap-2")
		assert.True(t, ok)
	})

	t.Run("reports an unknown captureID", func(t *testing.T) {
		r := newTestRecorder(newFakeStore(), cache.NewLRU(8), &fakePublisher{})

		rec, status, errCode := r.Lookup(context.Background(), "missing", "test")
		assert.Nil(t, rec)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, recorderErrors.CaptureNotFoundError, errCode)
	})

	t.Run("reports a storage failure", func(t *testing.T) {
		store := newFakeStore()
		store.getErr = goErrors.New("connection refused")
		r := newTestRecorder(store, cache.NewLRU(8), &fakePublisher{})

		rec, status, errCode := r.Lookup(context.Background(), "cap-3", "test")
		assert.Nil(t, rec)
		assert.Equal(t, http.StatusExpectationFailed, status)
		assert.Equal(t, recorderErrors.CaptureFetchError, errCode)
	})
}

func TestRecorder_Recent(t *testing.T) {
	t.Run("applies the default limit", func(t *testing.T) {
		store := newFakeStore()
		r := newTestRecorder(store, cache.NewLRU(8), &fakePublisher{})

		_, status, errCode := r.Recent(context.Background(), 0, "test")
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, errCode)
		assert.Equal(t, defaultRecentLimit, store.lastList)
	})

	t.Run("clamps an oversized limit", func(t *testing.T) {
		store := newFakeStore()
		r := newTestRecorder(store, cache.NewLRU(8), &fakePublisher{})

		_, status, _ := r.Recent(context.Background(), 10000, "test")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, maxRecentLimit, store.lastList)
	})

	t.Run("returns newest captures first", func(t *testing.T) {
		store := newFakeStore()
		r := newTestRecorder(store, cache.NewLRU(8), &fakePublisher{})

		for _, captureID := range []string{"cap-a", "cap-b", "cap-c"} {
			require.NoError(t, store.AddCapture(context.Background(), makeCapture(captureID, "GET", "/")))
		}

		recs, status, _ := r.Recent(context.Background(), 2, "test")
		require.Equal(t, http.StatusOK, status)
		require.Len(t, recs, 2)
		assert.Equal(t, "cap-c", recs[0].CaptureID)
		assert.Equal(t, "cap-b", recs[1].CaptureID)
	})

	t.Run("reports a storage failure", func(t *testing.T) {
		store := newFakeStore()
		store.listErr = goErrors.New("connection refused")
		r := newTestRecorder(store, cache.NewLRU(8), &fakePublisher{})

		recs, status, errCode := r.Recent(context.Background(), 5, "test")
		assert.Nil(t, recs)
		assert.Equal(t, http.StatusExpectationFailed, status)
		assert.Equal(t, recorderErrors.CaptureListError, errCode)
	})
}

func TestRecorder_Stats(t *testing.T) {
	t.Run("aggregates storage totals and cache counters", func(t *testing.T) {
		store := newFakeStore()
		lru := cache.NewLRU(8)
		r := newTestRecorder(store, lru, &fakePublisher{})

		require.NoError(t, store.AddCapture(context.Background(), makeCapture("cap-1", "GET", "/")))
		require.NoError(t, store.AddCapture(context.Background(), makeCapture("cap-2", "GET", "/")))
		require.NoError(t, store.AddCapture(context.Background(), makeCapture("cap-3", "POST", "/")))

		lru.Put(makeCapture("cap-1", "GET", "/"))
		lru.Get("cap-1")
		lru.Get("missing")

		stats, status, errCode := r.Stats(context.Background(), "test")
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, errCode)
		assert.EqualValues(t, 3, stats.TotalCaptures)
		assert.EqualValues(t, 2, stats.ByMethod["GET"])
		assert.EqualValues(t, 1, stats.ByMethod["POST"])
		assert.Equal(t, 1, stats.CacheEntries)
		assert.EqualValues(t, 1, stats.CacheHits)
		assert.EqualValues(t, 1, stats.CacheMisses)
	})

	t.Run("reports a storage failure", func(t *testing.T) {
		store := newFakeStore()
		store.countErr = goErrors.New("connection refused")
		r := newTestRecorder(store, cache.NewLRU(8), &fakePublisher{})

		stats, status, errCode := r.Stats(context.Background(), "test")
		assert.Nil(t, stats)
		assert.Equal(t, http.StatusExpectationFailed, status)
		assert.Equal(t, recorderErrors.CaptureStatsError, errCode)
	})
}
