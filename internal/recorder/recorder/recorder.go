// Package recorder provides intermediary functionality for HTTP and AMQP handlers.

package recorder

import (
	"context"
	"encoding/json"
	goErrors "errors"
	"net/http"

	"catchall-api/internal/bus/modelbus"
	"catchall-api/internal/config"
	"catchall-api/internal/metrics"
	"catchall-api/internal/recorder/errors"
	"catchall-api/internal/recorder/modelcapture"
	storageErrors "catchall-api/internal/storage/errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	handlerKey   = "handler"
	captureIDKey = "captureID"

	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// CaptureStore is the persistence surface the recorder relies on.
type CaptureStore interface {
	AddCapture(ctx context.Context, rec *modelcapture.CaptureRecord) error
	GetCapture(ctx context.Context, captureID string) (*modelcapture.CaptureRecord, error)
	GetRecentCaptures(ctx context.Context, limit int) ([]modelcapture.CaptureRecord, error)
	CountCaptures(ctx context.Context) (int64, map[string]int64, error)
}

// CaptureCache is the in-memory lookup surface the recorder relies on.
type CaptureCache interface {
	Get(captureID string) (*modelcapture.CaptureRecord, bool)
	Put(rec *modelcapture.CaptureRecord)
	Len() int
	Stats() (hits, misses, evictions int64)
}

// CapturePublisher is the bus surface the recorder relies on.
type CapturePublisher interface {
	Enabled() bool
	PublishToExchange(exchange string, msg amqp.Publishing) error
}

// Stats aggregates persistence and cache counters for the inspection API.
type Stats struct {
	TotalCaptures  int64
	ByMethod       map[string]int64
	CacheEntries   int
	CacheHits      int64
	CacheMisses    int64
	CacheEvictions int64
}

// Recorder defines a Recorder object and sets its attributes.
type Recorder struct {
	log     *zerolog.Logger
	cfg     *config.Config
	storage CaptureStore
	cache   CaptureCache
	bus     CapturePublisher
	metrics *metrics.Metrics
}

// NewRecorder initializes a Recorder object.
func NewRecorder(
	logger *zerolog.Logger,
	cfg *config.Config,
	storage CaptureStore,
	cache CaptureCache,
	bus CapturePublisher,
	mtr *metrics.Metrics) *Recorder {
	logger.Debug().Msg("calling initializer of recorder service")
	return &Recorder{
		log:     logger,
		cfg:     cfg,
		storage: storage,
		cache:   cache,
		bus:     bus,
		metrics: mtr,
	}
}

// Record persists one capture and notifies the bus. Both sides are best
// effort: the catchall response must never depend on backend availability, so
// failures are logged and counted but not returned.
func (r *Recorder) Record(ctx context.Context, rec *modelcapture.CaptureRecord, handler string) {
	r.log.Debug().Msg("calling `Record` method")

	r.cache.Put(rec)

	if err := r.storage.AddCapture(ctx, rec); err != nil {
		r.metrics.IncrementCaptureFailure(metrics.StageStore)
		r.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, rec.CaptureID).Msg(errors.CaptureStoreError)
	}

	if !r.bus.Enabled() {
		return
	}

	msg := modelbus.MsgCapture{
		CaptureID:  rec.CaptureID,
		Method:     rec.Method,
		Path:       rec.Path,
		ReceivedAt: rec.ReceivedAt,
	}
	serialized, err := json.Marshal(msg)
	if err != nil {
		r.metrics.IncrementCaptureFailure(metrics.StagePublish)
		r.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, rec.CaptureID).Msg(errors.CaptureEncodingError)
		return
	}

	publishing := amqp.Publishing{
		ContentType: "application/json",
		Headers:     amqp.Table{},
		Body:        serialized,
	}
	if err := r.bus.PublishToExchange(r.cfg.AMQP.CaptureExchangeName, publishing); err != nil {
		r.metrics.IncrementCaptureFailure(metrics.StagePublish)
		r.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, rec.CaptureID).Msg(errors.CapturePublishError)
	}
}

// Lookup queries one capture by its identifier, cache first.
func (r *Recorder) Lookup(ctx context.Context, captureID, handler string) (*modelcapture.CaptureRecord, int, string) {
	r.log.Debug().Msg("calling `Lookup` method")

	if rec, ok := r.cache.Get(captureID); ok {
		return rec, http.StatusOK, ""
	}

	rec, err := r.storage.GetCapture(ctx, captureID)
	if err != nil {
		var notFound *storageErrors.NotFoundError
		if goErrors.As(err, &notFound) {
			r.log.Warn().Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(errors.CaptureNotFoundError)
			return nil, http.StatusNotFound, errors.CaptureNotFoundError
		}
		r.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(errors.CaptureFetchError)
		return nil, http.StatusExpectationFailed, errors.CaptureFetchError
	}

	r.cache.Put(rec)
	return rec, http.StatusOK, ""
}

// Recent queries the latest captures in reverse insertion order.
func (r *Recorder) Recent(ctx context.Context, limit int, handler string) ([]modelcapture.CaptureRecord, int, string) {
	r.log.Debug().Msg("calling `Recent` method")

	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	recs, err := r.storage.GetRecentCaptures(ctx, limit)
	if err != nil {
		r.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.CaptureListError)
		return nil, http.StatusExpectationFailed, errors.CaptureListError
	}

	return recs, http.StatusOK, ""
}

// Stats aggregates capture totals and cache counters.
func (r *Recorder) Stats(ctx context.Context, handler string) (*Stats, int, string) {
	r.log.Debug().Msg("calling `Stats` method")

	total, byMethod, err := r.storage.CountCaptures(ctx)
	if err != nil {
		r.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.CaptureStatsError)
		return nil, http.StatusExpectationFailed, errors.CaptureStatsError
	}

	hits, misses, evictions := r.cache.Stats()
	return &Stats{
		TotalCaptures:  total,
		ByMethod:       byMethod,
		CacheEntries:   r.cache.Len(),
		CacheHits:      hits,
		CacheMisses:    misses,
		CacheEvictions: evictions,
	}, http.StatusOK, ""
}
