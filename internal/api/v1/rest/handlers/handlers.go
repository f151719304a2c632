// Package handlers implements handling functions for HTTP endpoints.

// @title Catchall REST API
// @desc Catchall service echoing and recording arbitrary HTTP requests.
//
// @contact.name Kirill Danilov
// @contact.email danilov@atlasbiomed.com
//
// @ver 1.0.0
// @server https://catchall.domain.dev.com Production API
// @server https://catchall.domain.prod.com Development API

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"catchall-api/internal/api/v1/errors"
	"catchall-api/internal/api/v1/modeldto"
	"catchall-api/internal/api/v1/rest/middleware"
	"catchall-api/internal/config"
	"catchall-api/internal/constants"
	"catchall-api/internal/forwarder/forwarder"
	"catchall-api/internal/metrics"
	"catchall-api/internal/recorder/modelcapture"
	"catchall-api/internal/recorder/recorder"

	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	handlerKey   = "handler"
	captureIDKey = "captureID"
)

// EndpointHandlers defines URLHandler object structure.
type EndpointHandlers struct {
	log       *zerolog.Logger
	cfg       *config.Config
	recorder  *recorder.Recorder
	forwarder *forwarder.Forwarder
	metrics   *metrics.Metrics
}

// NewEndpointHandlers initializes EndpointHandlers object setting its attributes.
func NewEndpointHandlers(
	cfg *config.Config,
	logger *zerolog.Logger,
	rec *recorder.Recorder,
	fwd *forwarder.Forwarder,
	mtr *metrics.Metrics,
) *EndpointHandlers {
	logger.Debug().Msg("calling initializer of HTTP handling service")
	return &EndpointHandlers{cfg: cfg, log: logger, recorder: rec, forwarder: fwd, metrics: mtr}
}

// Router assembles the full HTTP surface: the reserved inspection subtree and
// the catchall wildcard for every captured method.
func (h *EndpointHandlers) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogHandle(h.log, h.metrics))
	r.Use(middleware.RateLimitHandle(middleware.NewRateLimiter(h.cfg.Capture.RequestsPerSecond, h.cfg.Capture.BurstSize), h.metrics))
	r.Use(middleware.CompressHandle)
	r.Use(middleware.DecompressHandle)

	r.Route(constants.ReservedPathPrefix, func(r chi.Router) {
		r.Get("/captures", h.GetCapturesHandle)
		r.Get("/captures/{captureID}", h.GetCaptureHandle)
		r.Get("/deliveries", h.GetDeliveriesHandle)
		r.Get("/stats", h.GetStatsHandle)
		r.Get("/health", h.GetHealthHandle)
		r.Mount("/metrics", h.metrics.Handler())
		r.Mount("/doc", httpSwagger.WrapHandler)
	})

	for _, method := range constants.CapturedMethods {
		r.MethodFunc(method, "/*", h.CatchallHandle)
	}

	return r
}

// CatchallHandle echoes any request back and records it in the background.
// @summary Catchall echo request
// @desc Echo method, path and query parameters of an arbitrary request
// @id catchall
// @produce json
// @success 200 {object} modeldto.ResponseCatchall
// @failure 429 {string} Too many requests
// @failure 500 {string} Internal Server Error
// @router / [get]
func (h *EndpointHandlers) CatchallHandle(w http.ResponseWriter, r *http.Request) {
	const handler = "catchall"

	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()

	body, err := io.ReadAll(io.LimitReader(r.Body, h.cfg.Capture.MaxBodyBytes+1))
	if err != nil {
		h.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.RequestBodyReadingError)
		http.Error(w, errors.RequestBodyReadingError, http.StatusBadRequest)
		return
	}
	truncated := false
	if int64(len(body)) > h.cfg.Capture.MaxBodyBytes {
		body = body[:h.cfg.Capture.MaxBodyBytes]
		truncated = true
	}

	rec := modelcapture.NewCaptureRecord(r, body, truncated)
	h.metrics.ObserveCaptureBytes(float64(len(body)))
	h.recorder.Record(ctx, rec, handler)

	responseCatchall := modeldto.ResponseCatchall{
		Method:      rec.Method,
		Path:        rec.Path,
		QueryParams: rec.Query,
	}
	resBody, err := json.Marshal(responseCatchall)
	if err != nil {
		h.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.MarshallingError)
		http.Error(w, errors.MarshallingError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Capture-Id", rec.CaptureID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resBody)
	h.log.Info().Str(handlerKey, handler).Str(captureIDKey, rec.CaptureID).Msg("response sent")
}

// GetCaptureHandle handles requests to get one recorded capture.
// @summary Get capture request
// @desc Get one recorded capture by its identifier
// @id getCapture
// @produce json
// @param captureID path string true "Capture ID to look up"
// @success 200 {object} modeldto.ResponseCapture
// @failure 404 {string} Not found
// @failure 417 {string} Expectation failed
// @failure 500 {string} Internal Server Error
// @router /_api/v1/captures/{captureID} [get]
func (h *EndpointHandlers) GetCaptureHandle(w http.ResponseWriter, r *http.Request) {
	const handler = "get-capture"

	h.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("HTTP: %s endpoint hit", handler))

	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()

	captureID := chi.URLParam(r, "captureID")

	rec, httpStatus, errorCode := h.recorder.Lookup(ctx, captureID, handler)
	if rec == nil {
		http.Error(w, errorCode, httpStatus)
		return
	}

	responseCapture := newResponseCapture(rec)
	resBody, err := json.Marshal(responseCapture)
	if err != nil {
		h.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(errors.MarshallingError)
		http.Error(w, errors.MarshallingError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resBody)
	h.log.Info().Str(handlerKey, handler).Str(captureIDKey, captureID).Msg("response sent")
}

// GetCapturesHandle handles requests to list recent captures.
// @summary List captures request
// @desc List most recent captures in reverse insertion order
// @id getCaptures
// @produce json
// @param limit query int false "Maximum number of captures to return"
// @success 200 {object} modeldto.ResponseCaptureList
// @failure 400 {string} Bad request
// @failure 417 {string} Expectation failed
// @failure 500 {string} Internal Server Error
// @router /_api/v1/captures [get]
func (h *EndpointHandlers) GetCapturesHandle(w http.ResponseWriter, r *http.Request) {
	const handler = "get-captures"

	h.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("HTTP: %s endpoint hit", handler))

	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()

	limit, err := parseLimit(r)
	if err != nil {
		h.log.Warn().Err(err).Str(handlerKey, handler).Msg(errors.InvalidLimitError)
		http.Error(w, errors.InvalidLimitError, http.StatusBadRequest)
		return
	}

	recs, httpStatus, errorCode := h.recorder.Recent(ctx, limit, handler)
	if recs == nil && errorCode != "" {
		http.Error(w, errorCode, httpStatus)
		return
	}

	responseCaptureList := modeldto.ResponseCaptureList{
		Captures: make([]modeldto.ResponseCapture, 0, len(recs)),
		Count:    len(recs),
	}
	for i := range recs {
		responseCaptureList.Captures = append(responseCaptureList.Captures, *newResponseCapture(&recs[i]))
	}

	resBody, err := json.Marshal(responseCaptureList)
	if err != nil {
		h.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.MarshallingError)
		http.Error(w, errors.MarshallingError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resBody)
	h.log.Info().Str(handlerKey, handler).Msg("response sent")
}

// GetDeliveriesHandle handles requests to list recent forwarding deliveries.
// @summary List deliveries request
// @desc List most recent forwarding deliveries, newest first
// @id getDeliveries
// @produce json
// @param limit query int false "Maximum number of deliveries to return"
// @success 200 {object} modeldto.ResponseDeliveryList
// @failure 400 {string} Bad request
// @failure 500 {string} Internal Server Error
// @router /_api/v1/deliveries [get]
func (h *EndpointHandlers) GetDeliveriesHandle(w http.ResponseWriter, r *http.Request) {
	const handler = "get-deliveries"

	h.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("HTTP: %s endpoint hit", handler))

	limit, err := parseLimit(r)
	if err != nil {
		h.log.Warn().Err(err).Str(handlerKey, handler).Msg(errors.InvalidLimitError)
		http.Error(w, errors.InvalidLimitError, http.StatusBadRequest)
		return
	}

	deliveries := h.forwarder.History(limit)
	responseDeliveryList := modeldto.ResponseDeliveryList{
		Deliveries: make([]modeldto.ResponseDelivery, 0, len(deliveries)),
		Count:      len(deliveries),
	}
	for _, delivery := range deliveries {
		responseDeliveryList.Deliveries = append(responseDeliveryList.Deliveries, modeldto.ResponseDelivery{
			DeliveryID: delivery.DeliveryID,
			CaptureID:  delivery.CaptureID,
			TargetURL:  delivery.TargetURL,
			Status:     delivery.Status,
			StatusCode: delivery.StatusCode,
			Error:      delivery.Error,
			DurationMS: delivery.Duration.Milliseconds(),
			Attempts:   delivery.Attempts,
			CreatedAt:  delivery.CreatedAt,
		})
	}

	resBody, err := json.Marshal(responseDeliveryList)
	if err != nil {
		h.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.MarshallingError)
		http.Error(w, errors.MarshallingError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resBody)
	h.log.Info().Str(handlerKey, handler).Msg("response sent")
}

// GetStatsHandle handles requests to get capture statistics.
// @summary Get statistics request
// @desc Get capture totals per method and cache counters
// @id getStats
// @produce json
// @success 200 {object} modeldto.ResponseStats
// @failure 417 {string} Expectation failed
// @failure 500 {string} Internal Server Error
// @router /_api/v1/stats [get]
func (h *EndpointHandlers) GetStatsHandle(w http.ResponseWriter, r *http.Request) {
	const handler = "get-stats"

	h.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("HTTP: %s endpoint hit", handler))

	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()

	stats, httpStatus, errorCode := h.recorder.Stats(ctx, handler)
	if stats == nil {
		http.Error(w, errorCode, httpStatus)
		return
	}

	responseStats := modeldto.ResponseStats{
		TotalCaptures:  stats.TotalCaptures,
		ByMethod:       stats.ByMethod,
		CacheEntries:   stats.CacheEntries,
		CacheHits:      stats.CacheHits,
		CacheMisses:    stats.CacheMisses,
		CacheEvictions: stats.CacheEvictions,
	}
	resBody, err := json.Marshal(responseStats)
	if err != nil {
		h.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.MarshallingError)
		http.Error(w, errors.MarshallingError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resBody)
	h.log.Info().Str(handlerKey, handler).Msg("response sent")
}

// GetHealthHandle handles liveness requests.
// @summary Health request
// @desc Report service liveness and version
// @id getHealth
// @produce json
// @success 200 {object} modeldto.ResponseHealth
// @router /_api/v1/health [get]
func (h *EndpointHandlers) GetHealthHandle(w http.ResponseWriter, r *http.Request) {
	const handler = "get-health"

	responseHealth := modeldto.ResponseHealth{Status: "ok", Version: constants.Version}
	resBody, err := json.Marshal(responseHealth)
	if err != nil {
		h.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.MarshallingError)
		http.Error(w, errors.MarshallingError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resBody)
}

// parseLimit reads the optional limit query parameter. Zero means unset.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if limit < 0 {
		return 0, fmt.Errorf("limit must not be negative: %d", limit)
	}
	return limit, nil
}

func newResponseCapture(rec *modelcapture.CaptureRecord) *modeldto.ResponseCapture {
	return &modeldto.ResponseCapture{
		CaptureID:     rec.CaptureID,
		Method:        rec.Method,
		Path:          rec.Path,
		QueryParams:   rec.Query,
		Headers:       rec.Headers,
		Body:          rec.Body,
		BodyTruncated: rec.BodyTruncated,
		RemoteAddr:    rec.RemoteAddr,
		ReceivedAt:    rec.ReceivedAt,
	}
}
