// Package handlers implements AMQP handling functions.

package handlers

import (
	"context"
	"encoding/json"
	"time"

	busamqp "catchall-api/internal/bus/amqp"
	"catchall-api/internal/bus/errors"
	"catchall-api/internal/bus/modelbus"
	"catchall-api/internal/config"
	"catchall-api/internal/constants"
	forwarderErrors "catchall-api/internal/forwarder/errors"
	"catchall-api/internal/forwarder/forwarder"
	"catchall-api/internal/metrics"
	"catchall-api/internal/storage/v1/psql"
	"catchall-api/internal/syncutils"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	republishCapture = false
	handlerKey       = "amqp"
	captureIDKey     = "captureID"
)

// AMQPHandler defines an AMQP handler object and sets its attributes.
type AMQPHandler struct {
	log       *zerolog.Logger
	amqp      *busamqp.AMQP
	cfg       *config.Config
	storage   *psql.Storage
	forwarder *forwarder.Forwarder
	metrics   *metrics.Metrics
	syncUtils *syncutils.SyncUtils
}

// NewAMQPHandler initializes a new AMQP handling service.
func NewAMQPHandler(logger *zerolog.Logger, storage *psql.Storage, fwd *forwarder.Forwarder, mtr *metrics.Metrics, amqp *busamqp.AMQP, cfg *config.Config, syncUtils *syncutils.SyncUtils) *AMQPHandler {
	logger.Debug().Msg("calling initializer of AMQP handling service")
	return &AMQPHandler{
		log:       logger,
		amqp:      amqp,
		cfg:       cfg,
		storage:   storage,
		forwarder: fwd,
		metrics:   mtr,
		syncUtils: syncUtils,
	}
}

// handleCaptureQueue handles queue message management for forwarding tasks.
func (h *AMQPHandler) handleCaptureQueue(ctx context.Context, d *amqp.Delivery) (string, string, bool, error) {
	h.log.Debug().Msg("calling `handleCaptureQueue` method")
	const handler = "forward"
	ctxMain, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	msg := modelbus.MsgCapture{}
	err := json.Unmarshal(d.Body, &msg)
	if err != nil {
		h.log.Error().Err(err).Msg(errors.AMQPUnmarshallingError)
		return "", "", false, err
	}

	captureID := msg.CaptureID
	targetURL := h.cfg.Forward.TargetURL

	if targetURL == "" {
		err := &forwarderErrors.TargetNotConfiguredError{}
		h.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(errors.AMQPHandlerDeliveryError)
		return captureID, targetURL, false, err
	}

	rec, err := h.storage.GetCapture(ctxMain, captureID)
	if err != nil {
		h.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(errors.AMQPHandlerDeliveryError)
		return captureID, targetURL, false, err
	}

	delivery, err := h.forwarder.Forward(ctxMain, rec, targetURL)
	if err != nil {
		h.metrics.IncrementCaptureFailure(metrics.StageForward)
		h.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(errors.AMQPHandlerDeliveryError)
		return captureID, targetURL, false, err
	}

	h.log.Info().Str(handlerKey, handler).Str(captureIDKey, captureID).Dict("delivery_data", zerolog.Dict().Str("target_url", delivery.TargetURL).Int("status_code", delivery.StatusCode).Int("attempts", delivery.Attempts).Str("status", delivery.Status)).Msg("forwarding is complete")
	return captureID, targetURL, true, nil
}

// Handle is a master handler starting the sub-handlers.
func (h *AMQPHandler) Handle(ctx context.Context) error {
	h.log.Debug().Msg("calling `Handle` method")
	g := &errgroup.Group{}

	// handling capture queue
	h.syncUtils.Wg.Add(1)
	g.Go(func() error {
		defer h.syncUtils.Wg.Done()
		return h.amqp.AddDeliveryQueueListener(
			ctx,
			republishCapture,
			h.cfg.AMQP.CaptureQueueName,
			h.cfg.AMQP.CaptureExchangeName,
			h.cfg.AMQP.DeliveryExchangeName,
			constants.RunTypeForward,
			h.handleCaptureQueue,
		)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	h.syncUtils.SyncCancel()
	h.syncUtils.Wg.Wait()

	return nil
}
