// Package forwarder implements delivery of captured requests to an upstream target.

package forwarder

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"catchall-api/internal/config"
	"catchall-api/internal/constants"
	"catchall-api/internal/forwarder/errors"
	"catchall-api/internal/forwarder/modelforward"
	"catchall-api/internal/recorder/modelcapture"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// historyLimit caps the number of retained delivery records.
const historyLimit = 100

// Forwarder defines a delivery service object and sets its attributes.
type Forwarder struct {
	mu         sync.RWMutex
	cfg        *config.Config
	log        *zerolog.Logger
	client     *http.Client
	deliveries []*modelforward.Delivery
}

// NewForwarder initializes a new forwarding service.
func NewForwarder(cfg *config.Config, logger *zerolog.Logger) *Forwarder {
	logger.Debug().Msg("calling initializer of forwarding service")
	return &Forwarder{
		cfg: cfg,
		log: logger,
		client: &http.Client{
			Timeout: cfg.Forward.RequestTimeout,
		},
	}
}

// Forward sends one capture to the target URL retrying up to the configured
// number of attempts. The returned delivery record describes the last attempt.
func (f *Forwarder) Forward(ctx context.Context, rec *modelcapture.CaptureRecord, targetURL string) (*modelforward.Delivery, error) {
	f.log.Debug().Msg("calling `Forward` method")

	if targetURL == "" {
		err := &errors.TargetNotConfiguredError{}
		f.log.Error().Err(err).Msg("forwarding was requested without a target")
		return nil, err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		buildErr := &errors.RequestBuildError{Err: err, TargetURL: targetURL}
		f.log.Error().Err(buildErr).Msg("could not serialize a capture for forwarding")
		return nil, buildErr
	}

	var lastErr error
	var delivery *modelforward.Delivery
	for attempt := 1; attempt <= f.cfg.Forward.MaxRetries; attempt++ {
		delivery = &modelforward.Delivery{
			DeliveryID: uuid.New().String(),
			CaptureID:  rec.CaptureID,
			TargetURL:  targetURL,
			Status:     constants.DeliveryStatusPending,
			Attempts:   attempt,
			CreatedAt:  time.Now().UTC(),
		}

		start := time.Now()
		statusCode, sendErr := f.sendRequest(ctx, rec, payload, targetURL, attempt)
		delivery.Duration = time.Since(start)
		delivery.StatusCode = statusCode

		if sendErr == nil && statusCode >= 200 && statusCode < 300 {
			delivery.Status = constants.DeliveryStatusSuccess
			f.recordDelivery(delivery)
			f.log.Info().Str("captureID", rec.CaptureID).Str("targetURL", targetURL).Int("statusCode", statusCode).Msg("capture was forwarded")
			return delivery, nil
		}

		delivery.Status = constants.DeliveryStatusFailed
		if sendErr != nil {
			lastErr = sendErr
		} else {
			lastErr = fmt.Errorf("target returned status %d", statusCode)
		}
		delivery.Error = lastErr.Error()
		f.recordDelivery(delivery)
		f.log.Warn().Err(lastErr).Str("captureID", rec.CaptureID).Int("attempt", attempt).Msg("forwarding attempt failed")

		if attempt < f.cfg.Forward.MaxRetries {
			select {
			case <-ctx.Done():
				return delivery, ctx.Err()
			case <-time.After(f.cfg.Forward.RetryInterval):
			}
		}
	}

	deliveryErr := &errors.DeliveryError{
		Err:       lastErr,
		CaptureID: rec.CaptureID,
		TargetURL: targetURL,
		Attempts:  f.cfg.Forward.MaxRetries,
	}
	f.log.Error().Err(deliveryErr).Msg("forwarding exhausted all attempts")
	return delivery, deliveryErr
}

// sendRequest performs a single POST of the capture payload.
func (f *Forwarder) sendRequest(ctx context.Context, rec *modelcapture.CaptureRecord, payload []byte, targetURL string, attempt int) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(payload))
	if err != nil {
		return 0, &errors.RequestBuildError{Err: err, TargetURL: targetURL}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "catchall-api/"+constants.Version)
	req.Header.Set("X-Capture-Id", rec.CaptureID)
	req.Header.Set("X-Capture-Method", rec.Method)
	req.Header.Set("X-Capture-Path", rec.Path)
	req.Header.Set("X-Delivery-Attempt", strconv.Itoa(attempt))

	if f.cfg.Forward.Secret != "" {
		req.Header.Set("X-Catchall-Signature", Signature(payload, f.cfg.Forward.Secret))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	return resp.StatusCode, nil
}

// Signature computes an HMAC-SHA256 signature over the payload.
func Signature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// VerifySignature reports whether the signature matches the payload.
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := Signature(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// recordDelivery stores a delivery record keeping only the most recent ones.
func (f *Forwarder) recordDelivery(delivery *modelforward.Delivery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery)
	if len(f.deliveries) > historyLimit {
		f.deliveries = f.deliveries[len(f.deliveries)-historyLimit:]
	}
}

// History returns up to limit delivery records, most recent first.
func (f *Forwarder) History(limit int) []*modelforward.Delivery {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if limit <= 0 || limit > len(f.deliveries) {
		limit = len(f.deliveries)
	}

	result := make([]*modelforward.Delivery, limit)
	for i := 0; i < limit; i++ {
		result[i] = f.deliveries[len(f.deliveries)-1-i]
	}
	return result
}
