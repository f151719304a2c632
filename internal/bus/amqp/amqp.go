// Package amqp implements AMQP service.

package amqp

import (
	goErrors "errors"

	"context"
	"encoding/json"

	"catchall-api/internal/bus/errors"
	"catchall-api/internal/bus/modelbus"
	"catchall-api/internal/config"
	"catchall-api/internal/syncutils"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AMQP defines queue client object and sets its attributes. When no AMQP
// address is configured the client is created in disabled state and all
// publishing methods return an error.
type AMQP struct {
	config       *config.Config
	log          *zerolog.Logger
	channel      *amqp.Channel
	captureQueue *amqp.Queue
	syncUtils    *syncutils.SyncUtils
	enabled      bool
}

// NewAMQP initializes a new AMQP service.
func NewAMQP(config *config.Config, logger *zerolog.Logger, syncUtils *syncutils.SyncUtils) *AMQP {
	logger.Debug().Msg("calling initializer of AMQP service")
	t := &AMQP{
		config:    config,
		log:       logger,
		syncUtils: syncUtils,
		enabled:   config.AMQP.Addr != "",
	}
	if !t.enabled {
		logger.Warn().Msg("AMQP address is not set, bus is disabled")
		return t
	}
	if err := t.init(); err != nil {
		t.log.Fatal().Err(err).Msg(errors.AMQPInitiationError)
	}
	return t
}

// Enabled reports whether the AMQP bus was configured.
func (a *AMQP) Enabled() bool {
	return a.enabled
}

// init performs declaration and bindings of queues and exchanges.
func (a *AMQP) init() error {
	a.log.Debug().Msg("calling `init` method")
	conn, err := amqp.Dial(a.config.AMQP.Addr)
	if err != nil {
		a.log.Error().Err(err).Msg(errors.AMQPConnectionError)
		return err
	}

	channel, err := conn.Channel()
	a.channel = channel
	if err != nil {
		a.log.Error().Err(err).Msg(errors.AMQPChannelOpeningError)
		return err
	}

	if err = channel.Qos(1, 0, false); err != nil {
		a.log.Error().Err(err).Msg(errors.AMQPSettingQosError)
		return err
	}

	var (
		captureQueue amqp.Queue
		waitGroup    errgroup.Group
	)

	{ // exchange declaration
		waitGroup.Go(func() error {
			if err = channel.ExchangeDeclare(a.config.AMQP.CaptureExchangeName,
				"fanout", true, false, false, false, nil); err != nil {
				return err
			}
			return nil
		})
		waitGroup.Go(func() error {
			if err = channel.ExchangeDeclare(a.config.AMQP.DeliveryExchangeName,
				"fanout", true, false, false, false, nil); err != nil {
				return err
			}
			return nil
		})
		if err := waitGroup.Wait(); err != nil {
			a.log.Error().Err(err).Msg(errors.AMQPExchangeDeclarationError)
			return err
		}
	}

	{ // queue declaration
		waitGroup.Go(func() error {
			if captureQueue, err = channel.QueueDeclare(a.config.AMQP.CaptureQueueName,
				false, false, false, false, amqp.Table{}); err != nil {
				return err
			}
			a.captureQueue = &captureQueue
			return nil
		})
		if err := waitGroup.Wait(); err != nil {
			a.log.Error().Err(err).Msg(errors.AMQPQueueDeclarationError)
			return err
		}
	}

	{ // queue binding
		waitGroup.Go(func() error {
			if err = channel.QueueBind(captureQueue.Name,
				"", a.config.AMQP.CaptureExchangeName, false, nil); err != nil {
				return err
			}
			return nil
		})
		if err := waitGroup.Wait(); err != nil {
			a.log.Error().Err(err).Msg(errors.AMQPQueueBindingError)
			return err
		}
	}

	a.syncUtils.Wg.Add(1)
	go func() {
		defer a.syncUtils.Wg.Done()
		<-a.syncUtils.Ctx.Done()
		err = conn.Close()
		if err != nil {
			a.log.Fatal().Err(err).Msg("could not close AMQP connection")
		}
		a.log.Debug().Msg("AMQP connection was closed")
	}()
	return nil
}

// PublishToExchange publishes a message to the specified exchange.
func (a *AMQP) PublishToExchange(exchange string, msg amqp.Publishing) error {
	a.log.Debug().Msg("calling `PublishToExchange` method")

	if !a.enabled {
		return goErrors.New(errors.AMQPDisabledError)
	}

	if err := a.channel.PublishWithContext(a.syncUtils.Ctx, exchange, "", false, false, msg); err != nil {
		a.log.Error().Err(err).Msg(errors.AMQPPublishingError)
		return err
	}

	a.log.Info().Msg("message was successfully published to AMQP")

	return nil
}

// AddDeliveryQueueListener is a middleware method for handling different AMQP handlers.
func (a *AMQP) AddDeliveryQueueListener(ctx context.Context, republish bool, queueName, exchangeName, exchangeNameOut, runType string, fn func(ctx context.Context, d *amqp.Delivery) (string, string, bool, error)) error {
	if !a.enabled {
		return goErrors.New(errors.AMQPDisabledError)
	}

	messages, err := a.channel.Consume(queueName,
		"", false, false, false, false, nil)
	if err != nil {
		a.log.Error().Err(err).Msg(errors.AMQPConsumingError)
		return err
	}

	var waitGroup errgroup.Group
	waitGroup.Go(func() error {
		for delivery := range messages {
			a.log.Debug().Str("body", string(delivery.Body)).Msg("AMQP: received message")

			captureID, targetURL, status, fnErr := fn(ctx, &delivery)
			if fnErr == nil {
				if ackErr := delivery.Ack(false); ackErr != nil {
					a.log.Error().Err(err).Msg(errors.AMQPAckError)
					return err
				}
			} else {
				a.log.Warn().Msg(errors.AMQPMessageProcessingError)
				if ackErr := delivery.Ack(false); ackErr != nil {
					a.log.Error().Err(err).Msg(errors.AMQPAckError)
					return err
				}

				if republish {
					retryMsg := amqp.Publishing{
						ContentType: delivery.ContentType,
						Headers:     delivery.Headers,
						Body:        delivery.Body,
					}

					err := a.PublishToExchange(exchangeName, retryMsg)
					if err != nil {
						a.log.Error().Err(err).Msg(errors.AMQPSendingError)
						return err
					}
				}
			}

			// send delivery status to the output exchange
			msg := modelbus.DeliveryRsp{
				CaptureID: captureID,
				TargetURL: targetURL,
				RspType:   runType,
				Delivered: status,
			}

			serialized, err := json.Marshal(msg)
			if err != nil {
				a.log.Error().Err(err).Msg(errors.AMQPMarshallingError)
				return err
			}

			publishing := amqp.Publishing{
				ContentType: "application/json",
				Headers:     amqp.Table{},
				Body:        serialized,
			}
			err = a.PublishToExchange(exchangeNameOut, publishing)
			if err != nil {
				a.log.Error().Err(err).Msg(errors.AMQPSendingError)
				return err
			}

		}
		return nil
	})

	a.log.Info().Msg("AMQP: consumer started")

	if err := waitGroup.Wait(); err != nil {
		a.log.Error().Err(err).Msg(errors.AMQPListeningError)
		return err
	}

	return nil
}
