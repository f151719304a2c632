// Package messenger provides CLI commands definitions and execution logic.

package messenger

import (
	"encoding/json"
	"fmt"
	"time"

	busamqp "catchall-api/internal/bus/amqp"
	"catchall-api/internal/bus/errors"
	"catchall-api/internal/bus/modelbus"
	"catchall-api/internal/config"
	"catchall-api/internal/constants"
	"catchall-api/internal/syncutils"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// PublishCommand defines a new command struct and sets its attributes.
type PublishCommand struct {
	log       *zerolog.Logger
	cfg       *config.Config
	amqp      *busamqp.AMQP
	syncUtils *syncutils.SyncUtils
}

// NewPublishCommand creates a new command instance.
func NewPublishCommand(
	logger *zerolog.Logger,
	cfg *config.Config,
	amqp *busamqp.AMQP,
	syncUtils *syncutils.SyncUtils,
) *PublishCommand {
	logger.Debug().Msg("calling initializer of messenger:publish command")
	return &PublishCommand{
		log:       logger,
		cfg:       cfg,
		amqp:      amqp,
		syncUtils: syncUtils,
	}
}

// Describe handles command description when invoked.
func (t *PublishCommand) Describe() *cli.Command {
	return &cli.Command{
		Category: "messenger",
		Name:     "messenger:publish",
		Usage:    "Publish a capture or delivery message to the bus",
		Action:   t.Execute,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "type",
				Usage:    "Message type, either `capture` or `delivery`",
				Aliases:  []string{"t"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "capture-id",
				Usage:    "Capture identifier (captureID)",
				Aliases:  []string{"c"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "method",
				Usage:   "HTTP method of the capture",
				Aliases: []string{"m"},
			},
			&cli.StringFlag{
				Name:    "path",
				Usage:   "Request path of the capture",
				Aliases: []string{"p"},
			},
			&cli.StringFlag{
				Name:    "target-url",
				Usage:   "Target URL for `delivery` messages",
				Aliases: []string{"u"},
			},
			&cli.BoolFlag{
				Name:  "delivered",
				Usage: "Delivery outcome for `delivery` messages",
			},
		},
	}
}

// Execute runs the command-associated execution logic.
func (t *PublishCommand) Execute(ctx *cli.Context) error {
	const (
		handler    = "messenger:publish"
		handlerKey = "cli_command"
	)

	var (
		messageType = ctx.String("type")
		captureID   = ctx.String("capture-id")
		method      = ctx.String("method")
		reqPath     = ctx.String("path")
		targetURL   = ctx.String("target-url")
		delivered   = ctx.Bool("delivered")
	)
	if method == "" {
		method = constants.NA
	}
	if reqPath == "" {
		reqPath = constants.NA
	}

	defer func() {
		t.syncUtils.SyncCancel()
		t.syncUtils.Wg.Wait()
	}()

	t.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("CLI: %s endpoint hit", handler))

	switch messageType {
	case "capture":
		msg := modelbus.MsgCapture{
			CaptureID:  captureID,
			Method:     method,
			Path:       reqPath,
			ReceivedAt: time.Now().UTC(),
		}
		serialized, err := json.Marshal(msg)
		if err != nil {
			t.log.Error().Err(err).Msg(errors.AMQPMarshallingError)
			return err
		}
		publishing := amqp.Publishing{
			ContentType: "application/json",
			Headers:     amqp.Table{},
			Body:        serialized,
		}
		err = t.amqp.PublishToExchange(t.cfg.AMQP.CaptureExchangeName, publishing)
		if err != nil {
			t.log.Error().Err(err).Msg(errors.AMQPSendingError)
			return err
		}
		t.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("AMQP: message was published to %s", t.cfg.AMQP.CaptureExchangeName))
	case "delivery":
		if targetURL == "" {
			return fmt.Errorf("string flag `--target-url` is required for `%s` message type", messageType)
		}
		msg := modelbus.DeliveryRsp{
			CaptureID: captureID,
			TargetURL: targetURL,
			RspType:   constants.RunTypeForward,
			Delivered: delivered,
		}
		serialized, err := json.Marshal(msg)
		if err != nil {
			t.log.Error().Err(err).Msg(errors.AMQPMarshallingError)
			return err
		}
		publishing := amqp.Publishing{
			ContentType: "application/json",
			Headers:     amqp.Table{},
			Body:        serialized,
		}
		err = t.amqp.PublishToExchange(t.cfg.AMQP.DeliveryExchangeName, publishing)
		if err != nil {
			t.log.Error().Err(err).Msg(errors.AMQPSendingError)
			return err
		}
		t.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("AMQP: message was published to %s", t.cfg.AMQP.DeliveryExchangeName))
	default:
		return fmt.Errorf("invalid message type %s", messageType)
	}
	return nil
}
