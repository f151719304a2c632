package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	busamqp "catchall-api/internal/bus/amqp"
	busErrors "catchall-api/internal/bus/errors"
	"catchall-api/internal/bus/modelbus"
	"catchall-api/internal/command/errors"
	"catchall-api/internal/config"
	"catchall-api/internal/constants"
	"catchall-api/internal/forwarder/forwarder"
	"catchall-api/internal/storage/v1/psql"
	"catchall-api/internal/syncutils"

	"github.com/olekukonko/tablewriter"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// ReplayCommand defines a new command struct and sets its attributes.
type ReplayCommand struct {
	log       *zerolog.Logger
	cfg       *config.Config
	storage   *psql.Storage
	forwarder *forwarder.Forwarder
	amqp      *busamqp.AMQP
	syncUtils *syncutils.SyncUtils
}

// NewReplayCommand creates a new command instance.
func NewReplayCommand(
	logger *zerolog.Logger,
	cfg *config.Config,
	storage *psql.Storage,
	fwd *forwarder.Forwarder,
	bus *busamqp.AMQP,
	syncUtils *syncutils.SyncUtils,
) *ReplayCommand {
	logger.Debug().Msg("calling initializer of capture:replay command")
	return &ReplayCommand{
		log:       logger,
		cfg:       cfg,
		storage:   storage,
		forwarder: fwd,
		amqp:      bus,
		syncUtils: syncUtils,
	}
}

// Describe handles command description when invoked.
func (t *ReplayCommand) Describe() *cli.Command {
	return &cli.Command{
		Category: "capture",
		Name:     "capture:replay",
		Usage:    "Replay one recorded capture to the forward target",
		Action:   t.Execute,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "capture-id",
				Usage:    "Capture identifier (captureID)",
				Aliases:  []string{"c"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "target",
				Usage:   "Target URL override (defaults to FORWARD_TARGET_URL)",
				Aliases: []string{"t"},
			},
		},
	}
}

// Execute runs the command-associated execution logic.
func (t *ReplayCommand) Execute(ctx *cli.Context) error {
	const (
		handler      = "capture:replay"
		handlerKey   = "cli_command"
		captureIDKey = "captureID"
	)

	var (
		captureID = ctx.String("capture-id")
		targetURL = ctx.String("target")
	)
	if targetURL == "" {
		targetURL = t.cfg.Forward.TargetURL
	}

	t.log.Info().Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(fmt.Sprintf("CLI: %s endpoint hit", handler))

	ctxMain, cancel := context.WithTimeout(t.syncUtils.Ctx, 5*time.Minute)
	defer func() {
		cancel()
		t.syncUtils.SyncCancel()
		t.syncUtils.Wg.Wait()
	}()

	rec, err := t.storage.GetCapture(ctxMain, captureID)
	if err != nil {
		t.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(errors.CaptureNotFoundError)
		return err
	}

	delivery, err := t.forwarder.Forward(ctxMain, rec, targetURL)
	if err != nil {
		t.log.Error().Err(err).Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(errors.CaptureReplayError)
		return err
	}

	t.announceDelivery(captureID, targetURL, handler)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"Delivery ID",
		"Capture ID",
		"Target URL",
		"Status",
		"Status Code",
		"Attempts",
		"Duration",
	})
	table.Append([]string{
		delivery.DeliveryID,
		delivery.CaptureID,
		delivery.TargetURL,
		delivery.Status,
		strconv.Itoa(delivery.StatusCode),
		strconv.Itoa(delivery.Attempts),
		delivery.Duration.String(),
	})
	table.Render()

	return nil
}

// announceDelivery publishes the replay outcome to the delivery exchange. The
// publication is best-effort and never fails the command.
func (t *ReplayCommand) announceDelivery(captureID, targetURL, handler string) {
	const handlerKey = "cli_command"

	if !t.amqp.Enabled() {
		return
	}
	msg := modelbus.DeliveryRsp{
		CaptureID: captureID,
		TargetURL: targetURL,
		RspType:   constants.RunTypeReplay,
		Delivered: true,
	}
	serialized, err := json.Marshal(msg)
	if err != nil {
		t.log.Warn().Err(err).Str(handlerKey, handler).Msg(busErrors.AMQPMarshallingError)
		return
	}
	publishing := amqp.Publishing{
		ContentType: "application/json",
		Headers:     amqp.Table{},
		Body:        serialized,
	}
	if err = t.amqp.PublishToExchange(t.cfg.AMQP.DeliveryExchangeName, publishing); err != nil {
		t.log.Warn().Err(err).Str(handlerKey, handler).Msg(busErrors.AMQPSendingError)
	}
}
