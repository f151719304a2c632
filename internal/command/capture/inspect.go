package capture

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"catchall-api/internal/command/errors"
	"catchall-api/internal/config"
	"catchall-api/internal/storage/v1/psql"
	"catchall-api/internal/syncutils"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// InspectCommand defines a new command struct and sets its attributes.
type InspectCommand struct {
	log       *zerolog.Logger
	cfg       *config.Config
	storage   *psql.Storage
	syncUtils *syncutils.SyncUtils
}

// NewInspectCommand creates a new command instance.
func NewInspectCommand(
	logger *zerolog.Logger,
	cfg *config.Config,
	storage *psql.Storage,
	syncUtils *syncutils.SyncUtils,
) *InspectCommand {
	logger.Debug().Msg("calling initializer of capture:inspect command")
	return &InspectCommand{
		log:       logger,
		cfg:       cfg,
		storage:   storage,
		syncUtils: syncUtils,
	}
}

// Describe handles command description when invoked.
func (t *InspectCommand) Describe() *cli.Command {
	return &cli.Command{
		Category: "capture",
		Name:     "capture:inspect",
		Usage:    "Show one recorded capture in full",
		Action:   t.Execute,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "capture-id",
				Usage:    "Capture identifier (captureID)",
				Aliases:  []string{"c"},
				Required: true,
			},
		},
	}
}

// Execute runs the command-associated execution logic.
func (t *InspectCommand) Execute(ctx *cli.Context) error {
	const (
		handler      = "capture:inspect"
		handlerKey   = "cli_command"
		captureIDKey = "captureID"
	)

	var (
		captureID = ctx.String("capture-id")
	)

	t.log.Info().Str(handlerKey, handler).Str(captureIDKey, captureID).Msg(fmt.Sprintf("CLI: %s endpoint hit", handler))

	ctxMain, cancel := context.WithTimeout(t.syncUtils.Ctx, 500*time.Millisecond)
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

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Capture ID", rec.CaptureID})
	table.Append([]string{"Method", rec.Method})
	table.Append([]string{"Path", rec.Path})
	for key, value := range rec.Query {
		table.Append([]string{"Query " + key, value})
	}
	for key, value := range rec.Headers {
		table.Append([]string{"Header " + key, value})
	}
	table.Append([]string{"Body Bytes", strconv.Itoa(len(rec.Body))})
	table.Append([]string{"Truncated", strconv.FormatBool(rec.BodyTruncated)})
	table.Append([]string{"Remote Addr", rec.RemoteAddr})
	table.Append([]string{"Received At", rec.ReceivedAt.Format(time.RFC3339)})
	table.Render()

	if rec.Body != "" {
		fmt.Println(rec.Body)
	}

	return nil
}
