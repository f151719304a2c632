// Package capture provides CLI commands definitions and execution logic.

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

// ListCommand defines a new command struct and sets its attributes.
type ListCommand struct {
	log       *zerolog.Logger
	cfg       *config.Config
	storage   *psql.Storage
	syncUtils *syncutils.SyncUtils
}

// NewListCommand creates a new command instance.
func NewListCommand(
	logger *zerolog.Logger,
	cfg *config.Config,
	storage *psql.Storage,
	syncUtils *syncutils.SyncUtils,
) *ListCommand {
	logger.Debug().Msg("calling initializer of capture:list command")
	return &ListCommand{
		log:       logger,
		cfg:       cfg,
		storage:   storage,
		syncUtils: syncUtils,
	}
}

// Describe handles command description when invoked.
func (t *ListCommand) Describe() *cli.Command {
	return &cli.Command{
		Category: "capture",
		Name:     "capture:list",
		Usage:    "List most recent recorded captures",
		Action:   t.Execute,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Usage:   "Maximum number of captures to list",
				Aliases: []string{"n"},
				Value:   20,
			},
		},
	}
}

// Execute runs the command-associated execution logic.
func (t *ListCommand) Execute(ctx *cli.Context) error {
	const (
		handler    = "capture:list"
		handlerKey = "cli_command"
	)

	t.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("CLI: %s endpoint hit", handler))

	ctxMain, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer func() {
		cancel()
		t.syncUtils.SyncCancel()
		t.syncUtils.Wg.Wait()
	}()

	recs, err := t.storage.GetRecentCaptures(ctxMain, ctx.Int("limit"))
	if err != nil {
		t.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.CaptureListingError)
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"Capture ID",
		"Method",
		"Path",
		"Query Params",
		"Body Bytes",
		"Truncated",
		"Received At",
	})
	for _, rec := range recs {
		table.Append([]string{
			rec.CaptureID,
			rec.Method,
			rec.Path,
			strconv.Itoa(len(rec.Query)),
			strconv.Itoa(len(rec.Body)),
			strconv.FormatBool(rec.BodyTruncated),
			rec.ReceivedAt.Format(time.RFC3339),
		})
	}
	table.Render()

	return nil
}
