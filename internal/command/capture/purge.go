package capture

import (
	"context"
	"fmt"
	"time"

	"catchall-api/internal/command/errors"
	"catchall-api/internal/config"
	"catchall-api/internal/storage/v1/psql"
	"catchall-api/internal/syncutils"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// PurgeCommand defines a new command struct and sets its attributes.
type PurgeCommand struct {
	log       *zerolog.Logger
	cfg       *config.Config
	storage   *psql.Storage
	syncUtils *syncutils.SyncUtils
}

// NewPurgeCommand creates a new command instance.
func NewPurgeCommand(
	logger *zerolog.Logger,
	cfg *config.Config,
	storage *psql.Storage,
	syncUtils *syncutils.SyncUtils,
) *PurgeCommand {
	logger.Debug().Msg("calling initializer of capture:purge command")
	return &PurgeCommand{
		log:       logger,
		cfg:       cfg,
		storage:   storage,
		syncUtils: syncUtils,
	}
}

// Describe handles command description when invoked.
func (t *PurgeCommand) Describe() *cli.Command {
	return &cli.Command{
		Category: "capture",
		Name:     "capture:purge",
		Usage:    "Delete captures older than the retention window",
		Action:   t.Execute,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "older-than-days",
				Usage:   "Delete captures received more than this many days ago (0 uses CAPTURE_RETENTION_DAYS)",
				Aliases: []string{"d"},
			},
		},
	}
}

// Execute runs the command-associated execution logic.
func (t *PurgeCommand) Execute(ctx *cli.Context) error {
	const (
		handler    = "capture:purge"
		handlerKey = "cli_command"
	)

	t.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("CLI: %s endpoint hit", handler))

	days := ctx.Int("older-than-days")
	if days <= 0 {
		days = t.cfg.Capture.RetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	ctxMain, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer func() {
		cancel()
		t.syncUtils.SyncCancel()
		t.syncUtils.Wg.Wait()
	}()

	purged, err := t.storage.PurgeOlderThan(ctxMain, cutoff)
	if err != nil {
		t.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.CapturePurgeError)
		return err
	}

	t.log.Info().Str(handlerKey, handler).Int64("purged", purged).Msg(fmt.Sprintf("purged captures received before %s", cutoff.Format(time.RFC3339)))

	return nil
}
