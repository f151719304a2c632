package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catchall-api/internal/command/errors"
	"catchall-api/internal/config"
	s3Errors "catchall-api/internal/s3/errors"
	"catchall-api/internal/s3/s3"
	"catchall-api/internal/storage/v1/psql"
	"catchall-api/internal/syncutils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// archiveFetchLimit caps the number of captures archived per invocation.
const archiveFetchLimit = 10000

// ArchiveCommand defines a new command struct and sets its attributes.
type ArchiveCommand struct {
	log       *zerolog.Logger
	cfg       *config.Config
	storage   *psql.Storage
	s3        *s3.Service
	syncUtils *syncutils.SyncUtils
}

// NewArchiveCommand creates a new command instance.
func NewArchiveCommand(
	logger *zerolog.Logger,
	cfg *config.Config,
	storage *psql.Storage,
	s3 *s3.Service,
	syncUtils *syncutils.SyncUtils,
) *ArchiveCommand {
	logger.Debug().Msg("calling initializer of capture:archive command")
	return &ArchiveCommand{
		log:       logger,
		cfg:       cfg,
		storage:   storage,
		s3:        s3,
		syncUtils: syncUtils,
	}
}

// Describe handles command description when invoked.
func (t *ArchiveCommand) Describe() *cli.Command {
	return &cli.Command{
		Category: "capture",
		Name:     "capture:archive",
		Usage:    "Archive captures older than the retention window to S3 as JSON lines",
		Action:   t.Execute,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "older-than-days",
				Usage:   "Archive captures received more than this many days ago (0 uses CAPTURE_RETENTION_DAYS)",
				Aliases: []string{"d"},
			},
			&cli.BoolFlag{
				Name:  "purge",
				Usage: "Delete archived captures from DB after a successful upload",
			},
		},
	}
}

// Execute runs the command-associated execution logic.
func (t *ArchiveCommand) Execute(ctx *cli.Context) error {
	const (
		handler    = "capture:archive"
		handlerKey = "cli_command"
	)

	t.log.Info().Str(handlerKey, handler).Msg(fmt.Sprintf("CLI: %s endpoint hit", handler))

	days := ctx.Int("older-than-days")
	if days <= 0 {
		days = t.cfg.Capture.RetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	ctxMain, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer func() {
		cancel()
		t.syncUtils.SyncCancel()
		t.syncUtils.Wg.Wait()
	}()

	recs, err := t.storage.GetCapturesBefore(ctxMain, cutoff, archiveFetchLimit)
	if err != nil {
		t.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.CaptureArchivingError)
		return err
	}
	if len(recs) == 0 {
		t.log.Info().Str(handlerKey, handler).Msg("no captures to archive")
		return nil
	}

	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	for i := range recs {
		if err := encoder.Encode(&recs[i]); err != nil {
			t.log.Error().Err(err).Str(handlerKey, handler).Msg(s3Errors.ArchiveEncodingError)
			return err
		}
	}

	key := fmt.Sprintf("captures-%s-%s.jsonl", cutoff.Format("2006-01-02"), uuid.New().String())
	location, err := t.s3.UploadArchive(key, buf)
	if err != nil {
		t.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.CaptureArchivingError)
		return err
	}

	t.log.Info().Str(handlerKey, handler).Int("archived", len(recs)).Msg(fmt.Sprintf("captures archived to %s", location))

	if ctx.Bool("purge") {
		purged, err := t.storage.PurgeOlderThan(ctxMain, cutoff)
		if err != nil {
			t.log.Error().Err(err).Str(handlerKey, handler).Msg(errors.CapturePurgeError)
			return err
		}
		t.log.Info().Str(handlerKey, handler).Int64("purged", purged).Msg("archived captures were purged from DB")
	}

	return nil
}
