// Package psql provides PSQL storage service.

package psql

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"catchall-api/internal/config"
	"catchall-api/internal/recorder/modelcapture"
	storageErrors "catchall-api/internal/storage/errors"
	"catchall-api/internal/syncutils"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog"
)

// Storage defines a new object and sets its attributes.
type Storage struct {
	mu        sync.Mutex
	cfg       *config.Config
	DB        *sql.DB
	log       *zerolog.Logger
	syncUtils *syncutils.SyncUtils
}

// NewStorage initializes a new Storage instance.
func NewStorage(cfg *config.Config, logger *zerolog.Logger, syncUtils *syncutils.SyncUtils) *Storage {
	logger.Debug().Msg("calling initializer of storage service")
	db, err := sql.Open("pgx", cfg.DB.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open a DB connection")
	}
	st := Storage{
		cfg:       cfg,
		DB:        db,
		log:       logger,
		syncUtils: syncUtils,
	}
	logger.Debug().Msg("DB connection was established")

	st.syncUtils.Wg.Add(1)
	go func() {
		defer st.syncUtils.Wg.Done()
		<-st.syncUtils.Ctx.Done()
		err = st.DB.Close()
		if err != nil {
			logger.Fatal().Err(err).Msg("could not close DB connection")
		}
		logger.Debug().Msg("PSQL DB connection was closed")
	}()

	return &st
}

// Migrate creates the DB tables.
func (s *Storage) Migrate() error {
	s.log.Debug().Msg("calling `Migrate` method")
	ctx, cancel := context.WithTimeout(s.syncUtils.Ctx, 1000*time.Millisecond)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	query := `CREATE TABLE IF NOT EXISTS captures (
		id             BIGSERIAL   NOT NULL UNIQUE,
		capture_id     TEXT        NOT NULL UNIQUE,
		method         TEXT        NOT NULL,
		path           TEXT        NOT NULL,
		query_params   TEXT        NOT NULL,
		headers        TEXT        NOT NULL,
		body           TEXT,
		body_truncated BOOLEAN     NOT NULL DEFAULT FALSE,
		remote_addr    TEXT,
		received_at    TIMESTAMPTZ NOT NULL
	);`

	_, err := s.DB.ExecContext(ctx, query)
	if err != nil {
		return err
	}

	query = `CREATE INDEX IF NOT EXISTS captures_received_at_idx ON captures (received_at);`
	_, err = s.DB.ExecContext(ctx, query)
	return err
}

// DropAll drops the DB tables.
func (s *Storage) DropAll() error {
	s.log.Debug().Msg("calling `DropAll` method")
	ctx, cancel := context.WithTimeout(s.syncUtils.Ctx, 1000*time.Millisecond)
	defer cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	query := `DROP TABLE IF EXISTS captures;`
	_, err := s.DB.ExecContext(ctx, query)
	return err
}

// AddCapture persists one captured request.
func (s *Storage) AddCapture(ctx context.Context, rec *modelcapture.CaptureRecord) error {
	s.log.Debug().Msg("calling `AddCapture` method")
	queryParams, headers, err := encodeCaptureFields(rec)
	if err != nil {
		s.log.Error().Err(err).Str("captureID", rec.CaptureID).Msg("could not encode capture fields")
		return &storageErrors.EncodingError{Err: err}
	}

	newCaptureStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO captures (capture_id, method, path, query_params, headers, body, body_truncated, remote_addr, received_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)")
	if err != nil {
		s.log.Error().Err(err).Str("captureID", rec.CaptureID).Msg("could not prepare statement")
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer newCaptureStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := newCaptureStmt.ExecContext(ctx, rec.CaptureID, rec.Method, rec.Path,
			queryParams, headers, rec.Body, rec.BodyTruncated, rec.RemoteAddr,
			rec.ReceivedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: rec.CaptureID}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Str("captureID", rec.CaptureID).Msg("adding capture failed")
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Str("captureID", rec.CaptureID).Msg("adding capture failed")
		return methodErr
	case <-chanOk:
		s.log.Info().Str("captureID", rec.CaptureID).Msg("adding capture done")
		return nil
	}
}

// GetCapture retrieves one capture by its identifier.
func (s *Storage) GetCapture(ctx context.Context, captureID string) (*modelcapture.CaptureRecord, error) {
	s.log.Debug().Msg("calling `GetCapture` method")
	getCaptureStmt, err := s.DB.PrepareContext(ctx, "SELECT capture_id, method, path, query_params, headers, body, body_truncated, remote_addr, received_at FROM captures WHERE capture_id = $1")
	if err != nil {
		s.log.Error().Err(err).Str("captureID", captureID).Msg("could not prepare statement")
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer getCaptureStmt.Close()
	chanOk := make(chan *modelcapture.CaptureRecord)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rec, err := scanCapture(getCaptureStmt.QueryRowContext(ctx, captureID))
		if err != nil {
			if err == sql.ErrNoRows {
				chanEr <- &storageErrors.NotFoundError{Err: err}
				return
			}
			chanEr <- err
			return
		}
		chanOk <- rec
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Str("captureID", captureID).Msg("getting capture failed")
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Str("captureID", captureID).Msg("getting capture failed")
		return nil, methodErr
	case result := <-chanOk:
		s.log.Info().Str("captureID", captureID).Msg("getting capture done")
		return result, nil
	}
}

// GetRecentCaptures retrieves up to limit captures, newest first.
func (s *Storage) GetRecentCaptures(ctx context.Context, limit int) ([]modelcapture.CaptureRecord, error) {
	s.log.Debug().Msg("calling `GetRecentCaptures` method")
	getRecentStmt, err := s.DB.PrepareContext(ctx, "SELECT capture_id, method, path, query_params, headers, body, body_truncated, remote_addr, received_at FROM captures ORDER BY id DESC LIMIT $1")
	if err != nil {
		s.log.Error().Err(err).Msg("could not prepare statement")
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer getRecentStmt.Close()
	chanOk := make(chan []modelcapture.CaptureRecord)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := getRecentStmt.QueryContext(ctx, limit)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()

		queryOutput, err := scanCaptureRows(rows)
		if err != nil {
			chanEr <- err
			return
		}
		chanOk <- queryOutput
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("getting recent captures failed")
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("getting recent captures failed")
		return nil, methodErr
	case result := <-chanOk:
		s.log.Info().Msg("getting recent captures done")
		return result, nil
	}
}

// GetCapturesBefore retrieves up to limit captures received strictly before
// the cutoff, oldest first.
func (s *Storage) GetCapturesBefore(ctx context.Context, cutoff time.Time, limit int) ([]modelcapture.CaptureRecord, error) {
	s.log.Debug().Msg("calling `GetCapturesBefore` method")
	getBeforeStmt, err := s.DB.PrepareContext(ctx, "SELECT capture_id, method, path, query_params, headers, body, body_truncated, remote_addr, received_at FROM captures WHERE received_at < $1 ORDER BY id ASC LIMIT $2")
	if err != nil {
		s.log.Error().Err(err).Msg("could not prepare statement")
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer getBeforeStmt.Close()
	chanOk := make(chan []modelcapture.CaptureRecord)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := getBeforeStmt.QueryContext(ctx, cutoff.UTC().Format(time.RFC3339Nano), limit)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()

		queryOutput, err := scanCaptureRows(rows)
		if err != nil {
			chanEr <- err
			return
		}
		chanOk <- queryOutput
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("getting captures before cutoff failed")
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("getting captures before cutoff failed")
		return nil, methodErr
	case result := <-chanOk:
		s.log.Info().Msg("getting captures before cutoff done")
		return result, nil
	}
}

// CountCaptures retrieves the total number of captures and a per-method
// breakdown.
func (s *Storage) CountCaptures(ctx context.Context) (int64, map[string]int64, error) {
	s.log.Debug().Msg("calling `CountCaptures` method")
	countStmt, err := s.DB.PrepareContext(ctx, "SELECT method, COUNT(1) FROM captures GROUP BY method")
	if err != nil {
		s.log.Error().Err(err).Msg("could not prepare statement")
		return 0, nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer countStmt.Close()
	chanOk := make(chan map[string]int64)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := countStmt.QueryContext(ctx)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()

		queryOutput := make(map[string]int64)
		for rows.Next() {
			var (
				method string
				count  int64
			)
			err = rows.Scan(&method, &count)
			if err != nil {
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
				return
			}
			queryOutput[method] = count
		}
		err = rows.Err()
		if err != nil {
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		chanOk <- queryOutput
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("counting captures failed")
		return 0, nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("counting captures failed")
		return 0, nil, methodErr
	case result := <-chanOk:
		var total int64
		for _, count := range result {
			total += count
		}
		s.log.Info().Msg("counting captures done")
		return total, result, nil
	}
}

// PurgeOlderThan deletes captures received strictly before the cutoff and
// reports the number of rows removed.
func (s *Storage) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.log.Debug().Msg("calling `PurgeOlderThan` method")
	purgeStmt, err := s.DB.PrepareContext(ctx, "DELETE FROM captures WHERE received_at < $1")
	if err != nil {
		s.log.Error().Err(err).Msg("could not prepare statement")
		return 0, &storageErrors.StatementPSQLError{Err: err}
	}
	defer purgeStmt.Close()
	chanOk := make(chan int64)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		result, err := purgeStmt.ExecContext(ctx, cutoff.UTC().Format(time.RFC3339Nano))
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		affected, err := result.RowsAffected()
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- affected
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("purging captures failed")
		return 0, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg("purging captures failed")
		return 0, methodErr
	case result := <-chanOk:
		s.log.Info().Int64("purged", result).Msg("purging captures done")
		return result, nil
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanCapture reads one captures row into a record, decoding the JSON-encoded
// map columns.
func scanCapture(row rowScanner) (*modelcapture.CaptureRecord, error) {
	var (
		rec         modelcapture.CaptureRecord
		queryParams string
		headers     string
	)
	err := row.Scan(&rec.CaptureID, &rec.Method, &rec.Path, &queryParams, &headers,
		&rec.Body, &rec.BodyTruncated, &rec.RemoteAddr, &rec.ReceivedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(queryParams), &rec.Query); err != nil {
		return nil, &storageErrors.ScanningPSQLError{Err: err}
	}
	if err := json.Unmarshal([]byte(headers), &rec.Headers); err != nil {
		return nil, &storageErrors.ScanningPSQLError{Err: err}
	}
	return &rec, nil
}

// scanCaptureRows drains a multi-row result set of captures.
func scanCaptureRows(rows *sql.Rows) ([]modelcapture.CaptureRecord, error) {
	var queryOutput []modelcapture.CaptureRecord
	for rows.Next() {
		rec, err := scanCapture(rows)
		if err != nil {
			if _, ok := err.(*storageErrors.ScanningPSQLError); ok {
				return nil, err
			}
			return nil, &storageErrors.ScanningPSQLError{Err: err}
		}
		queryOutput = append(queryOutput, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &storageErrors.ScanningPSQLError{Err: err}
	}
	return queryOutput, nil
}

// encodeCaptureFields serializes the map-typed capture fields for TEXT columns.
func encodeCaptureFields(rec *modelcapture.CaptureRecord) (string, string, error) {
	queryParams, err := json.Marshal(rec.Query)
	if err != nil {
		return "", "", err
	}
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return "", "", err
	}
	return string(queryParams), string(headers), nil
}
