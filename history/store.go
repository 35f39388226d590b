// Package history records finished split batches in a SQLite database so
// earlier runs can be listed later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"splitter/models"
	"splitter/orchestrator"
)

// ErrNotFound is returned when a batch ID is unknown.
var ErrNotFound = errors.New("batch not found")

// Batch is one recorded run.
type Batch struct {
	ID             string
	Input          string
	OutputDir      string
	SegmentMinutes float64
	Transcode      bool
	Outcome        string
	Planned        int
	Failed         int
	ReportPath     string
	StartedAt      time.Time
	FinishedAt     time.Time

	// Clips is filled by RecordBatch callers and by Clips; ListBatches
	// leaves it empty.
	Clips []models.ClipEntry
}

// FromResult converts an orchestrator result into a Batch.
func FromResult(res *orchestrator.BatchResult) Batch {
	return Batch{
		ID:             res.ID,
		Input:          res.Request.Input,
		OutputDir:      res.Request.OutputDir,
		SegmentMinutes: res.Request.SegmentMinutes,
		Transcode:      res.Request.Transcode,
		Outcome:        string(res.Outcome),
		Planned:        res.Plan.Len(),
		Failed:         len(res.Failed),
		ReportPath:     res.ReportPath,
		StartedAt:      res.StartedAt,
		FinishedAt:     res.FinishedAt,
		Clips:          res.Clips,
	}
}

// Store provides SQLite persistence for batch history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and runs migrations.
func Open(path string) (*Store, error) {
	// busy_timeout avoids "database locked" errors when two runs finish together
	pragmas := url.Values{"_pragma": {
		"journal_mode(WAL)",
		"busy_timeout(5000)",
		"synchronous(NORMAL)",
		"foreign_keys(ON)",
	}}
	// Escape the path so '?', '#' or '%' in a file name are not read as URI syntax
	dsn := "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + pragmas.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		input TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		segment_minutes REAL NOT NULL,
		transcode INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL CHECK(outcome IN ('completed', 'cancelled', 'aborted')),
		planned INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		report_path TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clips (
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		filename TEXT NOT NULL,
		start_label TEXT NOT NULL,
		end_label TEXT NOT NULL,
		duration_sec REAL NOT NULL,
		width INTEGER,
		height INTEGER,
		fps REAL NOT NULL DEFAULT 0,
		codec_video TEXT NOT NULL,
		codec_audio TEXT NOT NULL,
		bit_rate INTEGER NOT NULL DEFAULT 0,
		size_bytes INTEGER NOT NULL,
		PRIMARY KEY (batch_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_batches_started_at ON batches(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordBatch stores b and its clips in one transaction. Recording the same
// ID twice replaces the earlier row.
func (s *Store) RecordBatch(ctx context.Context, b Batch) error {
	if b.ID == "" {
		return fmt.Errorf("batch ID cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE id = ?`, b.ID); err != nil {
		return fmt.Errorf("replace batch: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO batches (id, input, output_dir, segment_minutes, transcode, outcome, planned, failed, report_path, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID, b.Input, b.OutputDir, b.SegmentMinutes, b.Transcode, b.Outcome,
		b.Planned, b.Failed, b.ReportPath,
		formatTime(b.StartedAt), formatTime(b.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO clips (batch_id, position, filename, start_label, end_label, duration_sec, width, height, fps, codec_video, codec_audio, bit_rate, size_bytes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare clip insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, c := range b.Clips {
		var width, height sql.NullInt64
		if c.Resolution != nil {
			width = sql.NullInt64{Int64: int64(c.Resolution.Width), Valid: true}
			height = sql.NullInt64{Int64: int64(c.Resolution.Height), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			b.ID, i, c.Filename, c.StartLabel, c.EndLabel, c.DurationSec,
			width, height, c.FPS, c.VideoCodec, c.AudioCodec, c.BitRate, c.SizeBytes,
		); err != nil {
			return fmt.Errorf("insert clip %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// ListBatches returns up to limit batches, most recent first. A limit <= 0
// returns every batch.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, input, output_dir, segment_minutes, transcode, outcome, planned, failed, report_path, started_at, finished_at
	FROM batches
	ORDER BY started_at DESC, id
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}

	return batches, rows.Err()
}

// GetBatch returns one batch including its clips.
func (s *Store) GetBatch(ctx context.Context, id string) (*Batch, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, input, output_dir, segment_minutes, transcode, outcome, planned, failed, report_path, started_at, finished_at
	FROM batches
	WHERE id = ?
	`, id)

	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	clips, err := s.Clips(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Clips = clips
	return &b, nil
}

// Clips returns the clips of a batch in production order.
func (s *Store) Clips(ctx context.Context, batchID string) ([]models.ClipEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT filename, start_label, end_label, duration_sec, width, height, fps, codec_video, codec_audio, bit_rate, size_bytes
	FROM clips
	WHERE batch_id = ?
	ORDER BY position
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var clips []models.ClipEntry
	for rows.Next() {
		var c models.ClipEntry
		var width, height sql.NullInt64
		if err := rows.Scan(&c.Filename, &c.StartLabel, &c.EndLabel, &c.DurationSec,
			&width, &height, &c.FPS, &c.VideoCodec, &c.AudioCodec, &c.BitRate, &c.SizeBytes); err != nil {
			return nil, err
		}
		if width.Valid && height.Valid {
			c.Resolution = &models.Resolution{Width: int(width.Int64), Height: int(height.Int64)}
		}
		clips = append(clips, c)
	}

	return clips, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (Batch, error) {
	var b Batch
	var started, finished string
	if err := row.Scan(&b.ID, &b.Input, &b.OutputDir, &b.SegmentMinutes, &b.Transcode, &b.Outcome,
		&b.Planned, &b.Failed, &b.ReportPath, &started, &finished); err != nil {
		return Batch{}, err
	}
	b.StartedAt = parseTime(started)
	b.FinishedAt = parseTime(finished)
	return b, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
