// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog records extraction runs and the images they saved in a
// SQLite database, and writes per-run reports as YAML or JSON.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

// RunStatus is the outcome of an extraction run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// Run describes one invocation of the extractor.
type Run struct {
	ID         int64             `json:"id,omitempty" yaml:"id,omitempty"`
	PDFPath    string            `json:"pdf_path" yaml:"pdf_path"`
	OutputDir  string            `json:"output_dir" yaml:"output_dir"`
	Format     types.ImageFormat `json:"format" yaml:"format"`
	Status     RunStatus         `json:"status" yaml:"status"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time         `json:"finished_at" yaml:"finished_at"`
}

// Store manages the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pdf_path TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			format TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS images (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			page INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			object_number INTEGER,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			source_channels INTEGER NOT NULL,
			source_model TEXT,
			channels INTEGER NOT NULL,
			format TEXT NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_images_path ON images(path)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a run and its saved images in one transaction and returns
// the new run ID.
func (s *Store) Record(ctx context.Context, run Run, images []types.SavedImage) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (pdf_path, output_dir, format, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.PDFPath, run.OutputDir, string(run.Format), string(run.Status), run.Error,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO images (run_id, seq, page, idx, object_number, width, height,
			source_channels, source_model, channels, format, path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, img := range images {
		_, err := stmt.ExecContext(ctx,
			runID, i, img.Page, img.Index, img.ObjectNumber, img.Width, img.Height,
			img.SourceChannels, string(img.SourceModel), img.Channels, string(img.Format), img.Path,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting image %s: %w", img.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs lists recorded runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pdf_path, output_dir, format, status, COALESCE(error, ''), started_at, finished_at
		 FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			format, status    string
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.PDFPath, &r.OutputDir, &format, &status, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Format = types.ImageFormat(format)
		r.Status = RunStatus(status)
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing started_at of run %d: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at of run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Images returns the images of a run in save order.
func (s *Store) Images(ctx context.Context, runID int64) ([]types.SavedImage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page, idx, object_number, width, height, source_channels,
			COALESCE(source_model, ''), channels, format, path
		 FROM images WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying images: %w", err)
	}
	defer rows.Close()

	var images []types.SavedImage
	for rows.Next() {
		var (
			img           types.SavedImage
			model, format string
		)
		if err := rows.Scan(&img.Page, &img.Index, &img.ObjectNumber, &img.Width, &img.Height,
			&img.SourceChannels, &model, &img.Channels, &format, &img.Path); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		img.SourceModel = types.ColorModel(model)
		img.Format = types.ImageFormat(format)
		images = append(images, img)
	}
	return images, rows.Err()
}
