// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/pdf-image-extract/internal/catalog"
	"github.com/pdiddy/pdf-image-extract/internal/extract"
	"github.com/pdiddy/pdf-image-extract/internal/imageenc"
	"github.com/pdiddy/pdf-image-extract/internal/pdfreader"
	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

// runExtract performs one extraction and records the outcome in the
// optional report and catalog. A missing source PDF is reported on stdout
// and only fails the command in strict mode.
func runExtract(ctx context.Context, cfg types.ExtractionConfig, stdout io.Writer) error {
	x := extract.New(
		pdfreader.NewPdfcpuReader(cfg.Password),
		imageenc.NewFileEncoder(cfg.Quality()),
		stdout,
	)

	started := time.Now()
	summary, err := x.Extract(ctx, cfg.PDFPath, cfg.OutputDir, cfg.Format)

	if errors.Is(err, extract.ErrSourceNotFound) {
		fmt.Fprintf(stdout, "Error: PDF file '%s' not found.\n", cfg.PDFPath)
		if cfg.Strict {
			return exitError{code: exitNotFound, err: err}
		}
		log.Debug().Err(err).Msg("source missing; exiting normally")
		return nil
	}

	run := catalog.Run{
		PDFPath:    cfg.PDFPath,
		OutputDir:  cfg.OutputDir,
		Format:     cfg.Format,
		Status:     catalog.RunCompleted,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		run.Status = catalog.RunAborted
		run.Error = err.Error()
	}

	if rerr := record(ctx, cfg, run, summary); rerr != nil {
		if err != nil {
			log.Warn().Err(rerr).Msg("could not record aborted run")
			return err
		}
		return exitError{code: exitIO, err: rerr}
	}
	return err
}

func record(ctx context.Context, cfg types.ExtractionConfig, run catalog.Run, summary types.ExtractionSummary) error {
	if cfg.CatalogPath != "" {
		store, err := catalog.Open(cfg.CatalogPath)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.Record(ctx, run, summary.Images)
		if err != nil {
			return fmt.Errorf("recording run in %s: %w", cfg.CatalogPath, err)
		}
		run.ID = id
		log.Debug().Int64("run", id).Str("catalog", cfg.CatalogPath).Msg("run recorded")
	}

	if cfg.ReportPath != "" {
		if err := catalog.WriteReport(cfg.ReportPath, catalog.NewReport(run, summary)); err != nil {
			return fmt.Errorf("writing report %s: %w", cfg.ReportPath, err)
		}
		log.Debug().Str("report", cfg.ReportPath).Msg("report written")
	}
	return nil
}
