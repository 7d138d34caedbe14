// Package convert runs the MARC to finc conversion over a set of source files
// and writes every valid document to a single JSON Lines target.
package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/thomsbe/MarcLinkFinc/internal/config"
	"github.com/thomsbe/MarcLinkFinc/internal/finc"
	"github.com/thomsbe/MarcLinkFinc/internal/marc"
	"github.com/thomsbe/MarcLinkFinc/internal/ratelimit"
	"github.com/thomsbe/MarcLinkFinc/internal/results"
	"github.com/thomsbe/MarcLinkFinc/internal/schema"
)

// recordsPerWorker sizes a batch relative to the worker count.
const recordsPerWorker = 64

// Converter converts source files following a schema.
type Converter struct {
	cfg     *config.Config
	mapper  *finc.Mapper
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	runID   string
}

// New loads the schema selected by cfg and prepares a Converter.
func New(cfg *config.Config, logger *slog.Logger) (*Converter, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s, err := loadSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}

	runID := uuid.Must(uuid.NewV7()).String()
	logger = logger.With("run_id", runID)

	return &Converter{
		cfg:     cfg,
		mapper:  finc.NewMapper(s, nil, logger),
		limiter: ratelimit.New(cfg.RateLimit),
		logger:  logger,
		runID:   runID,
	}, nil
}

func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return schema.Default(), nil
	}
	return schema.Load(path)
}

// RunID identifies the run in every log line.
func (c *Converter) RunID() string {
	return c.runID
}

// Run converts every configured source into the target file.
func (c *Converter) Run(ctx context.Context) (*results.Summary, error) {
	target := c.cfg.TargetFile()

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create target directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("failed to create target %s: %w", target, err)
	}

	s, runErr := c.ConvertFiles(ctx, f, c.cfg.Sources)
	s.Target = target

	if err := f.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close target %s: %w", target, err)
	}
	return s, runErr
}

// ConvertFiles converts files in order into w and returns aggregated
// results. A failing file does not stop the run; the first error is returned
// alongside the summary.
func (c *Converter) ConvertFiles(ctx context.Context, w io.Writer, files []string) (*results.Summary, error) {
	s := results.NewSummary(len(files))
	s.RunID = c.runID

	out := finc.NewWriter(w)
	overallStart := time.Now()
	var firstError error

	c.logger.Info("conversion started", "files", len(files), "schema", c.mapper.Schema().Name)

	for _, filename := range files {
		if ctx.Err() != nil {
			if firstError == nil {
				firstError = ctx.Err()
			}
			break
		}

		start := time.Now()
		stats, err := c.convertFile(ctx, filename, out)
		duration := time.Since(start)

		s.Add(results.NewFileResultBuilder(filename).
			WithRecords(stats.records).
			WithConverted(stats.converted).
			WithInvalid(stats.invalid).
			WithDuration(duration).
			WithError(err))

		if err != nil {
			c.logger.Error("file failed", "file", filename, "error", err)
			if firstError == nil {
				firstError = err
			}
			continue
		}
		c.logger.Info("file converted",
			"file", filename,
			"records", stats.records,
			"converted", stats.converted,
			"invalid", stats.invalid,
			"duration", duration)
	}

	if err := out.Flush(); err != nil && firstError == nil {
		firstError = fmt.Errorf("failed to write output: %w", err)
	}

	s.SetTotalDuration(time.Since(overallStart))
	c.logger.Info("conversion finished",
		"records", s.Records,
		"converted", s.Converted,
		"invalid", s.Invalid,
		"failed_files", s.FailedFiles)

	return s, firstError
}

type fileStats struct {
	records   int
	converted int
	invalid   int
}

// outcome is the mapping result of one record of a batch.
type outcome struct {
	doc *finc.Document
	err error
}

func (c *Converter) convertFile(ctx context.Context, filename string, out *finc.Writer) (fileStats, error) {
	var stats fileStats

	format, err := c.cfg.SourceFormat(filename)
	if err != nil {
		return stats, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return stats, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	seq, err := marc.Stream(ctx, file, format)
	if err != nil {
		return stats, err
	}

	workers := max(c.cfg.Workers, 1)
	batch := make([]*marc.Record, 0, workers*recordsPerWorker)
	progress := rate.Sometimes{Interval: c.cfg.Progress}

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		outcomes, err := c.mapBatch(ctx, batch, workers)
		if err != nil {
			return err
		}
		for i, o := range outcomes {
			if o.err != nil {
				stats.invalid++
				c.logger.Warn("skipping invalid record",
					"file", filename,
					"record", stats.records-len(batch)+i+1,
					"error", o.err)
				continue
			}
			if err := out.Write(o.doc); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			stats.converted++
		}
		batch = batch[:0]

		if c.cfg.Progress > 0 {
			progress.Do(func() {
				c.logger.Info("progress",
					"file", filename,
					"records", stats.records,
					"converted", stats.converted,
					"written", out.Count())
			})
		}
		return nil
	}

	for rec, err := range seq {
		if err != nil {
			if ferr := flush(); ferr != nil {
				return stats, ferr
			}
			return stats, fmt.Errorf("%s: record %d: %w", filename, stats.records+1, err)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		stats.records++
		batch = append(batch, rec)
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	return stats, flush()
}

// mapBatch maps and validates records concurrently. Outcomes keep the order
// of records; a mapping error aborts the batch.
func (c *Converter) mapBatch(ctx context.Context, records []*marc.Record, workers int) ([]outcome, error) {
	outcomes := make([]outcome, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rec := range records {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			doc, err := c.mapper.Map(rec)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{doc: doc, err: finc.Validate(doc, c.mapper.Schema())}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
