// Package pipeline runs the stages of a review-risk build in dependency
// order: entity cleaners concurrently, then assembly, feature building and
// validation. Every stage reads its inputs from disk and writes complete
// artifacts, so each one can also run on its own.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/dataframe"
	pipeerrors "github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/io"
	"github.com/paveg/reviewrisk/internal/monitoring"
	"golang.org/x/sync/errgroup"
)

// Stage names.
const (
	StageClean    = "clean"
	StageAssemble = "assemble"
	StageFeatures = "features"
	StageValidate = "validate"
	StageExport   = "export"
)

// StageHook is called after each stage or cleaner finishes.
type StageHook func(stage string, rows int)

// Runner executes pipeline stages against one configuration.
type Runner struct {
	cfg     *config.Config
	log     *slog.Logger
	mem     memory.Allocator
	metrics *monitoring.MetricsCollector
	hook    StageHook
	hookMu  sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithAllocator sets the Arrow allocator for tables read from disk.
// Columns derived inside a stage are built with the Go allocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(r *Runner) { r.mem = mem }
}

// WithMetrics records stage metrics into mc.
func WithMetrics(mc *monitoring.MetricsCollector) Option {
	return func(r *Runner) { r.metrics = mc }
}

// WithStageHook installs a progress callback.
func WithStageHook(h StageHook) Option {
	return func(r *Runner) { r.hook = h }
}

// NewRunner validates cfg and returns a runner for it.
func NewRunner(cfg config.Config, opts ...Option) (*Runner, error) {
	cfg = cfg.WithDefaults()
	format, err := io.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	cfg.Format = string(format)
	if err := cfg.Validate(); err != nil {
		return nil, pipeerrors.NewInvalidInputError("NewRunner", err.Error())
	}
	r := &Runner{cfg: &cfg, log: slog.Default(), mem: memory.NewGoAllocator()}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = monitoring.NewMetricsCollector(true)
	}
	return r, nil
}

// Config returns the effective configuration.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Metrics returns the collector the runner records into.
func (r *Runner) Metrics() *monitoring.MetricsCollector {
	return r.metrics
}

func (r *Runner) done(stage string, rows int) {
	if r.hook == nil {
		return
	}
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.hook(stage, rows)
}

func (r *Runner) csvOptions(types map[string]io.ColumnType) io.CSVOptions {
	return io.DefaultCSVOptions().WithTypes(types)
}

// readRaw reads one raw input with its pinned schema.
func (r *Runner) readRaw(input string) (*dataframe.DataFrame, error) {
	return io.ReadFile(r.cfg.RawPath(input), r.csvOptions(clean.RawTypes[input]), r.mem)
}

// readProcessed reads a cleaned table back.
func (r *Runner) readProcessed(table string) (*dataframe.DataFrame, error) {
	return io.ReadFile(r.cfg.ProcessedPath(table), r.csvOptions(clean.ProcessedTypes), r.mem)
}

func (r *Runner) write(path string, df *dataframe.DataFrame) error {
	return io.WriteFile(path, df, io.DefaultCSVOptions())
}

// Clean runs the named entity cleaners, all of them when none are named,
// and writes their tables to the processed directory. It returns the row
// count of every table written. The first failing cleaner cancels the rest.
func (r *Runner) Clean(ctx context.Context, entities ...string) (map[string]int, error) {
	all := Entities()
	if len(entities) == 0 {
		entities = all
	}
	for _, e := range entities {
		if !slices.Contains(all, e) {
			return nil, pipeerrors.NewInvalidInputError("Clean", fmt.Sprintf("unknown entity %q", e))
		}
	}

	r.log.Info("stage started", "stage", StageClean, "entities", entities, "workers", r.cfg.WorkerCount())
	rows := make(map[string]int)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.WorkerCount())
	for _, c := range cleaners() {
		if !slices.Contains(entities, c.entity) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			written, err := r.runCleaner(c)
			if err != nil {
				return fmt.Errorf("clean %s: %w", c.entity, err)
			}
			mu.Lock()
			for table, n := range written {
				rows[table] = n
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if slices.Contains(entities, EntityReviewIssues) {
		n, err := r.cleanReviewIssues()
		if err != nil {
			return nil, fmt.Errorf("clean %s: %w", EntityReviewIssues, err)
		}
		rows[clean.TableReviewIssues] = n
	}

	r.log.Info("stage finished", "stage", StageClean, "tables", len(rows))
	return rows, nil
}

func (r *Runner) runCleaner(c cleaner) (map[string]int, error) {
	in := make(inputs)
	defer func() {
		for _, df := range in {
			df.Release()
		}
	}()
	for _, name := range c.required {
		df, err := r.readRaw(name)
		if err != nil {
			return nil, err
		}
		in[name] = df
	}
	for _, name := range c.optional {
		df, err := r.readRaw(name)
		switch {
		case errors.Is(err, pipeerrors.ErrMissingInput):
			r.log.Warn("optional input missing", "entity", c.entity, "input", name, "path", r.cfg.RawPath(name))
		case err != nil:
			return nil, err
		default:
			in[name] = df
		}
	}

	written := make(map[string]int)
	err := r.metrics.Record(StageClean+"/"+c.entity, func() (int, error) {
		out, err := c.run(r, in)
		if err != nil {
			return 0, err
		}
		defer func() {
			for _, df := range out {
				df.Release()
			}
		}()
		total := 0
		for table, df := range out {
			if err := r.write(r.cfg.ProcessedPath(table), df); err != nil {
				return 0, err
			}
			written[table] = df.Len()
			total += df.Len()
			r.log.Debug("table written", "table", table, "rows", df.Len(), "path", r.cfg.ProcessedPath(table))
		}
		return total, nil
	})
	if err != nil {
		return nil, err
	}
	for table, n := range written {
		r.log.Info("cleaned", "entity", c.entity, "table", table, "rows", n)
	}
	r.done(StageClean+"/"+c.entity, len(written))
	return written, nil
}

// cleanReviewIssues classifies cleaned reviews against cleaned orders.
func (r *Runner) cleanReviewIssues() (int, error) {
	reviews, err := r.readProcessed(clean.TableReviews)
	if err != nil {
		return 0, err
	}
	defer reviews.Release()
	orders, err := r.readProcessed(clean.TableOrders)
	if err != nil {
		return 0, err
	}
	defer orders.Release()

	var rows int
	err = r.metrics.Record(StageClean+"/"+EntityReviewIssues, func() (int, error) {
		issues, err := clean.ClassifyReviews(reviews, orders)
		if err != nil {
			return 0, err
		}
		defer issues.Release()
		rows = issues.Len()
		return rows, r.write(r.cfg.ProcessedPath(clean.TableReviewIssues), issues)
	})
	if err != nil {
		return 0, err
	}
	r.log.Info("cleaned", "entity", EntityReviewIssues, "table", clean.TableReviewIssues, "rows", rows)
	r.done(StageClean+"/"+EntityReviewIssues, rows)
	return rows, nil
}
