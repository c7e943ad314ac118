package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"assetopt/internal/archive"
	"assetopt/internal/assets"
	"assetopt/internal/classify"
	"assetopt/internal/config"
	"assetopt/internal/history"
	"assetopt/internal/logging"
	"assetopt/internal/optimize"
	"assetopt/internal/policy"
	"assetopt/internal/preflight"
	"assetopt/internal/report"
	"assetopt/internal/services"
	"assetopt/internal/stats"
	"assetopt/internal/tools"
)

// Options narrows a single run.
type Options struct {
	// Variants limits the run to the named output roots. Empty runs every
	// enabled variant.
	Variants []string
	// Workers overrides pipeline.workers when positive.
	Workers int
}

// VariantOutcome pairs a variant with its summary.
type VariantOutcome struct {
	Variant Variant
	Summary stats.Summary
}

// Outcome is everything a completed run produced.
type Outcome struct {
	RunID        string
	StartedAt    time.Time
	Archive      *archive.Record
	Variants     []VariantOutcome
	Totals       stats.Totals // summed over every variant
	Skipped      []stats.Skip
	Report       *report.Report
	JSONPath     string
	MarkdownPath string
}

// Runner executes runs against one configuration.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	policy     *policy.Policy
	classifier *classify.Classifier
	history    *history.Store

	now      func() time.Time
	newRunID func() string
}

// New builds a Runner. store may be nil to skip the history ledger.
func New(cfg *config.Config, logger *slog.Logger, store *history.Store) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	p, err := policy.New(cfg)
	if err != nil {
		return nil, err
	}
	classifier := classify.Default()
	if rules := cfg.ClassifierRules(); len(rules) > 0 {
		classifier, err = classify.New(rules)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "classifier rules", err)
		}
	}
	return &Runner{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		policy:     p,
		classifier: classifier,
		history:    store,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}, nil
}

// Classifier returns the classifier built from the configuration.
func (r *Runner) Classifier() *classify.Classifier { return r.classifier }

// Policy returns the sizing and quality policy built from the configuration.
func (r *Runner) Policy() *policy.Policy { return r.policy }

// Run performs one full optimization pass. It returns an error without a
// report only when discovery, preflight or the archive fails, or when a
// backup check aborts the batch.
func (r *Runner) Run(ctx context.Context, opts Options) (*Outcome, error) {
	variants, err := Variants(r.cfg, opts.Variants)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{RunID: r.newRunID(), StartedAt: r.now()}
	ctx = services.WithRunID(ctx, outcome.RunID)
	logger := logging.ForRun(r.logger, outcome.RunID)
	logger.Info("optimization run started",
		logging.String("assets_dir", r.cfg.Paths.AssetsDir),
		logging.String("variants", variantNames(variants)),
		logging.String(logging.FieldEventType, "run_start"),
	)

	box := tools.Probe(ctx, r.cfg, logger)
	records, skipped, err := r.collect(ctx, box, logger)
	if err != nil {
		return nil, r.abort(ctx, outcome, logger, "discover", err)
	}
	outcome.Skipped = skipped

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, r.abort(ctx, outcome, logger, "prepare directories",
			services.Wrap(services.ErrConfiguration, "pipeline", "prepare directories", "", err))
	}
	if err := preflight.Err(preflight.RunAll(ctx, r.cfg, totalBytes(records))); err != nil {
		return nil, r.abort(ctx, outcome, logger, "preflight", err)
	}

	record, err := archive.NewManager(r.cfg.Paths.ArchiveDir, logger).Archive(ctx, records)
	if err != nil {
		return nil, r.abort(ctx, outcome, logger, "archive", err)
	}
	outcome.Archive = record

	orchestrator := optimize.New(record, logger)
	workers := r.cfg.Pipeline.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	total := stats.New()
	for _, variant := range variants {
		agg, err := r.runVariant(ctx, variant, records, box, orchestrator, workers, logger)
		if err != nil {
			return nil, r.abort(ctx, outcome, logger, "optimize "+variant.Name, err)
		}
		total.Merge(agg)
		summary := agg.Summarize()
		outcome.Variants = append(outcome.Variants, VariantOutcome{Variant: variant, Summary: summary})
		logger.Info("variant complete",
			logging.String(logging.FieldVariant, variant.Name),
			logging.Int("assets", summary.Totals.Assets),
			logging.Int("failed", len(summary.Skipped)),
			logging.Int64("bytes_saved", summary.Totals.BytesSaved()),
			logging.Float64("reduction", summary.Totals.Reduction()),
			logging.Int("copy_through", summary.Totals.CopyThrough),
			logging.String(logging.FieldEventType, "variant_complete"),
		)
	}

	outcome.Totals = total.Summarize().Totals

	outcome.Report = r.buildReport(outcome, box)
	outcome.JSONPath, outcome.MarkdownPath = r.cfg.ReportPaths()
	if err := outcome.Report.Write(outcome.JSONPath, outcome.MarkdownPath); err != nil {
		logging.ErrorWithContext(logger, "failed to write report", "report_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.report_dir permissions"),
		)
		return outcome, err
	}

	r.recordHistory(ctx, logger, outcome, history.StatusCompleted, "")
	r.pruneLogs(logger)
	logger.Info("optimization run complete",
		logging.String("archive_dir", record.Dir),
		logging.String("report", outcome.JSONPath),
		logging.Int("skipped", len(outcome.Skipped)),
		logging.Int("outputs", outcome.Totals.Assets),
		logging.Int64("bytes_saved", outcome.Totals.BytesSaved()),
		logging.Duration("elapsed", r.now().Sub(outcome.StartedAt)),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	return outcome, nil
}

// collect discovers and inspects assets. Invalid assets become skips; only a
// discovery failure is returned as an error.
func (r *Runner) collect(ctx context.Context, box tools.Toolbox, logger *slog.Logger) ([]assets.Record, []stats.Skip, error) {
	names, err := assets.Discover(r.cfg.Paths.AssetsDir, r.cfg.Discovery.Include, r.cfg.Discovery.Exclude)
	if err != nil {
		return nil, nil, err
	}
	inspector := assets.Inspector{
		Classifier:   r.classifier,
		FFprobe:      box.FFprobe,
		ProbeTimeout: r.cfg.ProbeTimeout(),
		Logger:       logger,
	}
	records := make([]assets.Record, 0, len(names))
	var skipped []stats.Skip
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		record, err := inspector.Inspect(ctx, r.cfg.Paths.AssetsDir, name)
		if err != nil {
			if services.DispositionFor(err) == services.DispositionAbort {
				return nil, nil, err
			}
			logging.WarnWithContext(logger, "asset skipped", "asset_skipped",
				logging.String(logging.FieldAsset, name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "asset is neither archived nor optimized"),
				logging.String(logging.FieldErrorHint, "replace or remove the file"),
			)
			skipped = append(skipped, stats.Skip{Name: name, Reason: err.Error()})
			continue
		}
		records = append(records, record)
	}
	logger.Info("assets discovered",
		logging.Int("assets", len(records)),
		logging.Int("skipped", len(skipped)),
		logging.String(logging.FieldEventType, "discovery_complete"),
	)
	return records, skipped, nil
}

type slot struct {
	result optimize.Result
	err    error
}

// runVariant transforms every record into variant.OutputDir. Workers write
// only their own slot; the aggregator is fed in asset order afterwards.
func (r *Runner) runVariant(
	ctx context.Context,
	variant Variant,
	records []assets.Record,
	box tools.Toolbox,
	orchestrator *optimize.Orchestrator,
	workers int,
	logger *slog.Logger,
) (*stats.Aggregator, error) {
	ctx = services.WithVariant(ctx, variant.Name)
	logger = logging.WithContext(ctx, logger)
	if workers < 1 {
		workers = 1
	}

	slots := make([]slot, len(records))
	collisions := outputCollisions(records)
	sampler := logging.NewProgressSampler(0)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		if err, ok := collisions[i]; ok {
			slots[i].err = err
			done.Add(1)
			continue
		}
		g.Go(func() error {
			asset := records[i]
			plan, err := optimize.NewPlan(r.policy, asset, variant.Resize)
			if err == nil {
				slots[i].result, err = orchestrator.Optimize(gctx, asset, plan, optimize.ChainFor(box, asset.Media), variant.OutputDir)
			}
			slots[i].err = err
			if err != nil && services.DispositionFor(err) == services.DispositionAbort {
				return err
			}
			finished := int(done.Add(1))
			if sampler.ShouldLog(finished, len(records)) {
				logger.Info("optimization progress",
					logging.Int("done", finished),
					logging.Int("total", len(records)),
					logging.String(logging.FieldEventType, "progress"),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := stats.New()
	for i, s := range slots {
		name := records[i].Name
		if s.err != nil {
			logging.WarnWithContext(logger, "asset failed", "asset_failed",
				logging.String(logging.FieldAsset, name),
				logging.Error(s.err),
				logging.String(logging.FieldImpact, "no output written for this asset in "+variant.Name),
				logging.String(logging.FieldErrorHint, "see the report for the reason"),
			)
			agg.RecordSkipped(name, s.err.Error())
			continue
		}
		logger.Debug("asset optimized",
			logging.String(logging.FieldAsset, name),
			logging.String("path", s.result.String()),
		)
		agg.Record(s.result)
	}
	return agg, nil
}

func (r *Runner) buildReport(outcome *Outcome, box tools.Toolbox) *report.Report {
	archiveDir := ""
	if outcome.Archive != nil {
		archiveDir = outcome.Archive.Dir
	}
	rep := report.New(outcome.RunID, outcome.StartedAt, archiveDir, box.Versions())
	for _, v := range outcome.Variants {
		rep.AddVariant(v.Variant.Name, v.Variant.OutputDir, v.Summary, report.DefaultTopWins)
	}
	rep.AddSkipped(outcome.Skipped...)
	return rep
}

// abort logs a fatal run error, records it in the ledger, and returns it.
func (r *Runner) abort(ctx context.Context, outcome *Outcome, logger *slog.Logger, step string, err error) error {
	logging.ErrorWithContext(logger, "optimization run aborted", "run_aborted",
		logging.String("step", step),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, abortHint(err)),
	)
	if !errors.Is(err, context.Canceled) {
		r.recordHistory(ctx, logger, outcome, history.StatusAborted, fmt.Sprintf("%s: %v", step, err))
	}
	return err
}

func abortHint(err error) string {
	switch {
	case errors.Is(err, services.ErrBackupFailure):
		return "no asset was modified; fix the archive location and re-run"
	case errors.Is(err, services.ErrConfiguration):
		return "check the config file and directory permissions"
	default:
		return "re-run with --log-level debug for details"
	}
}

func (r *Runner) recordHistory(ctx context.Context, logger *slog.Logger, outcome *Outcome, status history.Status, message string) {
	if r.history == nil {
		return
	}
	run := history.Run{
		RunID:        outcome.RunID,
		Status:       status,
		StartedAt:    outcome.StartedAt,
		FinishedAt:   r.now(),
		AssetsDir:    r.cfg.Paths.AssetsDir,
		ReportPath:   outcome.JSONPath,
		Skipped:      len(outcome.Skipped),
		ErrorMessage: message,
	}
	if outcome.Archive != nil {
		run.ArchiveDir = outcome.Archive.Dir
		run.Assets = len(outcome.Archive.Entries)
	}
	var results []history.Result
	for _, v := range outcome.Variants {
		for _, entry := range v.Summary.Entries {
			results = append(results, history.Result{
				Variant:        v.Variant.Name,
				Name:           entry.Name,
				Category:       string(entry.Category),
				Tool:           entry.Tool,
				OriginalBytes:  entry.OriginalBytes,
				OptimizedBytes: entry.OptimizedBytes,
				OutputPath:     entry.Output,
			})
		}
	}
	// The ledger is written even when ctx was cancelled mid-run.
	if err := r.history.RecordRun(context.WithoutCancel(ctx), run, results); err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run is missing from `assetopt runs`"),
			logging.String(logging.FieldErrorHint, "check "+r.history.Path()),
		)
	}
}

func (r *Runner) pruneLogs(logger *slog.Logger) {
	dir := strings.TrimSpace(r.cfg.Paths.LogDir)
	if dir == "" || r.cfg.Logging.RetentionDays <= 0 {
		return
	}
	logging.PruneDailyLogs(logger, dir, r.cfg.Logging.RetentionDays, r.now())
}

func totalBytes(records []assets.Record) int64 {
	var total int64
	for _, record := range records {
		total += record.Size
	}
	return total
}
