package optimize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"assetopt/internal/assets"
	"assetopt/internal/classify"
	"assetopt/internal/fileutil"
	"assetopt/internal/imaging"
	"assetopt/internal/logging"
	"assetopt/internal/policy"
	"assetopt/internal/services"
	"assetopt/internal/tools"
)

// BackupVerifier confirms that the original of name, currently at source,
// has an intact archived copy.
type BackupVerifier interface {
	Verify(name, source string) error
}

// Orchestrator drives assets through the state machine. It holds no per-asset
// state and is safe for concurrent use.
type Orchestrator struct {
	verifier BackupVerifier
	logger   *slog.Logger
}

// New constructs an Orchestrator. A nil verifier makes every commit fail with
// ErrBackupFailure.
func New(verifier BackupVerifier, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		verifier: verifier,
		logger:   logging.NewComponentLogger(logger, "optimize"),
	}
}

// NewPlan computes the resize target and quality tier for asset.
func NewPlan(p *policy.Policy, asset assets.Record, resize bool) (Plan, error) {
	plan := Plan{Tier: p.SelectQuality(asset.Category)}
	if !resize || asset.Media != classify.MediaImage {
		return plan, nil
	}
	width, height, err := p.ComputeTargetSize(asset.Width, asset.Height, asset.Category)
	if err != nil {
		return Plan{}, err
	}
	plan.Resize = true
	plan.TargetWidth = width
	plan.TargetHeight = height
	return plan, nil
}

// Optimize transforms asset into dstDir according to plan, using the stages in
// chain. On success exactly one output file exists at Result.Output. Stage
// failures never surface as errors; they are recorded in Result.Attempts and
// the chain advances. Errors are returned only for an unreadable source, a
// failed backup check, a failed final rename, or cancellation, and in every
// such case nothing is left in dstDir.
func (o *Orchestrator) Optimize(ctx context.Context, asset assets.Record, plan Plan, chain Chain, dstDir string) (Result, error) {
	ctx = services.WithAsset(ctx, asset.Name)
	logger := logging.WithContext(ctx, o.logger)

	result := Result{
		Name:           asset.Name,
		Category:       asset.Category,
		Media:          asset.Media,
		Source:         asset.Path,
		OriginalBytes:  asset.Size,
		OriginalWidth:  asset.Width,
		OriginalHeight: asset.Height,
		NewWidth:       asset.Width,
		NewHeight:      asset.Height,
	}
	if asset.Size <= 0 {
		return result, services.Wrap(services.ErrInvalidAsset, "optimize", "pending", asset.Name+": empty source", nil)
	}
	result.record(StatePending, "", nil)

	var temps []string
	defer func() {
		for _, path := range temps {
			_ = os.Remove(path)
		}
	}()
	newTemp := func(ext string) (string, error) {
		path, err := fileutil.TempSibling(filepath.Join(dstDir, filepath.FromSlash(asset.Name)), ".assetopt-*"+ext)
		if err != nil {
			return "", services.Wrap(services.ErrTransformFailure, "optimize", "create temp", dstDir, err)
		}
		temps = append(temps, path)
		return path, nil
	}

	working := asset.Path
	if o.shouldResize(asset, plan) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		staging, err := newTemp(filepath.Ext(asset.Name))
		if err != nil {
			return result, err
		}
		err = imaging.Resize(ctx, asset.Path, staging, plan.TargetWidth, plan.TargetHeight)
		switch {
		case err == nil:
			working = staging
			result.NewWidth, result.NewHeight = plan.TargetWidth, plan.TargetHeight
			result.DimensionsChanged = true
			result.record(StateResizing, "catmull-rom", nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return result, err
		default:
			result.record(StateResizing, "catmull-rom", err)
			logging.WarnWithContext(logger, "resize failed; optimizing at original size", "resize_failed",
				logging.String(logging.FieldStage, string(StateResizing)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "output keeps the original dimensions"),
				logging.String(logging.FieldErrorHint, "check that the PNG decodes cleanly"),
			)
		}
	}

	var webpTemp string
	if chain.WebP != nil && asset.Media == classify.MediaImage {
		path, err := newTemp(chain.WebP.OutputExt(working, plan.Tier))
		if err != nil {
			return result, err
		}
		if err := o.apply(ctx, chain.WebP, working, path, plan.Tier); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.WebPError = err.Error()
			logging.WarnWithContext(logger, "webp sibling failed", "webp_failed",
				logging.String(logging.FieldTool, chain.WebP.Tool()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "no .webp file is written for this asset"),
				logging.String(logging.FieldErrorHint, "run cwebp by hand on the source to see the failure"),
			)
		} else {
			webpTemp = path
		}
	}

	produced, ext := "", ""
	for _, step := range []struct {
		state State
		stage tools.Stage
	}{
		{StateLossy, chain.Lossy},
		{StateLossless, chain.Lossless},
	} {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if step.stage == nil {
			result.Attempts = append(result.Attempts, Attempt{State: step.state, Outcome: OutcomeUnavailable})
			logger.Debug("stage unavailable", logging.String(logging.FieldStage, string(step.state)))
			continue
		}
		stepExt := step.stage.OutputExt(working, plan.Tier)
		out, err := newTemp(stepExt)
		if err != nil {
			return result, err
		}
		if err := o.apply(ctx, step.stage, working, out, plan.Tier); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.record(step.state, step.stage.Tool(), err)
			attrs := append(logging.Decision("stage_fallback", "next_stage", err.Error()),
				logging.String(logging.FieldStage, string(step.state)),
				logging.String(logging.FieldTool, step.stage.Tool()),
			)
			logger.Info("stage failed; falling back", logging.Args(attrs)...)
			continue
		}
		result.record(step.state, step.stage.Tool(), nil)
		produced, ext, result.Tool = out, stepExt, step.stage.Tool()
		break
	}

	if produced == "" {
		ext = filepath.Ext(asset.Name)
		out, err := newTemp(ext)
		if err != nil {
			return result, err
		}
		if err := fileutil.CopyFile(working, out); err != nil {
			err = services.Wrap(services.ErrTransformFailure, "optimize", "copy through", asset.Name, err)
			result.record(StateCopyThrough, ToolCopyThrough, err)
			return result, err
		}
		result.record(StateCopyThrough, ToolCopyThrough, nil)
		produced, result.Tool = out, ToolCopyThrough
	}

	if err := o.verifyBackup(asset); err != nil {
		logging.ErrorWithContext(logger, "backup verification failed; refusing to write output", "backup_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "re-run so the archive step can copy the original"),
		)
		return result, err
	}

	perm := outputPerm(asset.Path)
	if err := os.Chmod(produced, perm); err != nil {
		return result, services.Wrap(services.ErrTransformFailure, "optimize", "chmod output", produced, err)
	}
	final := filepath.Join(dstDir, filepath.FromSlash(tools.OutputName(asset.Name, ext)))
	if err := os.Rename(produced, final); err != nil {
		return result, services.Wrap(services.ErrTransformFailure, "optimize", "commit", final, err)
	}
	result.Output = final
	size, err := fileutil.FileSize(final)
	if err != nil {
		return result, services.Wrap(services.ErrTransformFailure, "optimize", "stat output", final, err)
	}
	result.OptimizedBytes = size

	if webpTemp != "" {
		webpFinal := filepath.Join(dstDir, filepath.FromSlash(tools.OutputName(asset.Name, ".webp")))
		if err := os.Chmod(webpTemp, perm); err != nil {
			result.WebPError = err.Error()
		} else if err := os.Rename(webpTemp, webpFinal); err != nil {
			result.WebPError = err.Error()
		} else if size, err := fileutil.FileSize(webpFinal); err == nil {
			result.WebPPath, result.WebPBytes = webpFinal, size
		}
	}

	result.record(StateDone, result.Tool, nil)
	logger.Debug("asset transformed",
		logging.String(logging.FieldTool, result.Tool),
		logging.Sizes(result.OriginalBytes, result.OptimizedBytes),
		logging.Bool("resized", result.DimensionsChanged),
	)
	return result, nil
}

// outputPerm is the mode committed outputs take: the source's permission
// bits, or 0644 when the source cannot be stat'ed. Temp files start at 0600.
func outputPerm(source string) os.FileMode {
	info, err := os.Stat(source)
	if err != nil {
		return 0o644
	}
	return info.Mode().Perm()
}

func (o *Orchestrator) shouldResize(asset assets.Record, plan Plan) bool {
	if !plan.Resize || asset.Media != classify.MediaImage {
		return false
	}
	return plan.TargetWidth != asset.Width || plan.TargetHeight != asset.Height
}

// apply runs stage and checks that it left a non-empty output.
func (o *Orchestrator) apply(ctx context.Context, stage tools.Stage, src, dst string, tier policy.QualityTier) error {
	stageCtx := services.WithStage(ctx, stage.Tool())
	if err := stage.Apply(stageCtx, src, dst, tier); err != nil {
		return err
	}
	if !tools.NonEmpty(dst) {
		return services.Wrap(services.ErrTransformFailure, stage.Tool(), "apply", "tool exited cleanly but produced no output", nil)
	}
	return nil
}

func (o *Orchestrator) verifyBackup(asset assets.Record) error {
	if o.verifier == nil {
		return services.Wrap(services.ErrBackupFailure, "optimize", "verify backup", "no archive record for this run", nil)
	}
	if err := o.verifier.Verify(asset.Name, asset.Path); err != nil {
		if errors.Is(err, services.ErrBackupFailure) {
			return err
		}
		return services.Wrap(services.ErrBackupFailure, "optimize", "verify backup", asset.Name, err)
	}
	return nil
}

func (r *Result) record(state State, tool string, err error) {
	attempt := Attempt{State: state, Tool: tool, Outcome: OutcomeOK}
	if err != nil {
		attempt.Outcome = OutcomeFailed
		attempt.Error = err.Error()
		if errors.Is(err, services.ErrToolUnavailable) {
			attempt.Outcome = OutcomeUnavailable
		}
	}
	r.Attempts = append(r.Attempts, attempt)
}

// String renders the visited path for logs, e.g. PENDING>LOSSY_COMPRESS_ATTEMPT>DONE.
func (r Result) String() string {
	states := make([]string, 0, len(r.Attempts))
	for _, state := range r.Visited() {
		states = append(states, string(state))
	}
	return fmt.Sprintf("%s[%s]", r.Name, strings.Join(states, ">"))
}
