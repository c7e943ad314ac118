package pipeline

import (
	"context"

	"assetopt/internal/classify"
	"assetopt/internal/deps"
	"assetopt/internal/logging"
	"assetopt/internal/optimize"
	"assetopt/internal/stats"
	"assetopt/internal/tools"
)

// PlannedAsset is the decision made for one asset in one variant.
type PlannedAsset struct {
	Variant      string            `json:"variant"`
	Name         string            `json:"name"`
	Category     classify.Category `json:"category"`
	Media        classify.Media    `json:"media"`
	Bytes        int64             `json:"bytes"`
	Width        int               `json:"width,omitempty"`
	Height       int               `json:"height,omitempty"`
	TargetWidth  int               `json:"target_width,omitempty"`
	TargetHeight int               `json:"target_height,omitempty"`
	Resize       bool              `json:"resize"`
	Chain        []string          `json:"chain"`
	Error        string            `json:"error,omitempty"`
}

// PlanOutcome is the result of a dry run.
type PlanOutcome struct {
	Assets  []PlannedAsset `json:"assets"`
	Skipped []stats.Skip   `json:"skipped"`
	Tools   []deps.Status  `json:"tools"`
}

// Plan discovers, inspects and classifies assets and reports what a run would
// do, without archiving or writing any file.
func (r *Runner) Plan(ctx context.Context, opts Options) (*PlanOutcome, error) {
	variants, err := Variants(r.cfg, opts.Variants)
	if err != nil {
		return nil, err
	}
	logger := r.logger.With(logging.String("mode", "plan"))
	box := tools.Probe(ctx, r.cfg, logger)
	records, skipped, err := r.collect(ctx, box, logger)
	if err != nil {
		return nil, err
	}

	out := &PlanOutcome{Skipped: skipped, Tools: box.Statuses}
	collisions := outputCollisions(records)
	for _, variant := range variants {
		for i, asset := range records {
			planned := PlannedAsset{
				Variant:  variant.Name,
				Name:     asset.Name,
				Category: asset.Category,
				Media:    asset.Media,
				Bytes:    asset.Size,
				Width:    asset.Width,
				Height:   asset.Height,
				Chain:    chainNames(optimize.ChainFor(box, asset.Media)),
			}
			plan, err := optimize.NewPlan(r.policy, asset, variant.Resize)
			if collision, ok := collisions[i]; ok {
				planned.Error = collision.Error()
			} else if err != nil {
				planned.Error = err.Error()
			} else if plan.Resize {
				planned.TargetWidth, planned.TargetHeight = plan.TargetWidth, plan.TargetHeight
				planned.Resize = plan.TargetWidth != asset.Width || plan.TargetHeight != asset.Height
			}
			out.Assets = append(out.Assets, planned)
		}
	}
	return out, nil
}

// chainNames lists the tools the orchestrator would try, in order, ending
// with copy-through.
func chainNames(chain optimize.Chain) []string {
	names := make([]string, 0, 3)
	for _, stage := range []tools.Stage{chain.Lossy, chain.Lossless} {
		if stage != nil {
			names = append(names, stage.Tool())
		}
	}
	return append(names, optimize.ToolCopyThrough)
}
