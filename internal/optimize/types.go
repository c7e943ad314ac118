package optimize

import (
	"assetopt/internal/classify"
	"assetopt/internal/policy"
	"assetopt/internal/tools"
)

// State names a step of the transform state machine.
type State string

const (
	StatePending     State = "PENDING"
	StateResizing    State = "RESIZING"
	StateLossy       State = "LOSSY_COMPRESS_ATTEMPT"
	StateLossless    State = "LOSSLESS_COMPRESS_ATTEMPT"
	StateCopyThrough State = "COPY_THROUGH"
	StateDone        State = "DONE"
)

// ToolCopyThrough is recorded as the producer when no encoder succeeded.
const ToolCopyThrough = "copy-through"

// Outcome of one attempted state.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeFailed      Outcome = "failed"
	OutcomeUnavailable Outcome = "unavailable"
)

// Attempt records one visited state.
type Attempt struct {
	State   State   `json:"state"`
	Tool    string  `json:"tool,omitempty"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// Chain is the ordered set of stages for one media kind. Nil stages are
// treated as unavailable.
type Chain struct {
	Lossy    tools.Stage
	Lossless tools.Stage
	// WebP, when set, writes a .webp sibling from the post-resize image.
	WebP tools.Stage
}

// ChainFor selects the stages from box that apply to media.
func ChainFor(box tools.Toolbox, media classify.Media) Chain {
	if media == classify.MediaAudio {
		return Chain{Lossy: box.Transcoder, Lossless: box.Reencoder}
	}
	return Chain{Lossy: box.Quantizer, Lossless: box.Recompressor, WebP: box.WebP}
}

// Plan holds the per-asset decisions made before any tool runs.
type Plan struct {
	Tier policy.QualityTier
	// Resize requests the RESIZING state; TargetWidth and TargetHeight are
	// only meaningful when it is set.
	Resize       bool
	TargetWidth  int
	TargetHeight int
}

// Result describes the outcome of Optimize.
type Result struct {
	Name     string            `json:"name"`
	Category classify.Category `json:"category"`
	Media    classify.Media    `json:"media"`
	Source   string            `json:"source"`
	Output   string            `json:"output"`
	Tool     string            `json:"tool"`

	OriginalBytes  int64 `json:"original_bytes"`
	OptimizedBytes int64 `json:"optimized_bytes"`

	OriginalWidth     int  `json:"original_width,omitempty"`
	OriginalHeight    int  `json:"original_height,omitempty"`
	NewWidth          int  `json:"new_width,omitempty"`
	NewHeight         int  `json:"new_height,omitempty"`
	DimensionsChanged bool `json:"dimensions_changed"`

	Attempts []Attempt `json:"attempts"`

	WebPPath  string `json:"webp_path,omitempty"`
	WebPBytes int64  `json:"webp_bytes,omitempty"`
	WebPError string `json:"webp_error,omitempty"`
}

// BytesSaved is original minus optimized bytes; negative when the output grew.
func (r Result) BytesSaved() int64 {
	return r.OriginalBytes - r.OptimizedBytes
}

// Reduction is 1 - optimized/original, or 0 for an empty original.
func (r Result) Reduction() float64 {
	if r.OriginalBytes <= 0 {
		return 0
	}
	return 1 - float64(r.OptimizedBytes)/float64(r.OriginalBytes)
}

// Visited lists the states in the order they were entered.
func (r Result) Visited() []State {
	states := make([]State, 0, len(r.Attempts))
	for _, attempt := range r.Attempts {
		states = append(states, attempt.State)
	}
	return states
}
