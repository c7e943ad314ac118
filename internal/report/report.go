// Package report renders run summaries as JSON and Markdown.
package report

import (
	"encoding/json"
	"math"
	"time"

	"assetopt/internal/classify"
	"assetopt/internal/fileutil"
	"assetopt/internal/services"
	"assetopt/internal/stats"
)

// DefaultTopWins is the number of largest savings listed per variant.
const DefaultTopWins = 5

// Report is the write-once record of a run.
type Report struct {
	RunID      string            `json:"run_id"`
	Timestamp  time.Time         `json:"timestamp"`
	ArchiveDir string            `json:"archive_dir"`
	Tools      map[string]string `json:"tools"`
	Variants   []Variant         `json:"variants"`
	Skipped    []stats.Skip      `json:"skipped"`
}

// Variant summarizes one output root.
type Variant struct {
	Name       string                 `json:"name"`
	OutputDir  string                 `json:"output_dir"`
	PerAsset   map[string]AssetResult `json:"per_asset"`
	Totals     Totals                 `json:"totals"`
	Categories []CategoryTotals       `json:"categories"`
	TopWins    []Win                  `json:"top_wins"`
	Failed     []stats.Skip           `json:"failed,omitempty"`

	order []string
}

// AssetResult is the per-asset line of a variant.
type AssetResult struct {
	Category         classify.Category `json:"category"`
	OriginalBytes    int64             `json:"original_bytes"`
	OptimizedBytes   int64             `json:"optimized_bytes"`
	ReductionPercent float64           `json:"reduction_percent"`
	OriginalDims     string            `json:"original_dims,omitempty"`
	NewDims          string            `json:"new_dims,omitempty"`
	Tool             string            `json:"tool"`
	Output           string            `json:"output"`
	WebPBytes        int64             `json:"webp_bytes,omitempty"`
}

// Totals are the variant-wide sums.
type Totals struct {
	Assets           int     `json:"assets"`
	OriginalBytes    int64   `json:"original_bytes"`
	OptimizedBytes   int64   `json:"optimized_bytes"`
	BytesSaved       int64   `json:"bytes_saved"`
	ReductionPercent float64 `json:"reduction_percent"`
	Resized          int     `json:"resized"`
	CopyThrough      int     `json:"copy_through"`
	WebPBytes        int64   `json:"webp_bytes,omitempty"`
}

// CategoryTotals groups Totals by category.
type CategoryTotals struct {
	Category classify.Category `json:"category"`
	Totals
}

// Win is one of the largest absolute savings.
type Win struct {
	Name             string  `json:"name"`
	BytesSaved       int64   `json:"bytes_saved"`
	ReductionPercent float64 `json:"reduction_percent"`
}

// New starts a report for a run.
func New(runID string, at time.Time, archiveDir string, tools map[string]string) *Report {
	if tools == nil {
		tools = map[string]string{}
	}
	return &Report{
		RunID:      runID,
		Timestamp:  at.UTC(),
		ArchiveDir: archiveDir,
		Tools:      tools,
		Variants:   []Variant{},
		Skipped:    []stats.Skip{},
	}
}

// AddVariant appends the summary of one output root. Skips recorded in the
// summary are assets the variant failed to produce.
func (r *Report) AddVariant(name, outputDir string, summary stats.Summary, topWins int) {
	variant := Variant{
		Name:      name,
		OutputDir: outputDir,
		PerAsset:  make(map[string]AssetResult, len(summary.Entries)),
		Totals:    convertTotals(summary.Totals),
		TopWins:   []Win{},
		Failed:    summary.Skipped,
	}
	for _, entry := range summary.Entries {
		variant.PerAsset[entry.Name] = AssetResult{
			Category:         entry.Category,
			OriginalBytes:    entry.OriginalBytes,
			OptimizedBytes:   entry.OptimizedBytes,
			ReductionPercent: percent(entry.Reduction()),
			OriginalDims:     entry.OriginalDims,
			NewDims:          entry.NewDims,
			Tool:             entry.Tool,
			Output:           entry.Output,
			WebPBytes:        entry.WebPBytes,
		}
		variant.order = append(variant.order, entry.Name)
	}
	for _, category := range summary.Categories {
		variant.Categories = append(variant.Categories, CategoryTotals{
			Category: category.Category,
			Totals:   convertTotals(category.Totals),
		})
	}
	for _, entry := range summary.TopWins(topWins) {
		variant.TopWins = append(variant.TopWins, Win{
			Name:             entry.Name,
			BytesSaved:       entry.BytesSaved(),
			ReductionPercent: percent(entry.Reduction()),
		})
	}
	r.Variants = append(r.Variants, variant)
}

// AddSkipped records assets that never reached any variant.
func (r *Report) AddSkipped(skipped ...stats.Skip) {
	r.Skipped = append(r.Skipped, skipped...)
}

// JSON encodes the report with stable indentation.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write stores the JSON and Markdown renderings atomically. Either path may
// be empty to skip that rendering.
func (r *Report) Write(jsonPath, markdownPath string) error {
	if jsonPath != "" {
		data, err := r.JSON()
		if err != nil {
			return services.Wrap(services.ErrTransformFailure, "report", "encode json", jsonPath, err)
		}
		if err := fileutil.WriteFileAtomic(jsonPath, data, 0o644); err != nil {
			return services.Wrap(services.ErrTransformFailure, "report", "write json", jsonPath, err)
		}
	}
	if markdownPath != "" {
		if err := fileutil.WriteFileAtomic(markdownPath, []byte(r.Markdown()), 0o644); err != nil {
			return services.Wrap(services.ErrTransformFailure, "report", "write markdown", markdownPath, err)
		}
	}
	return nil
}

func convertTotals(t stats.Totals) Totals {
	return Totals{
		Assets:           t.Assets,
		OriginalBytes:    t.OriginalBytes,
		OptimizedBytes:   t.OptimizedBytes,
		BytesSaved:       t.BytesSaved(),
		ReductionPercent: percent(t.Reduction()),
		Resized:          t.Resized,
		CopyThrough:      t.CopyThrough,
		WebPBytes:        t.WebPBytes,
	}
}

// percent converts a 0..1 reduction to a percentage with two decimals.
func percent(reduction float64) float64 {
	return math.Round(reduction*10000) / 100
}
