package stats

import (
	"fmt"
	"sort"

	"assetopt/internal/classify"
	"assetopt/internal/optimize"
)

// Entry is the summary of one transformed asset.
type Entry struct {
	Name              string            `json:"name"`
	Category          classify.Category `json:"category"`
	Media             classify.Media    `json:"media"`
	Tool              string            `json:"tool"`
	Output            string            `json:"output"`
	OriginalBytes     int64             `json:"original_bytes"`
	OptimizedBytes    int64             `json:"optimized_bytes"`
	OriginalDims      string            `json:"original_dims,omitempty"`
	NewDims           string            `json:"new_dims,omitempty"`
	DimensionsChanged bool              `json:"dimensions_changed"`
	WebPBytes         int64             `json:"webp_bytes,omitempty"`
}

// BytesSaved is original minus optimized bytes.
func (e Entry) BytesSaved() int64 {
	return e.OriginalBytes - e.OptimizedBytes
}

// Reduction is 1 - optimized/original, or 0 when the original was empty.
func (e Entry) Reduction() float64 {
	return reduction(e.OriginalBytes, e.OptimizedBytes)
}

// Skip records an asset that never reached the orchestrator.
type Skip struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Totals are field sums over a set of entries.
type Totals struct {
	Assets         int   `json:"assets"`
	OriginalBytes  int64 `json:"original_bytes"`
	OptimizedBytes int64 `json:"optimized_bytes"`
	WebPBytes      int64 `json:"webp_bytes,omitempty"`
	Resized        int   `json:"resized"`
	CopyThrough    int   `json:"copy_through"`
}

// BytesSaved is original minus optimized bytes.
func (t Totals) BytesSaved() int64 {
	return t.OriginalBytes - t.OptimizedBytes
}

// Reduction is 1 - optimized/original, or 0 when nothing was recorded.
func (t Totals) Reduction() float64 {
	return reduction(t.OriginalBytes, t.OptimizedBytes)
}

func (t *Totals) add(e Entry) {
	t.Assets++
	t.OriginalBytes += e.OriginalBytes
	t.OptimizedBytes += e.OptimizedBytes
	t.WebPBytes += e.WebPBytes
	if e.DimensionsChanged {
		t.Resized++
	}
	if e.Tool == optimize.ToolCopyThrough {
		t.CopyThrough++
	}
}

// CategoryTotals groups totals by category.
type CategoryTotals struct {
	Category classify.Category `json:"category"`
	Totals
}

// Summary is the read-only view produced by Summarize.
type Summary struct {
	Entries    []Entry          `json:"entries"`
	Skipped    []Skip           `json:"skipped"`
	Totals     Totals           `json:"totals"`
	Categories []CategoryTotals `json:"categories"`
	Tools      map[string]int   `json:"tools"`
}

// TopWins returns up to n entries ordered by bytes saved, largest first.
// Ties keep their recorded order.
func (s Summary) TopWins(n int) []Entry {
	if n <= 0 || len(s.Entries) == 0 {
		return nil
	}
	ranked := make([]Entry, len(s.Entries))
	copy(ranked, s.Entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].BytesSaved() > ranked[j].BytesSaved()
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Aggregator accumulates entries. It is not safe for concurrent use; give
// each worker or variant its own and Merge them.
type Aggregator struct {
	entries []Entry
	skipped []Skip
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Record appends the summary of result.
func (a *Aggregator) Record(result optimize.Result) {
	entry := Entry{
		Name:              result.Name,
		Category:          result.Category,
		Media:             result.Media,
		Tool:              result.Tool,
		Output:            result.Output,
		OriginalBytes:     result.OriginalBytes,
		OptimizedBytes:    result.OptimizedBytes,
		DimensionsChanged: result.DimensionsChanged,
		WebPBytes:         result.WebPBytes,
	}
	if result.OriginalWidth > 0 && result.OriginalHeight > 0 {
		entry.OriginalDims = fmt.Sprintf("%dx%d", result.OriginalWidth, result.OriginalHeight)
	}
	if result.DimensionsChanged {
		entry.NewDims = fmt.Sprintf("%dx%d", result.NewWidth, result.NewHeight)
	}
	a.entries = append(a.entries, entry)
}

// RecordSkipped notes an asset that was not transformed.
func (a *Aggregator) RecordSkipped(name, reason string) {
	a.skipped = append(a.skipped, Skip{Name: name, Reason: reason})
}

// Merge appends everything other has recorded, after a's own entries.
func (a *Aggregator) Merge(other *Aggregator) {
	if other == nil {
		return
	}
	a.entries = append(a.entries, other.entries...)
	a.skipped = append(a.skipped, other.skipped...)
}

// Len reports the number of recorded entries.
func (a *Aggregator) Len() int {
	return len(a.entries)
}

// Summarize computes totals without modifying the aggregator.
func (a *Aggregator) Summarize() Summary {
	summary := Summary{
		Entries: append([]Entry(nil), a.entries...),
		Skipped: append([]Skip(nil), a.skipped...),
		Tools:   make(map[string]int),
	}
	byCategory := make(map[classify.Category]*Totals)
	for _, entry := range a.entries {
		summary.Totals.add(entry)
		summary.Tools[entry.Tool]++
		totals, ok := byCategory[entry.Category]
		if !ok {
			totals = &Totals{}
			byCategory[entry.Category] = totals
		}
		totals.add(entry)
	}
	for _, category := range classify.All() {
		if totals, ok := byCategory[category]; ok {
			summary.Categories = append(summary.Categories, CategoryTotals{Category: category, Totals: *totals})
		}
	}
	return summary
}

func reduction(original, optimized int64) float64 {
	if original <= 0 {
		return 0
	}
	return 1 - float64(optimized)/float64(original)
}
