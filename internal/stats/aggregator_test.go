package stats

import (
	"math"
	"reflect"
	"testing"

	"assetopt/internal/classify"
	"assetopt/internal/optimize"
)

func result(name string, category classify.Category, original, optimized int64, tool string) optimize.Result {
	return optimize.Result{
		Name:           name,
		Category:       category,
		Media:          classify.MediaImage,
		Tool:           tool,
		OriginalBytes:  original,
		OptimizedBytes: optimized,
	}
}

func TestSummarizeTotalsAndReduction(t *testing.T) {
	agg := New()
	agg.Record(result("a.png", classify.Tree, 1000, 250, "pngquant"))
	agg.Record(result("b.png", classify.Tree, 3000, 3000, optimize.ToolCopyThrough))
	agg.Record(result("c.png", classify.UI, 0, 0, optimize.ToolCopyThrough))

	summary := agg.Summarize()
	if summary.Totals.Assets != 3 || summary.Totals.OriginalBytes != 4000 || summary.Totals.OptimizedBytes != 3250 {
		t.Fatalf("unexpected totals %+v", summary.Totals)
	}
	if summary.Totals.CopyThrough != 2 {
		t.Fatalf("copy-through count = %d, want 2", summary.Totals.CopyThrough)
	}
	if got := summary.Totals.Reduction(); math.Abs(got-0.1875) > 1e-9 {
		t.Fatalf("total reduction = %v, want 0.1875", got)
	}
	if got := summary.Entries[0].Reduction(); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("entry reduction = %v, want 0.75", got)
	}
	if got := summary.Entries[2].Reduction(); got != 0 {
		t.Fatalf("empty original reduction = %v, want 0", got)
	}
	if summary.Tools["pngquant"] != 1 || summary.Tools[optimize.ToolCopyThrough] != 2 {
		t.Fatalf("unexpected tool counts %v", summary.Tools)
	}
	if len(summary.Categories) != 2 || summary.Categories[0].Category != classify.Tree || summary.Categories[0].Assets != 2 {
		t.Fatalf("unexpected category totals %+v", summary.Categories)
	}
}

func TestRecordKeepsOrderAndDimensions(t *testing.T) {
	agg := New()
	resized := result("big.png", classify.Skybox, 100, 50, "pngquant")
	resized.OriginalWidth, resized.OriginalHeight = 8192, 4096
	resized.NewWidth, resized.NewHeight = 4096, 2048
	resized.DimensionsChanged = true
	agg.Record(result("z.png", classify.Misc, 10, 5, "optipng"))
	agg.Record(resized)

	summary := agg.Summarize()
	names := []string{summary.Entries[0].Name, summary.Entries[1].Name}
	if !reflect.DeepEqual(names, []string{"z.png", "big.png"}) {
		t.Fatalf("order = %v", names)
	}
	if summary.Entries[1].OriginalDims != "8192x4096" || summary.Entries[1].NewDims != "4096x2048" {
		t.Fatalf("unexpected dims %+v", summary.Entries[1])
	}
	if summary.Entries[0].NewDims != "" {
		t.Fatalf("unchanged asset reported new dims %q", summary.Entries[0].NewDims)
	}
	if summary.Totals.Resized != 1 {
		t.Fatalf("resized = %d, want 1", summary.Totals.Resized)
	}
}

func TestMergeIsAdditive(t *testing.T) {
	inputs := []optimize.Result{
		result("a.png", classify.Tree, 100, 40, "pngquant"),
		result("b.png", classify.UI, 200, 150, "optipng"),
		result("c.wav", classify.ImpactAudio, 900, 300, "ffmpeg"),
		result("d.png", classify.Misc, 50, 50, optimize.ToolCopyThrough),
	}

	whole := New()
	for _, r := range inputs {
		whole.Record(r)
	}
	whole.RecordSkipped("bad.png", "invalid asset")

	left, right := New(), New()
	left.Record(inputs[0])
	left.Record(inputs[1])
	right.Record(inputs[2])
	right.Record(inputs[3])
	right.RecordSkipped("bad.png", "invalid asset")
	left.Merge(right)
	left.Merge(nil)

	if !reflect.DeepEqual(whole.Summarize(), left.Summarize()) {
		t.Fatalf("merged summary differs:\nwhole=%+v\nmerged=%+v", whole.Summarize(), left.Summarize())
	}
	if left.Len() != 4 {
		t.Fatalf("Len = %d, want 4", left.Len())
	}
}

func TestTopWinsRanksByBytesSaved(t *testing.T) {
	agg := New()
	agg.Record(result("small-pct-big-bytes.png", classify.Skybox, 10_000_000, 8_000_000, "pngquant"))
	agg.Record(result("big-pct-small-bytes.png", classify.UI, 1000, 10, "pngquant"))
	agg.Record(result("tie-first.png", classify.Tree, 500, 0, "pngquant"))
	agg.Record(result("tie-second.png", classify.Tree, 600, 100, "pngquant"))
	agg.Record(result("grew.png", classify.Misc, 100, 120, "optipng"))

	summary := agg.Summarize()
	tests := []struct {
		n    int
		want []string
	}{
		{0, nil},
		{1, []string{"small-pct-big-bytes.png"}},
		{4, []string{"small-pct-big-bytes.png", "big-pct-small-bytes.png", "tie-first.png", "tie-second.png"}},
		{10, []string{"small-pct-big-bytes.png", "big-pct-small-bytes.png", "tie-first.png", "tie-second.png", "grew.png"}},
	}
	for _, tt := range tests {
		var got []string
		for _, entry := range summary.TopWins(tt.n) {
			got = append(got, entry.Name)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("TopWins(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
	if summary.Entries[0].Name != "small-pct-big-bytes.png" || summary.Entries[4].Name != "grew.png" {
		t.Fatal("TopWins reordered the summary entries")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := New().Summarize()
	if summary.Totals.Assets != 0 || summary.Totals.Reduction() != 0 || len(summary.TopWins(5)) != 0 {
		t.Fatalf("unexpected empty summary %+v", summary)
	}
}
