package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"assetopt/internal/classify"
	"assetopt/internal/optimize"
	"assetopt/internal/stats"
)

func sampleSummary() stats.Summary {
	agg := stats.New()
	agg.Record(optimize.Result{
		Name: "Skybox_Day.png", Category: classify.Skybox, Media: classify.MediaImage,
		Tool: "pngquant", Output: "/out/Skybox_Day.png",
		OriginalBytes: 4_000_000, OptimizedBytes: 1_000_000,
		OriginalWidth: 8192, OriginalHeight: 4096, NewWidth: 4096, NewHeight: 2048, DimensionsChanged: true,
	})
	agg.Record(optimize.Result{
		Name: "sfx/Gunshot.wav", Category: classify.ImpactAudio, Media: classify.MediaAudio,
		Tool: optimize.ToolCopyThrough, Output: "/out/sfx/Gunshot.wav",
		OriginalBytes: 1000, OptimizedBytes: 1000,
	})
	agg.RecordSkipped("locked.png", "rename failed")
	return agg.Summarize()
}

func sampleReport() *Report {
	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	r := New("run-1", at, "/archive/20260402_093000", map[string]string{"pngquant": "3.0.3"})
	r.AddVariant("resize", "/out", sampleSummary(), DefaultTopWins)
	r.AddSkipped(stats.Skip{Name: "broken.png", Reason: "invalid asset: zero area"})
	return r
}

func TestJSONSchema(t *testing.T) {
	data, err := sampleReport().JSON()
	if err != nil {
		t.Fatalf("JSON returned error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"run_id", "timestamp", "archive_dir", "tools", "variants", "skipped"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("report JSON missing %q: %s", key, data)
		}
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode typed: %v", err)
	}
	variant := report.Variants[0]
	sky := variant.PerAsset["Skybox_Day.png"]
	if sky.OriginalDims != "8192x4096" || sky.NewDims != "4096x2048" || sky.ReductionPercent != 75 {
		t.Fatalf("unexpected skybox entry %+v", sky)
	}
	if audio := variant.PerAsset["sfx/Gunshot.wav"]; audio.OriginalDims != "" || audio.Tool != optimize.ToolCopyThrough {
		t.Fatalf("unexpected audio entry %+v", audio)
	}
	if variant.Totals.OriginalBytes != 4_001_000 || variant.Totals.OptimizedBytes != 1_001_000 || variant.Totals.BytesSaved != 3_000_000 {
		t.Fatalf("unexpected totals %+v", variant.Totals)
	}
	if variant.Totals.ReductionPercent != 74.98 {
		t.Fatalf("reduction percent = %v, want 74.98", variant.Totals.ReductionPercent)
	}
	if len(variant.TopWins) != 2 || variant.TopWins[0].Name != "Skybox_Day.png" {
		t.Fatalf("unexpected top wins %+v", variant.TopWins)
	}
	if len(variant.Failed) != 1 || len(report.Skipped) != 1 {
		t.Fatalf("unexpected skips %+v %+v", variant.Failed, report.Skipped)
	}
}

func TestMarkdownContents(t *testing.T) {
	md := sampleReport().Markdown()
	for _, want := range []string{
		"# Asset optimization report",
		"run-1",
		"pngquant (3.0.3)",
		"## Resize",
		"### Top wins",
		"Impact Audio",
		"8192x4096 → 4096x2048",
		"broken.png",
		"rename failed",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownWithoutTools(t *testing.T) {
	r := New("run-2", time.Now(), "", nil)
	r.AddVariant("preserve", "/out", stats.New().Summarize(), DefaultTopWins)
	md := r.Markdown()
	if !strings.Contains(md, "none available") {
		t.Fatalf("expected tool absence note:\n%s", md)
	}
	if strings.Contains(md, "### Assets") {
		t.Fatalf("empty variant rendered an asset table:\n%s", md)
	}
}

func TestWriteIsAtomicAndComplete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	jsonPath := filepath.Join(dir, "optimization_report.json")
	mdPath := filepath.Join(dir, "optimization_report.md")
	if err := sampleReport().Write(jsonPath, mdPath); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	for _, path := range []string{jsonPath, mdPath} {
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Fatalf("expected %s to be written: %v", path, err)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("expected only the two reports, found %d entries", len(entries))
	}
}

func TestCategoryLabel(t *testing.T) {
	tests := map[string]string{
		"impact-audio": "Impact Audio",
		"ui":           "Ui",
		"preserve":     "Preserve",
		"":             "misc",
	}
	for in, want := range tests {
		if got := CategoryLabel(in); got != want {
			t.Fatalf("CategoryLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
