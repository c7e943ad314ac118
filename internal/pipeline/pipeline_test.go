package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"assetopt/internal/config"
	"assetopt/internal/history"
	"assetopt/internal/imaging"
	"assetopt/internal/optimize"
	"assetopt/internal/services"
	"assetopt/internal/testsupport"
)

func seedAssets(t *testing.T, cfg *config.Config) {
	t.Helper()
	dir := cfg.Paths.AssetsDir
	testsupport.WritePNG(t, filepath.Join(dir, "Palm_Tree.png"), 64, 32)
	testsupport.WritePNG(t, filepath.Join(dir, "floor_big.png"), 600, 300)
	testsupport.WriteWAV(t, filepath.Join(dir, "gunshot.wav"), 8000, 1, 400)
	testsupport.WriteFile(t, filepath.Join(dir, "broken.png"), 64)
}

func newRunner(t *testing.T, cfg *config.Config, store *history.Store) *Runner {
	t.Helper()
	runner, err := New(cfg, nil, store)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	runner.newRunID = func() string { return "run-test" }
	runner.now = func() time.Time { return time.Date(2026, 4, 2, 9, 30, 0, 0, time.Local) }
	return runner
}

func variantOutcome(t *testing.T, outcome *Outcome, name string) VariantOutcome {
	t.Helper()
	for _, v := range outcome.Variants {
		if v.Variant.Name == name {
			return v
		}
	}
	t.Fatalf("variant %s missing from outcome", name)
	return VariantOutcome{}
}

func TestRunWithoutAnyToolCopiesThrough(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedAssets(t, cfg)
	store := testsupport.MustOpenHistory(t, cfg)

	outcome, err := newRunner(t, cfg, store).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if outcome.Archive == nil || len(outcome.Archive.Entries) != 3 {
		t.Fatalf("expected three archived originals, got %+v", outcome.Archive)
	}
	if len(outcome.Skipped) != 1 || outcome.Skipped[0].Name != "broken.png" {
		t.Fatalf("expected broken.png to be skipped, got %+v", outcome.Skipped)
	}

	preserve := variantOutcome(t, outcome, VariantPreserve)
	if preserve.Summary.Totals.CopyThrough != 3 {
		t.Fatalf("expected every asset copied through, got %+v", preserve.Summary.Totals)
	}
	for _, entry := range preserve.Summary.Entries {
		original, _ := os.ReadFile(filepath.Join(cfg.Paths.AssetsDir, entry.Name))
		written, err := os.ReadFile(entry.Output)
		if err != nil || !bytes.Equal(original, written) {
			t.Fatalf("copy-through output for %s differs: %v", entry.Name, err)
		}
	}

	resized := variantOutcome(t, outcome, VariantResize)
	var floor, palm bool
	for _, entry := range resized.Summary.Entries {
		switch entry.Name {
		case "floor_big.png":
			floor = true
			w, h, err := imaging.Dimensions(entry.Output)
			if err != nil || w != 512 || h != 256 {
				t.Fatalf("floor_big.png resized to %dx%d (%v), want 512x256", w, h, err)
			}
			if entry.NewDims != "512x256" {
				t.Fatalf("new dims = %q", entry.NewDims)
			}
		case "Palm_Tree.png":
			palm = true
			if entry.DimensionsChanged {
				t.Fatal("small tree texture must not be resized")
			}
		}
	}
	if !floor || !palm {
		t.Fatalf("resize variant missing entries: %+v", resized.Summary.Entries)
	}
	wantOriginal := preserve.Summary.Totals.OriginalBytes + resized.Summary.Totals.OriginalBytes
	if outcome.Totals.Assets != 6 || outcome.Totals.OriginalBytes != wantOriginal || outcome.Totals.Resized != 1 {
		t.Fatalf("run totals %+v do not sum both variants", outcome.Totals)
	}

	for _, path := range []string{outcome.JSONPath, outcome.MarkdownPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected report %s: %v", path, err)
		}
	}
	if len(outcome.Report.Tools) != 0 {
		t.Fatalf("expected no tools in report, got %v", outcome.Report.Tools)
	}

	run, err := store.GetRun(context.Background(), "run-test")
	if err != nil || run == nil {
		t.Fatalf("expected history row: %+v, %v", run, err)
	}
	if run.Status != history.StatusCompleted || run.Assets != 3 || run.Skipped != 1 || len(run.Variants) != 2 {
		t.Fatalf("unexpected history row %+v", run)
	}
}

func TestRunUsesAvailableTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(nil))
	seedAssets(t, cfg)
	cfg.Variants.Resize = false

	outcome, err := newRunner(t, cfg, nil).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	preserve := variantOutcome(t, outcome, VariantPreserve)
	for _, entry := range preserve.Summary.Entries {
		switch entry.Name {
		case "gunshot.wav":
			if entry.Tool != "ffmpeg" || filepath.Ext(entry.Output) != ".ogg" {
				t.Fatalf("unexpected audio entry %+v", entry)
			}
		default:
			if entry.Tool != "pngquant" {
				t.Fatalf("unexpected image entry %+v", entry)
			}
			if entry.WebPBytes == 0 {
				t.Fatalf("expected webp sibling for %s", entry.Name)
			}
		}
		if entry.OptimizedBytes >= entry.OriginalBytes {
			t.Fatalf("%s did not shrink: %d -> %d", entry.Name, entry.OriginalBytes, entry.OptimizedBytes)
		}
	}
	if preserve.Summary.Totals.Reduction() <= 0 {
		t.Fatalf("expected positive reduction, got %v", preserve.Summary.Totals.Reduction())
	}
	if len(outcome.Report.Variants[0].TopWins) == 0 {
		t.Fatal("expected top wins in report")
	}
}

func TestRunAbortsWhenArchiveFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedAssets(t, cfg)
	store := testsupport.MustOpenHistory(t, cfg)
	if err := os.MkdirAll(cfg.Paths.ArchiveDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := flock.New(filepath.Join(cfg.Paths.ArchiveDir, ".assetopt.lock"))
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("pre-lock failed: %v", err)
	}
	defer lock.Unlock() //nolint:errcheck

	_, err := newRunner(t, cfg, store).Run(context.Background(), Options{})
	if !errors.Is(err, services.ErrBackupFailure) {
		t.Fatalf("error = %v, want ErrBackupFailure", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.ResizedDir} {
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Fatalf("%s was written before the archive completed", dir)
		}
	}
	jsonPath, _ := cfg.ReportPaths()
	if _, err := os.Stat(jsonPath); !os.IsNotExist(err) {
		t.Fatalf("expected no report after an archive failure, stat err = %v", err)
	}
	run, err := store.GetRun(context.Background(), "run-test")
	if err != nil || run == nil || run.Status != history.StatusAborted {
		t.Fatalf("expected aborted history row, got %+v, %v", run, err)
	}
}

func TestRunParallelKeepsAssetOrder(t *testing.T) {
	names := func(workers int) []string {
		cfg := testsupport.NewConfig(t, testsupport.WithWorkers(workers))
		seedAssets(t, cfg)
		for _, n := range []string{"a_ui.png", "b_grass.png", "c_enemy.png", "d_skybox.png"} {
			testsupport.WritePNG(t, filepath.Join(cfg.Paths.AssetsDir, n), 16, 16)
		}
		outcome, err := newRunner(t, cfg, nil).Run(context.Background(), Options{Variants: []string{VariantPreserve}})
		if err != nil {
			t.Fatalf("Run(workers=%d) returned error: %v", workers, err)
		}
		var got []string
		for _, entry := range outcome.Variants[0].Summary.Entries {
			got = append(got, entry.Name)
		}
		return got
	}

	sequential := names(1)
	parallel := names(4)
	if !reflect.DeepEqual(sequential, parallel) {
		t.Fatalf("parallel order %v differs from sequential %v", parallel, sequential)
	}
	if sequential[0] != "Palm_Tree.png" {
		t.Fatalf("expected sorted discovery order, got %v", sequential)
	}
}

func TestRunRejectsCollidingOutputNames(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(nil))
	cfg.Variants.Resize = false
	dir := cfg.Paths.AssetsDir
	testsupport.WriteWAV(t, filepath.Join(dir, "jungle.flac"), 8000, 1, 400)
	testsupport.WriteWAV(t, filepath.Join(dir, "jungle.wav"), 8000, 1, 800)
	testsupport.WritePNG(t, filepath.Join(dir, "jungle.png"), 16, 16)

	plan, err := newRunner(t, cfg, nil).Plan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	for _, asset := range plan.Assets {
		collides := strings.Contains(asset.Error, "collides with jungle.flac")
		if collides != (asset.Name == "jungle.wav") {
			t.Fatalf("unexpected plan error for %s: %q", asset.Name, asset.Error)
		}
	}

	outcome, err := newRunner(t, cfg, nil).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	preserve := variantOutcome(t, outcome, VariantPreserve)
	var written []string
	for _, entry := range preserve.Summary.Entries {
		written = append(written, entry.Name)
	}
	if !reflect.DeepEqual(written, []string{"jungle.flac", "jungle.png"}) {
		t.Fatalf("optimized assets = %v", written)
	}
	if len(preserve.Summary.Skipped) != 1 || preserve.Summary.Skipped[0].Name != "jungle.wav" ||
		!strings.Contains(preserve.Summary.Skipped[0].Reason, "collides with jungle.flac") {
		t.Fatalf("expected jungle.wav to fail on the name collision, got %+v", preserve.Summary.Skipped)
	}

	flac, _ := os.ReadFile(filepath.Join(dir, "jungle.flac"))
	ogg, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "jungle.ogg"))
	if err != nil {
		t.Fatalf("read jungle.ogg: %v", err)
	}
	if len(ogg) != len(flac)/2 {
		t.Fatalf("jungle.ogg (%d bytes) was not produced from jungle.flac (%d bytes)", len(ogg), len(flac))
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedAssets(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newRunner(t, cfg, nil).Run(ctx, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestVariantsSelection(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	all, err := Variants(cfg, nil)
	if err != nil || len(all) != 2 || all[0].Name != VariantPreserve || !all[1].Resize {
		t.Fatalf("unexpected variants %+v, %v", all, err)
	}
	only, err := Variants(cfg, []string{"RESIZE"})
	if err != nil || len(only) != 1 || only[0].OutputDir != cfg.Paths.ResizedDir {
		t.Fatalf("unexpected selection %+v, %v", only, err)
	}
	if _, err := Variants(cfg, []string{"thumbnail"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("unknown variant error = %v", err)
	}
	cfg.Variants.Resize = false
	if _, err := Variants(cfg, []string{VariantResize}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("disabled variant error = %v", err)
	}
}

func TestPlanWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedAssets(t, cfg)

	plan, err := newRunner(t, cfg, nil).Plan(context.Background(), Options{Variants: []string{VariantResize}})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(plan.Assets) != 3 || len(plan.Skipped) != 1 {
		t.Fatalf("unexpected plan %+v", plan)
	}
	for _, asset := range plan.Assets {
		if !reflect.DeepEqual(asset.Chain, []string{optimize.ToolCopyThrough}) {
			t.Fatalf("expected copy-through only chain, got %v", asset.Chain)
		}
		if asset.Name == "floor_big.png" && (!asset.Resize || asset.TargetWidth != 512 || asset.TargetHeight != 256) {
			t.Fatalf("unexpected floor plan %+v", asset)
		}
		if asset.Name == "Palm_Tree.png" && asset.Resize {
			t.Fatalf("unexpected palm plan %+v", asset)
		}
	}
	for _, dir := range []string{cfg.Paths.ArchiveDir, cfg.Paths.OutputDir, cfg.Paths.ResizedDir, cfg.Paths.ReportDir} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("plan created %s", dir)
		}
	}
}
