package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"assetopt/internal/history"
	"assetopt/internal/testsupport"
)

func TestRecordAndGetRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	run := history.Run{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		AssetsDir:  cfg.Paths.AssetsDir,
		ArchiveDir: "/archive/20260402_093000",
		Assets:     2,
		Skipped:    1,
	}
	results := []history.Result{
		{Variant: "preserve", Name: "a.png", Category: "tree", Tool: "pngquant", OriginalBytes: 100, OptimizedBytes: 40},
		{Variant: "preserve", Name: "b.wav", Category: "impact-audio", Tool: "ffmpeg", OriginalBytes: 300, OptimizedBytes: 100},
		{Variant: "resize", Name: "a.png", Category: "tree", Tool: "pngquant", OriginalBytes: 100, OptimizedBytes: 20},
	}
	if err := store.RecordRun(ctx, run, results); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run to be found")
	}
	if got.Status != history.StatusCompleted || got.ArchiveDir != run.ArchiveDir || !got.StartedAt.Equal(started) {
		t.Fatalf("unexpected run %+v", got)
	}
	if got.ReportPath != "" || got.ErrorMessage != "" {
		t.Fatalf("expected empty optional fields, got %+v", got)
	}
	if len(got.Variants) != 2 {
		t.Fatalf("expected two variants, got %+v", got.Variants)
	}
	if v := got.Variants[0]; v.Variant != "preserve" || v.Assets != 2 || v.OriginalBytes != 400 || v.OptimizedBytes != 140 {
		t.Fatalf("unexpected preserve totals %+v", v)
	}

	stored, err := store.Results(ctx, "run-1")
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if len(stored) != 3 || stored[2].Variant != "resize" {
		t.Fatalf("unexpected results %+v", stored)
	}

	missing, err := store.GetRun(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetRun(unknown) = %+v, %v", missing, err)
	}
}

func TestRecordRunRejectsDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	run := history.Run{RunID: "dup", StartedAt: time.Now(), AssetsDir: "/assets"}
	if err := store.RecordRun(ctx, run, nil); err != nil {
		t.Fatalf("first RecordRun failed: %v", err)
	}
	if err := store.RecordRun(ctx, run, nil); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
	if err := store.RecordRun(ctx, history.Run{}, nil); err == nil {
		t.Fatal("expected missing run id to fail")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		run := history.Run{RunID: id, StartedAt: base.Add(time.Duration(i) * time.Hour), AssetsDir: "/assets"}
		if id == "second" {
			run.Status = history.StatusAborted
			run.ErrorMessage = "backup failure"
		}
		if err := store.RecordRun(ctx, run, nil); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "third" || runs[1].RunID != "second" {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if runs[1].Status != history.StatusAborted || runs[1].ErrorMessage != "backup failure" {
		t.Fatalf("unexpected aborted run %+v", runs[1])
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListRuns(0) = %d runs, %v", len(all), err)
	}
}

func TestReopenKeepsLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := first.RecordRun(ctx, history.Run{RunID: "kept", StartedAt: time.Now(), AssetsDir: "/a"}, nil); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenHistory(t, cfg)
	run, err := second.GetRun(ctx, "kept")
	if err != nil || run == nil {
		t.Fatalf("expected run to survive reopen: %+v, %v", run, err)
	}
	if second.Path() != cfg.HistoryPath() {
		t.Fatalf("Path = %q, want %q", second.Path(), cfg.HistoryPath())
	}
}

func TestOpenRejectsNewerLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := history.OpenPath(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
