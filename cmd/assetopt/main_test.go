package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"assetopt/internal/config"
	"assetopt/internal/history"
	"assetopt/internal/pipeline"
	"assetopt/internal/report"
	"assetopt/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "assetopt.toml")
	writeTestConfig(t, configPath, cfg)

	dir := cfg.Paths.AssetsDir
	testsupport.WritePNG(t, filepath.Join(dir, "Palm_Tree.png"), 64, 32)
	testsupport.WriteWAV(t, filepath.Join(dir, "sfx", "gunshot.wav"), 8000, 1, 400)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	assets := filepath.Join(env.baseDir, "game")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite", "--assets", assets}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	cfg, _, _, err := config.Load(target)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Paths.AssetsDir != assets {
		t.Fatalf("assets_dir = %q, want %q", cfg.Paths.AssetsDir, assets)
	}
}

func TestConfigValidateRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[paths]\nassets = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected unknown key to fail validation")
	}
}

func TestClassifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"classify", "Palm_Tree.png", "explosion_big.wav", "readme.txt"}, env.configPath)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, "Tree")
	requireContains(t, out, "Impact Audio")
	requireContains(t, out, "unsupported extension")

	out, _, err = runCLI(t, []string{"--json", "classify", "skybox_day.png"}, env.configPath)
	if err != nil {
		t.Fatalf("classify --json: %v", err)
	}
	var results []classification
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode classify json: %v\n%s", err, out)
	}
	if len(results) != 1 || results[0].Category != "skybox" || results[0].Rule < 0 {
		t.Fatalf("unexpected classification %+v", results)
	}
	if results[0].MaxDimension != 4096 {
		t.Fatalf("expected skybox max dimension 4096, got %d", results[0].MaxDimension)
	}
}

func TestPlanAndDryRunWriteNothing(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"plan"}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Palm_Tree.png")
	requireContains(t, out, "copy-through")

	out, _, err = runCLI(t, []string{"--json", "run", "--dry-run", "--variant", "resize"}, env.configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	var plan pipeline.PlanOutcome
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan json: %v\n%s", err, out)
	}
	if len(plan.Assets) != 2 {
		t.Fatalf("expected 2 planned assets, got %d", len(plan.Assets))
	}
	for _, asset := range plan.Assets {
		if asset.Variant != pipeline.VariantResize {
			t.Fatalf("unexpected variant %q in plan", asset.Variant)
		}
	}

	entries, err := os.ReadDir(env.cfg.Paths.ArchiveDir)
	if err == nil && len(entries) > 0 {
		t.Fatalf("dry run created archive entries: %v", entries)
	}
	jsonPath, _ := env.cfg.ReportPaths()
	if _, err := os.Stat(jsonPath); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote a report: %v", err)
	}
}

func TestRunRunsAndRestore(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "run", "--workers", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode run json: %v\n%s", err, out)
	}
	if rep.RunID == "" || rep.ArchiveDir == "" {
		t.Fatalf("report missing run id or archive dir: %+v", rep)
	}
	if len(rep.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(rep.Variants))
	}
	for _, name := range []string{"Palm_Tree.png", "sfx/gunshot.wav"} {
		if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, filepath.FromSlash(name))); err != nil {
			t.Fatalf("expected optimized %s: %v", name, err)
		}
	}

	out, _, err = runCLI(t, []string{"--json", "runs", "--limit", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs json: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].RunID != rep.RunID || runs[0].Status != history.StatusCompleted {
		t.Fatalf("unexpected runs %+v", runs)
	}

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs table: %v", err)
	}
	requireContains(t, out, rep.RunID)

	dest := filepath.Join(env.baseDir, "restored")
	out, _, err = runCLI(t, []string{"restore", rep.RunID, "--dest", dest}, env.configPath)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	requireContains(t, out, "Restored 2 file(s)")
	original, err := os.ReadFile(filepath.Join(env.cfg.Paths.AssetsDir, "sfx", "gunshot.wav"))
	if err != nil {
		t.Fatalf("read original: %v", err)
	}
	restored, err := os.ReadFile(filepath.Join(dest, "sfx", "gunshot.wav"))
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if !bytes.Equal(original, restored) {
		t.Fatal("restored file differs from original")
	}

	if _, _, err := runCLI(t, []string{"restore", "no-such-run"}, env.configPath); err == nil {
		t.Fatal("expected restore of unknown run to fail")
	}
}

func TestToolsCommandReportsMissingTools(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"tools"}, env.configPath)
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	requireContains(t, out, "== Tools ==")
	requireContains(t, out, "[WARN]")
	requireContains(t, out, "pngquant")
	requireContains(t, out, "Assets directory")
	requireContains(t, out, "copy assets through unchanged")
}
