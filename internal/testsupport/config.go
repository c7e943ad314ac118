package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"assetopt/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// All external tools point at names that do not resolve until a test stubs
// them with WithStubbedBinaries.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AssetsDir = filepath.Join(base, "assets")
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfgVal.Paths.OutputDir = filepath.Join(base, "optimized")
	cfgVal.Paths.ResizedDir = filepath.Join(base, "optimized_resized")
	cfgVal.Paths.ReportDir = filepath.Join(base, "reports")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = ""
	cfgVal.Tools.Pngquant = "assetopt-test-missing-pngquant"
	cfgVal.Tools.Optipng = "assetopt-test-missing-optipng"
	cfgVal.Tools.FFmpeg = "assetopt-test-missing-ffmpeg"
	cfgVal.Tools.FFprobe = "assetopt-test-missing-ffprobe"
	cfgVal.Tools.Cwebp = "assetopt-test-missing-cwebp"
	cfgVal.Tools.TimeoutSeconds = 10
	cfgVal.Tools.ProbeTimeoutSeconds = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(cfgVal.Paths.AssetsDir, 0o755); err != nil {
		t.Fatalf("mkdir assets dir: %v", err)
	}
	return builder.cfg
}

// WithWorkers sets the pipeline worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Workers = n
	}
}

// WithStubbedBinaries writes stub executables and prepends their directory to
// PATH for the duration of the test. Keys are tool names (pngquant, optipng,
// ffmpeg, ffprobe, cwebp) and values are shell scripts; the matching
// cfg.Tools entry is pointed at the stub. A nil map stubs every tool with
// the default successful scripts.
func WithStubbedBinaries(stubs map[string]string) ConfigOption {
	return func(b *configBuilder) {
		if stubs == nil {
			stubs = DefaultStubs()
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for name, script := range stubs {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			switch name {
			case "pngquant":
				b.cfg.Tools.Pngquant = name
			case "optipng":
				b.cfg.Tools.Optipng = name
			case "ffmpeg":
				b.cfg.Tools.FFmpeg = name
			case "ffprobe":
				b.cfg.Tools.FFprobe = name
			case "cwebp":
				b.cfg.Tools.Cwebp = name
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.AssetsDir)
}
