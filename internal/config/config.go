package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	AssetsDir  string `toml:"assets_dir"`
	ArchiveDir string `toml:"archive_dir"`
	OutputDir  string `toml:"output_dir"`
	ResizedDir string `toml:"resized_dir"`
	ReportDir  string `toml:"report_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Discovery selects which files under the assets directory are processed.
// Patterns use doublestar syntax relative to the assets directory.
type Discovery struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// Variants toggles the output roots produced per run.
type Variants struct {
	// Preserve writes same-dimension optimized copies to paths.output_dir.
	Preserve bool `toml:"preserve"`
	// Resize writes category-resized optimized copies to paths.resized_dir.
	Resize bool `toml:"resize"`
}

// Tools names the external binaries and bounds their runtime.
type Tools struct {
	Pngquant            string `toml:"pngquant"`
	Optipng             string `toml:"optipng"`
	FFmpeg              string `toml:"ffmpeg"`
	FFprobe             string `toml:"ffprobe"`
	Cwebp               string `toml:"cwebp"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
	QuantizeSpeed       int    `toml:"quantize_speed"`
}

// Pipeline controls batch execution.
type Pipeline struct {
	Workers int `toml:"workers"`
}

// WebP controls the optional WebP sibling artifact.
type WebP struct {
	Enabled      bool `toml:"enabled"`
	AlphaQuality int  `toml:"alpha_quality"`
	Method       int  `toml:"method"`
}

// Sizing maps categories to maximum image dimensions.
type Sizing struct {
	DefaultMaxDimension int            `toml:"default_max_dimension"`
	MaxDimension        map[string]int `toml:"max_dimension"`
}

// ImageQuality parameterizes the PNG quantizer, recompressor, and WebP encoder.
type ImageQuality struct {
	QualityMin    int     `toml:"quality_min"`
	QualityMax    int     `toml:"quality_max"`
	MaxColors     int     `toml:"max_colors"`
	Dither        float64 `toml:"dither"`
	LosslessLevel int     `toml:"lossless_level"`
	WebPQuality   int     `toml:"webp_quality"`
}

// AudioQuality parameterizes the audio transcoder.
type AudioQuality struct {
	Codec      string `toml:"codec"`
	Extension  string `toml:"extension"`
	Level      int    `toml:"level"`
	Channels   int    `toml:"channels"`
	SampleRate int    `toml:"sample_rate"`
	Filter     string `toml:"filter"`
}

// Quality holds per-category tiers. The "default" key applies to categories
// without an explicit entry.
type Quality struct {
	Image map[string]ImageQuality `toml:"image"`
	Audio map[string]AudioQuality `toml:"audio"`
}

// ClassifierRule overrides one entry of the classification table.
type ClassifierRule struct {
	Category string   `toml:"category"`
	Media    string   `toml:"media"`
	Patterns []string `toml:"patterns"`
}

// Classifier optionally replaces the built-in classification table.
type Classifier struct {
	Rules []ClassifierRule `toml:"rules"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for assetopt.
//
// Configuration sections by subsystem:
//   - Paths: asset, archive, output, report, and state directories
//   - Discovery: include/exclude patterns under the assets directory
//   - Variants: same-dimension and resized output roots
//   - Tools: external binaries and invocation timeouts
//   - Pipeline: worker count
//   - WebP: sibling WebP artifact settings
//   - Sizing: per-category maximum dimensions
//   - Quality: per-category image and audio tiers
//   - Classifier: optional replacement classification table
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Discovery  Discovery  `toml:"discovery"`
	Variants   Variants   `toml:"variants"`
	Tools      Tools      `toml:"tools"`
	Pipeline   Pipeline   `toml:"pipeline"`
	WebP       WebP       `toml:"webp"`
	Sizing     Sizing     `toml:"sizing"`
	Quality    Quality    `toml:"quality"`
	Classifier Classifier `toml:"classifier"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/assetopt/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("assetopt.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output, report, state, and log directories.
// The archive root is created here too; per-run archive folders are claimed by
// the archive manager.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ArchiveDir, c.Paths.ReportDir, c.Paths.StateDir}
	if c.Variants.Preserve {
		dirs = append(dirs, c.Paths.OutputDir)
	}
	if c.Variants.Resize {
		dirs = append(dirs, c.Paths.ResizedDir)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the run-history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// ReportPaths returns the JSON and Markdown report locations.
func (c *Config) ReportPaths() (jsonPath, markdownPath string) {
	return filepath.Join(c.Paths.ReportDir, "optimization_report.json"),
		filepath.Join(c.Paths.ReportDir, "optimization_report.md")
}

// ToolTimeout returns the per-invocation timeout for external tools.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Tools.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the timeout used for capability probes.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Tools.ProbeTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path. A non-empty
// assetsDir replaces the sample's paths.assets_dir value.
func CreateSample(path, assetsDir string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	content := sampleConfig
	if assetsDir = strings.TrimSpace(assetsDir); assetsDir != "" {
		line, err := toml.Marshal(map[string]string{"assets_dir": assetsDir})
		if err != nil {
			return fmt.Errorf("encode assets_dir: %w", err)
		}
		content = strings.Replace(content, sampleAssetsLine, strings.TrimSpace(string(line)), 1)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

const sampleAssetsLine = `assets_dir = "public/assets"`
