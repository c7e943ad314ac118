package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"assetopt/internal/classify"
)

const maxWorkers = 64

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateVariants(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateSizing(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > maxWorkers {
		return fmt.Errorf("pipeline.workers must be between 1 and %d", maxWorkers)
	}
	if c.WebP.AlphaQuality > 100 {
		return errors.New("webp.alpha_quality must be between 1 and 100")
	}
	if c.WebP.Method > 6 {
		return errors.New("webp.method must be between 0 and 6")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.AssetsDir == "" {
		return errors.New("paths.assets_dir must be set")
	}
	if samePath(c.Paths.ArchiveDir, c.Paths.AssetsDir) {
		return errors.New("paths.archive_dir must differ from paths.assets_dir")
	}
	if c.Variants.Preserve && samePath(c.Paths.OutputDir, c.Paths.AssetsDir) {
		return errors.New("paths.output_dir must differ from paths.assets_dir")
	}
	if c.Variants.Resize && samePath(c.Paths.ResizedDir, c.Paths.AssetsDir) {
		return errors.New("paths.resized_dir must differ from paths.assets_dir")
	}
	if c.Variants.Preserve && samePath(c.Paths.OutputDir, c.Paths.ArchiveDir) {
		return errors.New("paths.output_dir must differ from paths.archive_dir")
	}
	if c.Variants.Resize && samePath(c.Paths.ResizedDir, c.Paths.ArchiveDir) {
		return errors.New("paths.resized_dir must differ from paths.archive_dir")
	}
	if c.Variants.Preserve && c.Variants.Resize && samePath(c.Paths.OutputDir, c.Paths.ResizedDir) {
		return errors.New("paths.output_dir and paths.resized_dir must differ when both variants are enabled")
	}
	return nil
}

func (c *Config) validateVariants() error {
	if !c.Variants.Preserve && !c.Variants.Resize {
		return errors.New("variants: at least one of preserve or resize must be enabled")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.QuantizeSpeed < 1 || c.Tools.QuantizeSpeed > 11 {
		return errors.New("tools.quantize_speed must be between 1 and 11")
	}
	return nil
}

func (c *Config) validateSizing() error {
	if c.Sizing.DefaultMaxDimension <= 0 {
		return errors.New("sizing.default_max_dimension must be positive")
	}
	for key, value := range c.Sizing.MaxDimension {
		if _, err := classify.Parse(key); err != nil {
			return fmt.Errorf("sizing.max_dimension: %w", err)
		}
		if value <= 0 {
			return fmt.Errorf("sizing.max_dimension.%s must be positive", key)
		}
	}
	return nil
}

func (c *Config) validateQuality() error {
	for key, tier := range c.Quality.Image {
		if err := validateTierKey(key); err != nil {
			return fmt.Errorf("quality.image: %w", err)
		}
		prefix := "quality.image." + key
		if tier.QualityMin < 0 || tier.QualityMax > 100 || tier.QualityMin > tier.QualityMax {
			return fmt.Errorf("%s: quality range %d-%d must satisfy 0 <= min <= max <= 100", prefix, tier.QualityMin, tier.QualityMax)
		}
		if tier.MaxColors < 2 || tier.MaxColors > 256 {
			return fmt.Errorf("%s.max_colors must be between 2 and 256", prefix)
		}
		if tier.Dither < 0 || tier.Dither > 1 {
			return fmt.Errorf("%s.dither must be between 0 and 1", prefix)
		}
		if tier.LosslessLevel < 0 || tier.LosslessLevel > 7 {
			return fmt.Errorf("%s.lossless_level must be between 0 and 7", prefix)
		}
		if tier.WebPQuality < 0 || tier.WebPQuality > 100 {
			return fmt.Errorf("%s.webp_quality must be between 0 and 100", prefix)
		}
	}
	for key, tier := range c.Quality.Audio {
		if err := validateTierKey(key); err != nil {
			return fmt.Errorf("quality.audio: %w", err)
		}
		prefix := "quality.audio." + key
		if strings.TrimSpace(tier.Codec) == "" {
			return fmt.Errorf("%s.codec must be set", prefix)
		}
		if tier.Level < -1 || tier.Level > 10 {
			return fmt.Errorf("%s.level must be between -1 and 10", prefix)
		}
		if tier.Channels < 1 || tier.Channels > 8 {
			return fmt.Errorf("%s.channels must be between 1 and 8", prefix)
		}
		if tier.SampleRate < 8000 || tier.SampleRate > 192000 {
			return fmt.Errorf("%s.sample_rate must be between 8000 and 192000", prefix)
		}
	}
	return nil
}

func validateTierKey(key string) error {
	if key == DefaultTierKey {
		return nil
	}
	_, err := classify.Parse(key)
	return err
}

func (c *Config) validateClassifier() error {
	if len(c.Classifier.Rules) == 0 {
		return nil
	}
	if _, err := classify.New(c.ClassifierRules()); err != nil {
		return fmt.Errorf("classifier.rules: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// ClassifierRules converts configured rules into classifier rules. It returns
// nil when the built-in table should be used.
func (c *Config) ClassifierRules() []classify.Rule {
	if len(c.Classifier.Rules) == 0 {
		return nil
	}
	rules := make([]classify.Rule, 0, len(c.Classifier.Rules))
	for _, rule := range c.Classifier.Rules {
		rules = append(rules, classify.Rule{
			Category:   classify.Category(rule.Category),
			Media:      classify.Media(rule.Media),
			Substrings: append([]string(nil), rule.Patterns...),
		})
	}
	return rules
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
