package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDiscovery()
	c.normalizeTools()
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultWorkers
	}
	if c.WebP.AlphaQuality <= 0 {
		c.WebP.AlphaQuality = defaultWebPAlphaQuality
	}
	if c.WebP.Method <= 0 {
		c.WebP.Method = defaultWebPMethod
	}
	c.normalizeSizing()
	c.normalizeQuality()
	c.normalizeClassifier()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("ASSETOPT_ASSETS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.AssetsDir = strings.TrimSpace(value)
	}
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.assets_dir", &c.Paths.AssetsDir, defaultAssetsDir},
		{"paths.archive_dir", &c.Paths.ArchiveDir, defaultArchiveDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.resized_dir", &c.Paths.ResizedDir, defaultResizedDir},
		{"paths.report_dir", &c.Paths.ReportDir, defaultReportDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	// An empty log_dir disables file logging.
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Paths.LogDir))
		if err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
		c.Paths.LogDir = expanded
	}
	return nil
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.Include = cleanPatterns(c.Discovery.Include)
	if len(c.Discovery.Include) == 0 {
		c.Discovery.Include = []string{"*.png", "*.wav"}
	}
	c.Discovery.Exclude = cleanPatterns(c.Discovery.Exclude)
}

func cleanPatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	seen := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (c *Config) normalizeTools() {
	defaults := Default().Tools
	trimOr := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	trimOr(&c.Tools.Pngquant, defaults.Pngquant)
	trimOr(&c.Tools.Optipng, defaults.Optipng)
	trimOr(&c.Tools.FFmpeg, defaults.FFmpeg)
	trimOr(&c.Tools.FFprobe, defaults.FFprobe)
	trimOr(&c.Tools.Cwebp, defaults.Cwebp)
	if c.Tools.TimeoutSeconds <= 0 {
		c.Tools.TimeoutSeconds = defaultToolTimeoutSeconds
	}
	if c.Tools.ProbeTimeoutSeconds <= 0 {
		c.Tools.ProbeTimeoutSeconds = defaultProbeTimeoutSeconds
	}
	if c.Tools.QuantizeSpeed <= 0 {
		c.Tools.QuantizeSpeed = defaultQuantizeSpeed
	}
}

func (c *Config) normalizeSizing() {
	if c.Sizing.DefaultMaxDimension == 0 {
		c.Sizing.DefaultMaxDimension = defaultMaxDimension
	}
	normalized := make(map[string]int, len(c.Sizing.MaxDimension))
	for _, key := range canonicalFirst(mapKeys(c.Sizing.MaxDimension)) {
		normalized[normalizeKey(key)] = c.Sizing.MaxDimension[key]
	}
	c.Sizing.MaxDimension = normalized
}

// normalizeQuality lower-cases category keys and fills zero-valued fields
// from the built-in tier for that category (or the default tier), so a config
// file only needs to name the fields it overrides.
func (c *Config) normalizeQuality() {
	builtinImage := DefaultImageQuality()
	image := make(map[string]ImageQuality, len(c.Quality.Image)+1)
	for _, raw := range canonicalFirst(mapKeys(c.Quality.Image)) {
		tier := c.Quality.Image[raw]
		key := normalizeKey(raw)
		base, ok := builtinImage[key]
		if !ok {
			base = builtinImage[DefaultTierKey]
		}
		image[key] = mergeImage(tier, base)
	}
	if _, ok := image[DefaultTierKey]; !ok {
		image[DefaultTierKey] = builtinImage[DefaultTierKey]
	}
	c.Quality.Image = image

	builtinAudio := DefaultAudioQuality()
	audio := make(map[string]AudioQuality, len(c.Quality.Audio)+1)
	for _, raw := range canonicalFirst(mapKeys(c.Quality.Audio)) {
		tier := c.Quality.Audio[raw]
		key := normalizeKey(raw)
		base, ok := builtinAudio[key]
		if !ok {
			base = builtinAudio[DefaultTierKey]
		}
		audio[key] = mergeAudio(tier, base)
	}
	if _, ok := audio[DefaultTierKey]; !ok {
		audio[DefaultTierKey] = builtinAudio[DefaultTierKey]
	}
	c.Quality.Audio = audio
}

func mergeImage(tier, base ImageQuality) ImageQuality {
	if tier.QualityMin == 0 {
		tier.QualityMin = base.QualityMin
	}
	if tier.QualityMax == 0 {
		tier.QualityMax = base.QualityMax
	}
	if tier.MaxColors == 0 {
		tier.MaxColors = base.MaxColors
	}
	if tier.Dither == 0 {
		tier.Dither = base.Dither
	}
	if tier.LosslessLevel == 0 {
		tier.LosslessLevel = base.LosslessLevel
	}
	if tier.WebPQuality == 0 {
		tier.WebPQuality = base.WebPQuality
	}
	return tier
}

func mergeAudio(tier, base AudioQuality) AudioQuality {
	tier.Codec = strings.TrimSpace(tier.Codec)
	if tier.Codec == "" {
		tier.Codec = base.Codec
	}
	tier.Extension = strings.ToLower(strings.TrimSpace(tier.Extension))
	if tier.Extension == "" {
		tier.Extension = base.Extension
	}
	if !strings.HasPrefix(tier.Extension, ".") {
		tier.Extension = "." + tier.Extension
	}
	if tier.Level == 0 {
		tier.Level = base.Level
	}
	if tier.Channels == 0 {
		tier.Channels = base.Channels
	}
	if tier.SampleRate == 0 {
		tier.SampleRate = base.SampleRate
	}
	tier.Filter = strings.TrimSpace(tier.Filter)
	if tier.Filter == "" {
		tier.Filter = base.Filter
	}
	return tier
}

func (c *Config) normalizeClassifier() {
	for i := range c.Classifier.Rules {
		rule := &c.Classifier.Rules[i]
		rule.Category = normalizeKey(rule.Category)
		rule.Media = strings.ToLower(strings.TrimSpace(rule.Media))
		if rule.Media == "" {
			rule.Media = "image"
		}
		rule.Patterns = cleanPatterns(rule.Patterns)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}

// canonicalFirst orders keys so that already-normalized keys come before
// differently cased duplicates, letting the latter override.
func canonicalFirst(keys []string) []string {
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i] == normalizeKey(keys[i]) && keys[j] != normalizeKey(keys[j])
	})
	return keys
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
