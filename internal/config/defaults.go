package config

const (
	defaultAssetsDir           = "public/assets"
	defaultArchiveDir          = "assets_archive"
	defaultOutputDir           = "public/assets_optimized"
	defaultResizedDir          = "public/assets_optimized_resized"
	defaultReportDir           = "."
	defaultStateDir            = "~/.local/share/assetopt"
	defaultLogDir              = "~/.local/share/assetopt/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultToolTimeoutSeconds  = 120
	defaultProbeTimeoutSeconds = 10
	defaultQuantizeSpeed       = 1
	defaultWorkers             = 1
	defaultMaxDimension        = 2048
	defaultWebPAlphaQuality    = 100
	defaultWebPMethod          = 6

	// DefaultTierKey selects the fallback tier in Quality maps.
	DefaultTierKey = "default"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AssetsDir:  defaultAssetsDir,
			ArchiveDir: defaultArchiveDir,
			OutputDir:  defaultOutputDir,
			ResizedDir: defaultResizedDir,
			ReportDir:  defaultReportDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Discovery: Discovery{
			Include: []string{"*.png", "*.wav"},
		},
		Variants: Variants{
			Preserve: true,
			Resize:   true,
		},
		Tools: Tools{
			Pngquant:            "pngquant",
			Optipng:             "optipng",
			FFmpeg:              "ffmpeg",
			FFprobe:             "ffprobe",
			Cwebp:               "cwebp",
			TimeoutSeconds:      defaultToolTimeoutSeconds,
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
			QuantizeSpeed:       defaultQuantizeSpeed,
		},
		Pipeline: Pipeline{
			Workers: defaultWorkers,
		},
		WebP: WebP{
			Enabled:      true,
			AlphaQuality: defaultWebPAlphaQuality,
			Method:       defaultWebPMethod,
		},
		Sizing: Sizing{
			DefaultMaxDimension: defaultMaxDimension,
			MaxDimension:        DefaultMaxDimensions(),
		},
		Quality: Quality{
			Image: DefaultImageQuality(),
			Audio: DefaultAudioQuality(),
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// DefaultMaxDimensions returns the built-in sizing table keyed by category.
func DefaultMaxDimensions() map[string]int {
	return map[string]int{
		"soldier": 1024,
		"tree":    2048,
		"foliage": 1024,
		"skybox":  4096,
		"texture": 512,
		"ui":      512,
	}
}

// DefaultImageQuality returns the built-in image tiers keyed by category.
// Characters keep the most colour detail; tiling textures tolerate the most loss.
func DefaultImageQuality() map[string]ImageQuality {
	return map[string]ImageQuality{
		"soldier":      {QualityMin: 90, QualityMax: 100, MaxColors: 256, Dither: 1.0, LosslessLevel: 3, WebPQuality: 95},
		"tree":         {QualityMin: 85, QualityMax: 98, MaxColors: 256, Dither: 0.8, LosslessLevel: 3, WebPQuality: 90},
		"foliage":      {QualityMin: 85, QualityMax: 98, MaxColors: 256, Dither: 0.8, LosslessLevel: 3, WebPQuality: 90},
		"skybox":       {QualityMin: 80, QualityMax: 95, MaxColors: 256, Dither: 1.0, LosslessLevel: 7, WebPQuality: 85},
		"texture":      {QualityMin: 75, QualityMax: 90, MaxColors: 128, Dither: 1.0, LosslessLevel: 5, WebPQuality: 90},
		"ui":           {QualityMin: 85, QualityMax: 100, MaxColors: 256, Dither: 1.0, LosslessLevel: 3, WebPQuality: 90},
		DefaultTierKey: {QualityMin: 85, QualityMax: 100, MaxColors: 256, Dither: 1.0, LosslessLevel: 3, WebPQuality: 90},
	}
}

const impactFilter = "acompressor=threshold=0.5:ratio=4:attack=5:release=50,loudnorm=I=-18:TP=-2:LRA=7"

// DefaultAudioQuality returns the built-in audio tiers keyed by category.
// Ambient beds trade fidelity for size; short impact sounds keep a higher level.
func DefaultAudioQuality() map[string]AudioQuality {
	return map[string]AudioQuality{
		"ambient-audio": {Codec: "libvorbis", Extension: ".ogg", Level: 4, Channels: 2, SampleRate: 44100},
		"impact-audio":  {Codec: "libvorbis", Extension: ".ogg", Level: 6, Channels: 1, SampleRate: 44100, Filter: impactFilter},
		DefaultTierKey:  {Codec: "libvorbis", Extension: ".ogg", Level: 5, Channels: 2, SampleRate: 44100},
	}
}
