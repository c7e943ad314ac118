package policy

import (
	"fmt"
	"sort"

	"assetopt/internal/classify"
	"assetopt/internal/config"
	"assetopt/internal/services"
)

// SizingRule caps the larger side of an image in a category.
type SizingRule struct {
	Category     classify.Category
	MaxDimension int
}

// ImageTier parameterizes the quantizer, the lossless recompressor, and the
// WebP encoder for one category.
type ImageTier struct {
	QualityMin    int
	QualityMax    int
	MaxColors     int
	Dither        float64
	LosslessLevel int
	WebPQuality   int
}

// AudioTier parameterizes the audio transcoder for one category.
type AudioTier struct {
	Codec      string
	Extension  string
	Level      int
	Channels   int
	SampleRate int
	Filter     string
}

// QualityTier is the full parameter set selected for a category. Both halves
// are always populated so that a misc asset of either media kind can be
// processed with the default tier.
type QualityTier struct {
	Category classify.Category
	Image    ImageTier
	Audio    AudioTier
}

// Policy holds the sizing and quality tables.
type Policy struct {
	defaultMax   int
	maxDims      map[classify.Category]int
	image        map[classify.Category]ImageTier
	audio        map[classify.Category]AudioTier
	defaultImage ImageTier
	defaultAudio AudioTier
}

// New builds a Policy from validated configuration.
func New(cfg *config.Config) (*Policy, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "policy", "build", "configuration is nil", nil)
	}
	p := &Policy{
		defaultMax: cfg.Sizing.DefaultMaxDimension,
		maxDims:    make(map[classify.Category]int, len(cfg.Sizing.MaxDimension)),
		image:      make(map[classify.Category]ImageTier, len(cfg.Quality.Image)),
		audio:      make(map[classify.Category]AudioTier, len(cfg.Quality.Audio)),
	}
	if p.defaultMax <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "policy", "build",
			fmt.Sprintf("default max dimension must be positive, got %d", p.defaultMax), nil)
	}

	for key, value := range cfg.Sizing.MaxDimension {
		category, err := classify.Parse(key)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "policy", "build", "sizing table", err)
		}
		if value <= 0 {
			return nil, services.Wrap(services.ErrConfiguration, "policy", "build",
				fmt.Sprintf("max dimension for %s must be positive, got %d", category, value), nil)
		}
		p.maxDims[category] = value
	}

	defaultImage, ok := cfg.Quality.Image[config.DefaultTierKey]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "policy", "build", "image quality table has no default tier", nil)
	}
	p.defaultImage = imageTier(defaultImage)
	for key, value := range cfg.Quality.Image {
		if key == config.DefaultTierKey {
			continue
		}
		category, err := classify.Parse(key)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "policy", "build", "image quality table", err)
		}
		p.image[category] = imageTier(value)
	}

	defaultAudio, ok := cfg.Quality.Audio[config.DefaultTierKey]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "policy", "build", "audio quality table has no default tier", nil)
	}
	p.defaultAudio = audioTier(defaultAudio)
	for key, value := range cfg.Quality.Audio {
		if key == config.DefaultTierKey {
			continue
		}
		category, err := classify.Parse(key)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "policy", "build", "audio quality table", err)
		}
		p.audio[category] = audioTier(value)
	}
	return p, nil
}

// Default returns the Policy for the built-in configuration.
func Default() *Policy {
	cfg := config.Default()
	p, err := New(&cfg)
	if err != nil {
		panic(fmt.Sprintf("policy: built-in tables invalid: %v", err))
	}
	return p
}

// MaxDimension returns the configured cap for category, or the default cap.
func (p *Policy) MaxDimension(category classify.Category) int {
	if value, ok := p.maxDims[category]; ok {
		return value
	}
	return p.defaultMax
}

// SizingRules lists the explicit sizing entries in category order.
func (p *Policy) SizingRules() []SizingRule {
	rules := make([]SizingRule, 0, len(p.maxDims))
	for category, value := range p.maxDims {
		rules = append(rules, SizingRule{Category: category, MaxDimension: value})
	}
	order := categoryOrder()
	sort.Slice(rules, func(i, j int) bool {
		return order[rules[i].Category] < order[rules[j].Category]
	})
	return rules
}

// ComputeTargetSize returns the dimensions an image of the given size should
// be resampled to for category.
func (p *Policy) ComputeTargetSize(width, height int, category classify.Category) (int, int, error) {
	return FitWithin(width, height, p.MaxDimension(category))
}

// SelectQuality returns the tier for category, falling back to the default
// tier for each media kind without an explicit entry.
func (p *Policy) SelectQuality(category classify.Category) QualityTier {
	tier := QualityTier{Category: category, Image: p.defaultImage, Audio: p.defaultAudio}
	if image, ok := p.image[category]; ok {
		tier.Image = image
	}
	if audio, ok := p.audio[category]; ok {
		tier.Audio = audio
	}
	return tier
}

func imageTier(q config.ImageQuality) ImageTier {
	return ImageTier{
		QualityMin:    q.QualityMin,
		QualityMax:    q.QualityMax,
		MaxColors:     q.MaxColors,
		Dither:        q.Dither,
		LosslessLevel: q.LosslessLevel,
		WebPQuality:   q.WebPQuality,
	}
}

func audioTier(q config.AudioQuality) AudioTier {
	return AudioTier{
		Codec:      q.Codec,
		Extension:  q.Extension,
		Level:      q.Level,
		Channels:   q.Channels,
		SampleRate: q.SampleRate,
		Filter:     q.Filter,
	}
}

func categoryOrder() map[classify.Category]int {
	all := classify.All()
	order := make(map[classify.Category]int, len(all))
	for i, category := range all {
		order[category] = i
	}
	return order
}
