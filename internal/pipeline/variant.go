package pipeline

import (
	"fmt"
	"strings"

	"assetopt/internal/config"
	"assetopt/internal/services"
)

// Variant names.
const (
	VariantPreserve = "preserve"
	VariantResize   = "resize"
)

// Variant is one output root of a run.
type Variant struct {
	Name      string
	OutputDir string
	// Resize applies the category sizing rule before compression.
	Resize bool
}

// Variants lists the output roots enabled in cfg, optionally narrowed to the
// names in only. Naming a variant that is unknown or disabled is an error.
func Variants(cfg *config.Config, only []string) ([]Variant, error) {
	var enabled []Variant
	if cfg.Variants.Preserve {
		enabled = append(enabled, Variant{Name: VariantPreserve, OutputDir: cfg.Paths.OutputDir})
	}
	if cfg.Variants.Resize {
		enabled = append(enabled, Variant{Name: VariantResize, OutputDir: cfg.Paths.ResizedDir, Resize: true})
	}
	if len(only) == 0 {
		return enabled, nil
	}

	selected := make([]Variant, 0, len(only))
	for _, variant := range enabled {
		for _, name := range only {
			if strings.EqualFold(strings.TrimSpace(name), variant.Name) {
				selected = append(selected, variant)
				break
			}
		}
	}
	if len(selected) != len(uniqueNames(only)) {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "select variants",
			fmt.Sprintf("requested %s but enabled variants are %s", strings.Join(only, ","), variantNames(enabled)), nil)
	}
	return selected, nil
}

func uniqueNames(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	return set
}

func variantNames(variants []Variant) string {
	if len(variants) == 0 {
		return "none"
	}
	names := make([]string, 0, len(variants))
	for _, v := range variants {
		names = append(names, v.Name)
	}
	return strings.Join(names, ",")
}
