package preflight

import (
	"context"
	"fmt"
	"strings"

	"assetopt/internal/config"
	"assetopt/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the directory checks for the given config. Output roots are
// only checked for enabled variants. needBytes is the space the archive copy
// will take; zero skips the free-space check.
func RunAll(ctx context.Context, cfg *config.Config, needBytes int64) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckReadableDir("Assets directory", cfg.Paths.AssetsDir),
		CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir),
	}
	if needBytes > 0 {
		results = append(results, CheckFreeSpace("Archive free space", cfg.Paths.ArchiveDir, needBytes))
	}
	if cfg.Variants.Preserve {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}
	if cfg.Variants.Resize {
		results = append(results, CheckDirectoryAccess("Resized output directory", cfg.Paths.ResizedDir))
	}
	results = append(results,
		CheckDirectoryAccess("Report directory", cfg.Paths.ReportDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	)
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// Err folds failed results into a single configuration error, or nil when
// every check passed.
func Err(results []Result) error {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check directories", strings.Join(failed, "; "), nil)
}
