package tools

import (
	"context"
	"log/slog"

	"assetopt/internal/config"
	"assetopt/internal/deps"
	"assetopt/internal/logging"
)

// Toolbox holds the stages whose binaries resolved during Probe. A nil stage
// means the tool is unavailable and the orchestrator skips that step.
type Toolbox struct {
	Quantizer    Stage
	Recompressor Stage
	Transcoder   Stage
	Reencoder    Stage
	WebP         Stage
	// FFprobe is the resolved ffprobe path, empty when unavailable.
	FFprobe  string
	Statuses []deps.Status
}

// Requirements lists the external binaries named in cfg.
func Requirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{Name: ToolPngquant, Command: cfg.Tools.Pngquant, Description: "Lossy PNG palette quantizer", VersionArgs: []string{"--version"}, Optional: true},
		{Name: ToolOptipng, Command: cfg.Tools.Optipng, Description: "Lossless PNG recompressor", VersionArgs: []string{"-v"}, Optional: true},
		{Name: ToolFFmpeg, Command: cfg.Tools.FFmpeg, Description: "Audio transcoder", VersionArgs: []string{"-version"}, Optional: true},
		{Name: "ffprobe", Command: cfg.Tools.FFprobe, Description: "Audio stream inspection", VersionArgs: []string{"-version"}, Optional: true},
		{Name: ToolCwebp, Command: cfg.Tools.Cwebp, Description: "WebP sibling encoder", VersionArgs: []string{"-version"}, Optional: true},
	}
}

// Probe resolves every configured binary and builds the stages that can run.
// Missing tools are logged and left nil; the pipeline degrades to the next
// step of the fallback chain.
func Probe(ctx context.Context, cfg *config.Config, logger *slog.Logger) Toolbox {
	logger = logging.NewComponentLogger(logger, "tools")
	statuses := deps.CheckBinaries(ctx, Requirements(cfg), cfg.ProbeTimeout())

	run := Exec{Timeout: cfg.ToolTimeout(), Logger: logger}
	box := Toolbox{Statuses: statuses}
	for _, status := range statuses {
		if !status.Available {
			logging.WarnWithContext(logger, "external tool unavailable", "tool_unavailable",
				logging.String(logging.FieldTool, status.Name),
				logging.String("command", status.Command),
				logging.String("detail", status.Detail),
				logging.String(logging.FieldErrorHint, "install the tool or set its path under [tools]"),
				logging.String(logging.FieldImpact, "dependent optimization step is skipped"),
			)
			continue
		}
		logger.Debug("external tool resolved",
			logging.String(logging.FieldTool, status.Name),
			logging.String("path", status.Path),
			logging.String("version", status.Version),
		)
		switch status.Name {
		case ToolPngquant:
			box.Quantizer = &Quantizer{Binary: status.Path, Speed: cfg.Tools.QuantizeSpeed, Exec: run}
		case ToolOptipng:
			box.Recompressor = &Recompressor{Binary: status.Path, Exec: run}
		case ToolFFmpeg:
			box.Transcoder = &Transcoder{Binary: status.Path, Exec: run}
			box.Reencoder = &PCMEncoder{Binary: status.Path, Exec: run}
		case "ffprobe":
			box.FFprobe = status.Path
		case ToolCwebp:
			if cfg.WebP.Enabled {
				box.WebP = &WebPEncoder{Binary: status.Path, AlphaQuality: cfg.WebP.AlphaQuality, Method: cfg.WebP.Method, Exec: run}
			}
		}
	}
	return box
}

// Available lists the names of resolved tools in probe order.
func (t Toolbox) Available() []string {
	names := make([]string, 0, len(t.Statuses))
	for _, status := range t.Statuses {
		if status.Available {
			names = append(names, status.Name)
		}
	}
	return names
}

// Versions maps each resolved tool to its version line.
func (t Toolbox) Versions() map[string]string {
	versions := make(map[string]string, len(t.Statuses))
	for _, status := range t.Statuses {
		if status.Available {
			versions[status.Name] = status.Version
		}
	}
	return versions
}
