// Package tools adapts the external encoders assetopt drives (pngquant,
// optipng, ffmpeg, cwebp) to a single Stage interface consumed by the
// transform orchestrator.
//
// Every invocation goes through Exec, which applies the configured
// per-invocation timeout and maps process failures onto the services error
// markers: a binary that cannot be resolved is ErrToolUnavailable, a deadline
// is ErrTimeout, and a non-zero exit is ErrExternalTool with the tail of
// stderr attached.
//
// Probe resolves which binaries are installed and builds a Toolbox holding
// only the stages that can actually run.
package tools
