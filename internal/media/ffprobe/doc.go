// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties
//   - AudioInfo: the first audio stream reduced to what the audio transcoder
//     and the run report need
//
// Inspect is the only entry point that executes a process. Errors carry the
// services markers so callers can tell a missing binary from a broken file.
package ffprobe
