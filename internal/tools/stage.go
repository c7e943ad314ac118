package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"assetopt/internal/fileutil"
	"assetopt/internal/policy"
	"assetopt/internal/services"
)

// Tool names recorded as the producer of an output.
const (
	ToolPngquant  = "pngquant"
	ToolOptipng   = "optipng"
	ToolFFmpeg    = "ffmpeg"
	ToolFFmpegPCM = "ffmpeg-pcm"
	ToolCwebp     = "cwebp"
)

// Stage transforms src into dst. Implementations write only dst and never
// modify src. A Stage whose tool exits zero but leaves dst missing or empty
// is treated as failed by the orchestrator.
type Stage interface {
	// Tool names the producing tool for reports.
	Tool() string
	// OutputExt returns the extension, with leading dot, dst should carry.
	OutputExt(src string, tier policy.QualityTier) string
	// Apply runs the tool.
	Apply(ctx context.Context, src, dst string, tier policy.QualityTier) error
}

// Quantizer is the lossy PNG palette reducer.
type Quantizer struct {
	Binary string
	Speed  int
	Exec   Exec
}

func (q *Quantizer) Tool() string { return ToolPngquant }

func (q *Quantizer) OutputExt(string, policy.QualityTier) string { return ".png" }

// Args builds the pngquant command line.
func (q *Quantizer) Args(src, dst string, tier policy.QualityTier) []string {
	image := tier.Image
	return []string{
		fmt.Sprintf("--quality=%d-%d", image.QualityMin, image.QualityMax),
		"--speed=" + strconv.Itoa(q.Speed),
		"--floyd=" + strconv.FormatFloat(image.Dither, 'f', -1, 64),
		"--force",
		"--output", dst,
		strconv.Itoa(image.MaxColors),
		"--", src,
	}
}

func (q *Quantizer) Apply(ctx context.Context, src, dst string, tier policy.QualityTier) error {
	return q.Exec.Run(ctx, q.Tool(), q.Binary, q.Args(src, dst, tier)...)
}

// Recompressor is the lossless PNG optimizer. optipng rewrites in place, so
// src is copied to dst first.
type Recompressor struct {
	Binary string
	Exec   Exec
}

func (r *Recompressor) Tool() string { return ToolOptipng }

func (r *Recompressor) OutputExt(string, policy.QualityTier) string { return ".png" }

// Args builds the optipng command line for an in-place file.
func (r *Recompressor) Args(file string, tier policy.QualityTier) []string {
	return []string{"-o" + strconv.Itoa(tier.Image.LosslessLevel), "-quiet", "--", file}
}

func (r *Recompressor) Apply(ctx context.Context, src, dst string, tier policy.QualityTier) error {
	if err := fileutil.CopyFile(src, dst); err != nil {
		return services.Wrap(services.ErrTransformFailure, r.Tool(), "stage input", dst, err)
	}
	return r.Exec.Run(ctx, r.Tool(), r.Binary, r.Args(dst, tier)...)
}

// Transcoder converts audio to the tier codec and container.
type Transcoder struct {
	Binary string
	Exec   Exec
}

func (t *Transcoder) Tool() string { return ToolFFmpeg }

func (t *Transcoder) OutputExt(_ string, tier policy.QualityTier) string {
	return tier.Audio.Extension
}

// Args builds the ffmpeg command line for the lossy transcode.
func (t *Transcoder) Args(src, dst string, tier policy.QualityTier) []string {
	audio := tier.Audio
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", src}
	args = append(args, channelArgs(audio)...)
	if filter := strings.TrimSpace(audio.Filter); filter != "" {
		args = append(args, "-af", filter)
	}
	args = append(args, "-c:a", audio.Codec, "-q:a", strconv.Itoa(audio.Level), dst)
	return args
}

func (t *Transcoder) Apply(ctx context.Context, src, dst string, tier policy.QualityTier) error {
	return t.Exec.Run(ctx, t.Tool(), t.Binary, t.Args(src, dst, tier)...)
}

// PCMEncoder re-encodes audio to 16-bit PCM WAV with the tier channel layout
// and sample rate. It is the lossless fallback when the codec transcode fails,
// and only applies to WAV sources; other formats fall through to copy-through
// so their container is kept.
type PCMEncoder struct {
	Binary string
	Exec   Exec
}

func (p *PCMEncoder) Tool() string { return ToolFFmpegPCM }

func (p *PCMEncoder) OutputExt(string, policy.QualityTier) string { return ".wav" }

// Args builds the ffmpeg command line for the PCM re-encode.
func (p *PCMEncoder) Args(src, dst string, tier policy.QualityTier) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", src}
	args = append(args, channelArgs(tier.Audio)...)
	return append(args, "-c:a", "pcm_s16le", dst)
}

func (p *PCMEncoder) Apply(ctx context.Context, src, dst string, tier policy.QualityTier) error {
	if !strings.EqualFold(filepath.Ext(src), ".wav") {
		return services.Wrap(services.ErrToolUnavailable, p.Tool(), "apply",
			fmt.Sprintf("PCM fallback keeps only WAV sources, not %s", filepath.Ext(src)), nil)
	}
	return p.Exec.Run(ctx, p.Tool(), p.Binary, p.Args(src, dst, tier)...)
}

// WebPEncoder writes the optional WebP sibling of an image.
type WebPEncoder struct {
	Binary       string
	AlphaQuality int
	Method       int
	Exec         Exec
}

func (w *WebPEncoder) Tool() string { return ToolCwebp }

func (w *WebPEncoder) OutputExt(string, policy.QualityTier) string { return ".webp" }

// Args builds the cwebp command line.
func (w *WebPEncoder) Args(src, dst string, tier policy.QualityTier) []string {
	return []string{
		"-q", strconv.Itoa(tier.Image.WebPQuality),
		"-alpha_q", strconv.Itoa(w.AlphaQuality),
		"-m", strconv.Itoa(w.Method),
		"-quiet",
		src,
		"-o", dst,
	}
}

func (w *WebPEncoder) Apply(ctx context.Context, src, dst string, tier policy.QualityTier) error {
	return w.Exec.Run(ctx, w.Tool(), w.Binary, w.Args(src, dst, tier)...)
}

func channelArgs(audio policy.AudioTier) []string {
	var args []string
	if audio.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(audio.Channels))
	}
	if audio.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(audio.SampleRate))
	}
	return args
}

// OutputName swaps the extension of name for ext.
func OutputName(name, ext string) string {
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// NonEmpty reports whether path exists and holds at least one byte.
func NonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
