package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"assetopt/internal/classify"
	"assetopt/internal/imaging"
	"assetopt/internal/logging"
	"assetopt/internal/media/ffprobe"
	"assetopt/internal/services"
)

// Record is one inspected asset. Every field is fixed at inspection time;
// output sizes live on optimize.Result.
type Record struct {
	Name     string            `json:"name"`
	Path     string            `json:"path"`
	Media    classify.Media    `json:"media"`
	Category classify.Category `json:"category"`
	Size     int64             `json:"size"`
	ModTime  time.Time         `json:"mod_time"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	SampleRate      int     `json:"sample_rate,omitempty"`
	Channels        int     `json:"channels,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// Dimensions formats the image size as WxH, or "" for audio.
func (r Record) Dimensions() string {
	if r.Width == 0 || r.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Inspector builds Records.
type Inspector struct {
	Classifier *classify.Classifier
	// FFprobe is the resolved ffprobe binary. Empty skips audio probing.
	FFprobe      string
	ProbeTimeout time.Duration
	Logger       *slog.Logger
}

// Inspect reads the file at root/name. Unreadable or empty files and images
// whose header cannot be decoded fail with ErrInvalidAsset. An audio probe
// failure only loses the stream details.
func (i Inspector) Inspect(ctx context.Context, root, name string) (Record, error) {
	path := Path(root, name)
	info, err := os.Stat(path)
	if err != nil {
		return Record{}, services.Wrap(services.ErrInvalidAsset, "assets", "inspect", name, err)
	}
	if !info.Mode().IsRegular() {
		return Record{}, services.Wrap(services.ErrInvalidAsset, "assets", "inspect", name+": not a regular file", nil)
	}
	if info.Size() == 0 {
		return Record{}, services.Wrap(services.ErrInvalidAsset, "assets", "inspect", name+": empty file", nil)
	}

	classifier := i.Classifier
	if classifier == nil {
		classifier = classify.Default()
	}
	record := Record{
		Name:     name,
		Path:     path,
		Media:    classify.MediaOf(name),
		Category: classifier.Classify(name),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}

	switch record.Media {
	case classify.MediaImage:
		record.Width, record.Height, err = imaging.Dimensions(path)
		if err != nil {
			return Record{}, err
		}
	case classify.MediaAudio:
		i.probeAudio(ctx, &record)
	}
	return record, nil
}

func (i Inspector) probeAudio(ctx context.Context, record *Record) {
	if i.FFprobe == "" {
		return
	}
	if i.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.ProbeTimeout)
		defer cancel()
	}
	result, err := ffprobe.Inspect(ctx, i.FFprobe, record.Path)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logging.WarnWithContext(i.Logger, "audio probe failed", "audio_probe_failed",
			logging.String(logging.FieldAsset, record.Name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the file plays and that ffprobe is healthy"),
			logging.String(logging.FieldImpact, "report omits duration and channel details"),
		)
		return
	}
	audio, ok := result.Audio()
	if !ok {
		return
	}
	record.SampleRate = audio.SampleRate
	record.Channels = audio.Channels
	record.DurationSeconds = audio.DurationSeconds
}
