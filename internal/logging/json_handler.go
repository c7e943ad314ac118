package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// newJSONHandler writes one object per line with short keys (ts, level, msg).
// Durations are written in milliseconds and errors as their message so the
// daily log can be filtered with jq without custom decoding.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 {
				switch attr.Key {
				case slog.TimeKey:
					if attr.Value.Kind() == slog.KindTime {
						return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339Nano))
					}
					attr.Key = "ts"
					return attr
				case slog.LevelKey:
					return slog.String("level", strings.ToLower(attr.Value.String()))
				case slog.MessageKey:
					attr.Key = "msg"
					return attr
				case slog.SourceKey:
					if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
						return slog.String("caller", fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
					}
					return attr
				}
			}
			switch attr.Value.Kind() {
			case slog.KindDuration:
				return slog.Int64(attr.Key+"_ms", attr.Value.Duration().Milliseconds())
			case slog.KindAny:
				if err, ok := attr.Value.Any().(error); ok {
					return slog.String(attr.Key, err.Error())
				}
			}
			return attr
		},
	})
}
