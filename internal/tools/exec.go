package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"assetopt/internal/logging"
	"assetopt/internal/services"
)

const stderrTailBytes = 512

// Exec runs one external command at a time under a timeout.
type Exec struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// Run executes binary with args. tool names the adapter in errors and logs.
func (e Exec) Run(ctx context.Context, tool, binary string, args ...string) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	logger := e.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Debug("tool invocation",
		logging.String(logging.FieldTool, tool),
		logging.String("binary", binary),
		logging.String("args", strings.Join(args, " ")),
		logging.Duration("elapsed", elapsed),
		logging.Bool("ok", err == nil),
	)

	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return services.Wrap(services.ErrToolUnavailable, tool, "run", binary, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, tool, "run",
			fmt.Sprintf("%s exceeded %s", binary, e.Timeout), ctx.Err())
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	}
	message := binary
	if tail := stderrTail(stderr.Bytes()); tail != "" {
		message = fmt.Sprintf("%s: %s", binary, tail)
	}
	return services.Wrap(services.ErrExternalTool, tool, "run", message, err)
}

func stderrTail(data []byte) string {
	if len(data) > stderrTailBytes {
		data = data[len(data)-stderrTailBytes:]
	}
	return strings.TrimSpace(string(data))
}
