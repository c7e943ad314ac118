package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"assetopt/internal/assets"
	"assetopt/internal/fileutil"
	"assetopt/internal/logging"
	"assetopt/internal/services"
)

const (
	lockName       = ".assetopt.lock"
	dirLayout      = "20060102_150405"
	maxDirAttempts = 1000
)

// Manager writes archive directories under Root.
type Manager struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewManager constructs a Manager rooted at root.
func NewManager(root string, logger *slog.Logger) *Manager {
	return &Manager{
		root:   root,
		logger: logging.NewComponentLogger(logger, "archive"),
		now:    time.Now,
	}
}

// Root returns the archive root directory.
func (m *Manager) Root() string { return m.root }

// Archive copies every item into a new directory under the root. It holds an
// exclusive lock on the root for the duration so concurrent runs cannot
// interleave. The run id is taken from ctx. On failure the partial directory
// is removed and the error carries services.ErrBackupFailure.
func (m *Manager) Archive(ctx context.Context, items []assets.Record) (*Record, error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrBackupFailure, "archive", "prepare root", m.root, err)
	}
	lock := flock.New(filepath.Join(m.root, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrBackupFailure, "archive", "acquire lock", m.root, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrBackupFailure, "archive", "acquire lock",
			"another assetopt run is archiving into "+m.root, nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release archive lock", logging.Error(err))
		}
	}()

	createdAt := m.now()
	dir, err := m.claimDir(createdAt)
	if err != nil {
		return nil, err
	}

	runID, _ := services.RunIDFromContext(ctx)
	record := &Record{
		RunID:     runID,
		CreatedAt: createdAt.UTC(),
		Dir:       dir,
		Entries:   make([]Entry, 0, len(items)),
	}
	if len(items) > 0 {
		record.SourceDir = sourceRoot(items[0])
	}

	fail := func(operation, message string, cause error) (*Record, error) {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logging.ErrorWithContext(m.logger, "failed to remove partial archive", "archive_cleanup_failed",
				logging.String("dir", dir),
				logging.Error(rmErr),
				logging.String(logging.FieldErrorHint, "delete the directory by hand before the next run"),
			)
		}
		if errors.Is(cause, context.Canceled) {
			return nil, cause
		}
		return nil, services.Wrap(services.ErrBackupFailure, "archive", operation, message, cause)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return fail("copy", "cancelled", err)
		}
		target := record.Path(item.Name)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fail("copy", item.Name, err)
		}
		copied, err := fileutil.CopyFileVerified(item.Path, target)
		if err != nil {
			return fail("copy", item.Name, err)
		}
		info, err := os.Stat(target)
		if err != nil {
			return fail("copy", item.Name, err)
		}
		record.Entries = append(record.Entries, Entry{
			Name:    item.Name,
			Size:    copied.Size,
			SHA256:  copied.SHA256,
			ModTime: info.ModTime().UTC(),
		})
	}

	manifest, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fail("write manifest", "encode", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, ManifestName), append(manifest, '\n'), 0o644); err != nil {
		return fail("write manifest", ManifestName, err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, ReadmeName), []byte(renderReadme(record)), 0o644); err != nil {
		return fail("write readme", ReadmeName, err)
	}
	record.buildIndex()

	m.logger.Info("originals archived",
		logging.String("dir", dir),
		logging.Int("files", len(record.Entries)),
		logging.Int64("bytes", record.TotalBytes()),
		logging.String(logging.FieldEventType, "archive_complete"),
	)
	return record, nil
}

// claimDir creates a directory named for at, suffixing _2, _3, ... when a
// previous run already owns the name.
func (m *Manager) claimDir(at time.Time) (string, error) {
	base := at.Format(dirLayout)
	for attempt := 1; attempt <= maxDirAttempts; attempt++ {
		name := base
		if attempt > 1 {
			name = fmt.Sprintf("%s_%d", base, attempt)
		}
		dir := filepath.Join(m.root, name)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", services.Wrap(services.ErrBackupFailure, "archive", "claim directory", dir, err)
		}
	}
	return "", services.Wrap(services.ErrBackupFailure, "archive", "claim directory",
		fmt.Sprintf("exhausted %d names for %s", maxDirAttempts, base), nil)
}

// sourceRoot recovers the assets directory from a record's path and name.
func sourceRoot(item assets.Record) string {
	suffix := string(filepath.Separator) + filepath.FromSlash(item.Name)
	if strings.HasSuffix(item.Path, suffix) {
		return strings.TrimSuffix(item.Path, suffix)
	}
	return filepath.Dir(item.Path)
}
