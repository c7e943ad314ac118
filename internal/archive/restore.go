package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"assetopt/internal/fileutil"
	"assetopt/internal/services"
)

// Restore copies every archived file of record into dest, overwriting what is
// there. The archive is audited first, so a corrupted archive restores
// nothing. It returns the number of files written.
func Restore(ctx context.Context, record *Record, dest string) (int, error) {
	if record == nil {
		return 0, services.Wrap(services.ErrBackupFailure, "archive", "restore", "no archive record", nil)
	}
	if err := record.Audit(); err != nil {
		return 0, err
	}
	restored := 0
	for _, entry := range record.Entries {
		if err := ctx.Err(); err != nil {
			return restored, err
		}
		target := filepath.Join(dest, filepath.FromSlash(entry.Name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return restored, services.Wrap(services.ErrBackupFailure, "archive", "restore", target, err)
		}
		copied, err := fileutil.CopyFileVerified(record.Path(entry.Name), target)
		if err != nil {
			return restored, services.Wrap(services.ErrBackupFailure, "archive", "restore", entry.Name, err)
		}
		if copied.SHA256 != entry.SHA256 {
			return restored, services.Wrap(services.ErrBackupFailure, "archive", "restore",
				fmt.Sprintf("%s restored with unexpected checksum", entry.Name), nil)
		}
		restored++
	}
	return restored, nil
}
