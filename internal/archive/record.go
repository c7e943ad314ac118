package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"assetopt/internal/fileutil"
	"assetopt/internal/services"
)

// ManifestName is the machine-readable manifest inside an archive directory.
const ManifestName = "manifest.json"

// ReadmeName is the human-readable manifest inside an archive directory.
const ReadmeName = "README.md"

// Entry is one archived file.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	SHA256  string    `json:"sha256"`
	ModTime time.Time `json:"mod_time"`
}

// Record describes one completed archive directory.
type Record struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	SourceDir string    `json:"source_dir"`
	Dir       string    `json:"archive_dir"`
	Entries   []Entry   `json:"files"`

	index map[string]int
}

// TotalBytes sums the archived file sizes.
func (r *Record) TotalBytes() int64 {
	var total int64
	for _, entry := range r.Entries {
		total += entry.Size
	}
	return total
}

// Lookup finds the entry for name. It only reads the record, so concurrent
// pipeline workers may call it.
func (r *Record) Lookup(name string) (Entry, bool) {
	if r.index != nil {
		i, ok := r.index[name]
		if !ok {
			return Entry{}, false
		}
		return r.Entries[i], true
	}
	for _, entry := range r.Entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}

func (r *Record) buildIndex() {
	r.index = make(map[string]int, len(r.Entries))
	for i, entry := range r.Entries {
		r.index[entry.Name] = i
	}
}

// Path returns the archived copy of name.
func (r *Record) Path(name string) string {
	return filepath.Join(r.Dir, filepath.FromSlash(name))
}

// Verify confirms that name was archived, that the archived copy is still on
// disk at its recorded size, and that source has not changed size since.
// It satisfies optimize.BackupVerifier.
func (r *Record) Verify(name, source string) error {
	if r == nil {
		return services.Wrap(services.ErrBackupFailure, "archive", "verify", "no archive record", nil)
	}
	entry, ok := r.Lookup(name)
	if !ok {
		return services.Wrap(services.ErrBackupFailure, "archive", "verify", name+" is not in the archive manifest", nil)
	}
	size, err := fileutil.FileSize(r.Path(name))
	if err != nil {
		return services.Wrap(services.ErrBackupFailure, "archive", "verify", "archived copy missing", err)
	}
	if size != entry.Size {
		return services.Wrap(services.ErrBackupFailure, "archive", "verify",
			fmt.Sprintf("archived copy of %s is %d bytes, manifest says %d", name, size, entry.Size), nil)
	}
	if source != "" {
		size, err := fileutil.FileSize(source)
		if err != nil {
			return services.Wrap(services.ErrBackupFailure, "archive", "verify", "source unreadable", err)
		}
		if size != entry.Size {
			return services.Wrap(services.ErrBackupFailure, "archive", "verify",
				fmt.Sprintf("%s changed after it was archived", name), nil)
		}
	}
	return nil
}

// Audit rehashes every archived file against the manifest.
func (r *Record) Audit() error {
	for _, entry := range r.Entries {
		sum, err := fileutil.HashFile(r.Path(entry.Name))
		if err != nil {
			return services.Wrap(services.ErrBackupFailure, "archive", "audit", entry.Name, err)
		}
		if sum != entry.SHA256 {
			return services.Wrap(services.ErrBackupFailure, "archive", "audit",
				fmt.Sprintf("%s does not match its recorded checksum", entry.Name), nil)
		}
	}
	return nil
}

// Load reads the manifest of an archive directory.
func Load(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, services.Wrap(services.ErrBackupFailure, "archive", "load", dir, err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, services.Wrap(services.ErrBackupFailure, "archive", "load", "decode manifest", err)
	}
	record.Dir = dir
	record.buildIndex()
	return &record, nil
}

// List loads every complete archive under root, newest first. Directories
// without a readable manifest are ignored.
func List(root string) ([]*Record, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	records := make([]*Record, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if !entries[i].IsDir() {
			continue
		}
		record, err := Load(filepath.Join(root, entries[i].Name()))
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Find resolves ref, either a run id or an archive directory name or path,
// to a Record under root.
func Find(root, ref string) (*Record, error) {
	if info, err := os.Stat(ref); err == nil && info.IsDir() {
		return Load(ref)
	}
	records, err := List(root)
	if err != nil {
		return nil, services.Wrap(services.ErrBackupFailure, "archive", "find", root, err)
	}
	for _, record := range records {
		if record.RunID == ref || filepath.Base(record.Dir) == ref {
			return record, nil
		}
	}
	return nil, services.Wrap(services.ErrBackupFailure, "archive", "find",
		fmt.Sprintf("no archive matches %q under %s", ref, root), nil)
}
