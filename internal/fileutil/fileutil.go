package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyResult describes a verified copy.
type CopyResult struct {
	Size   int64
	SHA256 string
}

// CopyFile streams src to dst, keeping the source permission bits and
// modification time.
func CopyFile(src, dst string) error {
	_, err := copyFile(src, dst, false)
	return err
}

// CopyFileVerified copies src to dst like CopyFile and then checks that the
// byte count matches the source size and that the destination hashes to the
// same SHA-256 as the bytes read. dst is removed on mismatch.
func CopyFileVerified(src, dst string) (CopyResult, error) {
	return copyFile(src, dst, true)
}

func copyFile(src, dst string, verify bool) (CopyResult, error) {
	info, err := os.Stat(src)
	if err != nil {
		return CopyResult{}, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return CopyResult{}, fmt.Errorf("copy %s: not a regular file", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return CopyResult{}, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return CopyResult{}, err
	}
	defer func() {
		_ = out.Close()
	}()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, hasher), in)
	if err != nil {
		return CopyResult{}, err
	}
	if err := out.Close(); err != nil {
		return CopyResult{}, err
	}
	result := CopyResult{Size: written, SHA256: hex.EncodeToString(hasher.Sum(nil))}

	if verify {
		if written != info.Size() {
			_ = os.Remove(dst)
			return CopyResult{}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
		}
		sum, err := HashFile(dst)
		if err != nil {
			_ = os.Remove(dst)
			return CopyResult{}, fmt.Errorf("hash copy: %w", err)
		}
		if sum != result.SHA256 {
			_ = os.Remove(dst)
			return CopyResult{}, fmt.Errorf("copy hash mismatch: file corrupted during copy")
		}
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return CopyResult{}, fmt.Errorf("preserve mtime: %w", err)
	}
	return result, nil
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// TempSibling creates an empty temp file next to finalPath so that a later
// rename stays on one filesystem. pattern follows os.CreateTemp.
func TempSibling(finalPath, pattern string) (string, error) {
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// WriteFileAtomic writes data to a temp file in the target directory, syncs
// it, and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := TempSibling(path, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if err := writeSynced(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func writeSynced(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

// FileSize returns the size of path in bytes.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
