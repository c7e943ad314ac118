// Package archive copies every original asset into a fresh timestamped
// directory before any transform runs, and restores from those directories.
//
// An archive directory is claimed with os.Mkdir so two runs never share one;
// a collision in the same second appends _2, _3, and so on. The copy is all
// or nothing: any failure removes the partial directory and reports
// services.ErrBackupFailure, which aborts the run. manifest.json (machine
// readable, with SHA-256 per file) and README.md (restore instructions) are
// written last, so a directory without a manifest is never a complete backup.
package archive
