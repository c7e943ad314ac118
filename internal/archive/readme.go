package archive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

func renderReadme(record *Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Asset archive %s\n\n", dirName(record))
	b.WriteString("Verbatim copies of every original asset, taken before optimization.\n\n")
	fmt.Fprintf(&b, "- Run ID: `%s`\n", valueOr(record.RunID, "unknown"))
	fmt.Fprintf(&b, "- Created: %s\n", record.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Source: `%s`\n", valueOr(record.SourceDir, "unknown"))
	fmt.Fprintf(&b, "- Files: %d (%s)\n\n", len(record.Entries), humanize.IBytes(uint64(record.TotalBytes())))

	b.WriteString("## Restore\n\n")
	b.WriteString("Copy the originals back over the optimized assets:\n\n")
	b.WriteString("```sh\n")
	fmt.Fprintf(&b, "assetopt restore %s\n", dirName(record))
	b.WriteString("```\n\n")
	b.WriteString("or by hand, excluding this README and the manifest:\n\n")
	b.WriteString("```sh\n")
	fmt.Fprintf(&b, "rsync -a --exclude %s --exclude %s ./ %s/\n", ReadmeName, ManifestName, valueOr(record.SourceDir, "<assets_dir>"))
	b.WriteString("```\n\n")
	fmt.Fprintf(&b, "`%s` lists the SHA-256 of every file.\n\n", ManifestName)

	b.WriteString("## Files\n\n")
	b.WriteString("| File | Size |\n|---|---:|\n")
	for _, entry := range record.Entries {
		fmt.Fprintf(&b, "| %s | %s |\n", entry.Name, humanize.IBytes(uint64(entry.Size)))
	}
	return b.String()
}

func dirName(record *Record) string {
	return filepath.Base(record.Dir)
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
