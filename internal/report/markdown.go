package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"assetopt/internal/classify"
)

// Markdown renders the human-readable report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Asset optimization report\n\n")
	fmt.Fprintf(&b, "- Run ID: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Timestamp: %s\n", r.Timestamp.Format("2006-01-02 15:04:05 MST"))
	if r.ArchiveDir != "" {
		fmt.Fprintf(&b, "- Originals archived in: `%s`\n", r.ArchiveDir)
	}
	b.WriteString(toolLine(r.Tools))
	b.WriteString("\n")

	for _, variant := range r.Variants {
		writeVariant(&b, variant)
	}

	if len(r.Skipped) > 0 {
		b.WriteString("## Skipped assets\n\n")
		rows := make([]table.Row, 0, len(r.Skipped))
		for _, skip := range r.Skipped {
			rows = append(rows, table.Row{skip.Name, skip.Reason})
		}
		b.WriteString(markdownTable(table.Row{"Asset", "Reason"}, rows))
		b.WriteString("\n")
	}
	return b.String()
}

func writeVariant(b *strings.Builder, variant Variant) {
	fmt.Fprintf(b, "## %s\n\n", CategoryLabel(variant.Name))
	fmt.Fprintf(b, "Output: `%s`\n\n", variant.OutputDir)
	t := variant.Totals
	fmt.Fprintf(b, "%d assets, %s → %s, saved %s (%.2f%%). Resized %d, copied through %d.\n\n",
		t.Assets,
		humanize.IBytes(nonNegative(t.OriginalBytes)),
		humanize.IBytes(nonNegative(t.OptimizedBytes)),
		signedBytes(t.BytesSaved),
		t.ReductionPercent,
		t.Resized,
		t.CopyThrough,
	)

	if len(variant.TopWins) > 0 {
		b.WriteString("### Top wins\n\n")
		rows := make([]table.Row, 0, len(variant.TopWins))
		for i, win := range variant.TopWins {
			rows = append(rows, table.Row{i + 1, win.Name, signedBytes(win.BytesSaved), fmt.Sprintf("%.2f%%", win.ReductionPercent)})
		}
		b.WriteString(markdownTable(table.Row{"#", "Asset", "Saved", "Reduction"}, rows))
		b.WriteString("\n")
	}

	if len(variant.Categories) > 0 {
		b.WriteString("### By category\n\n")
		rows := make([]table.Row, 0, len(variant.Categories))
		for _, c := range variant.Categories {
			rows = append(rows, table.Row{
				CategoryLabel(string(c.Category)),
				c.Assets,
				humanize.IBytes(nonNegative(c.OriginalBytes)),
				humanize.IBytes(nonNegative(c.OptimizedBytes)),
				fmt.Sprintf("%.2f%%", c.ReductionPercent),
			})
		}
		b.WriteString(markdownTable(table.Row{"Category", "Assets", "Original", "Optimized", "Reduction"}, rows))
		b.WriteString("\n")
	}

	if len(variant.PerAsset) > 0 {
		b.WriteString("### Assets\n\n")
		rows := make([]table.Row, 0, len(variant.PerAsset))
		for _, name := range assetOrder(variant) {
			a := variant.PerAsset[name]
			dims := a.OriginalDims
			if a.NewDims != "" {
				dims = a.OriginalDims + " → " + a.NewDims
			}
			rows = append(rows, table.Row{
				name,
				CategoryLabel(string(a.Category)),
				humanize.IBytes(nonNegative(a.OriginalBytes)),
				humanize.IBytes(nonNegative(a.OptimizedBytes)),
				fmt.Sprintf("%.2f%%", a.ReductionPercent),
				dims,
				a.Tool,
			})
		}
		b.WriteString(markdownTable(table.Row{"Asset", "Category", "Original", "Optimized", "Reduction", "Dimensions", "Tool"}, rows))
		b.WriteString("\n")
	}

	if len(variant.Failed) > 0 {
		b.WriteString("### Failed\n\n")
		rows := make([]table.Row, 0, len(variant.Failed))
		for _, skip := range variant.Failed {
			rows = append(rows, table.Row{skip.Name, skip.Reason})
		}
		b.WriteString(markdownTable(table.Row{"Asset", "Reason"}, rows))
		b.WriteString("\n")
	}
}

// assetOrder returns per-asset names in recorded order, falling back to
// sorted names for a report decoded from JSON.
func assetOrder(variant Variant) []string {
	if len(variant.order) == len(variant.PerAsset) {
		return variant.order
	}
	names := make([]string, 0, len(variant.PerAsset))
	for name := range variant.PerAsset {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func markdownTable(header table.Row, rows []table.Row) string {
	tw := table.NewWriter()
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	return tw.RenderMarkdown() + "\n"
}

func toolLine(tools map[string]string) string {
	if len(tools) == 0 {
		return "- Tools: none available, every asset was copied through\n"
	}
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		if version := tools[name]; version != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", name, version))
		} else {
			parts = append(parts, name)
		}
	}
	return "- Tools: " + strings.Join(parts, ", ") + "\n"
}

// CategoryLabel turns a category or variant key into a display label, for
// example "impact-audio" into "Impact Audio".
func CategoryLabel(value string) string {
	if value == "" {
		return string(classify.Misc)
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(value, "-", " "))
}

func signedBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
