package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"assetopt/internal/pipeline"
	"assetopt/internal/report"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var variants []string
	var workers int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Archive the originals and write optimized variants",
		Long: "Archive every asset under paths.assets_dir, then write the optimized " +
			"preserve and resize variants and the JSON and Markdown reports.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Variants: variants, Workers: workers}
			if dryRun {
				return runPlan(cmd, ctx, opts)
			}

			runner, store, err := ctx.newRunner(true)
			if err != nil {
				return err
			}
			defer store.Close()

			outcome, err := runner.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return render(cmd, ctx, outcome.Report, func() error {
				printRunSummary(cmd, outcome)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&variants, "variant", nil, "Only produce the named variants (preserve, resize)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent assets per variant (overrides pipeline.workers)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the plan without archiving or writing files")
	return cmd
}

func printRunSummary(cmd *cobra.Command, outcome *pipeline.Outcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", outcome.RunID)
	if outcome.Archive != nil {
		fmt.Fprintf(out, "Originals archived in %s (%d files)\n", outcome.Archive.Dir, len(outcome.Archive.Entries))
	}
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(outcome.Variants))
	for _, v := range outcome.Variants {
		t := v.Summary.Totals
		rows = append(rows, []string{
			v.Variant.Name,
			strconv.Itoa(t.Assets),
			formatBytes(t.OriginalBytes),
			formatBytes(t.OptimizedBytes),
			formatBytes(t.BytesSaved()),
			formatPercent(t.Reduction()),
			strconv.Itoa(t.Resized),
			strconv.Itoa(t.CopyThrough),
			strconv.Itoa(len(v.Summary.Skipped)),
		})
	}
	fmt.Fprintln(out, renderTable("",
		[]string{"Variant", "Assets", "Original", "Optimized", "Saved", "Reduction", "Resized", "Copied", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))

	for _, v := range outcome.Variants {
		wins := v.Summary.TopWins(report.DefaultTopWins)
		if len(wins) == 0 {
			continue
		}
		winRows := make([][]string, 0, len(wins))
		for i, entry := range wins {
			winRows = append(winRows, []string{
				strconv.Itoa(i + 1),
				entry.Name,
				report.CategoryLabel(string(entry.Category)),
				formatBytes(entry.BytesSaved()),
				formatPercent(entry.Reduction()),
				entry.Tool,
			})
		}
		fmt.Fprintln(out, renderTable("Top wins: "+v.Variant.Name,
			[]string{"#", "Asset", "Category", "Saved", "Reduction", "Tool"},
			winRows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	if len(outcome.Skipped) > 0 {
		fmt.Fprintf(out, "%d asset(s) skipped; see %s\n", len(outcome.Skipped), outcome.MarkdownPath)
	}
	fmt.Fprintf(out, "Reports: %s, %s\n", outcome.JSONPath, outcome.MarkdownPath)
}
