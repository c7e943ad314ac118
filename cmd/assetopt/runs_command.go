package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past runs from the history ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			return render(cmd, ctx, runs, func() error {
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				now := time.Now()
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					var saved int64
					for _, v := range run.Variants {
						saved += v.OriginalBytes - v.OptimizedBytes
					}
					rows = append(rows, []string{
						run.RunID,
						string(run.Status),
						humanize.RelTime(run.StartedAt, now, "ago", "from now"),
						strconv.Itoa(run.Assets),
						strconv.Itoa(run.Skipped),
						formatBytes(saved),
						run.ArchiveDir,
					})
				}
				fmt.Fprintln(out, renderTable("",
					[]string{"Run", "Status", "Started", "Assets", "Skipped", "Saved", "Archive"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}
