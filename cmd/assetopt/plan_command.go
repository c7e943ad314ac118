package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"assetopt/internal/pipeline"
	"assetopt/internal/report"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var variants []string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show category, target size and tool chain for every asset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, ctx, pipeline.Options{Variants: variants})
		},
	}
	cmd.Flags().StringSliceVar(&variants, "variant", nil, "Only plan the named variants (preserve, resize)")
	return cmd
}

func runPlan(cmd *cobra.Command, ctx *commandContext, opts pipeline.Options) error {
	runner, _, err := ctx.newRunner(false)
	if err != nil {
		return err
	}
	plan, err := runner.Plan(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return render(cmd, ctx, plan, func() error {
		out := cmd.OutOrStdout()
		rows := make([][]string, 0, len(plan.Assets))
		for _, asset := range plan.Assets {
			size := ""
			if asset.Width > 0 {
				size = fmt.Sprintf("%dx%d", asset.Width, asset.Height)
				if asset.Resize {
					size += fmt.Sprintf(" → %dx%d", asset.TargetWidth, asset.TargetHeight)
				}
			}
			chain := strings.Join(asset.Chain, " → ")
			if asset.Error != "" {
				chain = "error: " + asset.Error
			}
			rows = append(rows, []string{
				asset.Variant,
				asset.Name,
				report.CategoryLabel(string(asset.Category)),
				formatBytes(asset.Bytes),
				size,
				chain,
			})
		}
		fmt.Fprintln(out, renderTable("",
			[]string{"Variant", "Asset", "Category", "Size", "Dimensions", "Chain"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		))
		for _, skip := range plan.Skipped {
			fmt.Fprintf(out, "skip %s: %s\n", skip.Name, skip.Reason)
		}
		fmt.Fprintln(out, "Dry run: nothing was archived or written.")
		return nil
	})
}
