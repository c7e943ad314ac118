package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetopt/internal/deps"
	"assetopt/internal/preflight"
	"assetopt/internal/tools"
)

type toolsReport struct {
	Tools       []deps.Status      `json:"tools"`
	Directories []preflight.Result `json:"directories"`
}

func newToolsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Check external tools and configured directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			box := tools.Probe(cmd.Context(), cfg, logger)
			rep := toolsReport{
				Tools:       box.Statuses,
				Directories: preflight.RunAll(cmd.Context(), cfg, 0),
			}

			return render(cmd, ctx, rep, func() error {
				out := cmd.OutOrStdout()
				printer := newCheckPrinter(out)

				toolLines := make([]checkLine, 0, len(rep.Tools))
				for _, status := range rep.Tools {
					line := checkLine{Label: status.Name, Kind: statusOK, Message: status.Version}
					if !status.Available {
						line.Kind, line.Message = statusWarn, status.Detail
						if !status.Optional {
							line.Kind = statusError
						}
					}
					toolLines = append(toolLines, line)
				}
				printer.section("Tools", toolLines)

				dirLines := make([]checkLine, 0, len(rep.Directories))
				for _, result := range rep.Directories {
					line := checkLine{Label: result.Name, Kind: statusOK, Message: result.Detail}
					if !result.Passed {
						line.Kind = statusError
					}
					dirLines = append(dirLines, line)
				}
				printer.section("Directories", dirLines)

				if len(box.Available()) == 0 {
					fmt.Fprintln(out, "No optimizer tools found; runs will copy assets through unchanged.")
				}
				fmt.Fprintln(out, printer.summary())
				return nil
			})
		},
	}
}
