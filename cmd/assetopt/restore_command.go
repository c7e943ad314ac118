package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"assetopt/internal/archive"
	"assetopt/internal/config"
)

type restoreResult struct {
	ArchiveDir string `json:"archive_dir"`
	RunID      string `json:"run_id"`
	Dest       string `json:"dest"`
	Restored   int    `json:"restored"`
}

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "restore RUN_ID|DIR",
		Short: "Copy archived originals back after verifying their checksums",
		Long: "Restore the originals archived by a run. The argument may be a run id, " +
			"an archive directory name under paths.archive_dir, or a full path.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			record, err := findArchive(cmd, ctx, cfg, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			target := strings.TrimSpace(dest)
			if target == "" {
				target = cfg.Paths.AssetsDir
			} else if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}

			count, err := archive.Restore(cmd.Context(), record, target)
			if err != nil {
				return err
			}
			result := restoreResult{ArchiveDir: record.Dir, RunID: record.RunID, Dest: target, Restored: count}
			return render(cmd, ctx, result, func() error {
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d file(s) from %s to %s\n", count, record.Dir, target)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination directory (defaults to paths.assets_dir)")
	return cmd
}

// findArchive resolves ref against the archive root first and falls back to
// the archive directory recorded in the run history.
func findArchive(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, ref string) (*archive.Record, error) {
	record, findErr := archive.Find(cfg.Paths.ArchiveDir, ref)
	if findErr == nil {
		return record, nil
	}

	store, err := ctx.openHistory()
	if err != nil {
		return nil, findErr
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), ref)
	if err != nil {
		return nil, errors.Join(findErr, err)
	}
	if run == nil || run.ArchiveDir == "" {
		return nil, findErr
	}
	return archive.Load(run.ArchiveDir)
}
