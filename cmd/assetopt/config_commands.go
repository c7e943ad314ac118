package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"assetopt/internal/config"
	"assetopt/internal/preflight"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath, assetsDir string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write an annotated sample configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if assetsDir != "" {
				if assetsDir, err = config.ExpandPath(assetsDir); err != nil {
					return fmt.Errorf("resolve assets directory: %w", err)
				}
			}
			if err := config.CreateSample(target, assetsDir); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			if assetsDir == "" {
				fmt.Fprintln(out, "Set paths.assets_dir, then run `assetopt tools` to check the optimizers.")
			} else {
				fmt.Fprintln(out, "Run `assetopt tools` to check the optimizers, then `assetopt plan`.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().StringVar(&assetsDir, "assets", "", "Asset directory to record as paths.assets_dir")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

type validation struct {
	ConfigPath string             `json:"config_path"`
	FileExists bool               `json:"file_exists"`
	AssetsDir  string             `json:"assets_dir"`
	Variants   []string           `json:"variants"`
	Checks     []preflight.Result `json:"checks"`
	Valid      bool               `json:"valid"`
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration, create missing directories, and check access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			result := validation{
				ConfigPath: ctx.configPath,
				FileExists: ctx.configExists,
				AssetsDir:  cfg.Paths.AssetsDir,
				Checks:     preflight.RunAll(cmd.Context(), cfg, 0),
			}
			if cfg.Variants.Preserve {
				result.Variants = append(result.Variants, "preserve")
			}
			if cfg.Variants.Resize {
				result.Variants = append(result.Variants, "resize")
			}
			checkErr := preflight.Err(result.Checks)
			result.Valid = checkErr == nil

			if err := render(cmd, ctx, result, func() error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Config path: %s\n", result.ConfigPath)
				if !result.FileExists {
					fmt.Fprintln(out, "Config file did not exist; defaults were used")
				}
				fmt.Fprintf(out, "Assets: %s\n", result.AssetsDir)
				fmt.Fprintf(out, "Variants: %s\n", strings.Join(result.Variants, ", "))
				fmt.Fprintf(out, "WebP siblings: %s\n", yesNo(cfg.WebP.Enabled))
				if result.Valid {
					fmt.Fprintln(out, "Configuration valid")
				}
				return nil
			}); err != nil {
				return err
			}
			return checkErr
		},
	}
}
