package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/krsnavtr-code/gallery/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management utilities",

		// Only viper is needed here; the effective config may not validate yet.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadViper()
		},
	}

	cmd.AddCommand(newConfigGenerateCommand(a))
	cmd.AddCommand(newConfigValidateCommand(a))

	return cmd
}

func newConfigGenerateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the effective configuration as YAML",
		Long: `Write every known setting, with defaults, environment and config file
values merged, to gallery.yaml in the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			filename := filepath.Join(outputDir, "gallery.yaml")
			if _, err := os.Stat(filename); err == nil && !overwrite {
				return fmt.Errorf("%s exists, use --overwrite to replace it", filename)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", filename, err)
			}

			data, err := yaml.Marshal(a.v.AllSettings())
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			if err := os.WriteFile(filename, data, 0o644); err != nil {
				return fmt.Errorf("write config file %s: %w", filename, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "generated %s\n", filename)
			return nil
		},
	}

	cmd.Flags().String("output", ".", "output directory for the configuration file")
	cmd.Flags().Bool("overwrite", false, "overwrite an existing file")

	return cmd
}

func newConfigValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: metadata=%s blob=%s listen=%s\n",
				cfg.Metadata.Driver, cfg.Blob.Driver, cfg.Server.Address())
			return nil
		},
	}
}
