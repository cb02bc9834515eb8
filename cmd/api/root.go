package main

import (
	"fmt"

	"github.com/krsnavtr-code/gallery/internal/config"
	"github.com/krsnavtr-code/gallery/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries state resolved once by the root command for every subcommand.
type app struct {
	configPath string
	logLevel   string

	v   *viper.Viper
	cfg config.Config
	log *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "gallery",
		Short:         "Gallery media and tag service",
		Long:          "Stores uploaded media with their tags, serves them over HTTP and keeps tag renames and deletions in step with the media that carry them.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is ./gallery.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.Version = fmt.Sprintf("%s.%s", version, commit)

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newMigrateCommand(a))
	cmd.AddCommand(newTagsCommand(a))
	cmd.AddCommand(newBlobsCommand(a))
	cmd.AddCommand(newConfigCommand(a))

	return cmd
}

func (a *app) loadViper() error {
	v, err := config.NewViper(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		v.Set("log.level", a.logLevel)
	}
	a.v = v
	return nil
}

func (a *app) init(cmd *cobra.Command) error {
	if err := a.loadViper(); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log.With(zap.String("command", cmd.Name()))
	return nil
}
