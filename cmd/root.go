// Package cmd implements the usage-tracker command-line host. Each command
// loads an HTML page into a headless document, attaches a tracker to it and
// drives clicks, visibility changes or manual events.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/usage-tracker/internal/config"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/logger"
)

// version is overridden at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

type cfgKey struct{}

var errNoConfig = errors.New("configuration not loaded")

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var (
		cfgFile string
		debug   bool
	)

	root := &cobra.Command{
		Use:           "usage-tracker",
		Short:         "Drive a usage tracker against an HTML page",
		Long:          `Loads an HTML page into a headless document, attaches a tracker and sends its events to the collection endpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return setup(cmd, cfgFile, debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			_ = logger.FromContext(cmd.Context()).Sync()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newTrackCommand(),
		newClickCommand(),
		newVisibilityCommand(),
		newVersionCommand(),
	)

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// setup loads configuration and the logger into the command context.
func setup(cmd *cobra.Command, cfgFile string, debug bool) error {
	if cfgFile == "" {
		cfgFile = config.GetConfigPath("config.yml")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return fmt.Errorf("validate config: %w", validationErr)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	log = log.With(logger.String("service", cfg.Service.Name))

	ctx := logger.WithContext(cmd.Context(), log)
	ctx = context.WithValue(ctx, cfgKey{}, cfg)
	cmd.SetContext(ctx)

	return nil
}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(cfgKey{}).(*config.Config)
	if !ok {
		return nil, errNoConfig
	}
	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "usage-tracker version %s\n", version)
		},
	}
}
