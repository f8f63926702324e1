package main

import (
	"io"

	"github.com/spf13/cobra"

	"spawnwatch/internal/platform/config"
	"spawnwatch/internal/platform/logging"
)

// commandContext はサブコマンド間で共有する設定の遅延読み込みです。
type commandContext struct {
	configFlag *string
	verbose    *bool
	cfg        *config.Config
}

func (c *commandContext) ensureConfig(errOut io.Writer) (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	level := "warn"
	if *c.verbose {
		level = "debug"
	}
	if _, err := logging.Setup(errOut, level, "text"); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var verbose bool
	ctx := &commandContext{configFlag: &configFlag, verbose: &verbose}

	rootCmd := &cobra.Command{
		Use:           "spawnctl",
		Short:         "Inspect the reference catalog and watcher store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig(cmd.ErrOrStderr())
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newIdentifyCommand(ctx))
	rootCmd.AddCommand(newInterestsCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))

	return rootCmd
}
