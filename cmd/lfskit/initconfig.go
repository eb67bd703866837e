package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/lfskit/internal/config"
)

func (a *app) newInitConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a starter config file",
		Long: `Write an example config file to --config, or to
$XDG_CONFIG_HOME/lfskit/config.toml when --config is not given.`,
		Args: cobra.NoArgs,
		// The file is about to be written; do not require it to load.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setupLogging()
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				path = config.Path()
			}
			if path == "" {
				return errors.New("cannot determine config path; pass --config")
			}
			if err := config.WriteFile(path, config.Example(), force); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}
