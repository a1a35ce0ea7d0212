package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/csheth/runreport/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "runreport:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "runreport",
		Short:         "Read run reports with a table of contents that follows the scroll position",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "path to config.yaml (defaults to $RUNREPORT_CONFIG or the user config dir)")
	flags.String("prefs-backend", "", "where display preferences live: file, sqlite or memory")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newViewCmd(), newOutlineCmd(), newPrefsCmd())
	return root
}

// loadConfig reads the configuration file and lets explicit flags win over
// both the file and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Read(path)
	if err != nil {
		return config.Config{}, err
	}
	if backend, _ := flags.GetString("prefs-backend"); backend != "" {
		cfg.Prefs.Backend = backend
	}
	if level, _ := flags.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
