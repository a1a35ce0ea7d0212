package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/runreport/internal/logging"
	"github.com/csheth/runreport/internal/prefs"
	"github.com/csheth/runreport/internal/toc"
)

const (
	prefVisible = "visible"
	prefMode    = "mode"
)

var errUnknownPref = errors.New("unknown preference")

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect or change the persisted contents panel state",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [visible|mode]",
			Short: "Print the persisted panel state",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDisplay(cmd, func(display *toc.DisplayController, _ prefs.Store) error {
					state := display.State()
					values := map[string]string{
						prefVisible: strconv.FormatBool(state.Visible),
						prefMode:    string(state.Mode),
					}
					out := cmd.OutOrStdout()
					if len(args) == 1 {
						value, ok := values[args[0]]
						if !ok {
							return fmt.Errorf("%w: %q", errUnknownPref, args[0])
						}
						fmt.Fprintln(out, value)
						return nil
					}
					fmt.Fprintf(out, "%s=%s\n%s=%s\n", prefVisible, values[prefVisible], prefMode, values[prefMode])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <visible|mode> <value>",
			Short: "Change the persisted panel state",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDisplay(cmd, func(display *toc.DisplayController, _ prefs.Store) error {
					switch args[0] {
					case prefVisible:
						visible, err := strconv.ParseBool(args[1])
						if err != nil {
							return fmt.Errorf("visible must be true or false: %w", err)
						}
						if display.State().Visible != visible {
							display.ToggleVisibility()
						}
					case prefMode:
						mode := toc.DisplayMode(args[1])
						if !mode.Valid() {
							return fmt.Errorf("mode must be %s or %s, got %q", toc.DisplayFloating, toc.DisplaySidebar, args[1])
						}
						display.SetDisplayMode(mode)
					default:
						return fmt.Errorf("%w: %q", errUnknownPref, args[0])
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Forget the persisted panel state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDisplay(cmd, func(_ *toc.DisplayController, store prefs.Store) error {
					for _, key := range []string{toc.VisibleKey, toc.ModeKey} {
						if err := store.Delete(key); err != nil {
							return fmt.Errorf("reset %s: %w", key, err)
						}
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Panel preferences reset.")
					return nil
				})
			},
		},
	)
	return cmd
}

// withDisplay opens the configured store and hands fn the same display
// controller the viewer uses, so values are read and written identically.
func withDisplay(cmd *cobra.Command, fn func(*toc.DisplayController, prefs.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := prefs.Open(prefs.Config{Backend: cfg.Prefs.Backend, Path: cfg.Prefs.Path, Logger: logger.Named("prefs")})
	if err != nil {
		return fmt.Errorf("open preferences: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close preferences", zap.Error(err))
		}
	}()
	return fn(toc.NewDisplayController(store, nil, logger.Named("display")), store)
}
