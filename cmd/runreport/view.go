package main

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/runreport/internal/logging"
	"github.com/csheth/runreport/internal/prefs"
	"github.com/csheth/runreport/internal/tui"
)

func newViewCmd() *cobra.Command {
	var noAltScreen, noWatch bool
	cmd := &cobra.Command{
		Use:   "view <report.json>",
		Short: "Open a report in the terminal viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if noWatch {
				cfg.Watch = false
			}

			reportPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve report path: %w", err)
			}

			logger, closeLog, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer closeLog()

			store, err := prefs.Open(prefs.Config{
				Backend: cfg.Prefs.Backend,
				Path:    cfg.Prefs.Path,
				Logger:  logger.Named("prefs"),
			})
			if err != nil {
				return fmt.Errorf("open preferences: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Warn("close preferences", zap.Error(err))
				}
			}()

			opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
			if !noAltScreen {
				opts = append(opts, tea.WithAltScreen())
			}
			program := tea.NewProgram(
				tui.New(tui.Config{
					ReportPath:    reportPath,
					Prefs:         store,
					Logger:        logger,
					ThresholdRows: cfg.TOC.ThresholdRows,
					FrameInterval: cfg.TOC.FrameInterval,
					PanelWidth:    cfg.TOC.PanelWidth,
					SmoothScroll:  cfg.TOC.SmoothScroll,
					HeaderStyle:   cfg.Render.Style,
					Wrap:          cfg.Render.Wrap,
					Watch:         cfg.Watch,
				}),
				opts...,
			)

			logger.Info("viewer starting", zap.String("report", reportPath), zap.String("prefs", cfg.Prefs.Backend))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("program error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the report when it changes on disk")
	return cmd
}
