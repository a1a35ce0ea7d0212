package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/runreport/internal/report"
)

func loadReportJob(path string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		if err := ctx.Err(); err != nil {
			return reportLoadedMsg{path: path, err: err}, err
		}
		r, err := report.Load(path)
		if err != nil {
			return reportLoadedMsg{path: path, err: err}, err
		}
		return reportLoadedMsg{path: path, report: r}, nil
	}
}

func yankJob(write func(string) error, id string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		err := write(id)
		return yankResultMsg{id: id, err: err}, err
	}
}

// startWatching runs report.Watch in the background and returns a command
// that delivers the first change notification.
func (m *model) startWatching() tea.Cmd {
	if !m.config.Watch || m.config.ReportPath == "" || m.changes != nil {
		return nil
	}
	changes := make(chan struct{}, 1)
	m.changes = changes
	ctx := m.ctx
	path := m.config.ReportPath
	logger := m.logger.Named("watch")
	go func() {
		notify := func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		}
		if err := report.Watch(ctx, path, report.DefaultDebounce, notify, report.WithWatchLogger(logger)); err != nil {
			logger.Warn("watch stopped", zap.Error(err))
		}
	}()
	return waitForChange(changes)
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return reportChangedMsg{}
	}
}
