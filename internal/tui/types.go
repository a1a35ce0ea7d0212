package tui

import (
	"time"

	"github.com/csheth/runreport/internal/report"
)

type stage int

const (
	stageLoading stage = iota
	stageDisplay
	stageSearch
	stageFailed
)

type focusArea int

const (
	focusContent focusArea = iota
	focusPanel
)

const (
	minViewportWidth     = 20
	minBodyHeight        = 3
	footerHeight         = 2
	sidebarGap           = 1
	floatingHeightPct    = 60
	defaultPanelWidth    = 40
	defaultThresholdRows = 3
	defaultFrameInterval = 16 * time.Millisecond
	wheelStep            = 3
	maxBadges            = 4
)

type reportLoadedMsg struct {
	path   string
	report *report.Report
	err    error
}

type reportChangedMsg struct{}

type frameMsg struct{}

type yankResultMsg struct {
	id  string
	err error
}
