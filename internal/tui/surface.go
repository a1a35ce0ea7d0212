package tui

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/runreport/internal/toc"
)

// anchorSpan is where a rendered section sits in the content, in lines.
type anchorSpan struct {
	line   int
	height int
	// lead is how many rows above line stay visible when jumping here.
	lead int
}

// viewportSurface exposes the report viewport to the TOC engine. Rows are
// the unit of every coordinate; the container starts below the header.
type viewportSurface struct {
	m        *model
	scroll   []surfaceHandler
	resize   []surfaceHandler
	nextSubs int
}

type surfaceHandler struct {
	id int
	fn func()
}

func newViewportSurface(m *model) *viewportSurface {
	return &viewportSurface{m: m}
}

func (s *viewportSurface) AnchorByID(id string) (toc.Anchor, bool) {
	span, ok := s.m.anchors[id]
	if !ok {
		return nil, false
	}
	return lineAnchor{m: s.m, span: span}, true
}

func (s *viewportSurface) ScrollContainer() (toc.Container, bool) {
	if s.m.report == nil || s.m.viewport.Height <= 0 {
		return nil, false
	}
	return viewportContainer{m: s.m}, true
}

func (s *viewportSurface) OnScroll(_ toc.Container, handler func()) func() {
	return s.subscribe(&s.scroll, handler)
}

func (s *viewportSurface) OnResize(_ toc.Container, handler func()) func() {
	return s.subscribe(&s.resize, handler)
}

func (s *viewportSurface) subscribe(list *[]surfaceHandler, handler func()) func() {
	s.nextSubs++
	id := s.nextSubs
	*list = append(*list, surfaceHandler{id: id, fn: handler})
	return func() {
		for i, h := range *list {
			if h.id == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return
			}
		}
	}
}

func (s *viewportSurface) emitScroll() { emit(s.scroll) }

func (s *viewportSurface) emitResize() { emit(s.resize) }

func emit(handlers []surfaceHandler) {
	for _, h := range append([]surfaceHandler(nil), handlers...) {
		h.fn()
	}
}

type lineAnchor struct {
	m    *model
	span anchorSpan
}

func (a lineAnchor) Rect() toc.Rect {
	top := float64(a.m.layout.contentTop + a.span.line - a.m.viewport.YOffset)
	return toc.Rect{Top: top, Bottom: top + float64(a.span.height)}
}

func (a lineAnchor) Offset() float64 { return float64(a.span.lead) }

type viewportContainer struct {
	m *model
}

func (c viewportContainer) Rect() toc.Rect {
	top := float64(c.m.layout.contentTop)
	return toc.Rect{Top: top, Bottom: top + float64(c.m.viewport.Height)}
}

func (c viewportContainer) ScrollTop() float64 {
	return float64(c.m.viewport.YOffset)
}

func (c viewportContainer) ScrollTo(position float64, behavior toc.ScrollBehavior) {
	target := int(math.Round(position))
	if behavior == toc.ScrollSmooth && c.m.config.SmoothScroll {
		c.m.scroller.start(c.m.viewport.YOffset, c.m.clampYOffset(target))
		return
	}
	c.m.scroller.stop()
	c.m.viewport.SetYOffset(c.m.clampYOffset(target))
}

// armFrame schedules the next frame tick while engine callbacks or a scroll
// animation are waiting.
func (m *model) armFrame() tea.Cmd {
	if m.frameArmed || (!m.frames.Pending() && !m.scroller.active) {
		return nil
	}
	m.frameArmed = true
	return tea.Tick(m.config.FrameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m *model) handleFrame() {
	m.frameArmed = false
	if m.scroller.active {
		m.viewport.SetYOffset(m.clampYOffset(m.scroller.step()))
	}
	m.syncScroll()
	m.frames.Flush()
}

// syncScroll reports a scroll event when the viewport moved since the last
// call.
func (m *model) syncScroll() {
	if m.viewport.YOffset == m.lastYOffset {
		return
	}
	m.lastYOffset = m.viewport.YOffset
	m.surface.emitScroll()
}
