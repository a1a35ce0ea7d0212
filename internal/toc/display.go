package toc

import (
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DisplayMode is where the contents panel is drawn.
type DisplayMode string

const (
	DisplayFloating DisplayMode = "floating"
	DisplaySidebar  DisplayMode = "sidebar"
)

func (m DisplayMode) Valid() bool {
	return m == DisplayFloating || m == DisplaySidebar
}

// Preference keys the display state is persisted under; values are JSON.
const (
	VisibleKey = "run-report-toc-visible"
	ModeKey    = "run-report-toc-mode"
)

// DisplayState is the panel's user-facing state. Visibility and mode are
// independent axes.
type DisplayState struct {
	Visible bool
	Mode    DisplayMode
}

// DefaultDisplayState is used when nothing valid was persisted.
var DefaultDisplayState = DisplayState{Visible: false, Mode: DisplayFloating}

// DisplayController owns the panel state and the imperative jump to an
// anchor.
type DisplayController struct {
	state     DisplayState
	kv        KV
	surface   Surface
	logger    *zap.Logger
	listeners []func(DisplayState)
}

// NewDisplayController restores the persisted state from kv. A nil kv keeps
// state in memory only.
func NewDisplayController(kv KV, surface Surface, logger *zap.Logger) *DisplayController {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &DisplayController{kv: kv, surface: surface, logger: logger}
	d.state = d.load()
	return d
}

func (d *DisplayController) load() DisplayState {
	state := DefaultDisplayState
	if d.kv == nil {
		return state
	}
	if raw := d.kv.Get(VisibleKey, ""); raw != "" {
		var visible bool
		if err := json.Unmarshal([]byte(raw), &visible); err != nil {
			d.logger.Warn("ignoring malformed persisted visibility", zap.String("value", raw), zap.Error(err))
		} else {
			state.Visible = visible
		}
	}
	if raw := d.kv.Get(ModeKey, ""); raw != "" {
		var mode DisplayMode
		if err := json.Unmarshal([]byte(raw), &mode); err != nil || !mode.Valid() {
			d.logger.Warn("ignoring malformed persisted display mode", zap.String("value", raw), zap.Error(err))
		} else {
			state.Mode = mode
		}
	}
	return state
}

func (d *DisplayController) State() DisplayState {
	return d.state
}

// ToggleVisibility flips Hidden and Visible, leaving the mode alone.
func (d *DisplayController) ToggleVisibility() {
	d.state.Visible = !d.state.Visible
	d.persist(VisibleKey, d.state.Visible)
	d.changed()
}

// SetDisplayMode switches the layout, leaving visibility alone. Unknown
// modes are ignored.
func (d *DisplayController) SetDisplayMode(mode DisplayMode) {
	if !mode.Valid() || mode == d.state.Mode {
		return
	}
	d.state.Mode = mode
	d.persist(ModeKey, mode)
	d.changed()
}

func (d *DisplayController) persist(key string, value any) {
	if d.kv == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		d.logger.Error("encode display state", zap.String("key", key), zap.Error(err))
		return
	}
	if err := d.kv.Set(key, string(raw)); err != nil {
		d.logger.Warn("persist display state", zap.String("key", key), zap.Error(err))
	}
}

// ScrollToItem requests a smooth scroll that brings anchor id to the top of
// the container, less the anchor's own offset. It reports false when the
// anchor or container cannot be resolved.
func (d *DisplayController) ScrollToItem(id string) bool {
	if d.surface == nil {
		return false
	}
	anchor, ok := d.surface.AnchorByID(id)
	if !ok {
		return false
	}
	container, ok := d.surface.ScrollContainer()
	if !ok {
		return false
	}
	relativeTop := anchor.Rect().Top - container.Rect().Top
	target := container.ScrollTop() + relativeTop - anchor.Offset()
	container.ScrollTo(target, ScrollSmooth)
	d.logger.Debug("scroll to anchor", zap.String("id", id), zap.Float64("target", target))
	return true
}

// Subscribe registers fn for display state changes.
func (d *DisplayController) Subscribe(fn func(DisplayState)) func() {
	d.listeners = append(d.listeners, fn)
	idx := len(d.listeners) - 1
	return func() {
		if idx < len(d.listeners) {
			d.listeners[idx] = nil
		}
	}
}

func (d *DisplayController) changed() {
	for _, fn := range d.listeners {
		if fn != nil {
			fn(d.state)
		}
	}
}
