package toc

// Rect is the vertical extent of something on screen. Units are whatever the
// host measures in (pixels in a browser, rows in a terminal).
type Rect struct {
	Top    float64
	Bottom float64
}

// Intersects reports whether r and other overlap at all.
func (r Rect) Intersects(other Rect) bool {
	return r.Top <= other.Bottom && r.Bottom >= other.Top
}

// Anchor is a live geometry accessor for one rendered content node. Rect is
// read on every evaluation; the accessor itself is cached by the scroll spy.
type Anchor interface {
	Rect() Rect
	// Offset is subtracted from the scroll target when jumping to the
	// anchor, e.g. to keep a sticky header from covering it.
	Offset() float64
}

type ScrollBehavior int

const (
	ScrollInstant ScrollBehavior = iota
	ScrollSmooth
)

// Container is the scrollable region that holds the rendered report.
type Container interface {
	Rect() Rect
	ScrollTop() float64
	ScrollTo(position float64, behavior ScrollBehavior)
}

// Surface is everything the engine reads from the rendered document.
type Surface interface {
	AnchorByID(id string) (Anchor, bool)
	ScrollContainer() (Container, bool)
	OnScroll(c Container, handler func()) (unsubscribe func())
	OnResize(c Container, handler func()) (unsubscribe func())
}

// FrameID identifies a scheduled frame callback. The zero value never
// identifies a live request.
type FrameID uint64

// FrameScheduler runs callbacks before the next render tick.
type FrameScheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// KV persists small string values across sessions.
type KV interface {
	Get(key, def string) string
	Set(key, value string) error
}
