package toc

import (
	"math"

	"go.uber.org/zap"
)

// DefaultThreshold is how far below the container's top edge the activation
// line sits, leaving room for sticky headers.
const DefaultThreshold = 120

// SpyOption configures a ScrollSpy.
type SpyOption func(*ScrollSpy)

// WithThreshold moves the activation line.
func WithThreshold(offset float64) SpyOption {
	return func(s *ScrollSpy) {
		s.threshold = offset
	}
}

func WithLogger(logger *zap.Logger) SpyOption {
	return func(s *ScrollSpy) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// ScrollSpy maps the container's scroll position to one active anchor and
// writes it into an ActiveStore.
type ScrollSpy struct {
	store     *ActiveStore
	surface   Surface
	frames    FrameScheduler
	threshold float64
	logger    *zap.Logger
}

func NewScrollSpy(store *ActiveStore, surface Surface, frames FrameScheduler, opts ...SpyOption) *ScrollSpy {
	s := &ScrollSpy{
		store:     store,
		surface:   surface,
		frames:    frames,
		threshold: DefaultThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SpyHandle is one running spy session over a fixed anchor list.
type SpyHandle struct {
	spy       *ScrollSpy
	tree      *Tree
	anchorIDs []string

	container    Container
	cache        map[string]Anchor
	unsubScroll  func()
	unsubResize  func()
	frame        FrameID
	lastActiveID string
	stopped      bool
}

// Start begins tracking anchorIDs, which must come from tree. An evaluation
// runs immediately; if the container is not available yet the spy retries
// on the next frame.
func (s *ScrollSpy) Start(tree *Tree, anchorIDs []string) *SpyHandle {
	h := &SpyHandle{
		spy:          s,
		tree:         tree,
		anchorIDs:    anchorIDs,
		cache:        map[string]Anchor{},
		lastActiveID: s.store.State().ActiveID,
	}
	if len(anchorIDs) == 0 {
		return h
	}
	h.attach()
	return h
}

func (h *SpyHandle) attach() {
	if h.stopped {
		return
	}
	container, ok := h.spy.surface.ScrollContainer()
	if !ok {
		h.frame = h.spy.frames.RequestFrame(func() {
			h.frame = 0
			h.attach()
		})
		return
	}
	h.container = container
	h.rebuildCache()
	h.unsubScroll = h.spy.surface.OnScroll(container, h.onScroll)
	h.unsubResize = h.spy.surface.OnResize(container, h.onResize)
	h.evaluate()
}

func (h *SpyHandle) rebuildCache() {
	clear(h.cache)
	for _, id := range h.anchorIDs {
		if anchor, ok := h.spy.surface.AnchorByID(id); ok {
			h.cache[id] = anchor
		}
	}
}

func (h *SpyHandle) lookup(id string) (Anchor, bool) {
	if anchor, ok := h.cache[id]; ok {
		return anchor, true
	}
	anchor, ok := h.spy.surface.AnchorByID(id)
	if ok {
		h.cache[id] = anchor
	}
	return anchor, ok
}

func (h *SpyHandle) onScroll() {
	if h.stopped || h.frame != 0 {
		return
	}
	h.frame = h.spy.frames.RequestFrame(func() {
		h.frame = 0
		h.evaluate()
	})
}

func (h *SpyHandle) onResize() {
	if h.stopped {
		return
	}
	h.rebuildCache()
	h.onScroll()
}

// Evaluate runs one selection pass immediately.
func (h *SpyHandle) Evaluate() {
	if h.stopped || h.container == nil {
		return
	}
	h.evaluate()
}

// Invalidate drops cached anchors, e.g. after the host re-rendered content
// without a size change, and schedules an evaluation.
func (h *SpyHandle) Invalidate() {
	h.onResize()
}

func (h *SpyHandle) evaluate() {
	if h.stopped {
		return
	}
	if _, ok := h.spy.surface.ScrollContainer(); !ok {
		if h.frame == 0 {
			h.frame = h.spy.frames.RequestFrame(func() {
				h.frame = 0
				h.evaluate()
			})
		}
		return
	}
	id, ok := h.selectActive()
	if !ok || id == h.lastActiveID {
		return
	}
	h.lastActiveID = id
	h.spy.logger.Debug("active anchor changed", zap.String("id", id))
	h.spy.store.Set(ActiveState{ActiveID: id, ParentIDs: h.tree.Ancestors(id)})
}

// selectActive picks the anchor whose top most recently crossed the
// activation line. When none has, it falls back to the first anchor visible
// in the container.
func (h *SpyHandle) selectActive() (string, bool) {
	bounds := h.container.Rect()
	thresholdY := bounds.Top + h.spy.threshold

	best := ""
	closest := math.Inf(1)
	for _, id := range h.anchorIDs {
		anchor, ok := h.lookup(id)
		if !ok {
			continue
		}
		top := anchor.Rect().Top
		if top > thresholdY {
			continue
		}
		if distance := thresholdY - top; distance < closest {
			closest = distance
			best = id
		}
	}
	if best != "" {
		return best, true
	}
	for _, id := range h.anchorIDs {
		anchor, ok := h.lookup(id)
		if !ok {
			continue
		}
		if anchor.Rect().Intersects(bounds) {
			return id, true
		}
	}
	return "", false
}

// Stop detaches listeners and cancels pending work. It is safe to call more
// than once.
func (h *SpyHandle) Stop() {
	if h == nil || h.stopped {
		return
	}
	h.stopped = true
	if h.unsubScroll != nil {
		h.unsubScroll()
		h.unsubScroll = nil
	}
	if h.unsubResize != nil {
		h.unsubResize()
		h.unsubResize = nil
	}
	if h.frame != 0 {
		h.spy.frames.CancelFrame(h.frame)
		h.frame = 0
	}
	clear(h.cache)
}

// AnchorIDs returns the list this session tracks.
func (h *SpyHandle) AnchorIDs() []string {
	return h.anchorIDs
}
