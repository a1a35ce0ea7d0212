package toc

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoProvider is the panic value raised when a slice accessor is used
// without a mounted provider.
var ErrNoProvider = errors.New("toc: accessor used outside a mounted provider")

// Deps are the collaborators a Provider needs from its host.
type Deps struct {
	Surface   Surface
	Frames    FrameScheduler
	Prefs     KV
	Logger    *zap.Logger
	Threshold float64
}

// Provider builds every slice of TOC state once for a report and keeps them
// wired together: the spy writes the active store, the expansion tracker
// follows the store, and the display controller stands alone.
type Provider struct {
	tree      *Tree
	flattener Flattener
	store     *ActiveStore
	expansion *ExpansionTracker
	display   *DisplayController
	spy       *ScrollSpy
	handle    *SpyHandle
	detach    func()
	logger    *zap.Logger

	mounted bool
	closed  bool
}

func NewProvider(tree *Tree, deps Deps) *Provider {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	frames := deps.Frames
	if frames == nil {
		frames = NewFrameQueue()
	}
	opts := []SpyOption{WithLogger(logger.Named("spy"))}
	if deps.Threshold > 0 {
		opts = append(opts, WithThreshold(deps.Threshold))
	}
	store := NewActiveStore()
	return &Provider{
		tree:      tree,
		store:     store,
		expansion: NewExpansionTracker(tree),
		display:   NewDisplayController(deps.Prefs, deps.Surface, logger.Named("display")),
		spy:       NewScrollSpy(store, deps.Surface, frames, opts...),
		logger:    logger,
	}
}

// Mount starts the scroll spy and the auto-expand subscription.
func (p *Provider) Mount() {
	if p.closed {
		panic(fmt.Errorf("%w: Mount after Close", ErrNoProvider))
	}
	if p.mounted {
		return
	}
	p.mounted = true
	p.detach = p.expansion.Attach(p.store)
	p.startSpy()
}

func (p *Provider) startSpy() {
	if p.spy.surface == nil {
		return
	}
	p.handle = p.spy.Start(p.tree, p.flattener.IDs(p.tree))
}

// SetTree swaps in a newly loaded report. A different tree identity stops
// the spy, resets the active state and the expansion defaults, and starts
// a fresh spy over the new anchor list.
func (p *Provider) SetTree(tree *Tree) {
	p.mustBeMounted("SetTree")
	if tree == p.tree {
		return
	}
	p.handle.Stop()
	p.tree = tree
	p.store.Reset()
	p.expansion.Reset(tree)
	p.logger.Info("contents replaced", zap.Int("nodes", tree.Len()), zap.Int("anchors", len(p.flattener.IDs(tree))))
	p.startSpy()
}

// Close tears down the spy and subscriptions. Further accessor calls panic.
func (p *Provider) Close() {
	if p == nil || p.closed {
		return
	}
	p.closed = true
	p.handle.Stop()
	if p.detach != nil {
		p.detach()
		p.detach = nil
	}
}

func (p *Provider) mustBeMounted(accessor string) {
	if p == nil || !p.mounted || p.closed {
		panic(fmt.Errorf("%w: %s", ErrNoProvider, accessor))
	}
}

func (p *Provider) Tree() *Tree {
	p.mustBeMounted("Tree")
	return p.tree
}

func (p *Provider) AnchorIDs() []string {
	p.mustBeMounted("AnchorIDs")
	return p.flattener.IDs(p.tree)
}

func (p *Provider) Active() *ActiveStore {
	p.mustBeMounted("Active")
	return p.store
}

func (p *Provider) Expansion() *ExpansionTracker {
	p.mustBeMounted("Expansion")
	return p.expansion
}

func (p *Provider) Display() *DisplayController {
	p.mustBeMounted("Display")
	return p.display
}

func (p *Provider) ScrollToItem(id string) bool {
	p.mustBeMounted("ScrollToItem")
	return p.display.ScrollToItem(id)
}

// Refresh tells the spy the rendered content moved without a container
// resize, dropping cached anchors and scheduling an evaluation.
func (p *Provider) Refresh() {
	p.mustBeMounted("Refresh")
	if p.handle != nil {
		p.handle.Invalidate()
	}
}

// Evaluate recomputes the active anchor now instead of on the next frame,
// for hosts that moved the container themselves and render straight after.
func (p *Provider) Evaluate() {
	p.mustBeMounted("Evaluate")
	if p.handle != nil {
		p.handle.Evaluate()
	}
}

// Snapshot is every slice of state in one value. Reading it couples the
// caller to all slices at once; prefer the individual accessors.
type Snapshot struct {
	Tree        *Tree
	ActiveID    string
	ParentIDs   []string
	ExpandedIDs []string
	Display     DisplayState
}

func (p *Provider) Snapshot() Snapshot {
	p.mustBeMounted("Snapshot")
	state := p.store.State()
	return Snapshot{
		Tree:        p.tree,
		ActiveID:    state.ActiveID,
		ParentIDs:   state.ParentIDs,
		ExpandedIDs: p.expansion.Expanded(),
		Display:     p.display.State(),
	}
}
