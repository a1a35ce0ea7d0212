package toc

type fakeAnchor struct {
	surface *fakeSurface
	id      string
}

func (a fakeAnchor) Rect() Rect {
	top := a.surface.tops[a.id] - a.surface.scrollTop
	return Rect{Top: top, Bottom: top + a.surface.heightOf(a.id)}
}

func (a fakeAnchor) Offset() float64 {
	return a.surface.offsets[a.id]
}

type scrollRequest struct {
	position float64
	behavior ScrollBehavior
}

// fakeSurface places anchors at document positions; tops are relative to the
// container top once scrollTop is subtracted.
type fakeSurface struct {
	container    Rect
	hasContainer bool
	scrollTop    float64
	tops         map[string]float64
	heights      map[string]float64
	offsets      map[string]float64

	lookups  map[string]int
	scrolls  []scrollRequest
	onScroll map[int]func()
	onResize map[int]func()
	nextSub  int
}

func newFakeSurface(height float64, tops map[string]float64) *fakeSurface {
	return &fakeSurface{
		container:    Rect{Top: 0, Bottom: height},
		hasContainer: true,
		tops:         tops,
		heights:      map[string]float64{},
		offsets:      map[string]float64{},
		lookups:      map[string]int{},
		onScroll:     map[int]func(){},
		onResize:     map[int]func(){},
	}
}

func (s *fakeSurface) heightOf(id string) float64 {
	if h, ok := s.heights[id]; ok {
		return h
	}
	return 20
}

func (s *fakeSurface) AnchorByID(id string) (Anchor, bool) {
	s.lookups[id]++
	if _, ok := s.tops[id]; !ok {
		return nil, false
	}
	return fakeAnchor{surface: s, id: id}, true
}

func (s *fakeSurface) ScrollContainer() (Container, bool) {
	if !s.hasContainer {
		return nil, false
	}
	return fakeContainer{s}, true
}

func (s *fakeSurface) OnScroll(_ Container, handler func()) func() {
	s.nextSub++
	id := s.nextSub
	s.onScroll[id] = handler
	return func() { delete(s.onScroll, id) }
}

func (s *fakeSurface) OnResize(_ Container, handler func()) func() {
	s.nextSub++
	id := s.nextSub
	s.onResize[id] = handler
	return func() { delete(s.onResize, id) }
}

func (s *fakeSurface) scrollTo(position float64) {
	s.scrollTop = position
	for _, fn := range s.onScroll {
		fn()
	}
}

func (s *fakeSurface) resize() {
	for _, fn := range s.onResize {
		fn()
	}
}

type fakeContainer struct {
	s *fakeSurface
}

func (c fakeContainer) Rect() Rect         { return c.s.container }
func (c fakeContainer) ScrollTop() float64 { return c.s.scrollTop }
func (c fakeContainer) ScrollTo(position float64, behavior ScrollBehavior) {
	c.s.scrolls = append(c.s.scrolls, scrollRequest{position: position, behavior: behavior})
}

type memoryKV map[string]string

func (kv memoryKV) Get(key, def string) string {
	if value, ok := kv[key]; ok {
		return value
	}
	return def
}

func (kv memoryKV) Set(key, value string) error {
	kv[key] = value
	return nil
}
