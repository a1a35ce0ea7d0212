package tui

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// scroller animates the viewport offset toward a target with a critically
// damped spring, one step per frame.
type scroller struct {
	spring   harmonica.Spring
	pos      float64
	velocity float64
	target   float64
	active   bool
}

// newScroller builds a spring stepped fps times a second; anything below
// one frame a second is treated as one.
func newScroller(fps int) scroller {
	fps = max(fps, 1)
	return scroller{spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0)}
}

func (s *scroller) start(from, to int) {
	if from == to {
		s.stop()
		return
	}
	if !s.active {
		s.pos = float64(from)
		s.velocity = 0
	}
	s.target = float64(to)
	s.active = true
}

func (s *scroller) stop() {
	s.active = false
	s.velocity = 0
}

// step advances one frame and returns the row offset to show.
func (s *scroller) step() int {
	if !s.active {
		return int(math.Round(s.pos))
	}
	s.pos, s.velocity = s.spring.Update(s.pos, s.velocity, s.target)
	if math.Abs(s.target-s.pos) < 0.5 && math.Abs(s.velocity) < 0.5 {
		s.pos = s.target
		s.stop()
	}
	return int(math.Round(s.pos))
}
