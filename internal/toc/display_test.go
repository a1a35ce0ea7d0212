package toc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisplayDefaults(t *testing.T) {
	d := NewDisplayController(memoryKV{}, nil, nil)
	require.Equal(t, DefaultDisplayState, d.State())
}

func TestDisplayStateMachine(t *testing.T) {
	kv := memoryKV{}
	d := NewDisplayController(kv, nil, nil)
	var seen []DisplayState
	d.Subscribe(func(s DisplayState) { seen = append(seen, s) })

	d.ToggleVisibility()
	d.SetDisplayMode(DisplaySidebar)
	d.ToggleVisibility()
	d.SetDisplayMode(DisplayFloating)
	d.SetDisplayMode(DisplayFloating)
	d.SetDisplayMode("docked")

	require.Equal(t, []DisplayState{
		{Visible: true, Mode: DisplayFloating},
		{Visible: true, Mode: DisplaySidebar},
		{Visible: false, Mode: DisplaySidebar},
		{Visible: false, Mode: DisplayFloating},
	}, seen)
}

func TestDisplayPersistsAcrossSessions(t *testing.T) {
	kv := memoryKV{}
	first := NewDisplayController(kv, nil, nil)
	first.ToggleVisibility()
	first.SetDisplayMode(DisplaySidebar)
	require.Equal(t, "true", kv[VisibleKey])
	require.Equal(t, `"sidebar"`, kv[ModeKey])

	second := NewDisplayController(kv, nil, nil)
	require.Equal(t, DisplayState{Visible: true, Mode: DisplaySidebar}, second.State())
}

func TestDisplayMalformedPersistedValues(t *testing.T) {
	cases := map[string]memoryKV{
		"garbage":      {VisibleKey: "{nope", ModeKey: "]["},
		"wrong types":  {VisibleKey: `"yes"`, ModeKey: "42"},
		"unknown mode": {ModeKey: `"docked"`},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			d := NewDisplayController(kv, nil, nil)
			require.Equal(t, DefaultDisplayState, d.State())
		})
	}
}

func TestDisplayScrollToItem(t *testing.T) {
	surface := newFakeSurface(300, map[string]float64{"A": 0, "B": 450})
	surface.container = Rect{Top: 40, Bottom: 340}
	surface.scrollTop = 100
	surface.offsets["B"] = 8
	d := NewDisplayController(nil, surface, nil)

	require.True(t, d.ScrollToItem("B"))
	// B sits at 450-100=350 on screen, 310 below the container top.
	require.Equal(t, []scrollRequest{{position: 100 + 310 - 8, behavior: ScrollSmooth}}, surface.scrolls)

	require.False(t, d.ScrollToItem("missing"))
	surface.hasContainer = false
	require.False(t, d.ScrollToItem("A"))
	require.Len(t, surface.scrolls, 1)
}
