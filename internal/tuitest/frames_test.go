package tuitest

import (
	"bytes"
	"testing"
)

func TestParseFramesSplitsOnClear(t *testing.T) {
	raw := []byte("\x1b[2J\x1b[Hfirst frame  \r\n\x1b[1mbold\x1b[0m\n\n\x1b[2J\x1b[Hsecond\x1b]0;title\x07 frame")
	frames := parseFrames(raw)
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	if frames[0].Plain != "first frame\nbold" {
		t.Fatalf("first frame = %q", frames[0].Plain)
	}
	if frames[1].Plain != "second frame" {
		t.Fatalf("second frame = %q", frames[1].Plain)
	}
}

func TestRecordingQueries(t *testing.T) {
	rec := &Recording{Frames: []Frame{
		{Index: 0, Plain: "Loading"},
		{Index: 1, Plain: "Contents\nUDP stream"},
		{Index: 2, Plain: "UDP stream"},
	}}
	frame, ok := rec.LastFrameContaining("Contents")
	if !ok || frame.Index != 1 {
		t.Fatalf("LastFrameContaining = %+v, %v", frame, ok)
	}
	if missing := frame.Missing("UDP stream", "TCP connect"); len(missing) != 1 || missing[0] != "TCP connect" {
		t.Fatalf("missing = %v", missing)
	}
	if final, ok := rec.FinalFrame(); !ok || final.Index != 2 {
		t.Fatalf("FinalFrame = %+v, %v", final, ok)
	}
	if _, ok := (*Recording)(nil).FinalFrame(); ok {
		t.Fatal("nil recording has no frames")
	}
}

func TestTerminalResponderAnswersInOrder(t *testing.T) {
	var out bytes.Buffer
	tr := newTerminalResponder(&out)
	tr.Process([]byte("hello\x1b]11;?\x07 then \x1b["))
	tr.Process([]byte("6n done"))
	want := "\x1b]11;rgb:0000/0000/0000\x07\x1b[1;1R"
	if out.String() != want {
		t.Fatalf("replies = %q, want %q", out.String(), want)
	}
	out.Reset()
	tr.Process([]byte("plain output"))
	if out.Len() != 0 {
		t.Fatalf("unexpected reply %q", out.String())
	}
}
