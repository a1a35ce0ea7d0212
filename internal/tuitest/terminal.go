package tuitest

import (
	"bytes"
	"io"
)

// terminalQuery is a request the viewer writes while probing the terminal
// and the reply a dark 80-column xterm would send back.
type terminalQuery struct {
	ask   []byte
	reply []byte
}

// Colour queries arrive with either a BEL or an ST terminator.
var terminalQueries = []terminalQuery{
	{ask: []byte("\x1b[6n"), reply: []byte("\x1b[1;1R")},
	{ask: []byte("\x1b[c"), reply: []byte("\x1b[?62;22c")},
	{ask: []byte("\x1b]10;?\x07"), reply: []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{ask: []byte("\x1b]10;?\x1b\\"), reply: []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{ask: []byte("\x1b]11;?\x07"), reply: []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{ask: []byte("\x1b]11;?\x1b\\"), reply: []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

// tailKeep is how much output survives between reads so a query split
// across two chunks is still recognised.
const tailKeep = 16

type terminalResponder struct {
	w   io.Writer
	buf []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, 128)}
}

// Process scans one chunk of child output and answers every probe in the
// order the child sent them.
func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for {
		q, end := tr.earliest()
		if q == nil {
			break
		}
		tr.buf = tr.buf[end:]
		_, _ = tr.w.Write(q.reply)
	}
	if len(tr.buf) > tailKeep {
		tr.buf = append(tr.buf[:0], tr.buf[len(tr.buf)-tailKeep:]...)
	}
}

func (tr *terminalResponder) earliest() (*terminalQuery, int) {
	var found *terminalQuery
	at := -1
	for i := range terminalQueries {
		q := &terminalQueries[i]
		idx := bytes.Index(tr.buf, q.ask)
		if idx < 0 || (at >= 0 && idx >= at) {
			continue
		}
		found, at = q, idx
	}
	if found == nil {
		return nil, 0
	}
	return found, at + len(found.ask)
}
