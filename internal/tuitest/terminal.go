package tuitest

import (
	"bytes"
	"io"
)

// reply pairs a terminal query with the answer a real terminal would give.
type reply struct {
	query  []byte
	answer []byte
}

// Cursor position and foreground/background colour queries, in both BEL
// and ST terminated forms.
var replies = []reply{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:dddd/dddd/dddd\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:dddd/dddd/dddd\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:1111/1111/1111\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:1111/1111/1111\x1b\\")},
}

// responder answers terminal queries so termenv does not block waiting.
type responder struct {
	out     io.Writer
	pending []byte
}

func newResponder(out io.Writer) *responder {
	return &responder{out: out}
}

func (r *responder) Observe(chunk []byte) {
	r.pending = append(r.pending, chunk...)
	for r.answerNext() {
	}
	if len(r.pending) > 256 {
		r.pending = append([]byte(nil), r.pending[len(r.pending)-32:]...)
	}
}

func (r *responder) answerNext() bool {
	first, at := -1, -1
	for i, rep := range replies {
		idx := bytes.Index(r.pending, rep.query)
		if idx >= 0 && (at < 0 || idx < at) {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	rep := replies[first]
	r.pending = r.pending[at+len(rep.query):]
	_, _ = r.out.Write(rep.answer)
	return true
}
