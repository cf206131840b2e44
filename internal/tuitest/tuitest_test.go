package tuitest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFramesStripsEscapes(t *testing.T) {
	raw := []byte("\x1b[2J\x1b[H\x1b[1mresurch\x1b[0m  \r\n\x1b[2Jfirst \x1b[38;5;42m92% Match\x1b[0m\r\n\r\n")
	frames := splitFrames(raw)
	require.Len(t, frames, 2)
	assert.Equal(t, "resurch", frames[0].Text)
	assert.Equal(t, "first 92% Match", frames[1].Text)

	rec := &Recording{Raw: raw, Frames: frames}
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, 1, last.Index)
	assert.True(t, rec.Saw("92% Match"))
	found, ok := rec.FirstWith("resurch")
	require.True(t, ok)
	assert.Equal(t, 0, found.Index)
}

func TestEmptyRecording(t *testing.T) {
	var rec *Recording
	_, ok := rec.Last()
	assert.False(t, ok)
	assert.False(t, rec.Saw("x"))
}

func TestResponderAnswersSplitQueries(t *testing.T) {
	var out bytes.Buffer
	r := newResponder(&out)
	r.Observe([]byte("junk\x1b["))
	assert.Zero(t, out.Len())
	r.Observe([]byte("6n more \x1b]11;?\x07"))
	assert.Equal(t, "\x1b[1;1R\x1b]11;rgb:1111/1111/1111\x07", out.String())
}
