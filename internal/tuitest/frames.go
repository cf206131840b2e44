package tuitest

import (
	"regexp"
	"strings"
)

// Frame is one screen repaint with escape sequences removed.
type Frame struct {
	Index int
	Text  string
}

var (
	clearScreen = regexp.MustCompile(`\x1b\[[0-9;]*J`)
	csiSequence = regexp.MustCompile(`\x1b\[[0-9;?<>=]*[ -/]*[@-~]`)
	oscSequence = regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)
)

func splitFrames(raw []byte) []Frame {
	stream := strings.ReplaceAll(string(raw), "\r", "")
	var frames []Frame
	for _, part := range clearScreen.Split(stream, -1) {
		text := tidy(Strip(part))
		if strings.TrimSpace(text) == "" {
			continue
		}
		frames = append(frames, Frame{Index: len(frames), Text: text})
	}
	return frames
}

// Strip removes terminal escape sequences and shift characters.
func Strip(s string) string {
	s = oscSequence.ReplaceAllString(s, "")
	s = csiSequence.ReplaceAllString(s, "")
	return strings.NewReplacer("\x0e", "", "\x0f", "", "\x00", "").Replace(s)
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n ")
}

// Last returns the final frame, or false when nothing was drawn.
func (r *Recording) Last() (Frame, bool) {
	if r == nil || len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

// Saw reports whether text appeared anywhere in the plain output. Renders
// are diffed by the terminal renderer, so a string may never sit whole
// inside a single frame.
func (r *Recording) Saw(text string) bool {
	if r == nil {
		return false
	}
	return strings.Contains(Strip(strings.ReplaceAll(string(r.Raw), "\r", "")), text)
}

// FirstWith returns the earliest frame containing text.
func (r *Recording) FirstWith(text string) (Frame, bool) {
	if r == nil {
		return Frame{}, false
	}
	for _, frame := range r.Frames {
		if strings.Contains(frame.Text, text) {
			return frame, true
		}
	}
	return Frame{}, false
}
