package tui

import (
	"time"

	"github.com/csheth/resurch/internal/catalog"
	"github.com/csheth/resurch/internal/starsync"
)

type page int

const (
	pageCalibration page = iota
	pageFeed
)

func (p page) title() string {
	if p == pageFeed {
		return "Your Feed"
	}
	return "Calibration"
}

type focusArea int

const (
	focusQuery focusArea = iota
	focusList
)

const heroTagline = "Autonomous scholarly discovery. Stop searching, start finding."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	abstractLineLimit         = 3
	sessionPollInterval       = 200 * time.Millisecond
)

const (
	queryPlaceholder     = "e.g. 'self-supervised learning' or 'transformers'"
	emptySearchMessage   = "No papers found. Try a different query."
	emptyFeedMessage     = "No recommendations yet. Press Tab to open Calibration and star more papers!"
	signInMessage        = "Sign in to star papers."
	waitingSessionLabel  = "Waiting for session…"
	calibrationIntroText = "Search for topics you are interested in and star relevant papers to build your profile."
	feedIntroText        = "Personalized recommendations based on your starred papers."
)

// paperList is the state behind one page's result list.
type paperList struct {
	papers    []catalog.Paper
	cursor    int
	loading   bool
	requested bool
	seq       int
	err       string
}

func (l *paperList) selected() (catalog.Paper, bool) {
	if len(l.papers) == 0 || l.cursor < 0 || l.cursor >= len(l.papers) {
		return catalog.Paper{}, false
	}
	return l.papers[l.cursor], true
}

func (l *paperList) move(delta int) bool {
	if len(l.papers) == 0 {
		return false
	}
	target := l.cursor + delta
	if target < 0 {
		target = 0
	}
	if target >= len(l.papers) {
		target = len(l.papers) - 1
	}
	if target == l.cursor {
		return false
	}
	l.cursor = target
	return true
}

type searchResultMsg struct {
	seq    int
	query  string
	papers []catalog.Paper
	err    error
}

type feedResultMsg struct {
	seq    int
	papers []catalog.Paper
	err    error
}

type starResultMsg struct {
	paperTitle string
	outcome    starsync.Outcome
}

type sessionPollMsg struct{}
