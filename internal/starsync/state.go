package starsync

import (
	"sort"

	"github.com/csheth/resurch/internal/catalog"
)

// State is the star status of one paper as seen by the client.
type State int

const (
	Unstarred State = iota
	Starred
	PendingStar
	PendingUnstar
)

func (s State) String() string {
	switch s {
	case Starred:
		return "starred"
	case PendingStar:
		return "pending-star"
	case PendingUnstar:
		return "pending-unstar"
	default:
		return "unstarred"
	}
}

// Member reports optimistic StarredSet membership for the state.
func (s State) Member() bool {
	return s == Starred || s == PendingStar
}

// Pending reports whether a submission for the paper is unresolved.
func (s State) Pending() bool {
	return s == PendingStar || s == PendingUnstar
}

func pendingFor(kind catalog.InteractionType) State {
	if kind == catalog.InteractionStar {
		return PendingStar
	}
	return PendingUnstar
}

func settledFor(kind catalog.InteractionType) State {
	if kind == catalog.InteractionStar {
		return Starred
	}
	return Unstarred
}

func revertedFor(kind catalog.InteractionType) State {
	if kind == catalog.InteractionStar {
		return Unstarred
	}
	return Starred
}

// StarredSet is an immutable snapshot of starred paper ids.
type StarredSet struct {
	ids map[string]struct{}
}

// Has reports membership.
func (s StarredSet) Has(paperID string) bool {
	_, ok := s.ids[paperID]
	return ok
}

// Len returns the number of starred papers.
func (s StarredSet) Len() int { return len(s.ids) }

// IDs returns the members in lexical order.
func (s StarredSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
