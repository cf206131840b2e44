package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/resurch/internal/catalog"
	"github.com/csheth/resurch/internal/starsync"
)

// Catalog is the read side of the remote catalog used by the presenter.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]catalog.Paper, error)
	Feed(ctx context.Context, userID string) ([]catalog.Paper, error)
}

func searchJob(client Catalog, seq int, query string, limit int, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		papers, err := client.Search(ctx, query, limit)
		return searchResultMsg{seq: seq, query: query, papers: papers, err: err}, err
	}
}

func feedJob(client Catalog, seq int, userID string, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		papers, err := client.Feed(ctx, userID)
		return feedResultMsg{seq: seq, papers: papers, err: err}, err
	}
}

// starJob resolves a toggle. The engine applies its own submit timeout.
func starJob(pending *starsync.Pending, title string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		outcome := pending.Resolve(parent)
		return starResultMsg{paperTitle: title, outcome: outcome}, outcome.Err
	}
}

func pollSessionCmd() tea.Cmd {
	return tea.Tick(sessionPollInterval, func(time.Time) tea.Msg {
		return sessionPollMsg{}
	})
}
