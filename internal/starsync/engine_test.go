package starsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/resurch/internal/catalog"
	"github.com/csheth/resurch/internal/session"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []catalog.Interaction
	fail  map[string]error
}

func (f *fakeSubmitter) Submit(ctx context.Context, interaction catalog.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, interaction)
	return f.fail[interaction.PaperID]
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestEngine(t *testing.T, sub Submitter) *Engine {
	t.Helper()
	return New(Config{
		Session:       session.Static{UserID: "user_1", Loaded: true},
		Submitter:     sub,
		SubmitTimeout: time.Second,
	})
}

var errNetwork = errors.New("connection refused")

func TestToggleWithoutSessionIsRejected(t *testing.T) {
	sessions := []session.Static{
		{},
		{Loaded: true},
		{UserID: "user_1"},
	}
	for _, s := range sessions {
		sub := &fakeSubmitter{}
		engine := New(Config{Session: s, Submitter: sub})

		pending, err := engine.Toggle("p1")
		require.ErrorIs(t, err, ErrNotAuthenticated)
		assert.Nil(t, pending)
		assert.Equal(t, 0, engine.Snapshot().Len())
		assert.Equal(t, Unstarred, engine.State("p1"))
		assert.Equal(t, 0, sub.callCount())
	}
}

func TestToggleRejectsBlankPaper(t *testing.T) {
	engine := newTestEngine(t, &fakeSubmitter{})
	_, err := engine.Toggle("  ")
	require.ErrorIs(t, err, ErrEmptyPaperID)
}

func TestToggleIsOptimistic(t *testing.T) {
	engine := newTestEngine(t, &fakeSubmitter{})

	pending, err := engine.Toggle("p1")
	require.NoError(t, err)
	assert.Equal(t, catalog.InteractionStar, pending.Ticket.Type)
	assert.Equal(t, "user_1", pending.Ticket.UserID)
	assert.Equal(t, PendingStar, engine.State("p1"))
	assert.True(t, engine.Starred("p1"))
	assert.True(t, engine.Snapshot().Has("p1"))
	assert.Equal(t, 1, engine.PendingCount())
}

func TestStarThenUnstarRoundTrip(t *testing.T) {
	sub := &fakeSubmitter{}
	engine := newTestEngine(t, sub)
	before := engine.Snapshot().Has("p1")

	star, err := engine.Toggle("p1")
	require.NoError(t, err)
	outcome := star.Resolve(context.Background())
	assert.Equal(t, OutcomeConfirmed, outcome.Kind)
	assert.Equal(t, Starred, engine.State("p1"))

	unstar, err := engine.Toggle("p1")
	require.NoError(t, err)
	assert.Equal(t, catalog.InteractionUnstar, unstar.Ticket.Type)
	outcome = unstar.Resolve(context.Background())
	assert.Equal(t, OutcomeConfirmed, outcome.Kind)

	assert.Equal(t, before, engine.Snapshot().Has("p1"))
	assert.Equal(t, Unstarred, engine.State("p1"))
	require.Len(t, sub.calls, 2)
	assert.Equal(t, catalog.InteractionStar, sub.calls[0].Type)
	assert.Equal(t, catalog.InteractionUnstar, sub.calls[1].Type)
}

func TestFailedStarRollsBack(t *testing.T) {
	sub := &fakeSubmitter{fail: map[string]error{"p1": errNetwork}}
	engine := newTestEngine(t, sub)

	pending, err := engine.Toggle("p1")
	require.NoError(t, err)
	outcome := pending.Resolve(context.Background())

	assert.Equal(t, OutcomeRolledBack, outcome.Kind)
	require.ErrorIs(t, outcome.Err, ErrSyncFailed)
	assert.Equal(t, Unstarred, outcome.State)
	assert.False(t, engine.Starred("p1"))
	assert.Equal(t, 0, engine.PendingCount())
}

func TestFailedUnstarRollsBack(t *testing.T) {
	engine := newTestEngine(t, &fakeSubmitter{})
	engine.Hydrate([]string{"p1"})

	pending, err := engine.Toggle("p1")
	require.NoError(t, err)
	assert.False(t, engine.Starred("p1"))

	outcome := engine.Reconcile(pending.Ticket, errNetwork)
	assert.Equal(t, OutcomeRolledBack, outcome.Kind)
	assert.Equal(t, Starred, engine.State("p1"))
}

func TestRollbackIsIdempotent(t *testing.T) {
	engine := newTestEngine(t, &fakeSubmitter{})

	pending, err := engine.Toggle("p1")
	require.NoError(t, err)

	first := engine.Reconcile(pending.Ticket, errNetwork)
	snapshot := engine.Snapshot()
	second := engine.Reconcile(pending.Ticket, errNetwork)

	assert.Equal(t, OutcomeRolledBack, first.Kind)
	assert.Equal(t, OutcomeStale, second.Kind)
	assert.Equal(t, snapshot.IDs(), engine.Snapshot().IDs())
	assert.Equal(t, Unstarred, engine.State("p1"))
}

func TestDoubleToggleLastIntentWins(t *testing.T) {
	tests := []struct {
		name       string
		firstErr   error
		secondErr  error
		firstLast  bool
		wantState  State
		wantSecond OutcomeKind
	}{
		{name: "both succeed, second resolves first", firstLast: true, wantState: Unstarred, wantSecond: OutcomeConfirmed},
		{name: "both succeed in submission order", wantState: Unstarred, wantSecond: OutcomeConfirmed},
		{name: "stale first failure ignored", firstErr: errNetwork, firstLast: true, wantState: Unstarred, wantSecond: OutcomeConfirmed},
		{name: "second failure reverts to first intent", secondErr: errNetwork, wantState: Starred, wantSecond: OutcomeRolledBack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, &fakeSubmitter{})
			original := engine.Starred("p1")

			first, err := engine.Toggle("p1")
			require.NoError(t, err)
			second, err := engine.Toggle("p1")
			require.NoError(t, err)

			assert.Equal(t, catalog.InteractionStar, first.Ticket.Type)
			assert.Equal(t, catalog.InteractionUnstar, second.Ticket.Type)
			assert.Equal(t, original, engine.Starred("p1"), "optimistic state must match the original after two toggles")

			var firstOutcome, secondOutcome Outcome
			if tt.firstLast {
				secondOutcome = engine.Reconcile(second.Ticket, tt.secondErr)
				firstOutcome = engine.Reconcile(first.Ticket, tt.firstErr)
			} else {
				firstOutcome = engine.Reconcile(first.Ticket, tt.firstErr)
				secondOutcome = engine.Reconcile(second.Ticket, tt.secondErr)
			}

			assert.Equal(t, OutcomeStale, firstOutcome.Kind)
			assert.Equal(t, tt.wantSecond, secondOutcome.Kind)
			assert.Equal(t, tt.wantState, engine.State("p1"))
		})
	}
}

func TestStaleSuccessDoesNotSettlePendingToggle(t *testing.T) {
	engine := newTestEngine(t, &fakeSubmitter{})

	first, err := engine.Toggle("p1")
	require.NoError(t, err)
	_, err = engine.Toggle("p1")
	require.NoError(t, err)

	outcome := engine.Reconcile(first.Ticket, nil)
	assert.Equal(t, OutcomeStale, outcome.Kind)
	assert.Equal(t, PendingUnstar, engine.State("p1"))
}

func TestDistinctPapersResolveIndependently(t *testing.T) {
	sub := &fakeSubmitter{fail: map[string]error{"paper-a": errNetwork}}
	engine := newTestEngine(t, sub)

	a, err := engine.Toggle("paper-a")
	require.NoError(t, err)
	b, err := engine.Toggle("paper-b")
	require.NoError(t, err)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 2)
	for i, p := range []*Pending{a, b} {
		wg.Add(1)
		go func(i int, p *Pending) {
			defer wg.Done()
			outcomes[i] = p.Resolve(context.Background())
		}(i, p)
	}
	wg.Wait()

	assert.Equal(t, OutcomeRolledBack, outcomes[0].Kind)
	assert.Equal(t, OutcomeConfirmed, outcomes[1].Kind)
	assert.False(t, engine.Starred("paper-a"))
	assert.Equal(t, Starred, engine.State("paper-b"))
	assert.Equal(t, []string{"paper-b"}, engine.Snapshot().IDs())
}

type blockingSubmitter struct{}

func (blockingSubmitter) Submit(ctx context.Context, _ catalog.Interaction) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestResolveTimesOut(t *testing.T) {
	engine := New(Config{
		Session:       session.Static{UserID: "user_1", Loaded: true},
		Submitter:     blockingSubmitter{},
		SubmitTimeout: 20 * time.Millisecond,
	})

	pending, err := engine.Toggle("p1")
	require.NoError(t, err)
	outcome := pending.Resolve(context.Background())

	assert.Equal(t, OutcomeRolledBack, outcome.Kind)
	require.ErrorIs(t, outcome.Err, ErrSyncFailed)
	assert.Equal(t, Unstarred, engine.State("p1"))
}

func TestResetMakesInFlightResultsStale(t *testing.T) {
	engine := newTestEngine(t, &fakeSubmitter{})
	pending, err := engine.Toggle("p1")
	require.NoError(t, err)

	engine.Reset()
	assert.Equal(t, 0, engine.Snapshot().Len())

	outcome := engine.Reconcile(pending.Ticket, nil)
	assert.Equal(t, OutcomeStale, outcome.Kind)
	assert.False(t, engine.Starred("p1"))
}

func TestHydrateKeepsPendingState(t *testing.T) {
	engine := newTestEngine(t, &fakeSubmitter{})
	engine.Hydrate([]string{"p1", ""})
	_, err := engine.Toggle("p2")
	require.NoError(t, err)

	engine.Hydrate([]string{"p2"})
	assert.Equal(t, Starred, engine.State("p1"))
	assert.Equal(t, PendingStar, engine.State("p2"))
	assert.Equal(t, []string{"p1", "p2"}, engine.Snapshot().IDs())
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "unstarred", Unstarred.String())
	assert.Equal(t, "pending-unstar", PendingUnstar.String())
	assert.Equal(t, "stale", OutcomeStale.String())
}
