// Package starsync keeps the local starred set in step with the catalog
// service. Toggles apply immediately and are reconciled once the service
// answers; a failed submission rolls the paper back unless a newer toggle
// has superseded it.
package starsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/resurch/internal/catalog"
	"github.com/csheth/resurch/internal/logger"
	"github.com/csheth/resurch/internal/session"
)

const defaultSubmitTimeout = 10 * time.Second

var (
	// ErrNotAuthenticated is returned by Toggle when no user is signed in.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSyncFailed wraps a submission failure that rolled a paper back.
	ErrSyncFailed = errors.New("sync failed")
	// ErrEmptyPaperID is returned by Toggle for a blank id.
	ErrEmptyPaperID = errors.New("paper id is required")
)

// Submitter delivers an interaction to the remote service.
type Submitter interface {
	Submit(ctx context.Context, interaction catalog.Interaction) error
}

// Ticket captures the intent of one toggle. Reconcile compares its
// generation against the paper's current one to detect stale results.
type Ticket struct {
	PaperID    string
	UserID     string
	Type       catalog.InteractionType
	Generation uint64
}

// Interaction returns the event body for the ticket.
func (t Ticket) Interaction() catalog.Interaction {
	return catalog.Interaction{UserID: t.UserID, PaperID: t.PaperID, Type: t.Type}
}

// OutcomeKind classifies a reconciliation.
type OutcomeKind int

const (
	OutcomeConfirmed OutcomeKind = iota
	OutcomeRolledBack
	OutcomeStale
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeRolledBack:
		return "rolled-back"
	default:
		return "stale"
	}
}

// Outcome reports what reconciliation did with a ticket.
type Outcome struct {
	Ticket Ticket
	Kind   OutcomeKind
	// State is the paper's state after reconciliation.
	State State
	// Err wraps ErrSyncFailed when Kind is OutcomeRolledBack.
	Err error
}

// Config wires an Engine.
type Config struct {
	Session       session.Provider
	Submitter     Submitter
	SubmitTimeout time.Duration
	Logger        *zap.SugaredLogger
}

type entry struct {
	state      State
	generation uint64
}

// Engine owns the starred set. It is safe for concurrent use.
type Engine struct {
	sessions session.Provider
	submit   Submitter
	timeout  time.Duration
	log      *zap.SugaredLogger

	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64
}

// New returns an Engine with an empty starred set.
func New(cfg Config) *Engine {
	timeout := cfg.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	sessions := cfg.Session
	if sessions == nil {
		sessions = session.Static{}
	}
	return &Engine{
		sessions: sessions,
		submit:   cfg.Submitter,
		timeout:  timeout,
		log:      logger.OrNop(cfg.Logger),
		entries:  map[string]*entry{},
	}
}

// Toggle flips the paper's optimistic membership and returns the pending
// submission. The direction comes from the local state, so toggling twice
// before the first response restores the original membership.
func (e *Engine) Toggle(paperID string) (*Pending, error) {
	current := e.sessions.Session()
	if !current.SignedIn() {
		return nil, ErrNotAuthenticated
	}
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return nil, ErrEmptyPaperID
	}

	e.mu.Lock()
	ent, ok := e.entries[paperID]
	if !ok {
		ent = &entry{state: Unstarred}
		e.entries[paperID] = ent
	}
	kind := catalog.InteractionStar
	if ent.state.Member() {
		kind = catalog.InteractionUnstar
	}
	from := ent.state
	e.seq++
	ent.generation = e.seq
	ent.state = pendingFor(kind)
	ticket := Ticket{
		PaperID:    paperID,
		UserID:     current.UserID,
		Type:       kind,
		Generation: ent.generation,
	}
	e.mu.Unlock()

	e.log.Debugw("toggle applied", "paper_id", paperID, "type", kind, "from", from, "to", ticket.pendingState(), "generation", ticket.Generation)
	return &Pending{engine: e, Ticket: ticket}, nil
}

func (t Ticket) pendingState() State { return pendingFor(t.Type) }

// Reconcile applies the result of a submission. A result for a superseded
// or already reconciled ticket is discarded. On failure the paper reverts
// to its membership before the toggle.
func (e *Engine) Reconcile(ticket Ticket, submitErr error) Outcome {
	e.mu.Lock()
	ent, ok := e.entries[ticket.PaperID]
	if !ok || ent.generation != ticket.Generation || !ent.state.Pending() {
		state := Unstarred
		if ok {
			state = ent.state
		}
		e.mu.Unlock()
		e.log.Debugw("stale result discarded", "paper_id", ticket.PaperID, "type", ticket.Type, "generation", ticket.Generation, "state", state)
		return Outcome{Ticket: ticket, Kind: OutcomeStale, State: state}
	}

	if submitErr == nil {
		ent.state = settledFor(ticket.Type)
		state := ent.state
		e.mu.Unlock()
		e.log.Infow("interaction confirmed", "paper_id", ticket.PaperID, "type", ticket.Type, "generation", ticket.Generation)
		return Outcome{Ticket: ticket, Kind: OutcomeConfirmed, State: state}
	}

	ent.state = revertedFor(ticket.Type)
	state := ent.state
	e.mu.Unlock()
	err := fmt.Errorf("%w: %s %s: %v", ErrSyncFailed, ticket.Type, ticket.PaperID, submitErr)
	e.log.Warnw("interaction rolled back", "paper_id", ticket.PaperID, "type", ticket.Type, "generation", ticket.Generation, "error", submitErr)
	return Outcome{Ticket: ticket, Kind: OutcomeRolledBack, State: state, Err: err}
}

// Starred reports optimistic membership of paperID.
func (e *Engine) Starred(paperID string) bool {
	return e.State(paperID).Member()
}

// State returns the paper's current state.
func (e *Engine) State(paperID string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ent, ok := e.entries[paperID]; ok {
		return ent.state
	}
	return Unstarred
}

// Snapshot copies the current optimistic starred set.
func (e *Engine) Snapshot() StarredSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make(map[string]struct{}, len(e.entries))
	for id, ent := range e.entries {
		if ent.state.Member() {
			ids[id] = struct{}{}
		}
	}
	return StarredSet{ids: ids}
}

// PendingCount returns how many papers await a response.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ent := range e.entries {
		if ent.state.Pending() {
			n++
		}
	}
	return n
}

// Hydrate marks ids as confirmed stars. Papers with a pending submission
// keep their optimistic state.
func (e *Engine) Hydrate(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if ent, ok := e.entries[id]; ok && ent.state.Pending() {
			continue
		}
		e.entries[id] = &entry{state: Starred}
	}
}

// Reset discards the starred set, eg. on sign-out. Results of submissions
// still in flight become stale.
func (e *Engine) Reset() {
	e.mu.Lock()
	n := len(e.entries)
	e.entries = map[string]*entry{}
	e.mu.Unlock()
	e.log.Infow("starred set reset", "discarded", n)
}

// Pending is an in-flight toggle.
type Pending struct {
	engine *Engine
	Ticket Ticket
}

// Resolve submits the interaction under the engine's timeout and
// reconciles the result. It blocks until the submission finishes.
func (p *Pending) Resolve(ctx context.Context) Outcome {
	if p.engine.submit == nil {
		return p.engine.Reconcile(p.Ticket, errors.New("no submitter configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, p.engine.timeout)
	defer cancel()
	err := p.engine.submit.Submit(ctx, p.Ticket.Interaction())
	return p.engine.Reconcile(p.Ticket, err)
}
