package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/resurch/internal/catalog"
	"github.com/csheth/resurch/internal/logger"
	"github.com/csheth/resurch/internal/session"
	"github.com/csheth/resurch/internal/starsync"
)

// Config wires runtime collaborators into the TUI program.
type Config struct {
	Catalog        Catalog
	Engine         *starsync.Engine
	Session        session.Provider
	SearchLimit    int
	RequestTimeout time.Duration
	Logger         *zap.SugaredLogger
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Session == nil {
		config.Session = session.Static{}
	}
	if config.Engine == nil {
		config.Engine = starsync.New(starsync.Config{Session: config.Session, Logger: config.Logger})
	}
	if config.SearchLimit <= 0 {
		config.SearchLimit = 10
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 15 * time.Second
	}
	config.Logger = logger.OrNop(config.Logger)

	queryInput := textinput.New()
	queryInput.Placeholder = queryPlaceholder
	queryInput.Focus()
	queryInput.CharLimit = 200
	queryInput.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:     config,
		page:       pageCalibration,
		focus:      focusQuery,
		queryInput: queryInput,
		spinner:    spin,
		viewport:   vp,
		layout:     newPageLayout(),
		jobs:       newJobBus(config.Logger),
		running:    map[string]jobSnapshot{},
	}
}

type model struct {
	config Config
	page   page
	focus  focusArea

	queryInput textinput.Model
	spinner    spinner.Model
	viewport   viewport.Model
	layout     pageLayout

	search    paperList
	feed      paperList
	lastQuery string

	jobs    *jobBus
	running map[string]jobSnapshot
	lastJob jobSnapshot

	cardStarts   []int
	lineCount    int
	infoMessage  string
	errorMessage string
	helpVisible  bool
}

func (m *model) Init() tea.Cmd {
	if !m.sessionReady() {
		return tea.Batch(pollSessionCmd(), m.spinner.Tick)
	}
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionPollMsg:
		if !m.sessionReady() {
			return m, pollSessionCmd()
		}
		m.infoMessage = "Session ready. Type a query and press Enter."
		return m, textinput.Blink
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.queryInput.Width = m.layout.viewportWidth - 4
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case jobSignalMsg:
		m.running[msg.Snapshot.ID] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		delete(m.running, msg.Snapshot.ID)
		m.lastJob = msg.Snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case searchResultMsg:
		m.handleSearchResult(msg)
		return m, nil
	case feedResultMsg:
		m.handleFeedResult(msg)
		return m, nil
	case starResultMsg:
		m.handleStarResult(msg)
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if !m.sessionReady() {
		return m, nil
	}
	if key.Type == tea.KeyTab || key.Type == tea.KeyShiftTab {
		return m, m.switchPage()
	}
	if m.page == pageCalibration && m.focus == focusQuery {
		return m.handleQueryKey(key)
	}
	return m.handleListKey(key)
}

func (m *model) handleQueryKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEnter:
		return m, m.submitSearch()
	case tea.KeyEsc, tea.KeyDown:
		m.focusResults()
		return m, nil
	}
	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(key)
	return m, cmd
}

func (m *model) handleListKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.activeList()
	switch key.String() {
	case "up", "k":
		if list.cursor == 0 && m.page == pageCalibration && key.String() == "up" {
			return m, m.focusQueryInput()
		}
		list.move(-1)
	case "down", "j":
		list.move(1)
	case "g":
		list.move(-len(list.papers))
	case "G":
		list.move(len(list.papers))
	case "s", " ":
		return m, m.toggleSelected()
	case "/", "i":
		if m.page == pageCalibration {
			return m, m.focusQueryInput()
		}
	case "r":
		if m.page == pageFeed {
			return m, m.loadFeed()
		}
	case "?":
		m.helpVisible = !m.helpVisible
	case "q", "esc":
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return m, cmd
	}
	return m, nil
}

// submitSearch dispatches the query in the input. Blank queries do nothing.
func (m *model) submitSearch() tea.Cmd {
	query := strings.TrimSpace(m.queryInput.Value())
	if query == "" {
		return nil
	}
	m.search.seq++
	m.search.loading = true
	m.search.requested = true
	m.search.err = ""
	m.lastQuery = query
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Searching for %q…", query)
	runner := searchJob(m.config.Catalog, m.search.seq, query, m.config.SearchLimit, m.config.RequestTimeout)
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindSearch, runner))
}

func (m *model) loadFeed() tea.Cmd {
	current := m.config.Session.Session()
	m.feed.requested = true
	if !current.SignedIn() {
		m.feed.papers = nil
		m.errorMessage = "Sign in to see your feed."
		return nil
	}
	if m.feed.loading {
		return nil
	}
	m.feed.seq++
	m.feed.loading = true
	m.feed.err = ""
	m.errorMessage = ""
	m.infoMessage = "Refreshing feed…"
	runner := feedJob(m.config.Catalog, m.feed.seq, current.UserID, m.config.RequestTimeout)
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindFeed, runner))
}

func (m *model) toggleSelected() tea.Cmd {
	paper, ok := m.activeList().selected()
	if !ok {
		m.infoMessage = "Select a paper to star."
		return nil
	}
	pending, err := m.config.Engine.Toggle(paper.ID)
	if err != nil {
		if errors.Is(err, starsync.ErrNotAuthenticated) {
			m.errorMessage = signInMessage
		} else {
			m.errorMessage = err.Error()
		}
		return nil
	}
	verb := "Starring"
	if pending.Ticket.Type == catalog.InteractionUnstar {
		verb = "Unstarring"
	}
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("%s %s…", verb, trimmedTitle(paper.Title))
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindStar, starJob(pending, paper.Title)))
}

func (m *model) switchPage() tea.Cmd {
	if m.page == pageCalibration {
		m.page = pageFeed
		m.queryInput.Blur()
		m.focus = focusList
		if !m.feed.requested {
			return m.loadFeed()
		}
		return nil
	}
	m.page = pageCalibration
	if len(m.search.papers) == 0 {
		return m.focusQueryInput()
	}
	return nil
}

func (m *model) focusQueryInput() tea.Cmd {
	m.focus = focusQuery
	return m.queryInput.Focus()
}

func (m *model) focusResults() {
	m.focus = focusList
	m.queryInput.Blur()
}

func (m *model) handleSearchResult(msg searchResultMsg) {
	if msg.seq != m.search.seq {
		return
	}
	m.search.loading = false
	m.search.papers = msg.papers
	m.search.cursor = 0
	m.viewport.SetYOffset(0)
	if msg.err != nil {
		m.search.err = msg.err.Error()
		m.errorMessage = fmt.Sprintf("Search failed: %v", msg.err)
		m.infoMessage = "Press Enter to try again."
		return
	}
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("%d result(s) for %q. Press s to star.", len(msg.papers), msg.query)
	if len(msg.papers) > 0 {
		m.focusResults()
	}
}

func (m *model) handleFeedResult(msg feedResultMsg) {
	if msg.seq != m.feed.seq {
		return
	}
	m.feed.loading = false
	m.feed.papers = msg.papers
	m.feed.cursor = 0
	if m.page == pageFeed {
		m.viewport.SetYOffset(0)
	}
	if msg.err != nil {
		m.feed.err = msg.err.Error()
		m.errorMessage = fmt.Sprintf("Feed unavailable: %v", msg.err)
		m.infoMessage = "Press r to retry."
		return
	}
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("%d recommendation(s).", len(msg.papers))
}

func (m *model) handleStarResult(msg starResultMsg) {
	title := trimmedTitle(msg.paperTitle)
	switch msg.outcome.Kind {
	case starsync.OutcomeConfirmed:
		if msg.outcome.Ticket.Type == catalog.InteractionStar {
			m.infoMessage = fmt.Sprintf("Starred %s.", title)
		} else {
			m.infoMessage = fmt.Sprintf("Removed star from %s.", title)
		}
	case starsync.OutcomeRolledBack:
		m.errorMessage = fmt.Sprintf("Could not sync %s; change reverted.", title)
		m.infoMessage = "Press s to try again."
	}
}

func (m *model) activeList() *paperList {
	if m.page == pageFeed {
		return &m.feed
	}
	return &m.search
}

func (m *model) sessionReady() bool {
	return m.config.Session.Session().Ready()
}

func (m *model) busy() bool {
	return !m.sessionReady() || m.search.loading || m.feed.loading || m.config.Engine.PendingCount() > 0
}

func trimmedTitle(value string) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= 60 {
		return value
	}
	return fmt.Sprintf("%s…", strings.TrimSpace(string(runes[:57])))
}
