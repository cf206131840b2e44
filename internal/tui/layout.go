package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/resurch/internal/catalog"
	"github.com/csheth/resurch/internal/starsync"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
	}
}

// Update sizes the result viewport, leaving room for the hero, tabs, query
// input, status lines and meter.
func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	const chrome = 14
	contentHeight := height - chrome
	if contentHeight < 6 {
		contentHeight = 6
	}
	l.viewportHeight = contentHeight
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

type listView struct {
	content    string
	cardStarts []int
	lines      int
}

func (m *model) buildListContent() listView {
	list := m.activeList()
	cb := &contentBuilder{}
	if len(list.papers) == 0 {
		if msg := m.emptyListMessage(); msg != "" {
			cb.WriteString(helperStyle.Render(wordwrap.String(msg, m.wrapWidth(0))))
			cb.WriteRune('\n')
		}
		return listView{content: cb.String(), lines: cb.Line()}
	}

	engine := m.config.Engine
	starts := make([]int, 0, len(list.papers))
	width := m.wrapWidth(0)
	for idx, paper := range list.papers {
		starts = append(starts, cb.Line())
		card := renderPaperCard(paper, engine.State(paper.ID), idx == list.cursor, width)
		cb.WriteString(card)
		cb.WriteRune('\n')
		if idx < len(list.papers)-1 {
			cb.WriteRune('\n')
		}
	}
	return listView{content: cb.String(), cardStarts: starts, lines: cb.Line()}
}

func (m *model) emptyListMessage() string {
	list := m.activeList()
	if list.loading || list.err != "" {
		return ""
	}
	switch m.page {
	case pageFeed:
		if !m.config.Session.Session().SignedIn() {
			return signInMessage
		}
		if list.requested {
			return emptyFeedMessage
		}
		return ""
	default:
		if list.requested {
			return emptySearchMessage
		}
		return "Type a query and press Enter to search."
	}
}

func (m *model) refreshViewport() {
	view := m.buildListContent()
	m.viewport.SetContent(view.content)
	m.cardStarts = view.cardStarts
	m.lineCount = view.lines
	m.ensureCursorVisible()
}

func (m *model) ensureCursorVisible() {
	list := m.activeList()
	if len(m.cardStarts) == 0 || list.cursor >= len(m.cardStarts) {
		return
	}
	start := m.cardStarts[list.cursor]
	end := m.lineCount
	if list.cursor+1 < len(m.cardStarts) {
		end = m.cardStarts[list.cursor+1] - 1
	}
	if start < m.viewport.YOffset {
		m.viewport.SetYOffset(start)
		return
	}
	lowerBound := m.viewport.YOffset + m.viewport.Height
	if end > lowerBound {
		target := end - m.viewport.Height
		if target > start {
			target = start
		}
		if target < 0 {
			target = 0
		}
		m.viewport.SetYOffset(target)
	}
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

// renderPaperCard draws one result: title, link, clamped abstract, match
// badge and star control.
func renderPaperCard(paper catalog.Paper, state starsync.State, selected bool, width int) string {
	marker := "  "
	titleRender := cardTitleStyle
	if selected {
		marker = cursorStyle.Render("▸ ")
		titleRender = selectedTitleStyle
	}
	inner := width - 2
	if inner < 10 {
		inner = 10
	}

	lines := []string{marker + indentMultiline(titleRender.Render(wordwrap.String(paper.Title, inner)), "  ", true)}
	if paper.URL != "" {
		lines = append(lines, "  "+linkStyle.Render(paper.URL))
	}
	if abstract := clampLines(wordwrap.String(normalizeWhitespace(paper.Abstract), inner), abstractLineLimit); abstract != "" {
		lines = append(lines, indentMultiline(abstractStyle.Render(abstract), "  ", false))
	}
	footer := []string{}
	if badge := matchBadge(paper); badge != "" {
		footer = append(footer, badge)
	}
	footer = append(footer, starControl(state))
	lines = append(lines, "  "+strings.Join(footer, "  "))
	return strings.Join(lines, "\n")
}

// matchLabel formats similarity as a rounded percentage, eg. "92% Match".
func matchLabel(paper catalog.Paper) string {
	if !paper.HasSimilarity() {
		return ""
	}
	return fmt.Sprintf("%d%% Match", paper.MatchPercent())
}

func matchBadge(paper catalog.Paper) string {
	label := matchLabel(paper)
	if label == "" {
		return ""
	}
	return badgeStyle.Render(label)
}

func starControl(state starsync.State) string {
	switch state {
	case starsync.Starred:
		return starredStyle.Render("★ Starred")
	case starsync.PendingStar:
		return starredStyle.Render("★ Starring…")
	case starsync.PendingUnstar:
		return starStyle.Render("☆ Unstarring…")
	default:
		return starStyle.Render("☆ Star")
	}
}

var extraneousWhitespace = regexp.MustCompile(`\s+`)

func normalizeWhitespace(s string) string {
	return extraneousWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func clampLines(text string, limit int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= limit {
		return text
	}
	lines = lines[:limit]
	lines[limit-1] = strings.TrimRight(lines[limit-1], " ") + "…"
	return strings.Join(lines, "\n")
}

func indentMultiline(text, prefix string, skipFirst bool) string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		if i == 0 && skipFirst {
			continue
		}
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	heroAccentColor        = lipgloss.Color("#ff8c00")
	heroEmberColor         = lipgloss.Color("#2b1400")
	heroTextColor          = lipgloss.Color("#fff4d0")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")

	heroTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroEmberColor).Padding(0, 2)
	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	activeTabStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(heroAccentColor).Padding(0, 1)
	inactiveTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	cardTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	selectedTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor).Underline(true)
	cursorStyle        = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	linkStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Underline(true)
	abstractStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	badgeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#bde0fe")).Padding(0, 1)
	starStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	starredStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd166"))
)
