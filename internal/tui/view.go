package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *model) View() string {
	if !m.sessionReady() {
		return joinNonEmpty([]string{
			m.heroView(),
			fmt.Sprintf("%s %s", m.spinner.View(), waitingSessionLabel),
		})
	}
	m.refreshViewport()

	parts := []string{m.heroView(), m.tabsView(), helperStyle.Render(m.pageIntro())}
	if m.page == pageCalibration {
		parts = append(parts, m.queryView())
	}
	parts = append(parts, m.viewport.View())
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.busy() {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	parts = append(parts, m.sessionMeterView())
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		heroTitleStyle.Render("Resurch"),
		"  ",
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) tabsView() string {
	tabs := make([]string, 0, 2)
	for _, p := range []page{pageCalibration, pageFeed} {
		if p == m.page {
			tabs = append(tabs, activeTabStyle.Render(p.title()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(p.title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *model) pageIntro() string {
	if m.page == pageFeed {
		return feedIntroText
	}
	return calibrationIntroText
}

func (m *model) queryView() string {
	label := "Search"
	if m.focus == focusQuery {
		label = "Search (Enter to submit, ↓ to browse results)"
	}
	return joinLines(sectionHeaderStyle.Render(label), m.queryInput.View())
}

func (m *model) sessionMeterView() string {
	current := m.config.Session.Session()
	user := current.UserID
	if user == "" {
		user = "signed out"
	}
	stats := []string{
		fmt.Sprintf("User %s", user),
		fmt.Sprintf("Starred %d", m.config.Engine.Snapshot().Len()),
	}
	if pending := m.config.Engine.PendingCount(); pending > 0 {
		stats = append(stats, fmt.Sprintf("Syncing %d", pending))
	}
	if badges := m.jobStatusBadges(); len(badges) > 0 {
		stats = append(stats, badges...)
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) jobStatusBadges() []string {
	counts := map[jobKind]int{}
	for _, snap := range m.running {
		counts[snap.Kind]++
	}
	badges := []string{}
	for _, kind := range []jobKind{jobKindSearch, jobKindFeed, jobKindStar} {
		if counts[kind] > 0 {
			badges = append(badges, fmt.Sprintf("%s ×%d", kind, counts[kind]))
		}
	}
	if len(badges) == 0 && m.lastJob.Status == jobStatusFailed {
		badges = append(badges, fmt.Sprintf("last %s failed", m.lastJob.Kind))
	}
	return badges
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"Enter", "Search"},
		{"↑/↓", "Move"},
		{"s", "Star / unstar"},
		{"/", "Edit query"},
		{"Tab", "Switch page"},
		{"r", "Refresh feed"},
		{"g/G", "Top or bottom"},
		{"?", "Toggle cheatsheet"},
		{"q", "Quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Navigation Cheatsheet")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func joinLines(parts ...string) string {
	return strings.Join(parts, "\n")
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
