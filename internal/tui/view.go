package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
)

func (m Model) viewSplash() string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		m.spinner.View(),
		titleStyle.Render(constants.AppName),
		mutedStyle.Render("starting up"),
	)
}

func (m Model) viewOffline() string {
	lines := []string{
		offlineStyle.Render("You are offline"),
		"",
		"Check your internet connection.",
		mutedStyle.Render("This screen closes by itself once the connection is back."),
	}
	if !m.lastCheck.IsZero() {
		lines = append(lines, mutedStyle.Render("Last check "+m.lastCheck.Format(time.TimeOnly)))
	}
	return offlineBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewPrimary() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(constants.AppName))
	b.WriteString(" ")
	b.WriteString(onlineStyle.Render("online"))
	if !m.lastCheck.IsZero() {
		b.WriteString(mutedStyle.Render("  checked " + m.lastCheck.Format(time.TimeOnly)))
	}
	b.WriteString("\n\n")

	var rows []string
	rows = append(rows, "Pending notifications")
	for _, c := range models.Categories {
		rows = append(rows, fmt.Sprintf("  %-10s %4d", c, m.pending[c]))
	}
	if other := m.pending[""]; other > 0 {
		rows = append(rows, fmt.Sprintf("  %-10s %4d", "other", other))
	}
	if m.pendingErr != nil {
		rows = append(rows, warningStyle.Render("Pending list unavailable"))
	}
	b.WriteString(panelStyle.Render(strings.Join(rows, "\n")))

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(m.status))
	}
	return b.String()
}
