package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/cxrreport/internal/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(12)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// renderSummary formats a run outcome as a bordered panel.
func renderSummary(title string, s pipeline.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	row := func(label string, v int) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%d", v)))
		b.WriteString("\n")
	}
	row("Attempted", s.Attempted)
	row("Succeeded", s.Succeeded)
	row("Failed", s.Failed)

	if len(s.Failures) > 0 {
		b.WriteString("\n")
		for _, f := range s.Failures {
			b.WriteString(failureStyle.Render(fmt.Sprintf("✗ %s [%s] %s", f.FilePath, f.Kind, f.Message)))
			b.WriteString("\n")
		}
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}
