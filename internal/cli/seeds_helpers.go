package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	seedsTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	seedsMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	seedsErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	seedsOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	seedsWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	seedsSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

func listWindow(total, cursor, maxRows int) (int, int) {
	if total <= maxRows {
		return 0, total
	}
	half := maxRows / 2
	start := cursor - half
	if start < 0 {
		start = 0
	}
	end := start + maxRows
	if end > total {
		end = total
		start = end - maxRows
	}
	return start, end
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// cleanUsername applies the same normalization the seed loader applies to
// file lines, so the TUI and a fresh Load agree on what gets stored.
func cleanUsername(raw string) string {
	u := strings.TrimSpace(raw)
	return strings.TrimPrefix(u, "@")
}

func containsFold(users []string, candidate string) bool {
	for _, u := range users {
		if strings.EqualFold(u, candidate) {
			return true
		}
	}
	return false
}
