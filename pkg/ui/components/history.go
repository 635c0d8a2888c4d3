package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// HistoryRow represents a priced selection in the history list.
type HistoryRow struct {
	Time      string
	Precision string
	Ticks     string
	Amount    string
	BuyCost   string
	SellCost  string
}

// HistoryComponent renders the most recent quotes, newest first.
type HistoryComponent struct {
	rows    []HistoryRow
	maxRows int
}

// NewHistoryComponent creates a new history component.
func NewHistoryComponent(maxRows int) *HistoryComponent {
	return &HistoryComponent{
		rows:    make([]HistoryRow, 0),
		maxRows: maxRows,
	}
}

// Add adds a new row to the top of the list.
func (h *HistoryComponent) Add(row HistoryRow) {
	h.rows = append([]HistoryRow{row}, h.rows...)
	if len(h.rows) > h.maxRows {
		h.rows = h.rows[:h.maxRows]
	}
}

// Len returns the number of rows held.
func (h *HistoryComponent) Len() int {
	return len(h.rows)
}

// View renders the history component.
func (h *HistoryComponent) View() string {
	if len(h.rows) == 0 {
		return "No quotes yet..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	result := headerStyle.Render(fmt.Sprintf("HISTORY (last %d)", h.maxRows)) + "\n"
	result += "┌──────────┬─────────┬──────────────────┬──────────────┬──────────────┬──────────────┐\n"
	result += "│   Time   │  Prec   │      Ticks       │    Amount    │   Buy cost   │  Sell cost   │\n"
	result += "├──────────┼─────────┼──────────────────┼──────────────┼──────────────┼──────────────┤\n"

	for _, row := range h.rows {
		result += fmt.Sprintf("│ %8s │ %-7s │ %-16s │ %12s │ %12s │ %12s │\n",
			row.Time,
			row.Precision,
			truncate(row.Ticks, 16),
			truncate(row.Amount, 12),
			truncate(row.BuyCost, 12),
			dimStyle.Render(fmt.Sprintf("%12s", truncate(row.SellCost, 12))),
		)
	}

	result += "└──────────┴─────────┴──────────────────┴──────────────┴──────────────┴──────────────┘"
	return result
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
