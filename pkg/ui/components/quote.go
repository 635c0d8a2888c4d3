package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// QuoteRow is one priced operation, pre-formatted for display.
type QuoteRow struct {
	Label    string
	Quantity string
	Cost     string
	AvgPrice decimal.Decimal
	Err      string
}

// QuoteComponent renders the buy, sell and budget quotes for the selection.
type QuoteComponent struct {
	selection string
	precision string
	rows      []QuoteRow
}

// NewQuoteComponent creates a new quote panel.
func NewQuoteComponent() *QuoteComponent {
	return &QuoteComponent{}
}

// Update replaces the panel contents.
func (q *QuoteComponent) Update(selection, precision string, rows []QuoteRow) {
	q.selection = selection
	q.precision = precision
	q.rows = rows
}

// View renders the quote component.
func (q *QuoteComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	costStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("QUOTES (%s)", q.precision)))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  "+q.selection) + "\n\n")

	if len(q.rows) == 0 {
		sb.WriteString(dimStyle.Render("  Pricing..."))
		return sb.String()
	}

	for _, row := range q.rows {
		sb.WriteString(fmt.Sprintf("  %-8s", row.Label))
		if row.Err != "" {
			sb.WriteString(errorStyle.Render(row.Err) + "\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("%s tokens for %s  %s\n",
			row.Quantity,
			costStyle.Render(row.Cost),
			dimStyle.Render("avg "+row.AvgPrice.StringFixed(6)),
		))
	}
	return sb.String()
}
