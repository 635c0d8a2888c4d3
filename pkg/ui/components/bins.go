// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// BinRow represents a row in the bin table.
type BinRow struct {
	Tick     int64
	Quantity uint64
	Price    decimal.Decimal
	InRange  bool
}

// BinsComponent renders the market's bins with a cursor and range markers.
type BinsComponent struct {
	rows     []BinRow
	marketID string
	total    uint64
	cursor   int
	height   int
}

// NewBinsComponent creates a bins table showing at most height rows.
func NewBinsComponent(height int) *BinsComponent {
	return &BinsComponent{height: height}
}

// Update replaces the table contents.
func (b *BinsComponent) Update(marketID string, total uint64, rows []BinRow) {
	b.marketID = marketID
	b.total = total
	b.rows = rows
}

// SetCursor moves the highlighted row.
func (b *BinsComponent) SetCursor(i int) {
	b.cursor = i
}

// window returns the slice of rows that keeps the cursor visible.
func (b *BinsComponent) window() (int, int) {
	if b.height <= 0 || len(b.rows) <= b.height {
		return 0, len(b.rows)
	}
	start := b.cursor - b.height/2
	if start < 0 {
		start = 0
	}
	if start+b.height > len(b.rows) {
		start = len(b.rows) - b.height
	}
	return start, start + b.height
}

// View renders the bins component.
func (b *BinsComponent) View() string {
	if len(b.rows) == 0 {
		return "Waiting for market data..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#374151"))
	rangeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("MARKET %s  (total %d)", b.marketID, b.total)))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("    %10s  %20s  %10s\n", "Tick", "Quantity", "Price"))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 46)) + "\n")

	start, end := b.window()
	for i := start; i < end; i++ {
		row := b.rows[i]
		marker := " "
		if row.InRange {
			marker = "●"
		}
		line := fmt.Sprintf("%s %10d  %20d  %10s", marker, row.Tick, row.Quantity, row.Price.StringFixed(4))

		switch {
		case i == b.cursor:
			line = cursorStyle.Render("▸ " + line)
		case row.InRange:
			line = rangeStyle.Render("  " + line)
		case row.Quantity == 0:
			line = dimStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}

	if start > 0 || end < len(b.rows) {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  bins %d-%d of %d", start+1, end, len(b.rows))) + "\n")
	}
	return sb.String()
}
