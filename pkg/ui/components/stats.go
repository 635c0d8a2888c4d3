package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds explorer statistics for display.
type Stats struct {
	Refreshes    int64
	Quotes       int64
	Rejected     int64
	AvgLatencyMs float64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	rejected := valueStyle.Render(fmt.Sprintf("%d", s.stats.Rejected))
	if s.stats.Rejected > 0 {
		rejected = errorStyle.Render(fmt.Sprintf("%d", s.stats.Rejected))
	}

	return fmt.Sprintf("Refreshes: %s  │  Quotes: %s  │  Rejected: %s  │  Avg latency: %s",
		valueStyle.Render(fmt.Sprintf("%d", s.stats.Refreshes)),
		valueStyle.Render(fmt.Sprintf("%d", s.stats.Quotes)),
		rejected,
		valueStyle.Render(fmt.Sprintf("%.1fms", s.stats.AvgLatencyMs)),
	)
}
