package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus represents the snapshot source's status.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	Latency    time.Duration
	LastUpdate time.Time
	Detail     string
}

// StatusComponent renders snapshot source status.
type StatusComponent struct {
	connections []ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{
		connections: make([]ConnectionStatus, 0),
	}
}

// Update updates a connection's status.
func (s *StatusComponent) Update(status ConnectionStatus) {
	for i, conn := range s.connections {
		if conn.Name == status.Name {
			s.connections[i] = status
			return
		}
	}
	s.connections = append(s.connections, status)
}

// View renders the status component.
func (s *StatusComponent) View() string {
	if len(s.connections) == 0 {
		return "No snapshot yet"
	}

	var result string
	for _, conn := range s.connections {
		status := "● Live"
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
		if !conn.Connected {
			status = "○ Unavailable"
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
		}

		line := fmt.Sprintf("%s: %s", conn.Name, style.Render(status))
		if conn.Connected && conn.Latency > 0 {
			line += fmt.Sprintf(" (%s)", conn.Latency.Round(time.Millisecond))
		}
		if !conn.Connected && conn.Detail != "" {
			line += " " + conn.Detail
		}
		result += line
	}

	return result
}
