// Package components holds small reusable view pieces.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var levels = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline is a one-line scrolling chart scaled to the largest visible value.
type Sparkline struct {
	Data  []float64
	Width int
	Max   float64
	Style lipgloss.Style
	Label string
}

func NewSparkline(width int, label string, style lipgloss.Style) Sparkline {
	return Sparkline{
		Width: width,
		Label: label,
		Style: style,
		Data:  make([]float64, 0, width),
	}
}

// Add appends a sample, dropping the oldest once the chart is full.
func (s *Sparkline) Add(v float64) {
	if v < 0 {
		v = 0
	}
	s.Data = append(s.Data, v)
	if s.Width > 0 && len(s.Data) > s.Width {
		s.Data = s.Data[len(s.Data)-s.Width:]
	}

	s.Max = 0
	for _, d := range s.Data {
		if d > s.Max {
			s.Max = d
		}
	}
}

// Graph renders only the bars, padded to Width.
func (s Sparkline) Graph() string {
	var g strings.Builder
	for _, v := range s.Data {
		idx := 0
		if s.Max > 0 {
			idx = int(v / s.Max * float64(len(levels)-1))
		}
		idx = min(max(idx, 0), len(levels)-1)
		g.WriteRune(levels[idx])
	}
	if pad := s.Width - len(s.Data); pad > 0 {
		g.WriteString(strings.Repeat(" ", pad))
	}
	return g.String()
}

func (s Sparkline) View() string {
	if s.Width <= 0 {
		return ""
	}
	return s.Style.Render(s.Label) + "\n" + s.Style.Render(s.Graph())
}
