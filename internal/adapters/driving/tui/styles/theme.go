// Package styles holds the colours and lipgloss styles of the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

// Palette picks each colour by terminal background.
type Palette struct {
	Accent  lipgloss.AdaptiveColor
	Cite    lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	Dim     lipgloss.AdaptiveColor
	Good    lipgloss.AdaptiveColor
	Caution lipgloss.AdaptiveColor
	Bad     lipgloss.AdaptiveColor
	Frame   lipgloss.AdaptiveColor
	Bar     lipgloss.AdaptiveColor
}

// LedgerPalette is the default: ledger green with amber refusals.
func LedgerPalette() Palette {
	return Palette{
		Accent:  lipgloss.AdaptiveColor{Light: "#1B5E20", Dark: "#66BB6A"},
		Cite:    lipgloss.AdaptiveColor{Light: "#01579B", Dark: "#4FC3F7"},
		Text:    lipgloss.AdaptiveColor{Light: "#212121", Dark: "#E0E0E0"},
		Dim:     lipgloss.AdaptiveColor{Light: "#757575", Dark: "#8A8A8A"},
		Good:    lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"},
		Caution: lipgloss.AdaptiveColor{Light: "#E65100", Dark: "#FFB74D"},
		Bad:     lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"},
		Frame:   lipgloss.AdaptiveColor{Light: "#BDBDBD", Dark: "#424242"},
		Bar:     lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#1B1B1B"},
	}
}

// Styles are built once per palette and shared by every component.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Help     lipgloss.Style

	Question lipgloss.Style
	Answer   lipgloss.Style
	Refusal  lipgloss.Style
	Failure  lipgloss.Style
	Source   lipgloss.Style

	Success    lipgloss.Style
	Error      lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
}

func New(p Palette) *Styles {
	text := lipgloss.NewStyle().Foreground(p.Text)
	dim := lipgloss.NewStyle().Foreground(p.Dim)
	body := lipgloss.NewStyle().PaddingLeft(2)

	return &Styles{
		palette: p,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(p.Cite),
		Normal:   text,
		Muted:    dim,
		Help:     dim.Italic(true),

		Question: lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Answer:   body.Foreground(p.Text),
		Refusal:  body.Foreground(p.Caution),
		Failure:  body.Foreground(p.Bad),
		Source:   lipgloss.NewStyle().PaddingLeft(4).Foreground(p.Cite),

		Success: lipgloss.NewStyle().Foreground(p.Good),
		Error:   lipgloss.NewStyle().Foreground(p.Bad),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.Dim).
			Background(p.Bar).
			Padding(0, 1),
	}
}

// DefaultStyles uses LedgerPalette.
func DefaultStyles() *Styles {
	return New(LedgerPalette())
}

func (s *Styles) Palette() Palette {
	return s.palette
}

// ForTurn picks the reply style for a finished turn.
func (s *Styles) ForTurn(state domain.TurnState) lipgloss.Style {
	switch state {
	case domain.TurnRejected:
		return s.Refusal
	case domain.TurnFailed:
		return s.Failure
	default:
		return s.Answer
	}
}
