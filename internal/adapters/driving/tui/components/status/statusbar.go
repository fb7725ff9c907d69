// Package status renders the one-line bar under the chat.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/styles"
)

// State is the outcome shown on the left of the bar.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateAnswered State = "answered"
	StateRefused  State = "refused"
	StateError    State = "error"
)

// Bar shows the last turn's outcome on the left and key hints on the right.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	width  int

	state    State
	detail   string
	passages int
}

func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, width: 80, state: StateReady}
}

// Thinking shows a spinner frame while a turn runs.
func (b *Bar) Thinking(frame string) {
	b.state, b.detail = StateThinking, frame
}

// Answered records how many passages backed the answer.
func (b *Bar) Answered(passages int) {
	b.state, b.detail, b.passages = StateAnswered, "", passages
}

func (b *Bar) Refused() {
	b.state, b.detail = StateRefused, ""
}

// Failed shows msg, which may be empty.
func (b *Bar) Failed(msg string) {
	b.state, b.detail = StateError, msg
}

func (b *Bar) Reset() {
	*b = Bar{styles: b.styles, keymap: b.keymap, width: b.width, state: StateReady}
}

func (b *Bar) State() State {
	return b.state
}

func (b *Bar) SetWidth(width int) {
	b.width = width
}

func (b *Bar) View() string {
	left := b.outcome()
	right := b.styles.Muted.Render(b.hints())

	bar := b.styles.StatusBar
	inner := b.width - bar.GetHorizontalFrameSize()
	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return bar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) outcome() string {
	s := b.styles
	switch b.state {
	case StateThinking:
		return s.Muted.Render(strings.TrimSpace(b.detail + " Thinking..."))
	case StateAnswered:
		noun := "passages"
		if b.passages == 1 {
			noun = "passage"
		}
		return s.Success.Render(fmt.Sprintf("Answered from %d %s", b.passages, noun))
	case StateRefused:
		return s.Refusal.UnsetPadding().Render("Out of scope")
	case StateError:
		if b.detail == "" {
			return s.Error.Render("Error")
		}
		return s.Error.Render("Error: " + b.detail)
	default:
		return s.Muted.Render("Ready")
	}
}

func (b *Bar) hints() string {
	bindings := b.keymap.ShortHelp()
	parts := make([]string, len(bindings))
	for i, binding := range bindings {
		h := binding.Help()
		parts[i] = h.Key + ": " + h.Desc
	}
	return strings.Join(parts, " | ")
}
