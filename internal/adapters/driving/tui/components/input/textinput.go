// Package input holds the question field shown under the transcript.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/styles"
)

const (
	label       = "Your question: "
	chrome      = 22 // label, border and padding
	minWidth    = 20
	maxQuestion = 1024
)

// QuestionInput is a single-line field that keeps focus for the whole
// session. The embedded model supplies Value, SetValue, Focus, Blur, Focused
// and Reset.
type QuestionInput struct {
	textinput.Model
	styles *styles.Styles
	width  int
}

func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	m := textinput.New()
	m.Placeholder = "Ask a tax question..."
	m.CharLimit = maxQuestion
	m.Focus()

	q := &QuestionInput{Model: m, styles: s}
	q.SetWidth(82)
	return q
}

func (q *QuestionInput) Init() tea.Cmd { return textinput.Blink }

func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.Model, cmd = q.Model.Update(msg)
	return q, cmd
}

func (q *QuestionInput) View() string {
	//nolint:misspell // lipgloss spells it Center
	return lipgloss.JoinHorizontal(lipgloss.Center,
		q.styles.Question.Render(label),
		q.styles.InputField.Render(q.Model.View()),
	)
}

// Question is the typed text without surrounding whitespace.
func (q *QuestionInput) Question() string {
	return strings.TrimSpace(q.Value())
}

// SetWidth sizes the field to the terminal, never narrower than minWidth.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	q.Model.Width = max(width-chrome, minWidth)
}

func (q *QuestionInput) Width() int { return q.width }
