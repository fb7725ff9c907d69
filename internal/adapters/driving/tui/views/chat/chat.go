// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
)

// Lines used by the header, input box and status bar.
const chromeHeight = 6

// entry is one item in the conversation transcript.
type entry struct {
	question string
	turn     *domain.Turn
	notice   string
}

// View is the conversation: a scrollable transcript, the question input,
// an optional passage list and the status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	passages  *list.PassageList
	statusbar *status.Bar
	spinner   spinner.Model
	viewport  viewport.Model

	assistant driving.AssistantService
	ctx       context.Context

	entries     []entry
	busy        bool
	showSources bool
	width       int
	height      int
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, assistant driving.AssistantService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Title

	v := &View{
		styles:    s,
		keymap:    km,
		input:     input.NewQuestionInput(s),
		passages:  list.NewPassageList(s),
		statusbar: status.NewBar(s, km),
		spinner:   sp,
		viewport:  viewport.New(80, 24-chromeHeight),
		assistant: assistant,
		ctx:       context.Background(),
	}
	v.SetDimensions(80, 24)
	return v
}

// WithContext sets the context passed to the assistant.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.TurnCompleted:
		v.handleTurnCompleted(msg.Turn)
		return v, nil

	case spinner.TickMsg:
		if !v.busy {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.statusbar.Thinking(v.spinner.View())
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Submit):
		return v, v.submit()

	case key.Matches(msg, v.keymap.ToggleSources):
		v.showSources = !v.showSources
		v.layout()
		return v, nil

	case key.Matches(msg, v.keymap.Sources):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSources} }

	case key.Matches(msg, v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }

	case key.Matches(msg, v.keymap.Up, v.keymap.Down):
		if v.showSources && (msg.Type == tea.KeyUp || msg.Type == tea.KeyDown) {
			v.passages, _ = v.passages.Update(msg)
			return v, nil
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit starts a turn for the typed question, or quits on an exit command.
func (v *View) submit() tea.Cmd {
	question := v.input.Question()
	if IsExitCommand(question) {
		return func() tea.Msg { return messages.Quit{} }
	}
	if v.busy {
		return nil
	}

	v.input.Reset()
	if question == "" {
		v.entries = append(v.entries, entry{notice: domain.UserMessage(domain.ErrInvalidInput)})
		v.refresh()
		return nil
	}

	v.busy = true
	v.entries = append(v.entries, entry{question: question})
	v.statusbar.Thinking("")
	v.refresh()

	return tea.Batch(v.ask(question), v.spinner.Tick)
}

func (v *View) ask(question string) tea.Cmd {
	assistant := v.assistant
	ctx := v.ctx
	return func() tea.Msg {
		return messages.TurnCompleted{Turn: assistant.Ask(ctx, question)}
	}
}

func (v *View) handleTurnCompleted(turn *domain.Turn) {
	v.busy = false
	if turn == nil {
		v.statusbar.Reset()
		return
	}

	// Attach the turn to its pending question.
	if n := len(v.entries); n > 0 && v.entries[n-1].turn == nil && v.entries[n-1].notice == "" {
		v.entries[n-1].turn = turn
	} else {
		v.entries = append(v.entries, entry{question: turn.Query, turn: turn})
	}

	var passages []domain.Passage
	if turn.Retrieval != nil {
		passages = turn.Retrieval.Passages
	}
	v.passages.SetPassages(passages)

	switch turn.State {
	case domain.TurnRejected:
		v.statusbar.Refused()
	case domain.TurnFailed:
		v.statusbar.Failed(turn.Answer)
	default:
		v.statusbar.Answered(len(passages))
	}
	v.refresh()
}

// IsExitCommand reports whether the input ends the session.
func IsExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "q":
		return true
	default:
		return false
	}
}

// refresh re-renders the transcript and scrolls to the newest entry.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.entries) == 0 {
		return v.styles.Muted.Render(
			"Ask a question about your tax documents. Type exit, quit or q to leave.")
	}

	wrap := lipgloss.NewStyle().Width(v.contentWidth())
	blocks := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		if e.notice != "" {
			blocks = append(blocks, v.styles.Muted.Render(e.notice))
			continue
		}

		var b strings.Builder
		b.WriteString(v.styles.Question.Render("You: " + e.question))
		b.WriteString("\n")
		if e.turn == nil {
			b.WriteString(v.styles.Muted.Render("  ..."))
		} else {
			b.WriteString(v.styles.ForTurn(e.turn.State).Render(wrap.Render(e.turn.Answer)))
			if e.turn.State != domain.TurnRejected && e.turn.State != domain.TurnFailed && e.turn.Retrieval != nil {
				for _, p := range e.turn.Retrieval.Passages {
					b.WriteString("\n")
					b.WriteString(v.styles.Source.Render(fmt.Sprintf("%s #%d", p.Source, p.ChunkIndex)))
				}
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	title := v.styles.Title.Render("Tax Advisor")
	subtitle := v.styles.Muted.Render("  answers from your indexed tax documents")

	sections := []string{title + subtitle, v.viewport.View()}
	if v.showSources {
		sections = append(sections, v.passages.View())
	}
	sections = append(sections, v.input.View(), v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions and resizes the components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.layout()
}

func (v *View) layout() {
	v.input.SetWidth(v.width)
	v.statusbar.SetWidth(v.width)

	listHeight := 0
	if v.showSources {
		listHeight = v.height / 3
		v.passages.SetDimensions(v.width, listHeight)
	}

	vh := v.height - chromeHeight - listHeight
	if vh < 3 {
		vh = 3
	}
	v.viewport.Width = v.width
	v.viewport.Height = vh
	v.refresh()
}

func (v *View) contentWidth() int {
	if v.width < 24 {
		return 20
	}
	return v.width - 4
}

// Busy reports whether a turn is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// ShowSources reports whether the passage list is visible.
func (v *View) ShowSources() bool {
	return v.showSources
}

// Input returns the question input, for tests and the app.
func (v *View) Input() *input.QuestionInput {
	return v.input
}

// Passages returns the passage list of the last answer.
func (v *View) Passages() []domain.Passage {
	return v.passages.Passages()
}

// StatusState returns the status bar state.
func (v *View) StatusState() status.State {
	return v.statusbar.State()
}

// Transcript returns the rendered conversation.
func (v *View) Transcript() string {
	return v.renderTranscript()
}
