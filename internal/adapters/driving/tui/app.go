package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui/views/sources"
)

// App is the root tea.Model. It owns the screens and routes messages to the
// one on display; turn and status results always reach their owner.
type App struct {
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	chat    *chat.View
	sources *sources.View
	screen  messages.ViewType

	err   error
	ready bool
}

var _ tea.Model = (*App)(nil)

// NewApp builds the app over ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = s.Title
	h.Styles.FullDesc = s.Normal
	h.Styles.FullSeparator = s.Muted

	return &App{
		ctx:     context.Background(),
		styles:  s,
		keymap:  km,
		help:    h,
		chat:    chat.NewView(s, km, ports.Assistant),
		sources: sources.NewView(s, ports.Index),
		screen:  messages.ViewChat,
	}, nil
}

// WithContext sets the context that bounds questions and status loads.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chat.WithContext(ctx)
	a.sources.WithContext(ctx)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("taxadvisor"), a.chat.Init())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, a.routeKey(msg)

	case messages.Quit:
		return a, tea.Quit

	case messages.ViewChanged:
		a.screen = msg.View
		if msg.View == messages.ViewSources {
			return a, a.sources.Init()
		}
		return a, nil

	case messages.StatusLoaded:
		var cmd tea.Cmd
		a.sources, cmd = a.sources.Update(msg)
		return a, cmd

	case messages.TurnCompleted:
		if msg.Turn != nil && msg.Turn.Err != nil {
			a.err = msg.Turn.Err
		}
	}

	// Everything else (turns, spinner ticks, cursor blinks) belongs to chat.
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return a, cmd
}

func (a *App) routeKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.screen {
	case messages.ViewSources:
		a.sources, cmd = a.sources.Update(msg)
	case messages.ViewHelp:
		if key.Matches(msg, a.keymap.Back, a.keymap.Help) {
			a.screen = messages.ViewChat
		}
	default:
		a.chat, cmd = a.chat.Update(msg)
	}
	return cmd
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.screen {
	case messages.ViewSources:
		return a.sources.View()
	case messages.ViewHelp:
		return a.helpScreen()
	}
	return a.chat.View()
}

func (a *App) helpScreen() string {
	lines := []string{
		a.styles.Title.Render("Help"),
		"",
		a.help.View(a.keymap),
		"",
		a.styles.Normal.Render("Type exit, quit or q and press enter to leave."),
		a.styles.Normal.Render("Questions unrelated to taxation are refused without searching."),
		"",
		a.styles.Help.Render("[esc] back to chat"),
	}
	return strings.Join(lines, "\n")
}

// Run blocks until the user quits or the context is cancelled.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// CurrentView reports the screen on display.
func (a *App) CurrentView() messages.ViewType { return a.screen }

// Err is the error of the last failed turn.
func (a *App) Err() error { return a.err }

// Ready reports whether a window size has been received.
func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes every screen.
func (a *App) SetDimensions(width, height int) {
	a.ready = true
	a.help.Width = width
	a.chat.SetDimensions(width, height)
	a.sources.SetDimensions(width, height)
}
