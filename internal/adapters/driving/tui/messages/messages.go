// Package messages holds the tea.Msg types exchanged between the TUI views.
package messages

import "github.com/custodia-labs/taxadvisor/internal/core/domain"

// ViewType selects the screen the app renders.
type ViewType int

const (
	ViewChat ViewType = iota
	ViewSources
	ViewHelp
)

var viewNames = [...]string{ViewChat: "chat", ViewSources: "sources", ViewHelp: "help"}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

type (
	// TurnCompleted delivers a finished turn. Failed turns carry Err and a
	// user-facing Answer.
	TurnCompleted struct{ Turn *domain.Turn }

	// StatusLoaded delivers the index summary for the sources screen.
	StatusLoaded struct {
		Status *domain.IndexStatus
		Err    error
	}

	// ViewChanged switches screens.
	ViewChanged struct{ View ViewType }

	// Quit ends the program, sent when an exit command is typed.
	Quit struct{}
)
