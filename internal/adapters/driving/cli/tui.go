package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/tui"
)

type program interface {
	Run() (tea.Model, error)
}

// newProgram is swapped in tests so the terminal is left alone.
var newProgram = func(model tea.Model, opts ...tea.ProgramOption) program {
	return tea.NewProgram(model, opts...)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Full-screen chat over the indexed tax documents.

  enter        ask the typed question
  ↑/↓ pgup/dn  scroll the conversation
  ctrl+o       show the passages behind the last answer
  ctrl+s       list the indexed sources
  f1           help
  ctrl+c       quit; typing exit, quit or q also works`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		// The alt screen hides panics, so print the stack after it is gone.
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "tui panic: %v\n%s\n", r, debug.Stack())
				err = fmt.Errorf("tui panic: %v", r)
			}
		}()

		if err := requirePipeline(); err != nil {
			return err
		}
		app, err := tui.NewApp(tui.NewPorts(assistantService, indexService))
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		app.WithContext(ctx)

		if _, err := newProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
