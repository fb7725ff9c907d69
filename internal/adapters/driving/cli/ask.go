package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
	"github.com/custodia-labs/taxadvisor/internal/logger"
)

const rule = "================================================================================"

var askShowSources bool

// stdinIsTerminal reports whether the banner and prompt should be printed.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a tax question",
	Long: `Answers a question from the indexed tax documents.

With a question argument, answers once and exits. Without one, starts the
interactive loop; type exit, quit or q to leave. Questions unrelated to
taxation are politely refused without searching the documents.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowSources, "show-sources", false, "print the retrieved passages after each answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}

	if len(args) > 0 {
		turn := assistantService.Ask(cmd.Context(), strings.Join(args, " "))
		printTurn(cmd.OutOrStdout(), turn, askShowSources)
		if turn.State == domain.TurnFailed {
			return turn.Err
		}
		return nil
	}

	return runLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), assistantService, askShowSources, stdinIsTerminal())
}

// isExitCommand reports whether the input ends the session.
func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "q":
		return true
	default:
		return false
	}
}

// maxQuestionBytes bounds a single input line.
const maxQuestionBytes = 1 << 20

// runLoop reads one question per line until an exit command, end of input or
// cancellation. Turn failures are printed and the loop continues; an input
// read failure, such as a line over maxQuestionBytes, ends it with an error.
func runLoop(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	assistant driving.AssistantService,
	showSources bool,
	interactive bool,
) error {
	if interactive {
		fmt.Fprintln(out, rule)
		fmt.Fprintln(out, "TAX ADVISOR - Document-based Q&A")
		fmt.Fprintln(out, rule)
		fmt.Fprintln(out, "\nThis assistant answers questions based on your tax documents.")
		fmt.Fprintln(out, "Type 'exit' or 'quit' to end the session.")
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxQuestionBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
		}
	}()

	for {
		if interactive {
			fmt.Fprint(out, "\nYour question: ")
		}

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-readErr:
				return fmt.Errorf("read question: %w", err)
			default:
				return nil
			}
		}

		if isExitCommand(line) {
			if interactive {
				fmt.Fprintln(out, "\nThank you for using Tax Advisor. Goodbye!")
			}
			return nil
		}
		if strings.TrimSpace(line) == "" {
			fmt.Fprintln(out, domain.UserMessage(domain.ErrInvalidInput))
			continue
		}

		turn := assistant.Ask(ctx, line)
		if turn.State == domain.TurnFailed && turn.Err != nil {
			logger.Warn("turn %s failed: %v", turn.ID, turn.Err)
		}
		printTurn(out, turn, showSources)
	}
}

// printTurn writes the framed answer, and the passages when requested.
func printTurn(out io.Writer, turn *domain.Turn, showSources bool) {
	if turn.State == domain.TurnRejected {
		logger.Info("refused: %s", turn.Route.Reason)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "ANSWER:")
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, turn.Answer)
	fmt.Fprintln(out, rule)

	if !showSources || turn.Retrieval == nil || len(turn.Retrieval.Passages) == 0 {
		return
	}
	fmt.Fprintln(out, "SOURCES:")
	printPassages(out, turn.Retrieval.Passages)
}

func printPassages(out io.Writer, passages []domain.Passage) {
	for i, p := range passages {
		fmt.Fprintf(out, "  [%d] %s #%d (%.2f)\n", i+1, p.Source, p.ChunkIndex, p.Score)
		fmt.Fprintf(out, "      %s\n", snippet(p.Text, 160))
	}
}

// snippet returns the first n runes of text on a single line.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
