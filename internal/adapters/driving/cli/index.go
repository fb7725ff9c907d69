package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
)

var (
	indexRebuild bool
	indexWatch   bool
	resetYes     bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the documents directory",
	Long: `Reads every .txt and .md file under the documents directory, splits it into
overlapping chunks, embeds the chunks and stores them in the vector store.

Files whose content has not changed since the last run are skipped, and
entries for deleted files are removed. Use --rebuild after changing the
embedding model.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the vector store holds",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every indexed entry",
	Long:  `Removes all entries and the index metadata from the vector store.`,
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "drop the store and re-embed every document")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "keep running and re-index files as they change")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}

	ctx := cmd.Context()
	cmd.Println("Indexing documents...")

	report, err := indexService.Index(ctx, domain.IndexOptions{Rebuild: indexRebuild})
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingModelMismatch) {
			cmd.Println("Run 'taxadvisor index --rebuild' to re-index with the current model.")
		}
		return err
	}
	printReport(cmd, report)

	if !indexWatch {
		return nil
	}
	return watchWithProgress(ctx, cmd, indexService)
}

// watchWithProgress re-indexes changed files and prints each change until ctx is cancelled.
func watchWithProgress(ctx context.Context, cmd *cobra.Command, index driving.IndexService) error {
	cmd.Println("Watching for changes (Ctrl+C to stop)...")

	events := make(chan domain.FileChange)
	errCh := make(chan error, 1)
	go func() {
		errCh <- index.Watch(ctx, events)
		close(events)
	}()

	for change := range events {
		cmd.Printf("  %s %s\n", change.Type, change.Path)
	}
	return <-errCh
}

func printReport(cmd *cobra.Command, report *domain.IndexReport) {
	cmd.Printf("Indexed %d files (%d chunks) in %s\n",
		len(report.Indexed), report.Chunks, report.Duration.Round(time.Millisecond))
	if len(report.Unchanged) > 0 {
		cmd.Printf("  Unchanged: %d\n", len(report.Unchanged))
	}
	if len(report.Removed) > 0 {
		cmd.Printf("  Removed:   %s\n", strings.Join(report.Removed, ", "))
	}
	if len(report.Skipped) > 0 {
		cmd.Printf("  Skipped:   %s\n", strings.Join(report.Skipped, ", "))
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}

	status, err := indexService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Printf("Backend: %s\n", status.Backend)
	if status.Metadata == nil {
		cmd.Println("The index is empty. Run 'taxadvisor index' first.")
		return nil
	}
	cmd.Printf("Embedding model: %s (%d dimensions)\n", status.Metadata.EmbeddingModel, status.Metadata.Dimensions)
	cmd.Printf("Updated: %s\n", status.Metadata.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	cmd.Printf("Sources: %d, chunks: %d\n", len(status.Sources), status.TotalChunks())
	cmd.Println()

	paths := make([]string, 0, len(status.Sources))
	for path := range status.Sources {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		cmd.Printf("  %5d  %s\n", status.Sources[path].Chunks, path)
	}
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}

	if !resetYes {
		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		p.printf("Delete every indexed entry? [y/N]: ")
		answer := p.line()
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := indexService.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}
