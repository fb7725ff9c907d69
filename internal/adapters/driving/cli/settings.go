package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

var errNoSettings = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change configuration",
	Long: `Prints the configuration in ~/.taxadvisor/config.toml with environment
overrides applied. Subcommands change single keys or walk through setup.`,
	RunE: runSettingsShow,
}

func init() {
	settingsCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE:  runSettingsShow,
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one key",
			Long: `Changes one dotted key, for example:

  taxadvisor settings set documents.path ~/tax-docs
  taxadvisor settings set chunking.size 800
  taxadvisor settings set vector_store.backend qdrant

'taxadvisor settings keys' lists them all.`,
			Args: cobra.ExactArgs(2),
			RunE: runSettingsSet,
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List the keys accepted by set",
			Args:  cobra.NoArgs,
			RunE:  runSettingsKeys,
		},
		&cobra.Command{
			Use:   "wizard",
			Short: "Set up documents and providers interactively",
			Args:  cobra.NoArgs,
			RunE:  runSettingsWizard,
		},
		&cobra.Command{
			Use:   "embedding",
			Short: "Choose the embedding provider",
			Long:  "Chooses the embedding provider. A new model needs 'taxadvisor index --rebuild'.",
			Args:  cobra.NoArgs,
			RunE:  providerCommand(embeddingStep),
		},
		&cobra.Command{
			Use:   "llm",
			Short: "Choose the language model provider",
			Args:  cobra.NoArgs,
			RunE:  providerCommand(llmStep),
		},
	)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	out := cmd.OutOrStdout()
	printSection(out, "Documents", [][2]string{
		{"path", orUnset(s.DocumentsPath)},
	})
	printSection(out, "Embedding", providerRows(s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey,
		s.Embedding.IsConfigured()))
	llm := providerRows(s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured())
	llm = append(llm, [2]string{"temperature", fmt.Sprintf("%.2f", s.LLM.Temperature)})
	printSection(out, "LLM", llm)

	store := [][2]string{{"backend", string(s.VectorStore.Backend)}}
	switch s.VectorStore.Backend {
	case domain.VectorBackendSQLite:
		store = append(store, [2]string{"path", s.VectorStore.Path})
	case domain.VectorBackendQdrant:
		store = append(store, [2]string{"url", s.VectorStore.URL}, [2]string{"collection", s.VectorStore.Collection})
		if s.VectorStore.APIKey != "" {
			store = append(store, [2]string{"api key", maskAPIKey(s.VectorStore.APIKey)})
		}
	}
	printSection(out, "Vector Store", store)

	printSection(out, "Retrieval", [][2]string{
		{"chunking", fmt.Sprintf("%d chars, %d overlap", s.Chunking.Size, s.Chunking.Overlap)},
		{"top k", strconv.Itoa(s.TopK)},
		{"indexing", fmt.Sprintf("batches of %d, %d workers, %g batches/s",
			s.Indexing.BatchSize, s.Indexing.Workers, s.Indexing.BatchesPerSecond)},
		{"timeouts", fmt.Sprintf("router %s, embedding %s, search %s, advisor %s",
			s.Timeouts.Router, s.Timeouts.Embedding, s.Timeouts.Search, s.Timeouts.Advisor)},
	})

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		fmt.Fprintln(out, "Run 'taxadvisor settings wizard' to fix it.")
		return nil
	}
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

// printSection writes a bracketed title followed by aligned key/value rows.
func printSection(out io.Writer, title string, rows [][2]string) {
	fmt.Fprintf(out, "[%s]\n", title)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
	fmt.Fprintln(out)
}

func providerRows(provider domain.AIProvider, model, baseURL, apiKey string, configured bool) [][2]string {
	rows := [][2]string{
		{"provider", provider.Description()},
		{"model", model},
	}
	if baseURL != "" {
		rows = append(rows, [2]string{"base url", baseURL})
	}
	if provider.RequiresAPIKey() {
		key := "(not set)"
		if apiKey != "" {
			key = maskAPIKey(apiKey)
		}
		rows = append(rows, [2]string{"api key", key})
	}
	status := "not configured"
	if configured {
		status = "configured"
	}
	return append(rows, [2]string{"status", status})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("%s updated.\n", key)
	if strings.HasPrefix(key, "embedding.") && key != "embedding.api_key" {
		cmd.Println("Run 'taxadvisor index --rebuild' so stored vectors match the new model.")
	}
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	cmd.Println(strings.Join(settingsService.Keys(), "\n"))
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	p.heading("Tax Advisor setup")

	p.heading("1/3 Documents")
	current := ""
	if s, err := settingsService.Get(); err == nil {
		current = s.DocumentsPath
	}
	path := p.ask("Folder with your .txt and .md tax documents", current)
	if path == "" {
		return fmt.Errorf("%w: a documents path is required", domain.ErrInvalidInput)
	}
	if err := settingsService.Set("documents.path", path); err != nil {
		return fmt.Errorf("set documents path: %w", err)
	}

	p.heading("2/3 Embeddings")
	if err := embeddingStep.run(cmd.Context(), p); err != nil {
		return err
	}

	p.heading("3/3 Language model")
	if err := llmStep.run(cmd.Context(), p); err != nil {
		return err
	}

	p.heading("Configuration Complete!")
	if err := settingsService.Validate(); err != nil {
		p.printf("Warning: %v\n", err)
		return nil
	}
	p.printf("Saved. Run 'taxadvisor index' next.\n")
	return nil
}

// providerStep is one provider choice in the wizard.
type providerStep struct {
	name      string
	providers func() []domain.AIProvider
	models    func() map[domain.AIProvider]string
	save      func(provider domain.AIProvider, model, apiKey string) error
	probe     func(ctx context.Context) error
}

var embeddingStep = providerStep{
	name:      "embedding",
	providers: domain.AllEmbeddingProviders,
	models:    domain.DefaultEmbeddingModels,
	save: func(p domain.AIProvider, model, key string) error {
		return settingsService.SetEmbeddingProvider(p, model, key)
	},
	probe: func(ctx context.Context) error { return settingsService.ProbeEmbedding(ctx) },
}

var llmStep = providerStep{
	name:      "LLM",
	providers: domain.AllLLMProviders,
	models:    domain.DefaultLLMModels,
	save: func(p domain.AIProvider, model, key string) error {
		return settingsService.SetLLMProvider(p, model, key)
	},
	probe: func(ctx context.Context) error { return settingsService.ProbeLLM(ctx) },
}

func providerCommand(step providerStep) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errNoSettings
		}
		return step.run(cmd.Context(), newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
	}
}

// run asks for provider, model and key, saves them and checks the provider answers.
func (s providerStep) run(ctx context.Context, p *prompter) error {
	providers := s.providers()
	labels := make([]string, len(providers))
	for i, provider := range providers {
		labels[i] = provider.Description()
	}
	provider := providers[p.choose(labels)]

	model := p.ask("Model", s.models()[provider])

	var apiKey string
	if provider.RequiresAPIKey() {
		apiKey = p.secret(fmt.Sprintf("API key (empty to use $%s)", provider.APIKeyEnv()))
	}

	if err := s.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("save %s provider: %w", s.name, err)
	}

	p.printf("Checking %s... ", provider)
	if err := s.probe(ctx); err != nil {
		p.printf("FAILED\n  %v\n", err)
		return fmt.Errorf("%s check: %w", s.name, err)
	}
	p.printf("OK\n\n")
	return nil
}

// prompter reads answers line by line from in and writes prompts to out.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *prompter) heading(title string) {
	p.printf("%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func (p *prompter) line() string {
	text, _ := p.in.ReadString('\n')
	return strings.TrimSpace(text)
}

// ask returns the answer, or def when the answer is empty.
func (p *prompter) ask(label, def string) string {
	p.printf("%s [%s]: ", label, def)
	if answer := p.line(); answer != "" {
		return answer
	}
	return def
}

// choose lists options from 1 and returns the zero-based index picked.
// Anything unparseable picks the first option.
func (p *prompter) choose(options []string) int {
	for i, option := range options {
		p.printf("  %d. %s\n", i+1, option)
	}
	p.printf("Choice [1]: ")
	return parseChoice(p.line(), len(options), 1) - 1
}

// secret reads without echo when stdin is a terminal.
func (p *prompter) secret(label string) string {
	p.printf("%s: ", label)
	if stdinIsTerminal() {
		if raw, err := term.ReadPassword(int(os.Stdin.Fd())); err == nil {
			p.printf("\n")
			return string(raw)
		}
	}
	return p.line()
}

// parseChoice returns the 1-based choice, or def when input is not in [1, n].
func parseChoice(input string, n, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v < 1 || v > n {
		return def
	}
	return v
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

// maskAPIKey keeps the first and last four characters of long keys.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
