// Package cli provides the taxadvisor command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
	"github.com/custodia-labs/taxadvisor/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Exit codes returned by ExitCode.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
)

// Options are the global flags passed to the bootstrap function.
type Options struct {
	// ConfigDir overrides ~/.taxadvisor.
	ConfigDir string
	// Verbose enables debug logging.
	Verbose bool
}

// Services holds the driving ports used by commands.
type Services struct {
	Settings  driving.SettingsService
	Assistant driving.AssistantService
	Index     driving.IndexService

	// SetupErr explains why Assistant and Index are nil, usually a
	// domain.ErrConfiguration. Settings commands still run.
	SetupErr error

	// Close releases the resources behind the services.
	Close func()
}

// Bootstrap builds the services once flags are parsed.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap Bootstrap
	opts      Options
	closeFn   func()

	settingsService  driving.SettingsService
	assistantService driving.AssistantService
	indexService     driving.IndexService
	setupErr         error
)

var rootCmd = &cobra.Command{
	Use:   "taxadvisor",
	Short: "Answer tax questions from your own tax documents",
	Long: `taxadvisor indexes a folder of tax-law text files (.txt, .md) into a vector
store and answers questions about them. Each question is classified, rewritten
for retrieval, matched against the indexed passages and answered by an LLM
using only those passages.

Run without a command to start the interactive question loop.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if closeFn != nil {
			closeFn()
			closeFn = nil
		}
	},
	RunE: runAsk,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log pipeline stages to stderr")
	rootCmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", "", "configuration directory (default ~/.taxadvisor)")
	rootCmd.Flags().BoolVar(&askShowSources, "show-sources", false, "print the retrieved passages after each answer")
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
}

// SetServices injects services directly, bypassing bootstrap.
func SetServices(s *Services) {
	settingsService = s.Settings
	assistantService = s.Assistant
	indexService = s.Index
	setupErr = s.SetupErr
	closeFn = s.Close
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrConfiguration):
		return ExitConfiguration
	default:
		return ExitFailure
	}
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(opts.Verbose)
	if bootstrap == nil {
		return nil
	}
	services, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

// requirePipeline returns the startup error that left the assistant unconfigured.
func requirePipeline() error {
	if setupErr != nil {
		return setupErr
	}
	if assistantService == nil || indexService == nil {
		return errors.New("assistant service not configured")
	}
	return nil
}
