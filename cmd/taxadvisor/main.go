// Command taxadvisor answers tax questions from a folder of tax documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/ai"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/config/file"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/filesystem"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/taxadvisor/internal/adapters/driving/cli"
	"github.com/custodia-labs/taxadvisor/internal/chunker"
	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
	"github.com/custodia-labs/taxadvisor/internal/core/services"
	"github.com/custodia-labs/taxadvisor/internal/logger"
	"github.com/custodia-labs/taxadvisor/internal/normalisers"
	"github.com/custodia-labs/taxadvisor/internal/normalisers/markdown"
	"github.com/custodia-labs/taxadvisor/internal/normalisers/plaintext"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetBootstrap(bootstrap)
	err := cli.Execute(ctx)
	code := cli.ExitCode(err)
	if code == cli.ExitConfiguration {
		fmt.Fprintln(os.Stderr, "Run 'taxadvisor settings wizard' or edit ~/.taxadvisor/config.toml to fix the configuration.")
	}
	stop()
	os.Exit(code)
}

// bootstrap wires the adapters into the core services. Configuration
// problems are reported through Services.SetupErr so settings commands
// keep working; the question pipeline refuses to start until they are fixed.
func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, error) {
	configDir, err := resolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	// Environment files are optional; variables already set take precedence.
	_ = godotenv.Load(filepath.Join(configDir, ".env"))
	_ = godotenv.Load()

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("%w: open config: %w", domain.ErrConfiguration, err)
	}

	settingsService := services.NewSettingsService(
		configStore,
		ai.NewProbe(),
		services.WithEnv(os.Getenv),
		services.WithDataDir(configDir),
	)
	out := &cli.Services{Settings: settingsService}

	settings, err := settingsService.Get()
	if err != nil {
		out.SetupErr = fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		return out, nil
	}
	if err := settings.Validate(); err != nil {
		out.SetupErr = err
		return out, nil
	}

	logger.Section("Configuration")
	logger.Info("documents: %s", settings.DocumentsPath)
	logger.Info("embedding: %s/%s, llm: %s/%s",
		settings.Embedding.Provider, settings.Embedding.Model, settings.LLM.Provider, settings.LLM.Model)
	logger.Info("vector store: %s", settings.VectorStore.Backend)

	aiServices, err := ai.NewServices(settings)
	if err != nil {
		out.SetupErr = err
		return out, nil
	}

	store, err := newVectorStore(settings.VectorStore)
	if err != nil {
		aiServices.Close()
		out.SetupErr = err
		return out, nil
	}

	var prompts driven.PromptStore
	if ps, err := file.NewPromptStore(filepath.Join(configDir, "prompts")); err == nil {
		prompts = ps
	} else {
		logger.Warn("prompt store unavailable, using built-in prompts: %v", err)
	}

	indexService := services.NewIndexService(
		settings.DocumentsPath,
		filesystem.NewLoader(),
		normalisers.NewRegistry(plaintext.New(), markdown.New()),
		chunker.New(
			chunker.WithChunkSize(settings.Chunking.Size),
			chunker.WithOverlap(settings.Chunking.Overlap),
		),
		aiServices.Embedding,
		store,
		services.WithBatchSize(settings.Indexing.BatchSize),
		services.WithWorkers(settings.Indexing.Workers),
		services.WithBatchRate(settings.Indexing.BatchesPerSecond),
		services.WithEmbedTimeout(settings.Timeouts.Embedding),
		services.WithWatcher(filesystem.NewWatcher()),
	)

	assistant := services.NewAssistantService(
		services.NewRouter(aiServices.LLM, prompts, settings.Timeouts.Router, settings.LLM.Temperature),
		services.NewResearcher(aiServices.Embedding, store, settings.TopK,
			settings.Timeouts.Embedding, settings.Timeouts.Search),
		services.NewAdvisor(aiServices.LLM, prompts, settings.Timeouts.Advisor, settings.LLM.Temperature),
	)

	out.Assistant = assistant
	out.Index = indexService
	out.Close = func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing vector store: %v", err)
		}
		aiServices.Close()
	}
	return out, nil
}

// newVectorStore opens the configured backend.
func newVectorStore(cfg domain.VectorStoreSettings) (driven.VectorStore, error) {
	switch cfg.Backend {
	case domain.VectorBackendMemory:
		return memory.NewVectorStore(), nil
	case domain.VectorBackendQdrant:
		store, err := qdrant.NewStore(qdrant.Config{
			URL:        cfg.URL,
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: qdrant: %w", domain.ErrConfiguration, err)
		}
		return store, nil
	case domain.VectorBackendSQLite, "":
		store, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", domain.ErrVectorStoreUnavailable, cfg.Path, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown vector store backend %q", domain.ErrConfiguration, cfg.Backend)
	}
}

// resolveConfigDir returns the configuration directory, defaulting to ~/.taxadvisor.
func resolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if env := os.Getenv("TAXADVISOR_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("cannot determine home directory; pass --config-dir")
	}
	return filepath.Join(home, file.DefaultDirName), nil
}
