package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
	"github.com/custodia-labs/taxadvisor/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults/*.txt defaults/README.md
var defaults embed.FS

// PromptStore reads prompt templates from <dir>/<name>.txt on every Load, so
// edits apply to the next question. The directory is seeded with the embedded
// defaults on first use; existing files are never overwritten.
type PromptStore struct {
	dir      string
	seedOnce sync.Once
	seedErr  error
}

// NewPromptStore creates a store rooted at dir, or ~/.taxadvisor/prompts when dir is empty.
// Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultDirName, "prompts")
	}
	return &PromptStore{dir: dir}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the user's template for name. A missing, unreadable or
// malformed file yields the built-in default.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, err := defaultPrompt(name)
	if err != nil {
		return "", err
	}

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		logger.Debug("prompt directory unavailable, using built-in %s prompt: %v", name, s.seedErr)
		return fallback, nil
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		logger.Debug("using built-in %s prompt: %v", name, err)
		return fallback, nil
	}

	prompt := strings.TrimSpace(string(raw))
	if got, want := strings.Count(prompt, "%s"), driven.PromptArgs(name); got != want {
		logger.Warn("%s.txt has %d %%s placeholders, expected %d; using the built-in prompt", name, got, want)
		return fallback, nil
	}
	return prompt, nil
}

func defaultPrompt(name string) (string, error) {
	if driven.PromptArgs(name) == 0 {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	raw, err := defaults.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("built-in prompt %q: %w", name, err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// seed copies every embedded file that does not exist yet into the prompt directory.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	s.seedErr = fs.WalkDir(defaults, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		target := filepath.Join(s.dir, d.Name())
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		content, err := defaults.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, content, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", d.Name(), err)
		}
		return nil
	})
}
