package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/taxadvisor/internal/adapters/driven/config"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultDirName is the config directory created under the user's home.
const DefaultDirName = ".taxadvisor"

const configFileName = "config.toml"

// ConfigStore keeps config.toml as a tree of tables. A dot-notation key
// addresses a table path, so "chunking.size" is the size entry of [chunking].
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	tree map[string]any
}

// NewConfigStore opens configDir/config.toml, creating the directory if needed.
// An empty configDir means ~/.taxadvisor. A missing file is an empty config.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		configDir = filepath.Join(home, DefaultDirName)
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{
		path: filepath.Join(configDir, configFileName),
		tree: map[string]any{},
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := toml.Unmarshal(raw, &s.tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if s.tree == nil {
		s.tree = map[string]any{}
	}
	return s, nil
}

// Get walks the table path named by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parts := strings.Split(key, ".")
	table := s.tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := table[part].(map[string]any)
		if !ok {
			return nil, false
		}
		table = next
	}
	val, ok := table[parts[len(parts)-1]]
	if _, isTable := val.(map[string]any); isTable {
		return nil, false
	}
	return val, ok
}

// GetString returns the string at key.
func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	return config.String(v)
}

// GetInt returns the integer at key.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	return config.Int(v)
}

// GetFloat returns the number at key.
func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	return config.Float(v)
}

// Set stores value at key and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	return s.SetAll(map[string]any{key: value})
}

// SetAll stores every value and rewrites the file once.
func (s *ConfigStore) SetAll(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range values {
		insert(s.tree, strings.Split(key, "."), value)
	}
	return s.write()
}

// Path returns the location of config.toml.
func (s *ConfigStore) Path() string {
	return s.path
}

// insert places value at path, replacing any scalar that sits where a table is needed.
func insert(table map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		next, ok := table[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			table[part] = next
		}
		table = next
	}
	table[path[len(path)-1]] = value
}

// write replaces config.toml through a temporary file so a failed write
// never leaves a truncated config behind. The file holds API keys and stays 0600.
func (s *ConfigStore) write() error {
	raw, err := toml.Marshal(s.tree)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), configFileName+".*")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
