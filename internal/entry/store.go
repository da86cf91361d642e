package entry

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ConfigEntry holds one integration instance's persisted configuration
// layers. Data carries the initial setup values, Options whatever the user
// changed afterwards; neither is used directly — Resolve derives the working
// settings from them.
type ConfigEntry struct {
	ID      string                 `yaml:"id"`
	Title   string                 `yaml:"title"`
	Data    map[string]interface{} `yaml:"data"`
	Options map[string]interface{} `yaml:"options"`
}

// Resolve derives the entry's working settings for the given schema.
func (e *ConfigEntry) Resolve(schema Schema) (map[string]interface{}, error) {
	return Resolve(schema, e.Options, e.Data)
}

type entriesFile struct {
	Entries []*ConfigEntry `yaml:"entries"`
}

// Store persists config entries to a YAML file, standing in for the host's
// config-entry registry.
type Store struct {
	path    string
	logger  *zap.Logger
	mu      sync.Mutex
	entries []*ConfigEntry
}

// NewStore creates a store backed by the YAML file at path
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Load reads the entries file. A missing file is not an error: it just means
// nothing has been configured yet.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Warn("Entries file not found, starting empty", zap.String("path", s.path))
		s.entries = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read entries file: %w", err)
	}

	var file entriesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse entries file: %w", err)
	}

	for _, e := range file.Entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Data == nil {
			e.Data = make(map[string]interface{})
		}
		if e.Options == nil {
			e.Options = make(map[string]interface{})
		}
	}

	s.entries = file.Entries
	s.logger.Info("Config entries loaded",
		zap.String("path", s.path),
		zap.Int("entries", len(s.entries)))
	return nil
}

// save writes the current entries back to disk. Caller holds s.mu.
func (s *Store) save() error {
	raw, err := yaml.Marshal(entriesFile{Entries: s.entries})
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write entries file: %w", err)
	}

	return nil
}

// All returns all config entries
func (s *Store) All() []*ConfigEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*ConfigEntry, len(s.entries))
	copy(result, s.entries)
	return result
}

// Get returns the entry with the given ID
func (s *Store) Get(id string) (*ConfigEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Add appends a new entry, assigning it an ID, and persists the file
func (s *Store) Add(title string, data map[string]interface{}) (*ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data == nil {
		data = make(map[string]interface{})
	}

	e := &ConfigEntry{
		ID:      uuid.NewString(),
		Title:   title,
		Data:    data,
		Options: make(map[string]interface{}),
	}
	s.entries = append(s.entries, e)

	if err := s.save(); err != nil {
		return nil, err
	}

	s.logger.Info("Config entry added",
		zap.String("id", e.ID),
		zap.String("title", e.Title))
	return e, nil
}

// UpdateOptions replaces an entry's options layer and persists the file.
// Callers re-resolve their settings afterwards; the resolved view is never
// stored.
func (s *Store) UpdateOptions(id string, options map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == id {
			e.Options = options
			if err := s.save(); err != nil {
				return err
			}

			s.logger.Info("Config entry options updated", zap.String("id", id))
			return nil
		}
	}

	return fmt.Errorf("entry %s not found", id)
}
