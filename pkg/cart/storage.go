package cart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultStorageFileName = ".nomis-cart.json"
)

// Store persists cart state to a JSON file so consecutive CLI invocations
// operate on the same cart.
type Store struct {
	filePath string
}

// NewStore creates a store at filePath, defaulting to the home directory.
func NewStore(filePath string) (*Store, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}
	return &Store{filePath: filePath}, nil
}

// Load reads the saved cart state. A missing file yields an empty state.
func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to read cart: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return state, nil
}

// Save writes the cart state atomically (temp file + rename).
func (s *Store) Save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// GetFilePath returns the storage file path
func (s *Store) GetFilePath() string {
	return s.filePath
}
