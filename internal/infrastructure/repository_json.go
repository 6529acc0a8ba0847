package infrastructure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

// JSONStateRepository stores the whole state as one indented JSON document.
// Saves go through a temp file in the same directory followed by a rename.
type JSONStateRepository struct {
	path string
}

// NewJSONStateRepository creates a new JSON file repository
func NewJSONStateRepository(path string) *JSONStateRepository {
	return &JSONStateRepository{path: path}
}

// Path returns the state file path
func (r *JSONStateRepository) Path() string {
	return r.path
}

// Load reads the state file. A missing file yields an empty state.
func (r *JSONStateRepository) Load() (domain.State, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.State{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	state := domain.State{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", r.path, err)
	}

	for url, channel := range state {
		if channel == nil {
			state[url] = domain.NewChannelRecord(url, "")
			continue
		}
		if channel.URL == "" {
			channel.URL = url
		}
		if channel.Videos == nil {
			channel.Videos = make(map[string]*domain.VideoRecord)
		}
	}

	return state, nil
}

// Save atomically replaces the state file with the given snapshot
func (r *JSONStateRepository) Save(state domain.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set state file mode: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Close is a no-op; every save is self-contained
func (r *JSONStateRepository) Close() error {
	return nil
}
