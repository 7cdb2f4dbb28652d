package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"weekly_scheduler_bot/internal/domain/cycle"
)

// FileStateRepository keeps every channel's state in one JSON document:
// {"<channel>": {...state...}}. Writes go to a temp file that is renamed over
// the original, so readers never observe a partial document.
type FileStateRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileStateRepository(path string) *FileStateRepository {
	return &FileStateRepository{path: path}
}

func (r *FileStateRepository) Load(_ context.Context, channelKey string) (*cycle.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return nil, err
	}
	raw, ok := doc[channelKey]
	if !ok {
		return nil, cycle.ErrStateNotFound
	}
	return cycle.Decode(raw)
}

func (r *FileStateRepository) Save(_ context.Context, channelKey string, st *cycle.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if errors.Is(err, cycle.ErrCorruptState) {
		// The corrupt document is replaced wholesale.
		doc = make(map[string]json.RawMessage)
	} else if err != nil {
		return err
	}

	payload, err := cycle.Encode(st)
	if err != nil {
		return err
	}
	doc[channelKey] = payload

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state file: %w", err)
	}
	return r.writeAtomic(data)
}

func (r *FileStateRepository) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	doc := make(map[string]json.RawMessage)
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", cycle.ErrCorruptState, r.path, err)
	}
	return doc, nil
}

func (r *FileStateRepository) writeAtomic(data []byte) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
