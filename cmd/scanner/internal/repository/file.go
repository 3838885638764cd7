package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seepananikhil/PennyWhales/pkg/models"
)

// Compile-time checks
var (
	_ StateStore   = (*FileStore)(nil)
	_ ResultsStore = (*FileStore)(nil)
)

// FileStore keeps scan state and results as indented JSON files, the
// format the dashboard consumes.
type FileStore struct {
	statePath   string
	resultsPath string
}

func NewFileStore(statePath, resultsPath string) *FileStore {
	return &FileStore{statePath: statePath, resultsPath: resultsPath}
}

// LoadState reads the processed-ticker set. A missing file is a fresh
// start, not an error.
func (f *FileStore) LoadState(ctx context.Context) (models.ScanState, error) {
	b, err := os.ReadFile(f.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.ScanState{}, nil
		}
		return models.ScanState{}, fmt.Errorf("reading scan state: %w", err)
	}

	var state models.ScanState
	if err := json.Unmarshal(b, &state); err != nil {
		return models.ScanState{}, fmt.Errorf("decoding scan state: %w", err)
	}
	return state, nil
}

func (f *FileStore) SaveState(ctx context.Context, state models.ScanState) error {
	return writeJSON(f.statePath, state)
}

func (f *FileStore) SaveResults(ctx context.Context, results *models.ScanResults) error {
	return writeJSON(f.resultsPath, results)
}

func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
