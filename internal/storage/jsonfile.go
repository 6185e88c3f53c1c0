package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// JSONFile persists one collection as a single JSON array file, rewritten
// wholesale on every mutation. An unreadable or corrupt file resets the
// collection to empty and proceeds; this lossy recovery is deliberate and
// logged at Error level so it never happens silently.
type JSONFile[T any] struct {
	path string
	mu   sync.Mutex
}

func NewJSONFile[T any](path string) *JSONFile[T] {
	return &JSONFile[T]{path: path}
}

func (f *JSONFile[T]) Load() ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(), nil
}

func (f *JSONFile[T]) Save(records []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(records)
}

func (f *JSONFile[T]) Update(fn func(records []T) ([]T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := fn(f.load())
	if err != nil {
		return err
	}
	return f.save(records)
}

func (f *JSONFile[T]) load() []T {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}
	}
	if err != nil {
		slog.Error("collection unreadable, resetting to empty", "path", f.path, "error", err)
		return []T{}
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Error("collection corrupt, resetting to empty", "path", f.path, "error", err)
		return []T{}
	}
	return records
}

// save writes the whole collection to a temp file and renames it into place,
// so a concurrent reader sees either the old or the new content, never a
// partial write.
func (f *JSONFile[T]) save(records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name()) // Clean up if rename fails
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write collection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to rename collection file: %w", err)
	}
	return nil
}
