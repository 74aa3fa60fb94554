// Package collection owns the in-memory note set and its JSON persistence.
//
// The entire collection is persisted as a single JSON array of notes in one
// file (schema-version 0). Every save rewrites the whole file; there is no
// incremental persistence.
package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/slatehq/slate/internal/models"
)

// Store is the single owner of the mutable note collection. All access goes
// through its methods; the mutex serializes mutation so no two requests are
// processed concurrently.
type Store struct {
	mu     sync.Mutex
	path   string
	notes  []models.Note
	logger *slog.Logger
}

// Open loads the collection from path. A missing file starts an empty
// collection; unparsable data is discarded with a warning, never fatal.
func Open(path string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("collection: resolve path: %w", err)
	}
	s := &Store{path: abs, logger: logger}

	data, err := os.ReadFile(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("collection: read %s: %w", path, err)
	}

	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		logger.Warn("collection: discarding corrupt data, starting empty",
			slog.String("path", abs),
			slog.String("error", err.Error()))
		return s, nil
	}
	s.notes = notes
	return s, nil
}

// Path returns the absolute path of the backing file.
func (s *Store) Path() string { return s.path }

// All returns a copy of the collection in insertion order.
func (s *Store) All() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Get resolves an id. A dangling or unknown id is reported through the
// boolean, not an error.
func (s *Store) Get(id string) (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return models.Note{}, false
}

// ByKind returns the kind-filtered view in insertion order.
func (s *Store) ByKind(kind models.Kind) []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Note
	for _, n := range s.notes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// Insert appends notes to the collection.
func (s *Store) Insert(notes ...models.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, notes...)
}

// Update replaces the note with the same id, keeping its position.
func (s *Store) Update(n models.Note) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].ID == n.ID {
			s.notes[i] = n
			return true
		}
	}
	return false
}

// Delete removes the note with the given id. Links held by other notes are
// left alone; they dangle by design.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return true
		}
	}
	return false
}

// Save atomically rewrites the backing file: tmp file, fsync, rename.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.notes
	if notes == nil {
		notes = []models.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("collection: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("collection: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".slate-tmp-*")
	if err != nil {
		return fmt.Errorf("collection: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("collection: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("collection: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("collection: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("collection: rename: %w", err)
	}
	success = true
	return nil
}

// Reload rereads the backing file, replacing the in-memory collection.
// Used when the file is modified by an external tool. Corrupt data keeps
// the current in-memory state.
func (s *Store) Reload() (int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.notes = nil
		s.mu.Unlock()
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("collection: reload: %w", err)
	}

	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		s.logger.Warn("collection: reload found corrupt data, keeping in-memory state",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return 0, nil
	}

	s.mu.Lock()
	s.notes = notes
	s.mu.Unlock()
	return len(notes), nil
}
