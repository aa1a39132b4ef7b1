// Package history keeps the console's bounded line history and persists it
// through a pluggable backend after every change.
package history

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
)

// Backend stores the complete history sequence.
type Backend interface {
	// Load returns the stored entries, oldest first. A backend with nothing
	// stored yet returns no entries and no error.
	Load() ([]string, error)
	// Save replaces the stored sequence.
	Save(entries []string) error
}

// Store is a bounded FIFO of input lines. Duplicates are kept.
type Store struct {
	mu      sync.Mutex
	backend Backend
	max     int
	entries []string
}

// Open creates a Store holding at most max entries. A nil backend keeps the
// history in memory only. Open does not read the backend; call Load.
func Open(backend Backend, max int) (*Store, error) {
	if max < 1 {
		return nil, fmt.Errorf("history: max length must be positive, got %d", max)
	}
	if backend == nil {
		backend = &MemoryBackend{}
	}
	return &Store{backend: backend, max: max}, nil
}

// Load replaces the in-memory entries with the backend's, keeping the newest
// max. On error the store is left empty.
func (s *Store) Load() error {
	entries, err := s.backend.Load()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.entries = nil
		return fmt.Errorf("history: load: %w", err)
	}
	if len(entries) > s.max {
		entries = entries[len(entries)-s.max:]
	}
	s.entries = slices.Clone(entries)
	return nil
}

// ErrInvalidEntry is returned by Append for a line the line-oriented
// backends cannot store: blank, or spanning more than one line.
var ErrInvalidEntry = errors.New("history: entry must be a single non-blank line")

// Append adds line as the newest entry, evicting the oldest beyond max, then
// persists the whole sequence. A persistence error is returned but the entry
// stays appended. Invalid entries are rejected with ErrInvalidEntry.
func (s *Store) Append(line string) error {
	if strings.TrimSpace(line) == "" || strings.ContainsAny(line, "\r\n") {
		return ErrInvalidEntry
	}
	s.mu.Lock()
	s.entries = append(s.entries, line)
	if len(s.entries) > s.max {
		s.entries = slices.Delete(s.entries, 0, len(s.entries)-s.max)
	}
	snapshot := slices.Clone(s.entries)
	s.mu.Unlock()

	if err := s.backend.Save(snapshot); err != nil {
		return fmt.Errorf("history: save: %w", err)
	}
	return nil
}

// Entries returns a copy of the history, oldest first.
func (s *Store) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Clear drops all entries and persists the empty history.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	if err := s.backend.Save(nil); err != nil {
		return fmt.Errorf("history: save: %w", err)
	}
	return nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Max returns the capacity.
func (s *Store) Max() int {
	return s.max
}

// Close releases the backend if it holds resources.
func (s *Store) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Backend kinds accepted by OpenBackend.
const (
	KindFile = "file"
	KindBolt = "bolt"
)

// ErrUnknownBackend is returned by OpenBackend for an unsupported kind.
var ErrUnknownBackend = errors.New("unknown history backend")

// OpenBackend creates the backend of the given kind at path. An empty path
// selects an in-memory backend regardless of kind.
func OpenBackend(kind, path string) (Backend, error) {
	if path == "" {
		return &MemoryBackend{}, nil
	}
	switch kind {
	case "", KindFile:
		return NewFileBackend(path), nil
	case KindBolt:
		return OpenBoltBackend(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
}

// MemoryBackend keeps the saved sequence in memory.
type MemoryBackend struct {
	mu      sync.Mutex
	entries []string
	saves   int
}

func (b *MemoryBackend) Load() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.entries), nil
}

func (b *MemoryBackend) Save(entries []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = slices.Clone(entries)
	b.saves++
	return nil
}

// Saves returns how many times Save was called.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}
