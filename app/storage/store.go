package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/poe2tools/patchwatch/app/patch"
)

// SaveResult classifies the outcome of a Save call. AlreadyExists is
// expected steady-state behavior under re-runs, not an error.
type SaveResult int

const (
	Saved SaveResult = iota
	AlreadyExists
	SaveError
)

func (r SaveResult) String() string {
	switch r {
	case Saved:
		return "saved"
	case AlreadyExists:
		return "already_exists"
	case SaveError:
		return "save_error"
	}
	return "unknown"
}

var datePrefixedFile = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_`)

// Store persists patch notes as one JSON file per note under its
// directory, named {datePrefix}_{titleSlug}.json. At most one note per
// identity key is ever written; a second note mapping to the same key
// is a no-op. No locking: concurrent batches against one Store must be
// serialized by the caller.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save persists the note unless a note with the same identity key
// already exists. On success the returned handle can be passed to
// LoadByHandle.
func (s *Store) Save(note *patch.Note) (string, SaveResult, error) {
	if note == nil || strings.TrimSpace(note.Title) == "" {
		return "", SaveError, fmt.Errorf("note is missing a title")
	}

	filename := IdentityKey(note.Date, note.Title) + ".json"
	path := filepath.Join(s.dir, filename)

	if _, err := os.Stat(path); err == nil {
		slog.Debug("Patch note already exists, skipping save", "file", filename)
		return "", AlreadyExists, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", SaveError, fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(note, "", "    ")
	if err != nil {
		return "", SaveError, fmt.Errorf("failed to encode patch note: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", SaveError, fmt.Errorf("failed to write patch note: %w", err)
	}

	slog.Info("Saved new patch note", "file", filename)
	return path, Saved, nil
}

// LoadLatest returns the note whose identity key sorts greatest by
// date prefix, considering only date-prefixed files. Ties break by
// slug. Returns nil when the store is empty.
func (s *Store) LoadLatest() (*patch.Note, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan data directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasSuffix(name, ".json") && datePrefixedFile.MatchString(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return s.LoadByHandle(filepath.Join(s.dir, names[0]))
}

var safeID = regexp.MustCompile(`^[A-Za-z0-9._\-]+$`)

// LoadByID loads one note by its identity key. IDs are restricted to
// filename-safe characters so callers can pass user input directly.
func (s *Store) LoadByID(id string) (*patch.Note, error) {
	if !safeID.MatchString(id) || strings.Contains(id, "..") {
		return nil, fmt.Errorf("invalid note id %q", id)
	}
	return s.LoadByHandle(filepath.Join(s.dir, id+".json"))
}

// ID derives the identity key back from a handle.
func ID(handle string) string {
	return strings.TrimSuffix(filepath.Base(handle), ".json")
}

// LoadByHandle loads one note from the handle returned by Save.
func (s *Store) LoadByHandle(handle string) (*patch.Note, error) {
	data, err := os.ReadFile(handle)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read patch note: %w", err)
	}

	var note patch.Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("failed to decode patch note %s: %w", handle, err)
	}
	return &note, nil
}

// List returns the stored notes newest-first, with their handles.
type Entry struct {
	Handle string
	Note   *patch.Note
}

func (s *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan data directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var out []Entry
	for _, name := range names {
		handle := filepath.Join(s.dir, name)
		note, err := s.LoadByHandle(handle)
		if err != nil {
			slog.Warn("Skipping unreadable patch note", "file", name, "error", err)
			continue
		}
		if note != nil {
			out = append(out, Entry{Handle: handle, Note: note})
		}
	}
	return out, nil
}

// Count returns the number of stored notes.
func (s *Store) Count() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}
	return count, nil
}
