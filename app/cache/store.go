package cache

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultExpiry = 24 * time.Hour

// Store is a key-to-JSON file cache scoped to one source category
// (one subdirectory per category under the base directory). Entries
// expire after the configured window; expiry, a missing file and a
// corrupt payload all look the same to callers: a miss.
type Store struct {
	dir    string
	expiry time.Duration
}

func NewStore(baseDir, category string, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		dir:    filepath.Join(baseDir, category),
		expiry: expiry,
	}
}

// Get loads the cached payload for name into v. It returns false when
// the entry is absent, older than the expiry window, or unreadable.
func (s *Store) Get(name string, v any) bool {
	path := s.entryPath(name)

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if time.Since(info.ModTime()) > s.expiry {
		slog.Debug("Cache entry expired", "name", name, "age", time.Since(info.ModTime()).String())
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read cache entry", "path", path, "error", err)
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("Failed to decode cache entry, treating as miss", "path", path, "error", err)
		return false
	}

	slog.Debug("Cache hit", "name", name)
	return true
}

// Put writes the payload for name. Caching is an optimization: write
// failures are logged and swallowed, never surfaced to the caller.
func (s *Store) Put(name string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Warn("Failed to encode cache entry", "name", name, "error", err)
		return
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		slog.Warn("Failed to create cache directory", "dir", s.dir, "error", err)
		return
	}

	path := s.entryPath(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("Failed to write cache entry", "path", path, "error", err)
	}
}

func (s *Store) entryPath(name string) string {
	return filepath.Join(s.dir, SanitizeKey(name)+".json")
}

// SanitizeKey reduces a logical name to a filesystem-safe key by
// replacing every non-alphanumeric rune with an underscore. Distinct
// names can collide after sanitization ("Fire Ball" vs "Fire-Ball");
// this is an accepted limitation.
func SanitizeKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
