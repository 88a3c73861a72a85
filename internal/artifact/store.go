// Package artifact persists pipeline stage outputs as flat per-day JSON
// snapshots on the local filesystem. Every artifact is addressed by a
// (username, day) identity plus a stage category and document name:
//
//	{root}/{username}/{day}/{category}/{name}.json
//
// Writes are atomic replace-on-write (temp file + rename), so readers never
// observe a partially written document. There is no cross-key transaction;
// serializing writers to one key is the caller's job.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Stage categories under which artifacts are stored.
const (
	CategoryRaw       = "raw"
	CategoryAnalytics = "analytics"
	CategoryCharacter = "character"
	CategoryRun       = "run"
)

// DayFormat is the calendar-day component of an artifact path.
const DayFormat = "2006-01-02"

// ErrNotFound indicates the requested artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Identity is the (username, day) key under which all artifacts of one
// pipeline run are stored. The day is frozen when the identity is created;
// a run that crosses midnight keeps writing under its original day.
type Identity struct {
	Username string `json:"username"`
	Day      string `json:"day"`
}

// NewIdentity creates an identity keyed to the calendar day of now.
func NewIdentity(username string, now time.Time) Identity {
	return Identity{Username: username, Day: now.Format(DayFormat)}
}

// Today creates an identity keyed to the current calendar day.
func Today(username string) Identity {
	return NewIdentity(username, time.Now())
}

// String returns the identity in username/day form.
func (id Identity) String() string {
	return id.Username + "/" + id.Day
}

// Store reads and writes JSON artifacts under a root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on first write.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the filesystem location of an artifact.
func (s *Store) Path(id Identity, category, name string) string {
	return filepath.Join(s.root, id.Username, id.Day, category, name+".json")
}

// Exists reports whether an artifact has been written.
func (s *Store) Exists(id Identity, category, name string) bool {
	_, err := os.Stat(s.Path(id, category, name))
	return err == nil
}

// Write marshals v and atomically replaces the artifact document. The
// destination directory is created if needed.
func (s *Store) Write(id Identity, category, name string, v any) error {
	path := s.Path(id, category, name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace artifact %s: %w", name, err)
	}
	return nil
}

// Read unmarshals an artifact document into v. Returns ErrNotFound if the
// artifact has not been written.
func (s *Store) Read(id Identity, category, name string, v any) error {
	data, err := s.ReadRaw(id, category, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse artifact %s/%s/%s: %w", id, category, name, err)
	}
	return nil
}

// ReadRaw returns the raw bytes of an artifact document.
func (s *Store) ReadRaw(id Identity, category, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(id, category, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s/%s: %w", id, category, name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read artifact %s/%s/%s: %w", id, category, name, err)
	}
	return data, nil
}
