// Package registry persists the shared projects document and performs the
// read-modify-write merge that registration relies on. The document is
// shared with the downstream execution service's provisioning process, so
// every access takes a cross-process file lock in addition to the
// in-process mutex.
package registry

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// Store manages the projects document on disk.
type Store struct {
	filePath string
	flock    *flock.Flock
	mu       sync.Mutex
}

// NewStore creates a Store for the document at filePath. The document itself
// is provisioned out-of-band; a missing file is treated as an empty registry.
func NewStore(filePath string) (*Store, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	return &Store{
		filePath: filePath,
		flock:    flock.New(filePath + ".lock"),
	}, nil
}

// Path returns the document location.
func (s *Store) Path() string { return s.filePath }

// Merge inserts or replaces every entry and persists the result, returning
// deep copies of the registry before and after the mutation. The read,
// merge, and write happen inside one critical section; the lock is released
// before the caller goes anywhere near the network.
func (s *Store) Merge(entries map[ProjectID]ProjectEntry) (before, after Registry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flock.Lock(); err != nil {
		return nil, nil, fmt.Errorf("failed to lock projects file: %w", err)
	}
	defer func() {
		if uerr := s.flock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("failed to unlock projects file: %w", uerr)
		}
	}()

	before = s.loadLocked()

	after = before.Clone()
	for id, e := range entries {
		after[id] = e.Clone()
	}

	if err := s.saveLocked(after); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// Snapshot returns a deep copy of the current registry without mutating
// anything.
func (s *Store) Snapshot() (Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock projects file: %w", err)
	}
	defer func() { _ = s.flock.Unlock() }()

	return s.loadLocked(), nil
}

// loadLocked reads the document, failing open on corruption: a document that
// cannot be parsed is preserved next to the original and the registry is
// treated as empty so that registration stays available. Caller holds both
// locks.
func (s *Store) loadLocked() Registry {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] failed to read projects file %s: %v", s.filePath, err)
		}
		return Registry{}
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		log.Printf("[WARN] projects file %s is not valid JSON, treating as empty: %v", s.filePath, err)
		s.preserveCorrupt(data)
		return Registry{}
	}
	if reg == nil {
		reg = Registry{}
	}
	return reg
}

// preserveCorrupt keeps the unparseable bytes so a fail-open merge does not
// silently destroy whatever was on disk.
func (s *Store) preserveCorrupt(data []byte) {
	backup := s.filePath + ".corrupt"
	if err := os.WriteFile(backup, data, 0o600); err != nil {
		log.Printf("[WARN] failed to preserve corrupt projects file at %s: %v", backup, err)
		return
	}
	log.Printf("[INFO] preserved corrupt projects file at %s", backup)
}

// saveLocked persists the registry atomically: a concurrent reader sees
// either the old document or the new one, never a truncated write. Caller
// holds both locks.
func (s *Store) saveLocked(reg Registry) error {
	dir := filepath.Dir(s.filePath)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal projects: %w", err)
	}
	data = append(data, '\n')

	f, err := os.CreateTemp(dir, ".projects-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	// Best-effort cleanup if we fail
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write projects: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to fsync projects: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close projects file: %w", err)
	}

	// Atomic replace
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("failed to replace projects file: %w", err)
	}

	// Ensure directory metadata is persisted
	if dirf, err := os.Open(dir); err == nil {
		_ = dirf.Sync()
		_ = dirf.Close()
	}

	return nil
}
