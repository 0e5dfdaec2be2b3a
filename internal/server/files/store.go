package files

import (
	"fmt"
	"sort"
	"sync"

	"github.com/filedrop/filedrop/internal/server/models"
)

// Store is the in-memory metadata index: records keyed by file id with a
// secondary index by owner. It is shared mutable state hit by concurrent
// requests, so every operation takes the lock; lookups return copies.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*models.FileInfo
	byOwner map[string]map[string]struct{}
	byKey   map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		byID:    make(map[string]*models.FileInfo),
		byOwner: make(map[string]map[string]struct{}),
		byKey:   make(map[string]struct{}),
	}
}

// Insert adds a new record. Both the id and the storage key must be unique
// for the lifetime of the process.
func (s *Store) Insert(rec models.FileInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rec.ID]; exists {
		return fmt.Errorf("duplicate file id %q", rec.ID)
	}
	if _, exists := s.byKey[rec.StorageKey]; exists {
		return fmt.Errorf("duplicate storage key %q", rec.StorageKey)
	}

	stored := rec
	s.byID[rec.ID] = &stored
	s.byKey[rec.StorageKey] = struct{}{}

	owned, ok := s.byOwner[rec.OwnerID]
	if !ok {
		owned = make(map[string]struct{})
		s.byOwner[rec.OwnerID] = owned
	}
	owned[rec.ID] = struct{}{}

	return nil
}

// Get returns the record matching both id and owner. A record owned by
// someone else reads exactly like a missing one.
func (s *Store) Get(id, ownerID string) (models.FileInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok || rec.OwnerID != ownerID {
		return models.FileInfo{}, false
	}
	return *rec, true
}

// ListByOwner returns the owner's records ordered by upload time, oldest
// first (ties broken by id for a stable order).
func (s *Store) ListByOwner(ownerID string) []models.FileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byOwner[ownerID]
	out := make([]models.FileInfo, 0, len(ids))
	for id := range ids {
		out = append(out, *s.byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SetSize updates a record's size in place, last write wins. It reports
// whether the id was known; callers treat an unknown id as a no-op.
func (s *Store) SetSize(id string, size int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return false
	}
	rec.Size = size
	return true
}

// Remove deletes the record matching both id and owner and reports whether
// anything was removed.
func (s *Store) Remove(id, ownerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok || rec.OwnerID != ownerID {
		return false
	}

	delete(s.byID, id)
	delete(s.byKey, rec.StorageKey)
	if owned := s.byOwner[rec.OwnerID]; owned != nil {
		delete(owned, id)
		if len(owned) == 0 {
			delete(s.byOwner, rec.OwnerID)
		}
	}
	return true
}

// Len returns the number of records in the index.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
