// Package memory provides the default in-memory implementation of storage.Store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps group snapshots in a map. Snapshots are cloned on the way in
// and on the way out, so callers never share slices with the store.
type Store struct {
	mu     sync.RWMutex
	groups map[string]models.Group
	order  []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{groups: make(map[string]models.Group)}
}

// SaveGroup inserts or replaces a snapshot.
func (s *Store) SaveGroup(ctx context.Context, group models.Group) error {
	if group.ID == "" {
		return fmt.Errorf("group id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[group.ID]; !exists {
		s.order = append(s.order, group.ID)
	}
	s.groups[group.ID] = group.Clone()
	return nil
}

// LoadGroup returns a copy of the stored snapshot.
func (s *Store) LoadGroup(ctx context.Context, groupID string) (models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[groupID]
	if !ok {
		return models.Group{}, fmt.Errorf("%w: %s", storage.ErrNotFound, groupID)
	}
	return group.Clone(), nil
}

// ListGroups returns copies of every snapshot in creation order.
func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.Group, 0, len(s.order))
	for _, id := range s.order {
		groups = append(groups, s.groups[id].Clone())
	}
	return groups, nil
}

// DeleteGroup removes a snapshot.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, groupID)
	}
	delete(s.groups, groupID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == groupID })
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
