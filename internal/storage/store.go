// Package storage provides abstractions for keeping group snapshots.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitchain/internal/models"
)

// ErrNotFound is returned when no group has the requested ID.
var ErrNotFound = errors.New("group not found")

// Store defines the load/save contract for group snapshots.
// This abstraction allows swapping backends (memory, SQLite) without
// changing the service layer. Implementations must not retain references
// to the slices of a saved group.
type Store interface {
	// SaveGroup inserts or replaces the snapshot with group.ID.
	SaveGroup(ctx context.Context, group models.Group) error

	// LoadGroup returns the snapshot with the given ID, or ErrNotFound.
	LoadGroup(ctx context.Context, groupID string) (models.Group, error)

	// ListGroups returns every group, oldest first.
	ListGroups(ctx context.Context) ([]models.Group, error)

	// DeleteGroup removes a group and its expenses, or returns ErrNotFound.
	DeleteGroup(ctx context.Context, groupID string) error

	// Close releases any resources held by the store.
	Close() error
}
