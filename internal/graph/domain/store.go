package domain

import (
	"context"

	"github.com/google/uuid"
)

// EdgeFilter selects dependency edges of one owner. Empty id sets do not
// filter; a non-empty Touching set matches edges with either endpoint in it.
type EdgeFilter struct {
	DependentIDs    []uuid.UUID
	PrerequisiteIDs []uuid.UUID
	Touching        []uuid.UUID
	IncludeInactive bool
}

// Store is the task storage collaborator. Every call is scoped to one owner;
// records of other owners are invisible. Single-record loads return
// ErrNotFound when the row does not exist; inactive rows are returned so
// callers can classify them.
type Store interface {
	GetTask(ctx context.Context, owner, id uuid.UUID) (*Task, error)
	// GetTasks loads many tasks in one round trip. Missing ids are absent
	// from the result.
	GetTasks(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Task, error)
	// GetChildren returns direct children, active or not, oldest first.
	GetChildren(ctx context.Context, owner, parentID uuid.UUID) ([]*Task, error)
	// GetChildrenOf returns the direct children of every id in parentIDs.
	GetChildrenOf(ctx context.Context, owner uuid.UUID, parentIDs []uuid.UUID) ([]*Task, error)
	// SaveTask inserts or updates a task. Updates of a stale version fail
	// with ErrConflict.
	SaveTask(ctx context.Context, t *Task) error
	CountTasks(ctx context.Context, owner uuid.UUID) (int, error)

	GetEdge(ctx context.Context, owner, id uuid.UUID) (*Edge, error)
	GetEdges(ctx context.Context, owner uuid.UUID, filter EdgeFilter) ([]*Edge, error)
	// SaveEdge inserts or updates an edge; the (owner, dependent,
	// prerequisite) triple is unique.
	SaveEdge(ctx context.Context, e *Edge) error
}

// OwnerSerializer is implemented by stores shared between processes. LockOwner
// blocks until no other transaction holds the owner and keeps the owner
// until the current transaction ends.
type OwnerSerializer interface {
	LockOwner(ctx context.Context, owner uuid.UUID) error
}
