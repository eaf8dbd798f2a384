// Package persistence provides the task node stores: in-memory, SQLite and
// PostgreSQL implementations of domain.Store.
package persistence

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/google/uuid"
)

var errNoMemoryTransaction = errors.New("no memory transaction in context")

type edgePair struct {
	owner, dependent, prerequisite uuid.UUID
}

// MemoryStore keeps tasks and edges in process memory. It also implements
// application.UnitOfWork: writes made inside a unit are journaled and undone
// on rollback. Readers outside the unit see uncommitted writes; callers
// serialize per owner with the owner lock.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]domain.TaskSnapshot
	edges map[uuid.UUID]domain.EdgeSnapshot
	pairs map[edgePair]uuid.UUID
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[uuid.UUID]domain.TaskSnapshot),
		edges: make(map[uuid.UUID]domain.EdgeSnapshot),
		pairs: make(map[edgePair]uuid.UUID),
	}
}

type memTxKey struct{}

type memTx struct {
	undo []func()
}

type memTxInfo struct {
	tx    *memTx
	owned bool
}

func memTxFromContext(ctx context.Context) (memTxInfo, bool) {
	info, ok := ctx.Value(memTxKey{}).(memTxInfo)
	return info, ok && info.tx != nil
}

// Begin starts a unit of work or joins the one in ctx.
func (s *MemoryStore) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := memTxFromContext(ctx); ok {
		return context.WithValue(ctx, memTxKey{}, memTxInfo{tx: info.tx, owned: false}), nil
	}
	return context.WithValue(ctx, memTxKey{}, memTxInfo{tx: &memTx{}, owned: true}), nil
}

// Commit keeps the journaled writes.
func (s *MemoryStore) Commit(ctx context.Context) error {
	info, ok := memTxFromContext(ctx)
	if !ok {
		return errNoMemoryTransaction
	}
	if !info.owned {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	info.tx.undo = nil
	return nil
}

// Rollback undoes every write of the unit, newest first.
func (s *MemoryStore) Rollback(ctx context.Context) error {
	info, ok := memTxFromContext(ctx)
	if !ok {
		return errNoMemoryTransaction
	}
	if !info.owned {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(info.tx.undo) - 1; i >= 0; i-- {
		info.tx.undo[i]()
	}
	info.tx.undo = nil
	return nil
}

// journal must be called with s.mu held.
func (s *MemoryStore) journal(ctx context.Context, undo func()) {
	if info, ok := memTxFromContext(ctx); ok {
		info.tx.undo = append(info.tx.undo, undo)
	}
}

func (s *MemoryStore) GetTask(_ context.Context, owner, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.tasks[id]
	if !ok || snap.OwnerID != owner {
		return nil, domain.ErrNotFound
	}
	return domain.RehydrateTask(snap), nil
}

func (s *MemoryStore) GetTasks(_ context.Context, owner uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[uuid.UUID]*domain.Task, len(ids))
	for _, id := range ids {
		if snap, ok := s.tasks[id]; ok && snap.OwnerID == owner {
			result[id] = domain.RehydrateTask(snap)
		}
	}
	return result, nil
}

func (s *MemoryStore) GetChildren(ctx context.Context, owner, parentID uuid.UUID) ([]*domain.Task, error) {
	return s.GetChildrenOf(ctx, owner, []uuid.UUID{parentID})
}

func (s *MemoryStore) GetChildrenOf(_ context.Context, owner uuid.UUID, parentIDs []uuid.UUID) ([]*domain.Task, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	parents := toSet(parentIDs)

	s.mu.Lock()
	defer s.mu.Unlock()
	var snaps []domain.TaskSnapshot
	for _, snap := range s.tasks {
		if snap.OwnerID == owner && snap.ParentID != nil && parents[*snap.ParentID] {
			snaps = append(snaps, snap)
		}
	}
	sort.Slice(snaps, func(i, j int) bool {
		return taskLess(snaps[i], snaps[j])
	})

	tasks := make([]*domain.Task, len(snaps))
	for i, snap := range snaps {
		tasks[i] = domain.RehydrateTask(snap)
	}
	return tasks, nil
}

func (s *MemoryStore) SaveTask(ctx context.Context, t *domain.Task) error {
	snap := t.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.tasks[snap.ID]
	if snap.Version == 0 {
		if found {
			return domain.ErrConflict
		}
	} else if !found || existing.Version != snap.Version || existing.OwnerID != snap.OwnerID {
		return domain.ErrConflict
	}

	snap.Version++
	s.tasks[snap.ID] = snap
	s.journal(ctx, func() {
		if found {
			s.tasks[snap.ID] = existing
		} else {
			delete(s.tasks, snap.ID)
		}
	})
	t.IncrementVersion()
	return nil
}

// CountTasks counts the owner's active tasks.
func (s *MemoryStore) CountTasks(_ context.Context, owner uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, snap := range s.tasks {
		if snap.OwnerID == owner && snap.Active {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) GetEdge(_ context.Context, owner, id uuid.UUID) (*domain.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.edges[id]
	if !ok || snap.OwnerID != owner {
		return nil, domain.ErrNotFound
	}
	return domain.RehydrateEdge(snap), nil
}

func (s *MemoryStore) GetEdges(_ context.Context, owner uuid.UUID, filter domain.EdgeFilter) ([]*domain.Edge, error) {
	dependents := toSet(filter.DependentIDs)
	prerequisites := toSet(filter.PrerequisiteIDs)
	touching := toSet(filter.Touching)

	s.mu.Lock()
	defer s.mu.Unlock()
	var snaps []domain.EdgeSnapshot
	for _, snap := range s.edges {
		switch {
		case snap.OwnerID != owner:
			continue
		case !filter.IncludeInactive && !snap.Active:
			continue
		case len(dependents) > 0 && !dependents[snap.DependentID]:
			continue
		case len(prerequisites) > 0 && !prerequisites[snap.PrerequisiteID]:
			continue
		case len(touching) > 0 && !touching[snap.DependentID] && !touching[snap.PrerequisiteID]:
			continue
		}
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
		}
		return snaps[i].ID.String() < snaps[j].ID.String()
	})

	edges := make([]*domain.Edge, len(snaps))
	for i, snap := range snaps {
		edges[i] = domain.RehydrateEdge(snap)
	}
	return edges, nil
}

func (s *MemoryStore) SaveEdge(ctx context.Context, e *domain.Edge) error {
	snap := e.Snapshot()
	pair := edgePair{owner: snap.OwnerID, dependent: snap.DependentID, prerequisite: snap.PrerequisiteID}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.edges[snap.ID]
	if snap.Version == 0 {
		if found {
			return domain.ErrConflict
		}
		if _, taken := s.pairs[pair]; taken {
			return domain.ErrConflict
		}
	} else if !found || existing.Version != snap.Version || existing.OwnerID != snap.OwnerID {
		return domain.ErrConflict
	}

	snap.Version++
	s.edges[snap.ID] = snap
	s.pairs[pair] = snap.ID
	s.journal(ctx, func() {
		if found {
			s.edges[snap.ID] = existing
		} else {
			delete(s.edges, snap.ID)
			delete(s.pairs, pair)
		}
	})
	e.IncrementVersion()
	return nil
}

func taskLess(a, b domain.TaskSnapshot) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func toSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
