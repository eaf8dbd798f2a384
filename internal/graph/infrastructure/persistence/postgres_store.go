package persistence

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore implements domain.Store on PostgreSQL. Batched lookups bind
// the id set as one array parameter.
type PostgresStore struct {
	conn database.Connection
}

// NewPostgresStore creates a PostgreSQL task store.
func NewPostgresStore(conn database.Connection) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (s *PostgresStore) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, s.conn)
}

// LockOwner takes a transaction scoped advisory lock on the owner. Every
// writer of the owner, in any process, queues on it until commit or
// rollback.
func (s *PostgresStore) LockOwner(ctx context.Context, owner uuid.UUID) error {
	tx := database.TxFromContext(ctx)
	if tx == nil {
		return errors.New("lock owner: no transaction in context")
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryKey(owner)); err != nil {
		return fmt.Errorf("lock owner: %w", err)
	}
	return nil
}

// advisoryKey folds the owner id into the bigint key space of advisory
// locks.
func advisoryKey(owner uuid.UUID) int64 {
	hi := binary.BigEndian.Uint64(owner[:8])
	lo := binary.BigEndian.Uint64(owner[8:])
	return int64(hi ^ lo)
}

func (s *PostgresStore) GetTask(ctx context.Context, owner, id uuid.UUID) (*domain.Task, error) {
	t, err := scanPostgresTask(s.exec(ctx).QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 AND id = $2`, owner, id))
	if database.IsNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) GetTasks(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Task, error) {
	result := make(map[uuid.UUID]*domain.Task, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := s.exec(ctx).Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 AND id = ANY($2::uuid[])`,
		owner, pq.Array(idStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	tasks, err := collect(rows, scanPostgresTask)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	for _, t := range tasks {
		result[t.ID()] = t
	}
	return result, nil
}

func (s *PostgresStore) GetChildren(ctx context.Context, owner, parentID uuid.UUID) ([]*domain.Task, error) {
	return s.GetChildrenOf(ctx, owner, []uuid.UUID{parentID})
}

func (s *PostgresStore) GetChildrenOf(ctx context.Context, owner uuid.UUID, parentIDs []uuid.UUID) ([]*domain.Task, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	rows, err := s.exec(ctx).Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		WHERE owner_id = $1 AND parent_id = ANY($2::uuid[])
		ORDER BY created_at, id`,
		owner, pq.Array(idStrings(parentIDs)))
	if err != nil {
		return nil, fmt.Errorf("load children: %w", err)
	}
	tasks, err := collect(rows, scanPostgresTask)
	if err != nil {
		return nil, fmt.Errorf("load children: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStore) SaveTask(ctx context.Context, t *domain.Task) error {
	snap := t.Snapshot()
	parent := uuid.NullUUID{}
	if snap.ParentID != nil {
		parent = uuid.NullUUID{UUID: *snap.ParentID, Valid: true}
	}

	if snap.Version == 0 {
		_, err := s.exec(ctx).Exec(ctx,
			`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)`,
			snap.ID, snap.OwnerID, snap.Title, parent, snap.Active, snap.Completed, snap.CreatedAt, snap.UpdatedAt)
		if database.IsUniqueViolation(err) {
			return domain.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		t.IncrementVersion()
		return nil
	}

	result, err := s.exec(ctx).Exec(ctx,
		`UPDATE tasks SET title = $1, parent_id = $2, active = $3, completed = $4,
			version = version + 1, updated_at = $5
		WHERE owner_id = $6 AND id = $7 AND version = $8`,
		snap.Title, parent, snap.Active, snap.Completed, snap.UpdatedAt, snap.OwnerID, snap.ID, snap.Version)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return applyVersioned(result, t.IncrementVersion)
}

// CountTasks counts the owner's active tasks.
func (s *PostgresStore) CountTasks(ctx context.Context, owner uuid.UUID) (int, error) {
	var n int
	if err := s.exec(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE owner_id = $1 AND active`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GetEdge(ctx context.Context, owner, id uuid.UUID) (*domain.Edge, error) {
	e, err := scanPostgresEdge(s.exec(ctx).QueryRow(ctx,
		`SELECT `+edgeColumns+` FROM dependencies WHERE owner_id = $1 AND id = $2`, owner, id))
	if database.IsNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dependency: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetEdges(ctx context.Context, owner uuid.UUID, filter domain.EdgeFilter) ([]*domain.Edge, error) {
	var (
		where = []string{"owner_id = $1"}
		args  = []any{owner}
	)
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !filter.IncludeInactive {
		where = append(where, "active")
	}
	if len(filter.DependentIDs) > 0 {
		where = append(where, "dependent_id = ANY("+bind(pq.Array(idStrings(filter.DependentIDs)))+"::uuid[])")
	}
	if len(filter.PrerequisiteIDs) > 0 {
		where = append(where, "prerequisite_id = ANY("+bind(pq.Array(idStrings(filter.PrerequisiteIDs)))+"::uuid[])")
	}
	if len(filter.Touching) > 0 {
		p := bind(pq.Array(idStrings(filter.Touching)))
		where = append(where, "(dependent_id = ANY("+p+"::uuid[]) OR prerequisite_id = ANY("+p+"::uuid[]))")
	}

	rows, err := s.exec(ctx).Query(ctx,
		`SELECT `+edgeColumns+` FROM dependencies WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at, id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	edges, err := collect(rows, scanPostgresEdge)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	return edges, nil
}

func (s *PostgresStore) SaveEdge(ctx context.Context, e *domain.Edge) error {
	snap := e.Snapshot()

	if snap.Version == 0 {
		_, err := s.exec(ctx).Exec(ctx,
			`INSERT INTO dependencies (`+edgeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9)`,
			snap.ID, snap.OwnerID, snap.DependentID, snap.PrerequisiteID, string(snap.Type), snap.Description,
			snap.Active, snap.CreatedAt, snap.UpdatedAt)
		if database.IsUniqueViolation(err) {
			return domain.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("insert dependency: %w", err)
		}
		e.IncrementVersion()
		return nil
	}

	result, err := s.exec(ctx).Exec(ctx,
		`UPDATE dependencies SET type = $1, description = $2, active = $3,
			version = version + 1, updated_at = $4
		WHERE owner_id = $5 AND id = $6 AND version = $7`,
		string(snap.Type), snap.Description, snap.Active, snap.UpdatedAt, snap.OwnerID, snap.ID, snap.Version)
	if err != nil {
		return fmt.Errorf("update dependency: %w", err)
	}
	return applyVersioned(result, e.IncrementVersion)
}
