package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteStore implements domain.Store on SQLite. Every statement runs on the
// transaction in ctx when there is one.
type SQLiteStore struct {
	conn database.Connection
}

// NewSQLiteStore creates a SQLite task store.
func NewSQLiteStore(conn database.Connection) *SQLiteStore {
	return &SQLiteStore{conn: conn}
}

func (s *SQLiteStore) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, s.conn)
}

func (s *SQLiteStore) GetTask(ctx context.Context, owner, id uuid.UUID) (*domain.Task, error) {
	t, err := scanSQLiteTask(s.exec(ctx).QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? AND id = ?`,
		owner.String(), id.String()))
	if database.IsNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) GetTasks(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Task, error) {
	result := make(map[uuid.UUID]*domain.Task, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	args := append([]any{owner.String()}, idArgs(ids)...)
	rows, err := s.exec(ctx).Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? AND id IN (`+placeholders(len(ids))+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	tasks, err := collect(rows, scanSQLiteTask)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	for _, t := range tasks {
		result[t.ID()] = t
	}
	return result, nil
}

func (s *SQLiteStore) GetChildren(ctx context.Context, owner, parentID uuid.UUID) ([]*domain.Task, error) {
	return s.GetChildrenOf(ctx, owner, []uuid.UUID{parentID})
}

func (s *SQLiteStore) GetChildrenOf(ctx context.Context, owner uuid.UUID, parentIDs []uuid.UUID) ([]*domain.Task, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	args := append([]any{owner.String()}, idArgs(parentIDs)...)
	rows, err := s.exec(ctx).Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		WHERE owner_id = ? AND parent_id IN (`+placeholders(len(parentIDs))+`)
		ORDER BY created_at, id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("load children: %w", err)
	}
	tasks, err := collect(rows, scanSQLiteTask)
	if err != nil {
		return nil, fmt.Errorf("load children: %w", err)
	}
	return tasks, nil
}

func (s *SQLiteStore) SaveTask(ctx context.Context, t *domain.Task) error {
	snap := t.Snapshot()
	parent := sql.NullString{}
	if snap.ParentID != nil {
		parent = sql.NullString{String: snap.ParentID.String(), Valid: true}
	}

	if snap.Version == 0 {
		_, err := s.exec(ctx).Exec(ctx,
			`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			snap.ID.String(), snap.OwnerID.String(), snap.Title, parent, snap.Active, snap.Completed,
			database.FormatTime(snap.CreatedAt), database.FormatTime(snap.UpdatedAt))
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
		`UPDATE tasks SET title = ?, parent_id = ?, active = ?, completed = ?,
			version = version + 1, updated_at = ?
		WHERE owner_id = ? AND id = ? AND version = ?`,
		snap.Title, parent, snap.Active, snap.Completed, database.FormatTime(snap.UpdatedAt),
		snap.OwnerID.String(), snap.ID.String(), snap.Version)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return applyVersioned(result, t.IncrementVersion)
}

// CountTasks counts the owner's active tasks.
func (s *SQLiteStore) CountTasks(ctx context.Context, owner uuid.UUID) (int, error) {
	var n int
	if err := s.exec(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE owner_id = ? AND active = 1`, owner.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) GetEdge(ctx context.Context, owner, id uuid.UUID) (*domain.Edge, error) {
	e, err := scanSQLiteEdge(s.exec(ctx).QueryRow(ctx,
		`SELECT `+edgeColumns+` FROM dependencies WHERE owner_id = ? AND id = ?`,
		owner.String(), id.String()))
	if database.IsNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dependency: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) GetEdges(ctx context.Context, owner uuid.UUID, filter domain.EdgeFilter) ([]*domain.Edge, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []any{owner.String()}
	)
	if !filter.IncludeInactive {
		where = append(where, "active = 1")
	}
	if len(filter.DependentIDs) > 0 {
		where = append(where, "dependent_id IN ("+placeholders(len(filter.DependentIDs))+")")
		args = append(args, idArgs(filter.DependentIDs)...)
	}
	if len(filter.PrerequisiteIDs) > 0 {
		where = append(where, "prerequisite_id IN ("+placeholders(len(filter.PrerequisiteIDs))+")")
		args = append(args, idArgs(filter.PrerequisiteIDs)...)
	}
	if len(filter.Touching) > 0 {
		in := placeholders(len(filter.Touching))
		where = append(where, "(dependent_id IN ("+in+") OR prerequisite_id IN ("+in+"))")
		args = append(args, idArgs(filter.Touching)...)
		args = append(args, idArgs(filter.Touching)...)
	}

	rows, err := s.exec(ctx).Query(ctx,
		`SELECT `+edgeColumns+` FROM dependencies WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at, id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	edges, err := collect(rows, scanSQLiteEdge)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	return edges, nil
}

func (s *SQLiteStore) SaveEdge(ctx context.Context, e *domain.Edge) error {
	snap := e.Snapshot()

	if snap.Version == 0 {
		_, err := s.exec(ctx).Exec(ctx,
			`INSERT INTO dependencies (`+edgeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			snap.ID.String(), snap.OwnerID.String(), snap.DependentID.String(), snap.PrerequisiteID.String(),
			string(snap.Type), snap.Description, snap.Active,
			database.FormatTime(snap.CreatedAt), database.FormatTime(snap.UpdatedAt))
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
		`UPDATE dependencies SET type = ?, description = ?, active = ?,
			version = version + 1, updated_at = ?
		WHERE owner_id = ? AND id = ? AND version = ?`,
		string(snap.Type), snap.Description, snap.Active, database.FormatTime(snap.UpdatedAt),
		snap.OwnerID.String(), snap.ID.String(), snap.Version)
	if err != nil {
		return fmt.Errorf("update dependency: %w", err)
	}
	return applyVersioned(result, e.IncrementVersion)
}

// applyVersioned maps a version-checked UPDATE that matched no row to
// ErrConflict.
func applyVersioned(result database.Result, bump func()) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrConflict
	}
	bump()
	return nil
}
