package persistence

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const taskColumns = `id, owner_id, title, parent_id, active, completed, version, created_at, updated_at`

const edgeColumns = `id, owner_id, dependent_id, prerequisite_id, type, description, active, version, created_at, updated_at`

// sqliteTaskRow mirrors the SQLite tasks table, where ids and timestamps
// are stored as text.
type sqliteTaskRow struct {
	ID, OwnerID, Title   string
	ParentID             sql.NullString
	Active, Completed    bool
	Version              int
	CreatedAt, UpdatedAt string
}

func scanSQLiteTask(row database.Row) (*domain.Task, error) {
	var r sqliteTaskRow
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &r.ParentID, &r.Active, &r.Completed,
		&r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}

	snap := domain.TaskSnapshot{Title: r.Title, Active: r.Active, Completed: r.Completed, Version: r.Version}
	var err error
	if snap.ID, err = uuid.Parse(r.ID); err != nil {
		return nil, fmt.Errorf("task id: %w", err)
	}
	if snap.OwnerID, err = uuid.Parse(r.OwnerID); err != nil {
		return nil, fmt.Errorf("task owner id: %w", err)
	}
	if r.ParentID.Valid {
		parent, err := uuid.Parse(r.ParentID.String)
		if err != nil {
			return nil, fmt.Errorf("task parent id: %w", err)
		}
		snap.ParentID = &parent
	}
	if snap.CreatedAt, err = database.ParseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if snap.UpdatedAt, err = database.ParseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateTask(snap), nil
}

type sqliteEdgeRow struct {
	ID, OwnerID, DependentID, PrerequisiteID string
	Type, Description                        string
	Active                                   bool
	Version                                  int
	CreatedAt, UpdatedAt                     string
}

func scanSQLiteEdge(row database.Row) (*domain.Edge, error) {
	var r sqliteEdgeRow
	if err := row.Scan(&r.ID, &r.OwnerID, &r.DependentID, &r.PrerequisiteID, &r.Type, &r.Description,
		&r.Active, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}

	snap := domain.EdgeSnapshot{
		Type:        domain.DependencyType(r.Type),
		Description: r.Description,
		Active:      r.Active,
		Version:     r.Version,
	}
	ids := []struct {
		dst *uuid.UUID
		src string
	}{
		{&snap.ID, r.ID}, {&snap.OwnerID, r.OwnerID},
		{&snap.DependentID, r.DependentID}, {&snap.PrerequisiteID, r.PrerequisiteID},
	}
	for _, id := range ids {
		parsed, err := uuid.Parse(id.src)
		if err != nil {
			return nil, fmt.Errorf("edge id: %w", err)
		}
		*id.dst = parsed
	}
	var err error
	if snap.CreatedAt, err = database.ParseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if snap.UpdatedAt, err = database.ParseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateEdge(snap), nil
}

func scanPostgresTask(row database.Row) (*domain.Task, error) {
	var (
		snap   domain.TaskSnapshot
		parent uuid.NullUUID
	)
	if err := row.Scan(&snap.ID, &snap.OwnerID, &snap.Title, &parent, &snap.Active, &snap.Completed,
		&snap.Version, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		snap.ParentID = &parent.UUID
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	snap.UpdatedAt = snap.UpdatedAt.UTC()
	return domain.RehydrateTask(snap), nil
}

func scanPostgresEdge(row database.Row) (*domain.Edge, error) {
	var (
		snap    domain.EdgeSnapshot
		depType string
	)
	if err := row.Scan(&snap.ID, &snap.OwnerID, &snap.DependentID, &snap.PrerequisiteID, &depType,
		&snap.Description, &snap.Active, &snap.Version, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
		return nil, err
	}
	snap.Type = domain.DependencyType(depType)
	snap.CreatedAt = snap.CreatedAt.UTC()
	snap.UpdatedAt = snap.UpdatedAt.UTC()
	return domain.RehydrateEdge(snap), nil
}

func collect[T any](rows database.Rows, scan func(database.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var result []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func idArgs(ids []uuid.UUID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
