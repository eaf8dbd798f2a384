package mcp

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/google/uuid"
)

type taskDTO struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toTaskDTO(t *domain.Task) *taskDTO {
	return &taskDTO{
		ID:        t.ID(),
		Title:     t.Title(),
		ParentID:  t.ParentID(),
		Completed: t.IsCompleted(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}
}

func toTaskDTOs(tasks []*domain.Task) []*taskDTO {
	out := make([]*taskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskDTO(t)
	}
	return out
}

type edgeDTO struct {
	ID             uuid.UUID `json:"id"`
	DependentID    uuid.UUID `json:"dependent_id"`
	PrerequisiteID uuid.UUID `json:"prerequisite_id"`
	Type           string    `json:"type"`
	Description    string    `json:"description,omitempty"`
}

func toEdgeDTO(e *domain.Edge) *edgeDTO {
	return &edgeDTO{
		ID:             e.ID(),
		DependentID:    e.DependentID(),
		PrerequisiteID: e.PrerequisiteID(),
		Type:           string(e.Type()),
		Description:    e.Description(),
	}
}

func toEdgeDTOs(edges []*domain.Edge) []*edgeDTO {
	out := make([]*edgeDTO, len(edges))
	for i, e := range edges {
		out[i] = toEdgeDTO(e)
	}
	return out
}

func parseUUID(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("%s is required", field)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return id, nil
}

func parseOptionalUUID(field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseUUID(field, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// toolError gives the client the terminal message for err.
func toolError(action string, err error) error {
	return cli.Translate(action, err)
}
