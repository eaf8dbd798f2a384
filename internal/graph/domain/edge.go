package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/taskgraph/internal/shared/domain"
	"github.com/google/uuid"
)

// EdgeAggregateType names dependency edges in events and the outbox.
const EdgeAggregateType = "Dependency"

// DependencyType describes how the prerequisite gates the dependent.
type DependencyType string

const (
	FinishToStart  DependencyType = "finish_to_start"
	StartToStart   DependencyType = "start_to_start"
	FinishToFinish DependencyType = "finish_to_finish"
	StartToFinish  DependencyType = "start_to_finish"
)

// ParseDependencyType parses a type name; empty means finish_to_start.
func ParseDependencyType(s string) (DependencyType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	if s == "" {
		return FinishToStart, nil
	}
	t := DependencyType(s)
	if !t.IsValid() {
		return "", ErrInvalidDependencyType
	}
	return t, nil
}

func (t DependencyType) String() string { return string(t) }

// IsValid reports whether t is a known type.
func (t DependencyType) IsValid() bool {
	switch t {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	default:
		return false
	}
}

// Edge is a prerequisite link: the dependent cannot start until the
// prerequisite is complete. The ordered pair is unique per owner.
type Edge struct {
	sharedDomain.BaseAggregateRoot
	ownerID        uuid.UUID
	dependentID    uuid.UUID
	prerequisiteID uuid.UUID
	depType        DependencyType
	description    string
	active         bool
}

// NewEdge creates an active edge. Graph-level validation happens in the
// dependency manager before this is called.
func NewEdge(ownerID, dependentID, prerequisiteID uuid.UUID, depType DependencyType, description string) (*Edge, error) {
	if dependentID == prerequisiteID {
		return nil, ErrSelfReference
	}
	if !depType.IsValid() {
		return nil, ErrInvalidDependencyType
	}
	e := &Edge{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		ownerID:           ownerID,
		dependentID:       dependentID,
		prerequisiteID:    prerequisiteID,
		depType:           depType,
		description:       strings.TrimSpace(description),
		active:            true,
	}
	e.AddDomainEvent(NewDependencyAdded(e))
	return e, nil
}

// EdgeSnapshot is the stored form of an edge.
type EdgeSnapshot struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	DependentID    uuid.UUID
	PrerequisiteID uuid.UUID
	Type           DependencyType
	Description    string
	Active         bool
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RehydrateEdge rebuilds an edge from storage.
func RehydrateEdge(s EdgeSnapshot) *Edge {
	return &Edge{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt),
			s.Version,
		),
		ownerID:        s.OwnerID,
		dependentID:    s.DependentID,
		prerequisiteID: s.PrerequisiteID,
		depType:        s.Type,
		description:    s.Description,
		active:         s.Active,
	}
}

// Snapshot returns the stored form of the edge.
func (e *Edge) Snapshot() EdgeSnapshot {
	return EdgeSnapshot{
		ID:             e.ID(),
		OwnerID:        e.ownerID,
		DependentID:    e.dependentID,
		PrerequisiteID: e.prerequisiteID,
		Type:           e.depType,
		Description:    e.description,
		Active:         e.active,
		Version:        e.Version(),
		CreatedAt:      e.CreatedAt(),
		UpdatedAt:      e.UpdatedAt(),
	}
}

func (e *Edge) OwnerID() uuid.UUID        { return e.ownerID }
func (e *Edge) DependentID() uuid.UUID    { return e.dependentID }
func (e *Edge) PrerequisiteID() uuid.UUID { return e.prerequisiteID }
func (e *Edge) Type() DependencyType      { return e.depType }
func (e *Edge) Description() string       { return e.description }
func (e *Edge) IsActive() bool            { return e.active }

// Touches reports whether either endpoint is id.
func (e *Edge) Touches(id uuid.UUID) bool {
	return e.dependentID == id || e.prerequisiteID == id
}

// Update changes type and description of an active edge.
func (e *Edge) Update(depType DependencyType, description string) error {
	if !e.active {
		return ErrNotFound
	}
	if !depType.IsValid() {
		return ErrInvalidDependencyType
	}
	e.depType = depType
	e.description = strings.TrimSpace(description)
	e.Touch()
	e.AddDomainEvent(NewDependencyUpdated(e))
	return nil
}

// Reactivate revives a removed edge for the same ordered pair.
func (e *Edge) Reactivate(depType DependencyType, description string) error {
	if e.active {
		return ErrDuplicateEdge
	}
	if !depType.IsValid() {
		return ErrInvalidDependencyType
	}
	e.active = true
	e.depType = depType
	e.description = strings.TrimSpace(description)
	e.Touch()
	e.AddDomainEvent(NewDependencyAdded(e))
	return nil
}

// Remove soft-deletes the edge, reporting whether state changed.
func (e *Edge) Remove() bool {
	if !e.active {
		return false
	}
	e.active = false
	e.Touch()
	e.AddDomainEvent(NewDependencyRemoved(e))
	return true
}
