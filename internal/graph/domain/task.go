package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/taskgraph/internal/shared/domain"
	"github.com/google/uuid"
)

// TaskAggregateType names task records in events and the outbox.
const TaskAggregateType = "Task"

// Task is a node of both the containment tree and the prerequisite graph.
// Only the structural attributes are owned by the engine; the title is kept
// for presentation.
type Task struct {
	sharedDomain.BaseAggregateRoot
	ownerID   uuid.UUID
	title     string
	parentID  *uuid.UUID
	active    bool
	completed bool
}

// NewTask creates an active, incomplete root task.
func NewTask(ownerID uuid.UUID, title string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	t := &Task{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		ownerID:           ownerID,
		title:             title,
		active:            true,
	}
	t.AddDomainEvent(NewTaskRegistered(t))
	return t, nil
}

// TaskSnapshot is the stored form of a task.
type TaskSnapshot struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Title     string
	ParentID  *uuid.UUID
	Active    bool
	Completed bool
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RehydrateTask rebuilds a task from storage without recording events.
func RehydrateTask(s TaskSnapshot) *Task {
	return &Task{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt),
			s.Version,
		),
		ownerID:   s.OwnerID,
		title:     s.Title,
		parentID:  copyID(s.ParentID),
		active:    s.Active,
		completed: s.Completed,
	}
}

// Snapshot returns the stored form of the task.
func (t *Task) Snapshot() TaskSnapshot {
	return TaskSnapshot{
		ID:        t.ID(),
		OwnerID:   t.ownerID,
		Title:     t.title,
		ParentID:  copyID(t.parentID),
		Active:    t.active,
		Completed: t.completed,
		Version:   t.Version(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}
}

func (t *Task) OwnerID() uuid.UUID   { return t.ownerID }
func (t *Task) Title() string        { return t.title }
func (t *Task) ParentID() *uuid.UUID { return copyID(t.parentID) }
func (t *Task) IsActive() bool       { return t.active }
func (t *Task) IsCompleted() bool    { return t.completed }
func (t *Task) IsRoot() bool         { return t.parentID == nil }

// HasParent reports whether the task is currently parented to id.
func (t *Task) HasParent(id uuid.UUID) bool {
	return t.parentID != nil && *t.parentID == id
}

// AttachTo sets the parent link. Validation of the tree lives in the
// hierarchy manager; the aggregate only guards its own state.
func (t *Task) AttachTo(parentID uuid.UUID) error {
	if !t.active {
		return ErrTaskInactive
	}
	if parentID == t.ID() {
		return ErrSelfReference
	}
	var previous *uuid.UUID
	if t.parentID != nil {
		previous = copyID(t.parentID)
	}
	t.parentID = &parentID
	t.Touch()
	t.AddDomainEvent(NewTaskReparented(t.ID(), previous, parentID))
	return nil
}

// Detach clears the parent link. Detaching a root is a no-op.
func (t *Task) Detach() error {
	if !t.active {
		return ErrTaskInactive
	}
	if t.parentID == nil {
		return nil
	}
	previous := *t.parentID
	t.parentID = nil
	t.Touch()
	t.AddDomainEvent(NewTaskDetached(t.ID(), previous))
	return nil
}

// Deactivate soft-deletes the task. It reports whether state changed.
func (t *Task) Deactivate() bool {
	if !t.active {
		return false
	}
	t.active = false
	t.Touch()
	t.AddDomainEvent(NewTaskDeactivated(t.ID()))
	return true
}

// Complete marks the task done.
func (t *Task) Complete() error {
	if !t.active {
		return ErrTaskInactive
	}
	if t.completed {
		return nil
	}
	t.completed = true
	t.Touch()
	t.AddDomainEvent(NewTaskCompleted(t.ID()))
	return nil
}

// Reopen marks a completed task as not done.
func (t *Task) Reopen() error {
	if !t.active {
		return ErrTaskInactive
	}
	if !t.completed {
		return nil
	}
	t.completed = false
	t.Touch()
	t.AddDomainEvent(NewTaskReopened(t.ID()))
	return nil
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
