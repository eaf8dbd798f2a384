package domain

import (
	sharedDomain "github.com/felixgeelhaar/taskgraph/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	RoutingKeyTaskRegistered  = "graph.task.registered"
	RoutingKeyTaskReparented  = "graph.task.reparented"
	RoutingKeyTaskDetached    = "graph.task.detached"
	RoutingKeyTaskDeactivated = "graph.task.deactivated"
	RoutingKeyTaskCompleted   = "graph.task.completed"
	RoutingKeyTaskReopened    = "graph.task.reopened"

	RoutingKeyDependencyAdded   = "graph.dependency.added"
	RoutingKeyDependencyUpdated = "graph.dependency.updated"
	RoutingKeyDependencyRemoved = "graph.dependency.removed"
)

// TaskRegistered is emitted when a node enters the graph.
type TaskRegistered struct {
	sharedDomain.BaseEvent
	TaskID uuid.UUID `json:"task_id"`
	Title  string    `json:"title"`
}

func NewTaskRegistered(t *Task) *TaskRegistered {
	return &TaskRegistered{
		BaseEvent: sharedDomain.NewBaseEvent(t.ID(), TaskAggregateType, RoutingKeyTaskRegistered),
		TaskID:    t.ID(),
		Title:     t.title,
	}
}

// TaskReparented is emitted when a task gets a new parent.
type TaskReparented struct {
	sharedDomain.BaseEvent
	TaskID           uuid.UUID  `json:"task_id"`
	PreviousParentID *uuid.UUID `json:"previous_parent_id,omitempty"`
	ParentID         uuid.UUID  `json:"parent_id"`
}

func NewTaskReparented(taskID uuid.UUID, previous *uuid.UUID, parentID uuid.UUID) *TaskReparented {
	return &TaskReparented{
		BaseEvent:        sharedDomain.NewBaseEvent(taskID, TaskAggregateType, RoutingKeyTaskReparented),
		TaskID:           taskID,
		PreviousParentID: previous,
		ParentID:         parentID,
	}
}

// TaskDetached is emitted when a task becomes a root.
type TaskDetached struct {
	sharedDomain.BaseEvent
	TaskID           uuid.UUID `json:"task_id"`
	PreviousParentID uuid.UUID `json:"previous_parent_id"`
}

func NewTaskDetached(taskID, previous uuid.UUID) *TaskDetached {
	return &TaskDetached{
		BaseEvent:        sharedDomain.NewBaseEvent(taskID, TaskAggregateType, RoutingKeyTaskDetached),
		TaskID:           taskID,
		PreviousParentID: previous,
	}
}

// TaskDeactivated is emitted for every node switched off by a cascade.
type TaskDeactivated struct {
	sharedDomain.BaseEvent
	TaskID uuid.UUID `json:"task_id"`
}

func NewTaskDeactivated(taskID uuid.UUID) *TaskDeactivated {
	return &TaskDeactivated{
		BaseEvent: sharedDomain.NewBaseEvent(taskID, TaskAggregateType, RoutingKeyTaskDeactivated),
		TaskID:    taskID,
	}
}

// TaskCompleted is emitted when a task is marked done.
type TaskCompleted struct {
	sharedDomain.BaseEvent
	TaskID uuid.UUID `json:"task_id"`
}

func NewTaskCompleted(taskID uuid.UUID) *TaskCompleted {
	return &TaskCompleted{
		BaseEvent: sharedDomain.NewBaseEvent(taskID, TaskAggregateType, RoutingKeyTaskCompleted),
		TaskID:    taskID,
	}
}

// TaskReopened is emitted when a completed task is reopened.
type TaskReopened struct {
	sharedDomain.BaseEvent
	TaskID uuid.UUID `json:"task_id"`
}

func NewTaskReopened(taskID uuid.UUID) *TaskReopened {
	return &TaskReopened{
		BaseEvent: sharedDomain.NewBaseEvent(taskID, TaskAggregateType, RoutingKeyTaskReopened),
		TaskID:    taskID,
	}
}

// DependencyEvent carries the edge state for added/updated/removed events.
type DependencyEvent struct {
	sharedDomain.BaseEvent
	EdgeID         uuid.UUID      `json:"edge_id"`
	DependentID    uuid.UUID      `json:"dependent_id"`
	PrerequisiteID uuid.UUID      `json:"prerequisite_id"`
	Type           DependencyType `json:"type"`
}

func newDependencyEvent(e *Edge, routingKey string) *DependencyEvent {
	return &DependencyEvent{
		BaseEvent:      sharedDomain.NewBaseEvent(e.ID(), EdgeAggregateType, routingKey),
		EdgeID:         e.ID(),
		DependentID:    e.dependentID,
		PrerequisiteID: e.prerequisiteID,
		Type:           e.depType,
	}
}

func NewDependencyAdded(e *Edge) *DependencyEvent {
	return newDependencyEvent(e, RoutingKeyDependencyAdded)
}

func NewDependencyUpdated(e *Edge) *DependencyEvent {
	return newDependencyEvent(e, RoutingKeyDependencyUpdated)
}

func NewDependencyRemoved(e *Edge) *DependencyEvent {
	return newDependencyEvent(e, RoutingKeyDependencyRemoved)
}
