package domain

import "github.com/google/uuid"

// Node is a store record classified for traversal: either an ActiveNode or a
// Tombstone. Deactivated and missing records are both tombstones, so every
// walk has to say explicitly what it does with them.
type Node interface {
	NodeID() uuid.UUID
	sealed()
}

// ActiveNode wraps a live task.
type ActiveNode struct {
	Task *Task
}

// Tombstone stands in for a task that is inactive or absent.
type Tombstone struct {
	ID uuid.UUID
	// Task is the inactive record, nil when the row does not exist.
	Task *Task
}

func (n ActiveNode) NodeID() uuid.UUID { return n.Task.ID() }
func (n Tombstone) NodeID() uuid.UUID  { return n.ID }

func (ActiveNode) sealed() {}
func (Tombstone) sealed()  {}

// Classify turns a loaded record into a Node. A nil task or one owned by
// someone else is a tombstone without a record.
func Classify(owner, id uuid.UUID, t *Task) Node {
	if t == nil || t.OwnerID() != owner {
		return Tombstone{ID: id}
	}
	if !t.IsActive() {
		return Tombstone{ID: id, Task: t}
	}
	return ActiveNode{Task: t}
}
