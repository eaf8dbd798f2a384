package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the task or edge does not exist, is inactive, or
	// belongs to another owner.
	ErrNotFound = errors.New("not found")

	// ErrSelfReference means both sides of a link are the same task.
	ErrSelfReference = errors.New("self reference")

	// ErrCircularReference means a parent assignment would close a loop in the tree.
	ErrCircularReference = errors.New("circular reference in task tree")

	// ErrCycleDetected means a dependency would close a cycle in the prerequisite graph.
	ErrCycleDetected = errors.New("dependency cycle detected")

	// ErrDepthLimitExceeded means a tree or dependency chain would exceed policy.
	ErrDepthLimitExceeded = errors.New("depth limit exceeded")

	// ErrDuplicateEdge means an active edge for the same ordered pair exists.
	ErrDuplicateEdge = errors.New("duplicate dependency")

	// ErrInvalidReference means a dependency endpoint is missing, inactive or
	// owned by someone else.
	ErrInvalidReference = errors.New("invalid task reference")

	ErrInvalidDependencyType = errors.New("invalid dependency type")
	ErrTaskLimitReached      = errors.New("task limit reached")
	ErrEmptyTitle            = errors.New("task title cannot be empty")
	ErrTaskInactive          = errors.New("task is inactive")

	// ErrConflict is returned by stores when a write lost an optimistic
	// concurrency race. Callers may retry the whole operation.
	ErrConflict = errors.New("concurrent modification")

	// ErrTraversalLimit means a walk ran past the iteration ceiling, which only
	// happens on corrupt data.
	ErrTraversalLimit = errors.New("traversal limit reached")
)

// GraphError is a typed validation failure. It unwraps to its Kind.
type GraphError struct {
	Kind    error
	Op      string
	TaskIDs []uuid.UUID
	// Path holds the offending chain for cycle errors, in walk order.
	Path []uuid.UUID
}

// NewGraphError builds a GraphError for op.
func NewGraphError(kind error, op string, ids ...uuid.UUID) *GraphError {
	return &GraphError{Kind: kind, Op: op, TaskIDs: ids}
}

// WithPath attaches the chain that caused the failure.
func (e *GraphError) WithPath(path []uuid.UUID) *GraphError {
	e.Path = path
	return e
}

func (e *GraphError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if len(e.TaskIDs) > 0 {
		ids := make([]string, len(e.TaskIDs))
		for i, id := range e.TaskIDs {
			ids[i] = id.String()
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(ids, ", "))
	}
	return b.String()
}

func (e *GraphError) Unwrap() error { return e.Kind }

// Kind returns the sentinel kind of err, or nil when err is not a graph
// validation failure.
func Kind(err error) error {
	for _, kind := range []error{
		ErrNotFound, ErrSelfReference, ErrCircularReference, ErrCycleDetected,
		ErrDepthLimitExceeded, ErrDuplicateEdge, ErrInvalidReference,
		ErrInvalidDependencyType, ErrTaskLimitReached, ErrEmptyTitle,
		ErrTaskInactive, ErrConflict, ErrTraversalLimit,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
