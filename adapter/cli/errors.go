package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
)

var kindMessages = map[error]string{
	domain.ErrNotFound:              "task or dependency not found",
	domain.ErrSelfReference:         "a task cannot be linked to itself",
	domain.ErrCircularReference:     "that parent is inside the task's own subtree",
	domain.ErrCycleDetected:         "the dependency would create a cycle",
	domain.ErrDepthLimitExceeded:    "the change would exceed the configured depth limit",
	domain.ErrDuplicateEdge:         "the dependency already exists",
	domain.ErrInvalidReference:      "both tasks must exist and be active",
	domain.ErrInvalidDependencyType: "unknown dependency type (finish_to_start, start_to_start, finish_to_finish, start_to_finish)",
	domain.ErrTaskLimitReached:      "task limit reached",
	domain.ErrEmptyTitle:            "task title cannot be empty",
	domain.ErrTaskInactive:          "task has been deleted",
	domain.ErrConflict:              "the graph was changed concurrently, try again",
	domain.ErrTraversalLimit:        "the graph is too large or inconsistent to check",
}

// Translate turns engine errors into messages for people. Store and
// transport errors pass through wrapped.
func Translate(action string, err error) error {
	if err == nil {
		return nil
	}
	kind := domain.Kind(err)
	if kind == nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	msg := kindMessages[kind]
	var graphErr *domain.GraphError
	if errors.As(err, &graphErr) && len(graphErr.Path) > 0 {
		msg += fmt.Sprintf(" (path: %s)", formatPath(graphErr))
	}
	return &UserError{Message: fmt.Sprintf("cannot %s: %s", action, msg), Err: err}
}

// UserError is an error with a message meant for the terminal.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Err }

func formatPath(e *domain.GraphError) string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = shortID(id.String())
	}
	return strings.Join(parts, " -> ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
