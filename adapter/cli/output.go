package cli

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/google/uuid"
)

// ParseID parses a command argument naming what.
func ParseID(s, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID %q: %w", what, s, err)
	}
	return id, nil
}

// PrintTask writes a one-line summary of t.
func PrintTask(w io.Writer, t *domain.Task) {
	status := "open"
	if t.IsCompleted() {
		status = "done"
	}
	parent := "-"
	if p := t.ParentID(); p != nil {
		parent = p.String()
	}
	fmt.Fprintf(w, "%s  %-4s  parent=%s  %s\n", t.ID(), status, parent, t.Title())
}

// PrintEdge writes a one-line summary of e.
func PrintEdge(w io.Writer, e *domain.Edge) {
	fmt.Fprintf(w, "%s  %s -> %s  %s", e.ID(), e.DependentID(), e.PrerequisiteID(), e.Type())
	if e.Description() != "" {
		fmt.Fprintf(w, "  %q", e.Description())
	}
	fmt.Fprintln(w)
}
