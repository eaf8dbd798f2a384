package domain

import "fmt"

// Limits are the structural policy values supplied by configuration.
type Limits struct {
	// MaxTreeDepth bounds the depth of any task, roots being depth 0.
	MaxTreeDepth int
	// MaxDependencyDepth bounds the number of edges on any prerequisite chain.
	MaxDependencyDepth int
	// MaxTasksPerOwner bounds how many tasks one owner may register.
	MaxTasksPerOwner int
	// TraversalCeiling stops any single walk after this many steps.
	TraversalCeiling int
	// ConflictRetries is how often an operation is retried after ErrConflict.
	ConflictRetries int
}

// DefaultLimits returns the built-in policy.
func DefaultLimits() Limits {
	return Limits{
		MaxTreeDepth:       5,
		MaxDependencyDepth: 5,
		MaxTasksPerOwner:   1000,
		TraversalCeiling:   1000,
		ConflictRetries:    3,
	}
}

// Validate rejects unusable policy values.
func (l Limits) Validate() error {
	switch {
	case l.MaxTreeDepth < 0:
		return fmt.Errorf("max tree depth must not be negative, got %d", l.MaxTreeDepth)
	case l.MaxDependencyDepth < 1:
		return fmt.Errorf("max dependency depth must be at least 1, got %d", l.MaxDependencyDepth)
	case l.MaxTasksPerOwner < 1:
		return fmt.Errorf("max tasks per owner must be at least 1, got %d", l.MaxTasksPerOwner)
	case l.TraversalCeiling < 1:
		return fmt.Errorf("traversal ceiling must be at least 1, got %d", l.TraversalCeiling)
	case l.ConflictRetries < 0:
		return fmt.Errorf("conflict retries must not be negative, got %d", l.ConflictRetries)
	}
	return nil
}
