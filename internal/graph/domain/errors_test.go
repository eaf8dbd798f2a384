package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGraphError(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	err := NewGraphError(ErrCycleDetected, "add dependency", a, b).WithPath([]uuid.UUID{b, a})

	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.Contains(t, err.Error(), "add dependency: dependency cycle detected")
	assert.Contains(t, err.Error(), a.String())

	var ge *GraphError
	wrapped := fmt.Errorf("batch item 2: %w", err)
	assert.True(t, errors.As(wrapped, &ge))
	assert.Equal(t, []uuid.UUID{b, a}, ge.Path)
}

func TestKind(t *testing.T) {
	assert.Equal(t, ErrSelfReference, Kind(NewGraphError(ErrSelfReference, "set parent")))
	assert.Equal(t, ErrNotFound, Kind(fmt.Errorf("load: %w", ErrNotFound)))
	assert.Nil(t, Kind(errors.New("disk on fire")))
	assert.Nil(t, Kind(nil))
}
