package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	owner := uuid.New()
	live, err := NewTask(owner, "live")
	require.NoError(t, err)
	dead, err := NewTask(owner, "dead")
	require.NoError(t, err)
	dead.Deactivate()
	foreign, err := NewTask(uuid.New(), "foreign")
	require.NoError(t, err)
	missing := uuid.New()

	switch n := Classify(owner, live.ID(), live).(type) {
	case ActiveNode:
		assert.Equal(t, live, n.Task)
	default:
		t.Fatalf("expected active node, got %T", n)
	}

	tomb, ok := Classify(owner, dead.ID(), dead).(Tombstone)
	require.True(t, ok)
	assert.Equal(t, dead, tomb.Task)

	tomb, ok = Classify(owner, foreign.ID(), foreign).(Tombstone)
	require.True(t, ok)
	assert.Nil(t, tomb.Task)

	n := Classify(owner, missing, nil)
	assert.Equal(t, missing, n.NodeID())
	assert.IsType(t, Tombstone{}, n)
}
