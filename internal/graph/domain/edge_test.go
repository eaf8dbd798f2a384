package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDependencyType(t *testing.T) {
	tests := []struct {
		in      string
		want    DependencyType
		wantErr bool
	}{
		{in: "", want: FinishToStart},
		{in: "finish_to_start", want: FinishToStart},
		{in: "Finish-To-Start", want: FinishToStart},
		{in: "start_to_start", want: StartToStart},
		{in: "finish_to_finish", want: FinishToFinish},
		{in: " start-to-finish ", want: StartToFinish},
		{in: "blocks", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDependencyType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDependencyType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEdge(t *testing.T) {
	owner, a, b := uuid.New(), uuid.New(), uuid.New()

	e, err := NewEdge(owner, a, b, FinishToStart, " needs review ")
	require.NoError(t, err)
	assert.Equal(t, a, e.DependentID())
	assert.Equal(t, b, e.PrerequisiteID())
	assert.Equal(t, "needs review", e.Description())
	assert.True(t, e.IsActive())
	assert.True(t, e.Touches(a))
	assert.True(t, e.Touches(b))
	assert.False(t, e.Touches(owner))

	_, err = NewEdge(owner, a, a, FinishToStart, "")
	assert.ErrorIs(t, err, ErrSelfReference)

	_, err = NewEdge(owner, a, b, DependencyType("sideways"), "")
	assert.ErrorIs(t, err, ErrInvalidDependencyType)
}

func TestEdge_Lifecycle(t *testing.T) {
	e, err := NewEdge(uuid.New(), uuid.New(), uuid.New(), FinishToStart, "")
	require.NoError(t, err)
	e.ClearDomainEvents()

	require.NoError(t, e.Update(StartToStart, "parallel start"))
	assert.Equal(t, StartToStart, e.Type())

	assert.ErrorIs(t, e.Reactivate(FinishToStart, ""), ErrDuplicateEdge)

	assert.True(t, e.Remove())
	assert.False(t, e.Remove())
	assert.ErrorIs(t, e.Update(FinishToStart, ""), ErrNotFound)

	require.NoError(t, e.Reactivate(FinishToFinish, "again"))
	assert.True(t, e.IsActive())
	assert.Equal(t, FinishToFinish, e.Type())

	keys := make([]string, 0, len(e.DomainEvents()))
	for _, ev := range e.DomainEvents() {
		keys = append(keys, ev.RoutingKey())
	}
	assert.Equal(t, []string{RoutingKeyDependencyUpdated, RoutingKeyDependencyRemoved, RoutingKeyDependencyAdded}, keys)
}
