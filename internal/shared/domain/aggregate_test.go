package domain_test

import (
	"testing"

	"github.com/felixgeelhaar/taskgraph/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testAggregate struct {
	domain.BaseAggregateRoot
}

func TestBaseAggregateRoot_RecordsAndClearsEvents(t *testing.T) {
	agg := &testAggregate{BaseAggregateRoot: domain.NewBaseAggregateRoot()}
	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Empty(t, agg.DomainEvents())

	agg.AddDomainEvent(domain.NewBaseEvent(agg.ID(), "Test", "test.created"))
	agg.AddDomainEvent(domain.NewBaseEvent(agg.ID(), "Test", "test.updated"))
	assert.Len(t, agg.DomainEvents(), 2)
	assert.Equal(t, "test.updated", agg.DomainEvents()[1].RoutingKey())

	agg.ClearDomainEvents()
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_Version(t *testing.T) {
	id := uuid.New()
	entity := domain.NewBaseEntityWithID(id)
	agg := domain.RehydrateBaseAggregateRoot(entity, 4)

	assert.Equal(t, id, agg.ID())
	assert.Equal(t, 4, agg.Version())
	agg.IncrementVersion()
	assert.Equal(t, 5, agg.Version())
}
