package app

import (
	"fmt"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/internal/graph/infrastructure/persistence"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates the stores matching a connection's driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// TaskStore creates the task node store for the configured driver.
func (f *RepositoryFactory) TaskStore() (domain.Store, error) {
	switch f.driver {
	case database.DriverPostgres:
		return persistence.NewPostgresStore(f.conn), nil
	case database.DriverSQLite:
		return persistence.NewSQLiteStore(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates the outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return outbox.NewPostgresRepository(f.conn), nil
	case database.DriverSQLite:
		return outbox.NewSQLiteRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// UnitOfWork returns a transaction manager bound to the connection.
func (f *RepositoryFactory) UnitOfWork() *database.GenericUnitOfWork {
	return database.NewUnitOfWork(f.conn)
}
