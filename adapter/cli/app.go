package cli

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/taskgraph/internal/graph/application/services"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
)

// ErrNotInitialized is returned by commands run without an App.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// App holds the CLI application dependencies.
type App struct {
	Engine *services.Engine
	Health *observability.HealthRegistry

	// FlushEvents relays pending outbox events after each command.
	FlushEvents func(ctx context.Context) error
	// WatchEvents delivers graph events to consumer until ctx is done. A
	// nil consumer only keeps the outbox relay running.
	WatchEvents func(ctx context.Context, consumer eventbus.EventConsumer) error

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp creates a new CLI application around engine.
func NewApp(engine *services.Engine, health *observability.HealthRegistry) *App {
	if health == nil {
		health = observability.NewHealthRegistry()
	}
	return &App{
		Engine:        engine,
		Health:        health,
		CurrentUserID: uuid.Nil,
	}
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the App or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil || app.Engine == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}
