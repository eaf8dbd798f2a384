package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/taskgraph/internal/app"
	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RegistersTools(t *testing.T) {
	limits := domain.DefaultLimits()
	cfg := &config.Config{
		AppEnv:             "test",
		MaxTreeDepth:       limits.MaxTreeDepth,
		MaxDependencyDepth: limits.MaxDependencyDepth,
		MaxTasksPerOwner:   limits.MaxTasksPerOwner,
		ConflictRetries:    limits.ConflictRetries,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := app.NewMemoryContainer(cfg, logger)
	require.NoError(t, err)
	defer container.Close()

	owner := uuid.New()
	cliApp := NewCLIApp(container, owner)
	assert.Equal(t, owner, cliApp.CurrentUserID)
	assert.NotNil(t, cliApp.WatchEvents)

	srv, err := NewServer(cliApp, "", logger)
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)
	assert.NotEmpty(t, tools)
}

func TestNewServer_RequiresApp(t *testing.T) {
	_, err := NewServer(nil, "1.0.0", nil)
	assert.Error(t, err)
}

func TestServe_RequiresAddr(t *testing.T) {
	err := Serve(context.Background(), ServeConfig{}, nil, nil)
	assert.EqualError(t, err, "listen address is required")
}
