package task

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	internalApp "github.com/felixgeelhaar/taskgraph/internal/app"
	"github.com/felixgeelhaar/taskgraph/internal/graph/application/services"
	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/pkg/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testUserID is a fixed user ID for tests
var testUserID = uuid.MustParse(config.DefaultUserID)

// setupLocalModeTestApp creates a test application with SQLite for integration tests.
func setupLocalModeTestApp(t *testing.T) *cli.App {
	t.Helper()

	limits := domain.DefaultLimits()
	cfg := &config.Config{
		AppEnv:             "test",
		LocalMode:          true,
		DatabaseDriver:     "sqlite",
		SQLitePath:         filepath.Join(t.TempDir(), "test.db"),
		LogLevel:           "error",
		UserID:             testUserID.String(),
		MaxTreeDepth:       limits.MaxTreeDepth,
		MaxDependencyDepth: limits.MaxDependencyDepth,
		MaxTasksPerOwner:   limits.MaxTasksPerOwner,
		ConflictRetries:    limits.ConflictRetries,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := internalApp.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	cliApp := cli.NewApp(container.Engine, container.Health)
	cliApp.SetCurrentUserID(testUserID)

	cli.SetApp(cliApp)
	t.Cleanup(func() { cli.SetApp(nil) })
	return cliApp
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

func addTask(t *testing.T, title string, parent string) uuid.UUID {
	t.Helper()
	parentID = parent
	defer func() { parentID = "" }()

	out, err := run(t, addCmd, title)
	require.NoError(t, err)
	id, err := uuid.Parse(strings.Fields(out)[0])
	require.NoError(t, err)
	return id
}

func TestAddCmd_CreatesTask(t *testing.T) {
	app := setupLocalModeTestApp(t)

	id := addTask(t, "  Write report ", "")

	task, err := app.Engine.Registry().Get(context.Background(), testUserID, id)
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title())
	assert.True(t, task.IsRoot())
}

func TestAddCmd_WithParent(t *testing.T) {
	app := setupLocalModeTestApp(t)

	parent := addTask(t, "Report", "")
	child := addTask(t, "Outline", parent.String())

	depth, err := app.Engine.Hierarchy().ComputeDepth(context.Background(), testUserID, child)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestAddCmd_InvalidParent(t *testing.T) {
	setupLocalModeTestApp(t)

	parentID = "not-a-uuid"
	defer func() { parentID = "" }()

	_, err := run(t, addCmd, "Orphan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parent ID")
}

func TestAddCmd_UnknownParent(t *testing.T) {
	setupLocalModeTestApp(t)

	parentID = uuid.NewString()
	defer func() { parentID = "" }()

	_, err := run(t, addCmd, "Orphan")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "cannot add task")
}

func TestAddCmd_EmptyTitle(t *testing.T) {
	setupLocalModeTestApp(t)

	_, err := run(t, addCmd, "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task title cannot be empty")
}

func TestShowCmd_ReportsStructure(t *testing.T) {
	app := setupLocalModeTestApp(t)
	ctx := context.Background()

	parent := addTask(t, "Release", "")
	child := addTask(t, "Deploy", parent.String())
	tests := addTask(t, "Run tests", "")
	_, err := app.Engine.Dependencies().AddDependency(ctx, testUserID, services.AddDependencyInput{
		DependentID:    child,
		PrerequisiteID: tests,
	})
	require.NoError(t, err)

	out, err := run(t, showCmd, child.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Deploy")
	assert.Contains(t, out, "depth: 1")
	assert.Contains(t, out, "children: 0")
	assert.Contains(t, out, "blocked by 1 task(s)")
	assert.Contains(t, out, "Run tests")

	out, err = run(t, showCmd, parent.String())
	require.NoError(t, err)
	assert.Contains(t, out, "children: 1")
	assert.Contains(t, out, "ready to start")
}

func TestShowCmd_NotFound(t *testing.T) {
	setupLocalModeTestApp(t)

	_, err := run(t, showCmd, uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot show task: task or dependency not found")
}

func TestCompleteAndReopenCmd(t *testing.T) {
	app := setupLocalModeTestApp(t)
	ctx := context.Background()

	prerequisite := addTask(t, "Draft", "")
	dependent := addTask(t, "Review", "")
	_, err := app.Engine.Dependencies().AddDependency(ctx, testUserID, services.AddDependencyInput{
		DependentID:    dependent,
		PrerequisiteID: prerequisite,
	})
	require.NoError(t, err)

	out, err := run(t, readyCmd, dependent.String())
	require.NoError(t, err)
	assert.Equal(t, "blocked\n", out)

	_, err = run(t, completeCmd, prerequisite.String())
	require.NoError(t, err)

	out, err = run(t, readyCmd, dependent.String())
	require.NoError(t, err)
	assert.Equal(t, "ready\n", out)

	_, err = run(t, reopenCmd, prerequisite.String())
	require.NoError(t, err)

	out, err = run(t, readyCmd, dependent.String())
	require.NoError(t, err)
	assert.Equal(t, "blocked\n", out)
}

func TestDeleteCmd_RemovesSubtreeAndDependencies(t *testing.T) {
	app := setupLocalModeTestApp(t)
	ctx := context.Background()

	root := addTask(t, "Epic", "")
	child := addTask(t, "Story", root.String())
	other := addTask(t, "Unrelated", "")
	_, err := app.Engine.Dependencies().AddDependency(ctx, testUserID, services.AddDependencyInput{
		DependentID:    other,
		PrerequisiteID: child,
	})
	require.NoError(t, err)

	out, err := run(t, deleteCmd, root.String())
	require.NoError(t, err)
	assert.Equal(t, "Deleted 2 task(s) and 1 dependency(ies)\n", out)

	_, err = app.Engine.Registry().Get(ctx, testUserID, child)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ready, err := app.Engine.CanTaskStart(ctx, testUserID, other)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestCommands_RequireApp(t *testing.T) {
	cli.SetApp(nil)

	for _, cmd := range []*cobra.Command{addCmd, showCmd, completeCmd, reopenCmd, deleteCmd, readyCmd} {
		_, err := run(t, cmd, uuid.NewString())
		assert.ErrorIs(t, err, cli.ErrNotInitialized, cmd.Name())
	}
}
