package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/internal/graph/infrastructure/persistence"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordingStore counts writes and can inject failures on top of the
// memory store. It keeps the memory store's unit of work.
type recordingStore struct {
	*persistence.MemoryStore

	mu            sync.Mutex
	taskSaves     int
	edgeSaves     int
	conflicts     int
	failSaveEdge  error
	failGetEdges  error
	failSaveTask error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: persistence.NewMemoryStore()}
}

func (s *recordingStore) SaveTask(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return domain.ErrConflict
	}
	if s.failSaveTask != nil {
		err := s.failSaveTask
		s.mu.Unlock()
		return err
	}
	s.taskSaves++
	s.mu.Unlock()
	return s.MemoryStore.SaveTask(ctx, t)
}

func (s *recordingStore) SaveEdge(ctx context.Context, e *domain.Edge) error {
	s.mu.Lock()
	if s.failSaveEdge != nil {
		err := s.failSaveEdge
		s.mu.Unlock()
		return err
	}
	s.edgeSaves++
	s.mu.Unlock()
	return s.MemoryStore.SaveEdge(ctx, e)
}

func (s *recordingStore) GetEdges(ctx context.Context, owner uuid.UUID, filter domain.EdgeFilter) ([]*domain.Edge, error) {
	s.mu.Lock()
	err := s.failGetEdges
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.MemoryStore.GetEdges(ctx, owner, filter)
}

// writes returns the number of task and edge saves so far.
func (s *recordingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskSaves + s.edgeSaves
}

type testEngine struct {
	*Engine
	store   *recordingStore
	outbox  *outbox.InMemoryRepository
	metrics *observability.InMemoryMetrics
	owner   uuid.UUID
}

func newTestEngine(t *testing.T, configure ...func(*domain.Limits)) *testEngine {
	t.Helper()

	limits := domain.DefaultLimits()
	for _, fn := range configure {
		fn(&limits)
	}
	store := newRecordingStore()
	repo := outbox.NewInMemoryRepository()
	metrics := observability.NewInMemoryMetrics()

	engine, err := NewEngine(EngineConfig{
		Store:   store,
		Outbox:  repo,
		Limits:  limits,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: metrics,
	})
	require.NoError(t, err)

	return &testEngine{Engine: engine, store: store, outbox: repo, metrics: metrics, owner: uuid.New()}
}

func (e *testEngine) task(t *testing.T, title string) *domain.Task {
	t.Helper()
	task, err := e.Registry().Register(context.Background(), e.owner, title, nil)
	require.NoError(t, err)
	return task
}

func (e *testEngine) child(t *testing.T, title string, parent *domain.Task) *domain.Task {
	t.Helper()
	id := parent.ID()
	task, err := e.Registry().Register(context.Background(), e.owner, title, &id)
	require.NoError(t, err)
	return task
}

func (e *testEngine) dependsOn(t *testing.T, dependent, prerequisite *domain.Task) *domain.Edge {
	t.Helper()
	edge, err := e.Dependencies().AddDependency(context.Background(), e.owner, AddDependencyInput{
		DependentID:    dependent.ID(),
		PrerequisiteID: prerequisite.ID(),
	})
	require.NoError(t, err)
	return edge
}

func (e *testEngine) reload(t *testing.T, task *domain.Task) *domain.Task {
	t.Helper()
	fresh, err := e.store.GetTask(context.Background(), e.owner, task.ID())
	require.NoError(t, err)
	return fresh
}

func ids(tasks ...*domain.Task) []uuid.UUID {
	out := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID()
	}
	return out
}

func routingKeys(repo *outbox.InMemoryRepository) []string {
	var keys []string
	for _, msg := range repo.All() {
		keys = append(keys, msg.RoutingKey)
	}
	return keys
}
