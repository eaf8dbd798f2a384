package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/google/uuid"
)

// budget caps the steps of a single walk. Visited sets already stop every
// walk on consistent data; the ceiling only trips on corrupt rows. Every
// walk gets its own budget and charges each distinct live node once, so
// consistent data never spends more than the owner's task count.
type budget struct {
	op    string
	left  int
	start uuid.UUID
}

func newBudget(op string, limit int, start uuid.UUID) *budget {
	return &budget{op: op, left: limit, start: start}
}

func (b *budget) spend(n int) error {
	b.left -= n
	if b.left < 0 {
		return domain.NewGraphError(domain.ErrTraversalLimit, b.op, b.start)
	}
	return nil
}

// loadNode loads one record and classifies it.
func loadNode(ctx context.Context, store domain.Store, owner, id uuid.UUID) (domain.Node, error) {
	t, err := store.GetTask(ctx, owner, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Tombstone{ID: id}, nil
	}
	if err != nil {
		return nil, err
	}
	return domain.Classify(owner, id, t), nil
}

// activeTask loads a task that must be live; tombstones are ErrNotFound.
func activeTask(ctx context.Context, store domain.Store, owner, id uuid.UUID, op string) (*domain.Task, error) {
	node, err := loadNode(ctx, store, owner, id)
	if err != nil {
		return nil, err
	}
	active, ok := node.(domain.ActiveNode)
	if !ok {
		return nil, domain.NewGraphError(domain.ErrNotFound, op, id)
	}
	return active.Task, nil
}

// ancestors walks parent links upward from start and returns the chain
// [parent, grandparent, ..., root], excluding start. The walk ends at a
// root or at a tombstone. Ids in seen (and start itself) must not appear
// again; a repeat is ErrCircularReference with the chain as path.
func ancestors(ctx context.Context, store domain.Store, owner, start uuid.UUID, b *budget, seen ...uuid.UUID) ([]uuid.UUID, error) {
	visited := make(map[uuid.UUID]bool, len(seen)+1)
	for _, id := range seen {
		visited[id] = true
	}

	current := start
	var chain []uuid.UUID
	for {
		if visited[current] {
			path := append([]uuid.UUID{start}, chain...)
			return nil, domain.NewGraphError(domain.ErrCircularReference, b.op, current).WithPath(path)
		}
		visited[current] = true
		if err := b.spend(1); err != nil {
			return nil, err
		}

		node, err := loadNode(ctx, store, owner, current)
		if err != nil {
			return nil, err
		}
		active, ok := node.(domain.ActiveNode)
		if !ok {
			// A tombstone ends the chain; it is not part of the live tree.
			if current != start {
				chain = chain[:len(chain)-1]
			}
			return chain, nil
		}
		parent := active.Task.ParentID()
		if parent == nil {
			return chain, nil
		}
		chain = append(chain, *parent)
		current = *parent
	}
}

// descend runs a batched breadth-first walk below root, one GetChildrenOf
// call per level. Levels holds the nodes of each depth, root excluded.
// Inactive nodes are listed but neither expanded nor charged: a deactivated
// node's subtree was deactivated with it, and deleted children stay
// attached to their parent forever.
func descend(ctx context.Context, store domain.Store, owner, root uuid.UUID, b *budget) ([][]*domain.Task, error) {
	visited := map[uuid.UUID]bool{root: true}
	frontier := []uuid.UUID{root}
	var levels [][]*domain.Task

	for len(frontier) > 0 {
		children, err := store.GetChildrenOf(ctx, owner, frontier)
		if err != nil {
			return nil, fmt.Errorf("load children: %w", err)
		}
		var level []*domain.Task
		next := make([]uuid.UUID, 0, len(children))
		for _, child := range children {
			if visited[child.ID()] {
				continue
			}
			visited[child.ID()] = true
			level = append(level, child)
			if child.IsActive() {
				next = append(next, child.ID())
			}
		}
		if err := b.spend(len(next)); err != nil {
			return nil, err
		}
		if len(level) > 0 {
			levels = append(levels, level)
		}
		frontier = next
	}
	return levels, nil
}

// subtreeHeight is the number of levels of active descendants below root.
func subtreeHeight(ctx context.Context, store domain.Store, owner, root uuid.UUID, b *budget) (int, error) {
	visited := map[uuid.UUID]bool{root: true}
	frontier := []uuid.UUID{root}
	height := 0

	for {
		children, err := store.GetChildrenOf(ctx, owner, frontier)
		if err != nil {
			return 0, fmt.Errorf("load children: %w", err)
		}
		var next []uuid.UUID
		for _, child := range children {
			if !child.IsActive() || visited[child.ID()] {
				continue
			}
			visited[child.ID()] = true
			next = append(next, child.ID())
		}
		if len(next) == 0 {
			return height, nil
		}
		if err := b.spend(len(next)); err != nil {
			return 0, err
		}
		height++
		frontier = next
	}
}

// direction selects which end of an edge a walk follows.
type direction int

const (
	// towardPrerequisites follows dependent -> prerequisite.
	towardPrerequisites direction = iota
	// towardDependents follows prerequisite -> dependent.
	towardDependents
)

func edgesFrom(ctx context.Context, store domain.Store, owner uuid.UUID, frontier []uuid.UUID, dir direction) ([]*domain.Edge, error) {
	filter := domain.EdgeFilter{}
	if dir == towardPrerequisites {
		filter.DependentIDs = frontier
	} else {
		filter.PrerequisiteIDs = frontier
	}
	edges, err := store.GetEdges(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	return edges, nil
}

func (d direction) next(e *domain.Edge) uuid.UUID {
	if d == towardPrerequisites {
		return e.PrerequisiteID()
	}
	return e.DependentID()
}

func (d direction) prev(e *domain.Edge) uuid.UUID {
	if d == towardPrerequisites {
		return e.DependentID()
	}
	return e.PrerequisiteID()
}

// reachable reports whether target can be reached from start along active
// edges in dir. The returned path runs from start to target.
func reachable(ctx context.Context, store domain.Store, owner, start, target uuid.UUID, dir direction, b *budget) (bool, []uuid.UUID, error) {
	if start == target {
		return true, []uuid.UUID{start}, nil
	}
	cameFrom := map[uuid.UUID]uuid.UUID{start: start}
	frontier := []uuid.UUID{start}

	for len(frontier) > 0 {
		edges, err := edgesFrom(ctx, store, owner, frontier, dir)
		if err != nil {
			return false, nil, err
		}
		var next []uuid.UUID
		for _, e := range edges {
			to := dir.next(e)
			if _, seen := cameFrom[to]; seen {
				continue
			}
			cameFrom[to] = dir.prev(e)
			if to == target {
				return true, tracePath(cameFrom, start, target), nil
			}
			next = append(next, to)
		}
		if err := b.spend(len(next)); err != nil {
			return false, nil, err
		}
		frontier = next
	}
	return false, nil, nil
}

func tracePath(cameFrom map[uuid.UUID]uuid.UUID, start, target uuid.UUID) []uuid.UUID {
	var reversed []uuid.UUID
	for id := target; id != start; id = cameFrom[id] {
		reversed = append(reversed, id)
	}
	reversed = append(reversed, start)

	path := make([]uuid.UUID, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}

// longestChain returns the number of edges on the longest active chain
// leaving start in dir, capped at limit. Each round advances every chain by
// one edge, so a node can reappear in later rounds; the last non-empty
// round is the longest chain. Stopping at limit keeps the walk bounded.
// The budget is charged once per distinct node, not per round.
func longestChain(ctx context.Context, store domain.Store, owner, start uuid.UUID, dir direction, limit int, b *budget) (int, error) {
	frontier := []uuid.UUID{start}
	charged := map[uuid.UUID]bool{start: true}
	length := 0

	for length < limit {
		edges, err := edgesFrom(ctx, store, owner, frontier, dir)
		if err != nil {
			return 0, err
		}
		seen := make(map[uuid.UUID]bool, len(edges))
		var next []uuid.UUID
		fresh := 0
		for _, e := range edges {
			to := dir.next(e)
			if seen[to] {
				continue
			}
			seen[to] = true
			next = append(next, to)
			if !charged[to] {
				charged[to] = true
				fresh++
			}
		}
		if len(next) == 0 {
			break
		}
		if err := b.spend(fresh); err != nil {
			return 0, err
		}
		length++
		frontier = next
	}
	return length, nil
}
