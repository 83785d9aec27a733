package openlr

import (
	"container/heap"
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Engine is the candidate search engine: closest edges, vertex validity and direction-aware path search
// over the caller's graph. Engine keeps no per-call state and is safe for concurrent use
type Engine struct {
	graph   Graph
	vehicle VehicleProfile
	router  VertexRouter
	logger  zerolog.Logger
}

// NewEngine returns search engine over given graph for given vehicle
func NewEngine(graph Graph, vehicle VehicleProfile, options ...func(*Engine)) *Engine {
	engine := &Engine{
		graph:   graph,
		vehicle: vehicle,
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// WithLogger sets logger for debug events of the engine and of encoders/decoders built on top of it
func WithLogger(logger zerolog.Logger) func(*Engine) {
	return func(engine *Engine) {
		engine.logger = logger
	}
}

// WithVertexRouter makes FindShortestPath use precomputed router instead of plain Dijkstra
func WithVertexRouter(router VertexRouter) func(*Engine) {
	return func(engine *Engine) {
		engine.router = router
	}
}

// Graph returns underlying graph
func (engine *Engine) Graph() Graph {
	return engine.graph
}

// Vehicle returns underlying vehicle profile
func (engine *Engine) Vehicle() VehicleProfile {
	return engine.vehicle
}

// Traversable reports whether vehicle can pass the edge in the direction it is oriented
func (engine *Engine) Traversable(edge Edge) bool {
	if !engine.vehicle.CanTraverse(edge.Tags) {
		return false
	}
	oneway := engine.vehicle.IsOneWay(edge.Tags)
	return oneway == nil || *oneway == edge.Forward
}

func (engine *Engine) traversable(edge Edge, reverse bool) bool {
	if reverse {
		return engine.Traversable(edge.Reverse())
	}
	return engine.Traversable(edge)
}

func (engine *Engine) weight(edge Edge) float64 {
	w := engine.vehicle.Weight(edge.Tags, edge.Distance)
	if w < 0 {
		return 0
	}
	return w
}

// ClosestEdge returns the nearest edge which vehicle can traverse in at least one direction.
// Tolerance (meters) <= 0 means unbounded
func (engine *Engine) ClosestEdge(pt Coordinate, tolerance float64) (ClosestEdge, error) {
	closest, ok := engine.graph.ClosestEdge(pt, tolerance, func(edge Edge) bool {
		return engine.vehicle.CanTraverse(edge.Tags)
	})
	if !ok || (tolerance > 0 && closest.Distance > tolerance) {
		return ClosestEdge{}, errors.Wrapf(ErrNoNetworkNearby, "location %s, tolerance %.1fm", pt, tolerance)
	}
	return closest, nil
}

// IsVertexValid reports whether vertex may be used as an anchor
func (engine *Engine) IsVertexValid(vertex VertexID) bool {
	return engine.graph.IsVertexValid(vertex)
}

// frontierQueue is a min-heap of arena indices ordered by cumulative weight
type frontierQueue struct {
	arena *PathArena
	items []int
}

func (queue frontierQueue) Len() int { return len(queue.items) }

func (queue frontierQueue) Less(i, j int) bool {
	wi := queue.arena.segments[queue.items[i]].Weight
	wj := queue.arena.segments[queue.items[j]].Weight
	if wi == wj {
		return queue.items[i] < queue.items[j]
	}
	return wi < wj
}

func (queue frontierQueue) Swap(i, j int) {
	queue.items[i], queue.items[j] = queue.items[j], queue.items[i]
}

func (queue *frontierQueue) Push(x interface{}) {
	queue.items = append(queue.items, x.(int))
}

func (queue *frontierQueue) Pop() interface{} {
	n := len(queue.items)
	idx := queue.items[n-1]
	queue.items = queue.items[:n-1]
	return idx
}

// search runs Dijkstra from given (non-virtual) arena segments. Neighbors for which skip returns true
// are never entered. visit is called once per settled vertex; returning true stops the search
func (engine *Engine) search(ctx context.Context, arena *PathArena, roots []int, reverse bool, skip func(Neighbor) bool, visit func(idx int) bool) error {
	queue := &frontierQueue{arena: arena}
	for _, root := range roots {
		heap.Push(queue, root)
	}
	settled := make(map[VertexID]struct{})
	for queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx := heap.Pop(queue).(int)
		current := arena.Get(idx)
		if _, ok := settled[current.Vertex]; ok {
			continue
		}
		settled[current.Vertex] = struct{}{}
		if visit(idx) {
			return nil
		}
		for _, neighbor := range engine.graph.Neighbors(current.Vertex) {
			if _, ok := settled[neighbor.Vertex]; ok {
				continue
			}
			if skip != nil && skip(neighbor) {
				continue
			}
			if !engine.traversable(neighbor.Edge, reverse) {
				continue
			}
			heap.Push(queue, arena.Extend(idx, neighbor.Vertex, current.Weight+engine.weight(neighbor.Edge), neighbor.Edge))
		}
	}
	return nil
}

// FindValidVertexFor searches outward from vertex for the nearest valid vertex. viaEdge is the path edge
// leaving vertex, the search never uses it nor enters vertices of exclude. With reverse set the search follows
// incoming edges. Returns root-first path or nil when the graph is exhausted
func (engine *Engine) FindValidVertexFor(ctx context.Context, vertex VertexID, viaEdge Edge, exclude map[VertexID]struct{}, reverse bool) (SegmentPath, error) {
	engine.logger.Debug().
		Int64("vertex", int64(vertex)).
		Int64("via_edge", int64(viaEdge.ID)).
		Int("excluded", len(exclude)).
		Bool("reverse", reverse).
		Msg("searching valid vertex")
	arena := &PathArena{}
	root := arena.Root(vertex)
	found := -1
	skip := func(neighbor Neighbor) bool {
		if neighbor.Edge.ID == viaEdge.ID {
			return true
		}
		_, excluded := exclude[neighbor.Vertex]
		return excluded
	}
	err := engine.search(ctx, arena, []int{root}, reverse, skip, func(idx int) bool {
		if idx == root {
			return false
		}
		if engine.graph.IsVertexValid(arena.Get(idx).Vertex) {
			found = idx
			return true
		}
		return false
	})
	if err != nil {
		return nil, errors.Wrap(err, "search for valid vertex interrupted")
	}
	if found < 0 {
		return nil, nil
	}
	return arena.Path(found), nil
}

// FindShortestPath returns vertices of the shortest path ordered from `from` to `to` or nil when there is none.
// With reverse set the path follows incoming edges
func (engine *Engine) FindShortestPath(ctx context.Context, from, to VertexID, reverse bool) ([]VertexID, error) {
	if from == to {
		return []VertexID{from}, nil
	}
	if engine.router != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return engine.router.ShortestPath(from, to, reverse), nil
	}
	arena := &PathArena{}
	root := arena.Root(from)
	found := -1
	err := engine.search(ctx, arena, []int{root}, reverse, nil, func(idx int) bool {
		if arena.Get(idx).Vertex == to {
			found = idx
			return true
		}
		return false
	})
	if err != nil {
		return nil, errors.Wrap(err, "shortest path search interrupted")
	}
	if found < 0 {
		return nil, nil
	}
	return arena.Path(found).Vertices(), nil
}

// Frontier is an entry (or exit) point of a multi-source search: either a vertex itself or a point inside
// an edge connected to Vertex. For sources Edge is oriented from the point to Vertex, for targets from Vertex to the point
type Frontier struct {
	Vertex  VertexID
	Partial bool
	Edge    Edge
	Weight  float64
}

// FindShortestPathBetween returns the cheapest path from any source frontier to any target frontier.
// Partial frontiers make the path start and/or end with a virtual segment
func (engine *Engine) FindShortestPathBetween(ctx context.Context, sources, targets []Frontier) (SegmentPath, error) {
	if len(sources) == 0 || len(targets) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "sources and targets must not be empty")
	}
	arena := &PathArena{}
	roots := make([]int, 0, len(sources))
	for _, source := range sources {
		if source.Partial {
			virtual := arena.VirtualRoot()
			roots = append(roots, arena.Extend(virtual, source.Vertex, source.Weight, source.Edge))
			continue
		}
		roots = append(roots, arena.Root(source.Vertex))
	}
	targetsByVertex := make(map[VertexID][]Frontier, len(targets))
	for _, target := range targets {
		targetsByVertex[target.Vertex] = append(targetsByVertex[target.Vertex], target)
	}

	bestIdx := -1
	bestTotal := 0.0
	var bestTarget Frontier
	err := engine.search(ctx, arena, roots, false, nil, func(idx int) bool {
		current := arena.Get(idx)
		if bestIdx >= 0 && current.Weight >= bestTotal {
			return true
		}
		for _, target := range targetsByVertex[current.Vertex] {
			total := current.Weight
			if target.Partial {
				total += target.Weight
			}
			if bestIdx < 0 || total < bestTotal {
				bestIdx, bestTotal, bestTarget = idx, total, target
			}
		}
		return false
	})
	if err != nil {
		return nil, errors.Wrap(err, "shortest path search interrupted")
	}
	if bestIdx < 0 {
		return nil, errors.Wrapf(ErrPathNotFound, "%d sources, %d targets", len(sources), len(targets))
	}
	if bestTarget.Partial {
		bestIdx = arena.ExtendVirtual(bestIdx, bestTotal, bestTarget.Edge)
	}
	return arena.Path(bestIdx), nil
}

// edgesAlong picks the cheapest traversable edge between each pair of consecutive vertices
func (engine *Engine) edgesAlong(vertices []VertexID) ([]Edge, error) {
	if len(vertices) < 2 {
		return nil, nil
	}
	edges := make([]Edge, 0, len(vertices)-1)
	for i := 0; i < len(vertices)-1; i++ {
		found := false
		var best Edge
		for _, neighbor := range engine.graph.Neighbors(vertices[i]) {
			if neighbor.Vertex != vertices[i+1] || !engine.Traversable(neighbor.Edge) {
				continue
			}
			if !found || engine.weight(neighbor.Edge) < engine.weight(best) {
				best = neighbor.Edge
				found = true
			}
		}
		if !found {
			return nil, errors.Wrapf(ErrPathNotFound, "no traversable edge %d -> %d", vertices[i], vertices[i+1])
		}
		edges = append(edges, best)
	}
	return edges, nil
}

// route returns vertices and edges of the shortest path from `from` to `to`
func (engine *Engine) route(ctx context.Context, from, to VertexID) ([]VertexID, []Edge, error) {
	vertices, err := engine.FindShortestPath(ctx, from, to, false)
	if err != nil {
		return nil, nil, err
	}
	if vertices == nil {
		return nil, nil, errors.Wrapf(ErrPathNotFound, "%d -> %d", from, to)
	}
	edges, err := engine.edgesAlong(vertices)
	if err != nil {
		return nil, nil, err
	}
	return vertices, edges, nil
}

func containsVertex(vertices []VertexID, vertex VertexID) bool {
	for _, v := range vertices {
		if v == vertex {
			return true
		}
	}
	return false
}
