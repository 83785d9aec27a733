package openlr

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// maxLRPDistance is the longest span between two consecutive location reference points (meters)
	maxLRPDistance = 15000.0
	// defaultProjectionEpsilon snaps projections closer than this (meters) to the edge ends
	defaultProjectionEpsilon = 0.1
	// defaultOnRoadDistance points closer than this (meters) to the road are considered on it
	defaultOnRoadDistance = 1.0
	// bearingDistance bearings of location reference points are measured this far (meters) along the line
	bearingDistance = 20.0

	validVertexScore = 4096.0
	spanLengthScore  = 1024.0
)

// Encoder builds referenced locations on the graph and encodes them into location objects
type Encoder struct {
	engine            *Engine
	mapper            AttributeMapper
	logger            zerolog.Logger
	projectionEpsilon float64
	onRoadDistance    float64
}

// NewEncoder returns encoder working on top of given engine.
// Mapper translates edge tags to FRC/FOW, nil mapper yields FRC_7 and FOW_UNDEFINED everywhere
func NewEncoder(engine *Engine, mapper AttributeMapper, options ...func(*Encoder)) *Encoder {
	encoder := &Encoder{
		engine:            engine,
		mapper:            mapper,
		logger:            engine.logger,
		projectionEpsilon: defaultProjectionEpsilon,
		onRoadDistance:    defaultOnRoadDistance,
	}
	for _, option := range options {
		option(encoder)
	}
	return encoder
}

// WithProjectionEpsilon sets distance (meters) under which a projected point is snapped to the edge end
func WithProjectionEpsilon(meters float64) func(*Encoder) {
	return func(encoder *Encoder) {
		encoder.projectionEpsilon = meters
	}
}

// WithOnRoadDistance sets distance (meters) under which a point along line is considered lying on the road
func WithOnRoadDistance(meters float64) func(*Encoder) {
	return func(encoder *Encoder) {
		encoder.onRoadDistance = meters
	}
}

func (encoder *Encoder) shapes(edges []Edge) [][]Coordinate {
	shapes := make([][]Coordinate, len(edges))
	for i, edge := range edges {
		shapes[i] = encoder.engine.graph.EdgeShape(edge)
	}
	return shapes
}

// BuildLineLocation builds referenced line from explicit path. Offsets are percents of the path length
func (encoder *Encoder) BuildLineLocation(ctx context.Context, vertices []VertexID, edges []Edge, positiveOffset, negativeOffset float64) (*ReferencedLine, error) {
	if err := validatePath(vertices, edges, positiveOffset, negativeOffset); err != nil {
		return nil, err
	}
	line := &ReferencedLine{
		Vertices:       make([]VertexID, len(vertices)),
		Edges:          make([]Edge, len(edges)),
		Shapes:         encoder.shapes(edges),
		PositiveOffset: positiveOffset,
		NegativeOffset: negativeOffset,
	}
	copy(line.Vertices, vertices)
	copy(line.Edges, edges)
	if err := line.ValidateConnected(encoder.engine); err != nil {
		return nil, err
	}
	return line, nil
}

// snapped is a point projected on its closest edge
type snapped struct {
	closest ClosestEdge
	offset  float64 // meters from closest.From
	length  float64 // edge length, meters
}

func (encoder *Encoder) snap(pt Coordinate, tolerance float64) (snapped, error) {
	closest, err := encoder.engine.ClosestEdge(pt, tolerance)
	if err != nil {
		return snapped{}, err
	}
	shape := encoder.engine.graph.EdgeShape(closest.Edge)
	_, offset, ok := projectOnLine(shape, pt)
	if !ok {
		return snapped{}, errors.Wrapf(ErrProjectionFailed, "location %s on edge %d", pt, closest.Edge.ID)
	}
	return snapped{closest: closest, offset: offset, length: getSphericalLength(shape)}, nil
}

// sourceFrontiers returns ways to leave the snapped point
func (encoder *Encoder) sourceFrontiers(s snapped) []Frontier {
	if s.offset < encoder.projectionEpsilon {
		return []Frontier{{Vertex: s.closest.From}}
	}
	if s.length-s.offset < encoder.projectionEpsilon {
		return []Frontier{{Vertex: s.closest.To}}
	}
	edge := s.closest.Edge
	frontiers := make([]Frontier, 0, 2)
	if encoder.engine.Traversable(edge.Reverse()) {
		frontiers = append(frontiers, Frontier{
			Vertex:  s.closest.From,
			Partial: true,
			Edge:    edge.Reverse(),
			Weight:  encoder.engine.vehicle.Weight(edge.Tags, s.offset),
		})
	}
	if encoder.engine.Traversable(edge) {
		frontiers = append(frontiers, Frontier{
			Vertex:  s.closest.To,
			Partial: true,
			Edge:    edge,
			Weight:  encoder.engine.vehicle.Weight(edge.Tags, s.length-s.offset),
		})
	}
	return frontiers
}

// targetFrontiers returns ways to reach the snapped point
func (encoder *Encoder) targetFrontiers(s snapped) []Frontier {
	if s.offset < encoder.projectionEpsilon {
		return []Frontier{{Vertex: s.closest.From}}
	}
	if s.length-s.offset < encoder.projectionEpsilon {
		return []Frontier{{Vertex: s.closest.To}}
	}
	edge := s.closest.Edge
	frontiers := make([]Frontier, 0, 2)
	if encoder.engine.Traversable(edge) {
		frontiers = append(frontiers, Frontier{
			Vertex:  s.closest.From,
			Partial: true,
			Edge:    edge,
			Weight:  encoder.engine.vehicle.Weight(edge.Tags, s.offset),
		})
	}
	if encoder.engine.Traversable(edge.Reverse()) {
		frontiers = append(frontiers, Frontier{
			Vertex:  s.closest.To,
			Partial: true,
			Edge:    edge.Reverse(),
			Weight:  encoder.engine.vehicle.Weight(edge.Tags, s.length-s.offset),
		})
	}
	return frontiers
}

// otherEnd returns end of the closest edge opposite to given vertex
func otherEnd(closest ClosestEdge, vertex VertexID) VertexID {
	if vertex == closest.From {
		return closest.To
	}
	return closest.From
}

// BuildLineLocationFromPoints builds referenced line along the shortest path between two points.
// Both points must lie within tolerance (meters) from the network
func (encoder *Encoder) BuildLineLocationFromPoints(ctx context.Context, start, end Coordinate, tolerance float64) (*ReferencedLine, error) {
	startSnap, err := encoder.snap(start, tolerance)
	if err != nil {
		return nil, errors.Wrap(err, "can't snap start location")
	}
	endSnap, err := encoder.snap(end, tolerance)
	if err != nil {
		return nil, errors.Wrap(err, "can't snap end location")
	}
	return encoder.lineBetween(ctx, startSnap, endSnap, start, end)
}

// BuildLineLocationVertexExact builds referenced line along the shortest path between two locations given
// exactly on the network: each one is an edge, set by coordinates of its end vertices, and offset (meters)
// from the first of them. Vertices must lie within tolerance (meters) from given coordinates
func (encoder *Encoder) BuildLineLocationVertexExact(ctx context.Context, startFrom, startTo Coordinate, startOffset float64, endFrom, endTo Coordinate, endOffset float64, tolerance float64) (*ReferencedLine, error) {
	if tolerance <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "tolerance must be positive, got %f", tolerance)
	}
	startSnap, start, err := encoder.snapExact(startFrom, startTo, startOffset, tolerance)
	if err != nil {
		return nil, errors.Wrap(err, "can't find start edge")
	}
	endSnap, end, err := encoder.snapExact(endFrom, endTo, endOffset, tolerance)
	if err != nil {
		return nil, errors.Wrap(err, "can't find end edge")
	}
	return encoder.lineBetween(ctx, startSnap, endSnap, start, end)
}

// vertexAt returns graph vertex lying within tolerance (meters) from given point
func (encoder *Encoder) vertexAt(pt Coordinate, tolerance float64) (VertexID, error) {
	closest, err := encoder.engine.ClosestEdge(pt, tolerance)
	if err != nil {
		return 0, err
	}
	found := false
	var vertex VertexID
	best := tolerance
	for _, candidate := range []VertexID{closest.From, closest.To} {
		coordinate, ok := encoder.engine.graph.VertexCoordinate(candidate)
		if !ok {
			continue
		}
		if d := greatCircleDistance(pt, coordinate); d <= best {
			vertex, best, found = candidate, d, true
		}
	}
	if !found {
		return 0, errors.Wrapf(ErrNoNetworkNearby, "no vertex at %s, tolerance %.1fm", pt, tolerance)
	}
	return vertex, nil
}

// snapExact finds edge joining vertices at given coordinates and the point lying offset meters along it
func (encoder *Encoder) snapExact(from, to Coordinate, offset, tolerance float64) (snapped, Coordinate, error) {
	source, err := encoder.vertexAt(from, tolerance)
	if err != nil {
		return snapped{}, Coordinate{}, err
	}
	target, err := encoder.vertexAt(to, tolerance)
	if err != nil {
		return snapped{}, Coordinate{}, err
	}
	for _, neighbor := range encoder.engine.graph.Neighbors(source) {
		if neighbor.Vertex != target || !encoder.engine.vehicle.CanTraverse(neighbor.Edge.Tags) {
			continue
		}
		shape := encoder.engine.graph.EdgeShape(neighbor.Edge)
		length := getSphericalLength(shape)
		if offset < 0 || offset > length {
			return snapped{}, Coordinate{}, errors.Wrapf(ErrInvalidArgument, "offset %.1fm is out of edge %d length %.1fm", offset, neighbor.Edge.ID, length)
		}
		pt := pointAlongLine(shape, offset)
		closest := ClosestEdge{
			From:      source,
			To:        target,
			Edge:      neighbor.Edge,
			Projected: pt,
			Offset:    offset,
		}
		return snapped{closest: closest, offset: offset, length: length}, pt, nil
	}
	return snapped{}, Coordinate{}, errors.Wrapf(ErrNoNetworkNearby, "no edge between vertices %d and %d", source, target)
}

// lineBetween routes from the start snapped point to the end one. Offsets are measured by projecting
// start and end on the first and the last edges of the path
func (encoder *Encoder) lineBetween(ctx context.Context, startSnap, endSnap snapped, start, end Coordinate) (*ReferencedLine, error) {
	var vertices []VertexID
	var edges []Edge
	if startSnap.closest.Edge.ID == endSnap.closest.Edge.ID {
		// same edge: bring the end offset into the start edge orientation
		endOffset := endSnap.offset
		if endSnap.closest.From != startSnap.closest.From {
			endOffset = endSnap.length - endSnap.offset
		}
		edge := startSnap.closest.Edge
		if endOffset > startSnap.offset {
			vertices = []VertexID{startSnap.closest.From, startSnap.closest.To}
			edges = []Edge{edge}
		} else {
			vertices = []VertexID{startSnap.closest.To, startSnap.closest.From}
			edges = []Edge{edge.Reverse()}
		}
		if !encoder.engine.Traversable(edges[0]) {
			return nil, errors.Wrapf(ErrPathNotFound, "edge %d can't be traversed from %s to %s", edge.ID, start, end)
		}
	} else {
		path, err := encoder.engine.FindShortestPathBetween(ctx, encoder.sourceFrontiers(startSnap), encoder.targetFrontiers(endSnap))
		if err != nil {
			return nil, errors.Wrapf(err, "route between %s and %s", start, end)
		}
		edges = path.Edges()
		vertices = path.Vertices()
		if path[0].Virtual {
			vertices = append([]VertexID{otherEnd(startSnap.closest, path[1].Vertex)}, vertices...)
		}
		if path.Last().Virtual {
			vertices = append(vertices, otherEnd(endSnap.closest, path[len(path)-2].Vertex))
		}
		if len(edges) == 0 {
			return nil, errors.Wrapf(ErrPathNotFound, "start %s and end %s resolve to the same vertex", start, end)
		}
	}

	shapes := encoder.shapes(edges)
	length := 0.0
	for _, shape := range shapes {
		length += getSphericalLength(shape)
	}
	if length <= 0 {
		return nil, errors.Wrapf(ErrPathNotFound, "zero length path between %s and %s", start, end)
	}
	_, startOffset, ok := projectOnLine(shapes[0], start)
	if !ok {
		return nil, errors.Wrapf(ErrProjectionFailed, "location %s on the first edge of the path", start)
	}
	lastShape := shapes[len(shapes)-1]
	_, endOffset, ok := projectOnLine(lastShape, end)
	if !ok {
		return nil, errors.Wrapf(ErrProjectionFailed, "location %s on the last edge of the path", end)
	}
	positiveOffset := clampPercent(startOffset / length * 100)
	negativeOffset := clampPercent((getSphericalLength(lastShape) - endOffset) / length * 100)
	return encoder.BuildLineLocation(ctx, vertices, edges, positiveOffset, negativeOffset)
}

// clampPercent clamps offset into [0, 100)
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v >= 100 {
		return 99.99
	}
	return v
}

// BuildPointAlongLine builds point along line location for the closest edge to given point.
// The edge is taken in a direction the vehicle can travel and its ends are moved to valid vertices
func (encoder *Encoder) BuildPointAlongLine(ctx context.Context, pt Coordinate, tolerance float64) (*ReferencedPointAlongLine, error) {
	closest, err := encoder.engine.ClosestEdge(pt, tolerance)
	if err != nil {
		return nil, err
	}
	oneway := encoder.engine.vehicle.IsOneWay(closest.Edge.Tags)
	useForward := oneway == nil || *oneway == closest.Edge.Forward
	from, to, edge := closest.From, closest.To, closest.Edge
	if !useForward {
		from, to, edge = closest.To, closest.From, closest.Edge.Reverse()
	}
	route := &ReferencedLine{
		Vertices: []VertexID{from, to},
		Edges:    []Edge{edge},
		Shapes:   encoder.shapes([]Edge{edge}),
	}
	if length := route.Length(); length >= maxLRPDistance {
		return nil, errors.Wrapf(ErrDistanceLimitUnresolvable, "edge %d is %.1fm long", edge.ID, length)
	}
	if err := encoder.AdjustToValidPoints(ctx, route); err != nil {
		return nil, err
	}
	if length := route.Length(); length >= maxLRPDistance {
		return nil, errors.Wrapf(ErrDistanceLimitUnresolvable, "route between closest valid vertices is %.1fm long", length)
	}
	orientation := ORIENTATION_NONE
	if oneway != nil {
		orientation = ORIENTATION_FIRST_TO_SECOND
	}
	return &ReferencedPointAlongLine{
		Route:       route,
		Coordinate:  pt,
		Orientation: orientation,
		SideOfRoad:  sideOfRoad(route.Coordinates(), pt, encoder.onRoadDistance),
	}, nil
}

// findAnchor looks for valid vertex extending the path at `vertex` away from `toward`. The candidate is accepted
// only when the shortest path between `toward` and the candidate still passes through `vertex`;
// rejected candidates are excluded and the search repeats
func (encoder *Encoder) findAnchor(ctx context.Context, vertex VertexID, edge Edge, toward VertexID, reverse bool) (SegmentPath, error) {
	exclude := make(map[VertexID]struct{})
	for {
		path, err := encoder.engine.FindValidVertexFor(ctx, vertex, edge, exclude, reverse)
		if err != nil {
			return nil, err
		}
		if path == nil {
			return nil, errors.Wrapf(ErrNoValidAnchorFound, "vertex %d, %d candidates rejected", vertex, len(exclude))
		}
		candidate := path.Last().Vertex
		route, err := encoder.engine.FindShortestPath(ctx, toward, candidate, reverse)
		if err != nil {
			return nil, err
		}
		if route != nil && containsVertex(route, vertex) {
			encoder.logger.Debug().
				Int64("vertex", int64(vertex)).
				Int64("anchor", int64(candidate)).
				Int("extension", len(path)-1).
				Msg("valid anchor found")
			return path, nil
		}
		encoder.logger.Debug().
			Int64("vertex", int64(vertex)).
			Int64("candidate", int64(candidate)).
			Msg("candidate anchor changes the route, excluding it")
		exclude[candidate] = struct{}{}
	}
}

// AdjustToValidPoints moves both ends of the line to valid vertices. Offsets are re-proportioned so they keep
// pointing to the same real-world positions. Lines with valid ends stay untouched
func (encoder *Encoder) AdjustToValidPoints(ctx context.Context, line *ReferencedLine) error {
	if err := validatePath(line.Vertices, line.Edges, line.PositiveOffset, line.NegativeOffset); err != nil {
		return err
	}
	if len(line.Shapes) != len(line.Edges) {
		line.Shapes = encoder.shapes(line.Edges)
	}
	length := line.Length()
	positiveLength := line.PositiveOffset / 100 * length
	negativeLength := line.NegativeOffset / 100 * length
	changed := false

	if first := line.Vertices[0]; !encoder.engine.IsVertexValid(first) {
		path, err := encoder.findAnchor(ctx, first, line.Edges[0], line.Vertices[1], true)
		if err != nil {
			return errors.Wrap(err, "can't find valid start vertex")
		}
		// backward search: path[k].Edge leads from path[k-1] against the travel direction
		vertices := make([]VertexID, 0, len(path)-1+len(line.Vertices))
		edges := make([]Edge, 0, len(path)-1+len(line.Edges))
		for k := len(path) - 1; k >= 1; k-- {
			vertices = append(vertices, path[k].Vertex)
			edges = append(edges, path[k].Edge.Reverse())
		}
		shapes := encoder.shapes(edges)
		added := 0.0
		for _, shape := range shapes {
			added += getSphericalLength(shape)
		}
		line.Vertices = append(vertices, line.Vertices...)
		line.Edges = append(edges, line.Edges...)
		line.Shapes = append(shapes, line.Shapes...)
		positiveLength += added
		length += added
		changed = true
	}

	if last := line.Vertices[len(line.Vertices)-1]; !encoder.engine.IsVertexValid(last) {
		n := len(line.Vertices)
		path, err := encoder.findAnchor(ctx, last, line.Edges[len(line.Edges)-1].Reverse(), line.Vertices[n-2], false)
		if err != nil {
			return errors.Wrap(err, "can't find valid end vertex")
		}
		edges := path.Edges()
		shapes := encoder.shapes(edges)
		added := 0.0
		for _, shape := range shapes {
			added += getSphericalLength(shape)
		}
		for _, segment := range path[1:] {
			line.Vertices = append(line.Vertices, segment.Vertex)
		}
		line.Edges = append(line.Edges, edges...)
		line.Shapes = append(line.Shapes, shapes...)
		negativeLength += added
		length += added
		changed = true
	}

	if changed && length > 0 {
		line.PositiveOffset = positiveLength / length * 100
		line.NegativeOffset = negativeLength / length * 100
	}
	return nil
}

// AdjustToValidDistances inserts breakpoints (indices into line.Vertices) until no span between consecutive
// breakpoints is longer than 15000 meters. Breakpoints must be strictly increasing. Returns new breakpoints
func (encoder *Encoder) AdjustToValidDistances(line *ReferencedLine, breakpoints []int) ([]int, error) {
	if len(breakpoints) < 2 {
		return nil, errors.Wrap(ErrInvalidArgument, "at least two breakpoints are required")
	}
	for i, bp := range breakpoints {
		if bp < 0 || bp >= len(line.Vertices) || (i > 0 && bp <= breakpoints[i-1]) {
			return nil, errors.Wrapf(ErrInvalidArgument, "breakpoints %v are not strictly increasing vertex indices", breakpoints)
		}
	}
	if len(line.Shapes) != len(line.Edges) {
		line.Shapes = encoder.shapes(line.Edges)
	}
	prefix := make([]float64, len(line.Vertices))
	for i, l := range line.edgeLengths() {
		prefix[i+1] = prefix[i] + l
	}

	result := []int{breakpoints[0]}
	for i := 1; i < len(breakpoints); i++ {
		inserted, err := encoder.splitSpan(line, prefix, breakpoints[i-1], breakpoints[i])
		if err != nil {
			return nil, err
		}
		result = append(result, inserted...)
		result = append(result, breakpoints[i])
	}
	return result, nil
}

// splitSpan returns interior breakpoints making every part of span [from, to] at most 15000 meters long
func (encoder *Encoder) splitSpan(line *ReferencedLine, prefix []float64, from, to int) ([]int, error) {
	length := prefix[to] - prefix[from]
	if length <= maxLRPDistance {
		return nil, nil
	}
	if to-from < 2 {
		return nil, errors.Wrapf(ErrDistanceLimitUnresolvable, "edge between vertex %d and %d is %.1fm long", line.Vertices[from], line.Vertices[to], length)
	}
	best := -1
	bestScore := 0.0
	for idx := from + 1; idx < to; idx++ {
		score := 0.0
		if encoder.engine.IsVertexValid(line.Vertices[idx]) {
			score += validVertexScore
		}
		if before := prefix[idx] - prefix[from]; before < maxLRPDistance {
			score += spanLengthScore * (before / maxLRPDistance)
		}
		if after := prefix[to] - prefix[idx]; after < maxLRPDistance {
			score += spanLengthScore * (after / maxLRPDistance)
		}
		if best < 0 || score > bestScore {
			best, bestScore = idx, score
		}
	}
	encoder.logger.Debug().
		Int("from", from).
		Int("to", to).
		Int("breakpoint", best).
		Float64("score", bestScore).
		Msg("intermediate point inserted")
	left, err := encoder.splitSpan(line, prefix, from, best)
	if err != nil {
		return nil, err
	}
	right, err := encoder.splitSpan(line, prefix, best, to)
	if err != nil {
		return nil, err
	}
	result := append(left, best)
	return append(result, right...), nil
}
