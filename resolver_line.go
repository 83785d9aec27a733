package openlr

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
)

const (
	distanceRating = 0.4
	bearingRating  = 0.3
	frcRating      = 0.15
	fowRating      = 0.15
)

// candidateVertices returns vertices lying within candidate radius of given point ordered by distance
func (decoder *Decoder) candidateVertices(pt Coordinate) []VertexID {
	type nearby struct {
		vertex   VertexID
		distance float64
	}
	seen := make(map[VertexID]struct{})
	found := []nearby{}
	add := func(vertex VertexID) {
		if _, ok := seen[vertex]; ok {
			return
		}
		seen[vertex] = struct{}{}
		coordinate, ok := decoder.engine.graph.VertexCoordinate(vertex)
		if !ok {
			return
		}
		d := greatCircleDistance(pt, coordinate)
		if d > decoder.candidateRadius {
			return
		}
		found = append(found, nearby{vertex: vertex, distance: d})
	}
	if searcher, ok := decoder.engine.graph.(EdgeSearcher); ok {
		for _, closest := range searcher.EdgesWithin(pt, decoder.candidateRadius) {
			add(closest.From)
			add(closest.To)
		}
	} else if closest, ok := decoder.engine.graph.ClosestEdge(pt, decoder.candidateRadius, nil); ok {
		add(closest.From)
		add(closest.To)
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].distance < found[j].distance
	})
	vertices := make([]VertexID, len(found))
	for i := range found {
		vertices[i] = found[i].vertex
	}
	return vertices
}

// candidatesFor rates vertex-edge pairs around location reference point.
// For the last point edges are incoming ones (Edge leads from Target to Vertex), for others outgoing
func (decoder *Decoder) candidatesFor(lrp LocationReferencePoint, last bool) []CandidateVertexEdge {
	candidates := []CandidateVertexEdge{}
	for _, vertex := range decoder.candidateVertices(lrp.Coordinate) {
		coordinate, _ := decoder.engine.graph.VertexCoordinate(vertex)
		distanceScore := 1 - greatCircleDistance(lrp.Coordinate, coordinate)/decoder.candidateRadius
		for _, neighbor := range decoder.engine.graph.Neighbors(vertex) {
			edge := neighbor.Edge
			if last {
				edge = edge.Reverse()
			}
			if !decoder.engine.Traversable(edge) {
				continue
			}
			// Shape of the outgoing orientation starts at the vertex in both cases
			bearing := bearingAlongLine(decoder.engine.graph.EdgeShape(neighbor.Edge), bearingDistance)
			frc, fow := roadAttributes(decoder.mapper, edge.Tags)
			score := distanceRating*math.Max(0, distanceScore) +
				bearingRating*(1-angleDifference(bearing, lrp.Bearing)/180) +
				frcRating*frcScore(frc, lrp.FRC) +
				fowRating*fowScore(fow, lrp.FOW)
			candidates = append(candidates, CandidateVertexEdge{
				Vertex: vertex,
				Target: neighbor.Vertex,
				Edge:   edge,
				Score:  score,
			})
		}
	}
	SortCandidates(candidates)
	if decoder.maxCandidates > 0 && len(candidates) > decoder.maxCandidates {
		candidates = candidates[:decoder.maxCandidates]
	}
	return candidates
}

func frcScore(actual, expected FunctionalRoadClass) float64 {
	return 1 - math.Abs(float64(actual)-float64(expected))/float64(FRC_7)
}

func fowScore(actual, expected FormOfWay) float64 {
	switch {
	case actual == expected:
		return 1
	case actual == FOW_UNDEFINED || expected == FOW_UNDEFINED:
		return 0.5
	}
	return 0
}

// candidatePair is a combination of candidates of two consecutive location reference points
type candidatePair struct {
	source CandidateVertexEdge
	target CandidateVertexEdge
	score  float64
}

func rankPairs(sources, targets []CandidateVertexEdge) []candidatePair {
	pairs := make([]candidatePair, 0, len(sources)*len(targets))
	for _, source := range sources {
		for _, target := range targets {
			if source.Vertex == target.Vertex {
				continue
			}
			pairs = append(pairs, candidatePair{source: source, target: target, score: source.Score + target.Score})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})
	return pairs
}

// spanRoute returns path which starts with source edge and ends at target vertex.
// When target belongs to the last point the path ends with target edge
func (decoder *Decoder) spanRoute(ctx context.Context, pair candidatePair, last bool) (*ReferencedLine, error) {
	source, target := pair.source, pair.target
	if last && source.Edge.ID == target.Edge.ID && source.Edge.Forward == target.Edge.Forward && source.Target == target.Vertex {
		return &ReferencedLine{
			Vertices: []VertexID{source.Vertex, target.Vertex},
			Edges:    []Edge{source.Edge},
		}, nil
	}
	destination := target.Vertex
	if last {
		destination = target.Target
	}
	vertices, edges, err := decoder.engine.route(ctx, source.Target, destination)
	if err != nil {
		return nil, err
	}
	line := &ReferencedLine{
		Vertices: append([]VertexID{source.Vertex}, vertices...),
		Edges:    append([]Edge{source.Edge}, edges...),
	}
	if last {
		line.Vertices = append(line.Vertices, target.Vertex)
		line.Edges = append(line.Edges, target.Edge)
	}
	return line, nil
}

// resolveSpan picks the best rated pair of candidates whose route length agrees with distance to next point
func (decoder *Decoder) resolveSpan(ctx context.Context, sources, targets []CandidateVertexEdge, distanceToNext float64, last bool) (*ReferencedLine, error) {
	minLength := distanceToNext - decoder.distanceTolerance
	maxLength := distanceToNext + distanceStep + decoder.distanceTolerance
	for _, pair := range rankPairs(sources, targets) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := decoder.spanRoute(ctx, pair, last)
		if err != nil {
			if errors.Is(err, ErrPathNotFound) {
				continue
			}
			return nil, err
		}
		line.Shapes = decoder.shapes(line.Edges)
		length := line.Length()
		if length < minLength || length > maxLength {
			decoder.logger.Debug().
				Int64("from", int64(pair.source.Vertex)).
				Int64("to", int64(pair.target.Vertex)).
				Float64("length", length).
				Float64("distance_to_next", distanceToNext).
				Msg("candidate route rejected")
			continue
		}
		return line, nil
	}
	return nil, errors.Wrapf(ErrPathNotFound, "no candidate route matches distance %.1fm", distanceToNext)
}

func (decoder *Decoder) shapes(edges []Edge) [][]Coordinate {
	shapes := make([][]Coordinate, len(edges))
	for i, edge := range edges {
		shapes[i] = decoder.engine.graph.EdgeShape(edge)
	}
	return shapes
}

// resolvePoints maps location reference points onto a connected path. Spans are chained greedily:
// the next span starts at the vertex where the previous one ended
func (decoder *Decoder) resolvePoints(ctx context.Context, points []LocationReferencePoint) (*ReferencedLine, error) {
	if len(points) < 2 {
		return nil, errors.Wrapf(ErrInvalidArgument, "at least two location reference points expected, got %d", len(points))
	}
	candidates := make([][]CandidateVertexEdge, len(points))
	for i, lrp := range points {
		last := i == len(points)-1
		candidates[i] = decoder.candidatesFor(lrp, last)
		if len(candidates[i]) == 0 {
			return nil, errors.Wrapf(ErrNoNetworkNearby, "location reference point #%d at %s, radius %.1fm", i, lrp.Coordinate, decoder.candidateRadius)
		}
		decoder.logger.Debug().Int("lrp", i).Int("candidates", len(candidates[i])).Msg("candidates found")
	}
	var result *ReferencedLine
	sources := candidates[0]
	for i := 0; i < len(points)-1; i++ {
		last := i+1 == len(points)-1
		span, err := decoder.resolveSpan(ctx, sources, candidates[i+1], points[i].DistanceToNext, last)
		if err != nil {
			return nil, errors.Wrapf(err, "span #%d", i)
		}
		if result == nil {
			result = span
		} else if err := result.Add(span); err != nil {
			return nil, err
		}
		if last {
			break
		}
		end := span.Vertices[len(span.Vertices)-1]
		sources = []CandidateVertexEdge{}
		for _, candidate := range candidates[i+1] {
			if candidate.Vertex == end {
				sources = append(sources, candidate)
			}
		}
		if len(sources) == 0 {
			return nil, errors.Wrapf(ErrPathNotFound, "no candidate continues from vertex %d at location reference point #%d", end, i+1)
		}
	}
	return result, nil
}

func (decoder *Decoder) resolveLineLocation(ctx context.Context, loc Location) (ReferencedLocation, error) {
	line, ok := loc.(*LineLocation)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidArgument, "line location expected, got %T", loc)
	}
	resolved, err := decoder.resolvePoints(ctx, line.Points)
	if err != nil {
		return nil, errors.Wrap(err, "can't resolve line location")
	}
	resolved.PositiveOffset = line.PositiveOffset
	resolved.NegativeOffset = line.NegativeOffset
	decoder.logger.Debug().
		Int("points", len(line.Points)).
		Int("vertices", len(resolved.Vertices)).
		Float64("length", resolved.Length()).
		Msg("line resolved")
	return resolved, nil
}

func (decoder *Decoder) resolvePointAlongLineLocation(ctx context.Context, loc Location) (ReferencedLocation, error) {
	pal, ok := loc.(*PointAlongLineLocation)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidArgument, "point along line location expected, got %T", loc)
	}
	route, err := decoder.resolvePoints(ctx, []LocationReferencePoint{pal.First, pal.Last})
	if err != nil {
		return nil, errors.Wrap(err, "can't resolve point along line location")
	}
	coordinate := pointAlongLine(route.Coordinates(), pal.PositiveOffset/100*route.Length())
	decoder.logger.Debug().
		Str("coordinate", coordinate.String()).
		Int("vertices", len(route.Vertices)).
		Msg("point along line resolved")
	return &ReferencedPointAlongLine{
		Route:       route,
		Coordinate:  coordinate,
		Orientation: pal.Orientation,
		SideOfRoad:  pal.SideOfRoad,
	}, nil
}
