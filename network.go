package openlr

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// networkEdge is a stored edge, Shape goes From -> To
type networkEdge struct {
	ID     EdgeID
	From   VertexID
	To     VertexID
	Tags   osm.Tags
	Shape  []Coordinate
	Length float64 // meters
	bound  orb.Bound
}

// RoadNetwork is an in-memory road network implementing Graph and EdgeSearcher.
// It must not be modified after being handed to Engine
type RoadNetwork struct {
	vertices  map[VertexID]Coordinate
	adjacency map[VertexID][]Neighbor
	edges     []*networkEdge
	bound     orb.Bound
}

// NewRoadNetwork returns empty network
func NewRoadNetwork() *RoadNetwork {
	return &RoadNetwork{
		vertices:  make(map[VertexID]Coordinate),
		adjacency: make(map[VertexID][]Neighbor),
		edges:     []*networkEdge{},
	}
}

// AddVertex adds vertex or moves already existing one
func (network *RoadNetwork) AddVertex(id VertexID, coordinate Coordinate) error {
	if !coordinate.IsValid() {
		return errors.Wrapf(ErrInvalidArgument, "vertex %d has invalid coordinate %s", id, coordinate)
	}
	if len(network.vertices) == 0 {
		network.bound = coordinate.Point().Bound()
	} else {
		network.bound = network.bound.Extend(coordinate.Point())
	}
	network.vertices[id] = coordinate
	return nil
}

// AddEdge adds edge between existing vertices. Shape may be omitted, then the edge is a straight segment.
// Shape endpoints are glued to vertex coordinates. Edge identifiers start from 1
func (network *RoadNetwork) AddEdge(from, to VertexID, tags osm.Tags, shape []Coordinate) (EdgeID, error) {
	source, ok := network.vertices[from]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidArgument, "source vertex %d does not exist", from)
	}
	target, ok := network.vertices[to]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidArgument, "target vertex %d does not exist", to)
	}
	geom := make([]Coordinate, 0, len(shape)+2)
	if len(shape) == 0 || shape[0] != source {
		geom = append(geom, source)
	}
	geom = append(geom, shape...)
	if geom[len(geom)-1] != target || len(geom) < 2 {
		geom = append(geom, target)
	}
	edge := &networkEdge{
		ID:     EdgeID(len(network.edges) + 1),
		From:   from,
		To:     to,
		Tags:   tags,
		Shape:  geom,
		Length: getSphericalLength(geom),
		bound:  lineString(geom).Bound(),
	}
	network.edges = append(network.edges, edge)
	network.adjacency[from] = append(network.adjacency[from], Neighbor{
		Vertex: to,
		Edge:   Edge{ID: edge.ID, Forward: true, Distance: edge.Length, Tags: tags},
	})
	network.adjacency[to] = append(network.adjacency[to], Neighbor{
		Vertex: from,
		Edge:   Edge{ID: edge.ID, Forward: false, Distance: edge.Length, Tags: tags},
	})
	return edge.ID, nil
}

// VerticesNum returns number of vertices
func (network *RoadNetwork) VerticesNum() int {
	return len(network.vertices)
}

// EdgesNum returns number of edges
func (network *RoadNetwork) EdgesNum() int {
	return len(network.edges)
}

// Bound returns bounding box of all vertices
func (network *RoadNetwork) Bound() orb.Bound {
	return network.bound
}

func (network *RoadNetwork) edge(id EdgeID) (*networkEdge, bool) {
	if id < 1 || int(id) > len(network.edges) {
		return nil, false
	}
	return network.edges[id-1], true
}

// closestOn projects point on the edge. Result is oriented along the stored edge direction
func (network *RoadNetwork) closestOn(edge *networkEdge, pt Coordinate) (ClosestEdge, bool) {
	projected, offset, ok := projectOnLine(edge.Shape, pt)
	if !ok {
		return ClosestEdge{}, false
	}
	return ClosestEdge{
		From:      edge.From,
		To:        edge.To,
		Edge:      Edge{ID: edge.ID, Forward: true, Distance: edge.Length, Tags: edge.Tags},
		Projected: projected,
		Offset:    offset,
		Distance:  greatCircleDistance(projected, pt),
	}, true
}

// ClosestEdge returns the nearest edge accepted by filter. Equally distant edges are resolved by the lowest identifier
func (network *RoadNetwork) ClosestEdge(pt Coordinate, tolerance float64, accept func(Edge) bool) (ClosestEdge, bool) {
	found := false
	var best ClosestEdge
	for _, edge := range network.edges {
		if tolerance > 0 && !geo.BoundPad(edge.bound, tolerance).Contains(pt.Point()) {
			continue
		}
		closest, ok := network.closestOn(edge, pt)
		if !ok || (tolerance > 0 && closest.Distance > tolerance) {
			continue
		}
		if accept != nil && !accept(closest.Edge) {
			continue
		}
		if !found || closest.Distance < best.Distance {
			best = closest
			found = true
		}
	}
	return best, found
}

// EdgesWithin returns every edge not farther than radius ordered by distance
func (network *RoadNetwork) EdgesWithin(pt Coordinate, radius float64) []ClosestEdge {
	result := []ClosestEdge{}
	for _, edge := range network.edges {
		if !geo.BoundPad(edge.bound, radius).Contains(pt.Point()) {
			continue
		}
		closest, ok := network.closestOn(edge, pt)
		if !ok || closest.Distance > radius {
			continue
		}
		result = append(result, closest)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Distance < result[j].Distance
	})
	return result
}

// Neighbors returns incident edges in insertion order. Returned slice must not be modified
func (network *RoadNetwork) Neighbors(vertex VertexID) []Neighbor {
	return network.adjacency[vertex]
}

// EdgeShape returns copy of the edge geometry oriented along the traversal direction
func (network *RoadNetwork) EdgeShape(edge Edge) []Coordinate {
	stored, ok := network.edge(edge.ID)
	if !ok {
		return nil
	}
	if edge.Forward {
		return copyLine(stored.Shape)
	}
	return reverseLine(stored.Shape)
}

func (network *RoadNetwork) VertexCoordinate(vertex VertexID) (Coordinate, bool) {
	coordinate, ok := network.vertices[vertex]
	return coordinate, ok
}

// IsVertexValid treats vertices connecting exactly two distinct neighbors (pass-through points) as invalid
func (network *RoadNetwork) IsVertexValid(vertex VertexID) bool {
	distinct := make(map[VertexID]struct{}, 2)
	for _, neighbor := range network.adjacency[vertex] {
		if neighbor.Vertex == vertex {
			continue
		}
		distinct[neighbor.Vertex] = struct{}{}
		if len(distinct) > 2 {
			return true
		}
	}
	return len(distinct) != 2
}
