package openlr

import (
	"github.com/paulmach/osm"
)

// VertexID is identifier of a vertex in the road network graph
type VertexID int64

// EdgeID is identifier of an edge in the road network graph
type EdgeID int64

// Edge is a road network edge as seen from one of its ends.
// Forward is true when the edge is traversed in its stored direction
type Edge struct {
	ID       EdgeID
	Forward  bool
	Distance float64 // meters
	Tags     osm.Tags
}

// Reverse returns the same edge as seen from the opposite end
func (edge Edge) Reverse() Edge {
	return Edge{
		ID:       edge.ID,
		Forward:  !edge.Forward,
		Distance: edge.Distance,
		Tags:     edge.Tags,
	}
}

// Neighbor is an adjacent vertex and the edge leading to it (oriented away from the queried vertex)
type Neighbor struct {
	Vertex VertexID
	Edge   Edge
}

// ClosestEdge is a result of the closest edge lookup. Edge is oriented From -> To
type ClosestEdge struct {
	From      VertexID
	To        VertexID
	Edge      Edge
	Projected Coordinate
	// Offset is distance (meters) from From to the projected point along the edge shape
	Offset float64
	// Distance is distance (meters) from the queried point to the projected point
	Distance float64
}

// Graph is the road network consumed by the search engine. Implementations must be safe for concurrent reads
type Graph interface {
	// ClosestEdge returns the nearest edge to given point among edges accepted by filter (nil accepts every edge).
	// Tolerance (meters) <= 0 means unbounded
	ClosestEdge(pt Coordinate, tolerance float64, accept func(Edge) bool) (ClosestEdge, bool)
	// Neighbors returns edges incident to given vertex oriented away from it
	Neighbors(vertex VertexID) []Neighbor
	// EdgeShape returns geometry of the edge in direction of its traversal (endpoints included)
	EdgeShape(edge Edge) []Coordinate
	VertexCoordinate(vertex VertexID) (Coordinate, bool)
	// IsVertexValid reports whether vertex may be used as a location reference point
	IsVertexValid(vertex VertexID) bool
}

// EdgeSearcher is implemented by graphs able to return every edge within the radius (meters)
type EdgeSearcher interface {
	EdgesWithin(pt Coordinate, radius float64) []ClosestEdge
}

// VertexRouter is implemented by precomputed routers (e.g. contraction hierarchies).
// ShortestPath returns vertices ordered from `from` to `to` or nil when no path exists.
// When reverse is true the path follows incoming edges, i.e. real travel goes from `to` to `from`
type VertexRouter interface {
	ShortestPath(from, to VertexID, reverse bool) []VertexID
}

// VehicleProfile describes how a vehicle uses the network
type VehicleProfile interface {
	CanTraverse(tags osm.Tags) bool
	// IsOneWay returns nil for two-way roads, true when the road is open in its stored direction only
	// and false when it is open in the opposite direction only
	IsOneWay(tags osm.Tags) *bool
	// Weight returns non-negative traversal cost for given distance (meters)
	Weight(tags osm.Tags, distance float64) float64
}

// AttributeMapper translates edge tags to OpenLR road attributes
type AttributeMapper interface {
	FunctionalRoadClass(tags osm.Tags) (FunctionalRoadClass, bool)
	FormOfWay(tags osm.Tags) (FormOfWay, bool)
}

// roadAttributes returns FRC and FOW for given tags falling back to the lowest class and undefined form
func roadAttributes(mapper AttributeMapper, tags osm.Tags) (FunctionalRoadClass, FormOfWay) {
	frc, fow := FRC_7, FOW_UNDEFINED
	if mapper == nil {
		return frc, fow
	}
	if v, ok := mapper.FunctionalRoadClass(tags); ok {
		frc = v
	}
	if v, ok := mapper.FormOfWay(tags); ok {
		fow = v
	}
	return frc, fow
}
