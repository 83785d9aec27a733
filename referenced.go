package openlr

import (
	"github.com/pkg/errors"
)

// ReferencedLocation is a location bound to a road network graph
type ReferencedLocation interface {
	Type() LocationType
	referenced()
}

// ReferencedLine is a path in the graph: Edges[i] leads from Vertices[i] to Vertices[i+1]
type ReferencedLine struct {
	Vertices []VertexID
	Edges    []Edge
	// Shapes holds geometry of every edge oriented along the path
	Shapes [][]Coordinate
	// PositiveOffset trims the start of the path, percent of the path length
	PositiveOffset float64
	// NegativeOffset trims the end of the path, percent of the path length
	NegativeOffset float64
}

func (*ReferencedLine) Type() LocationType { return LOCATION_LINE }
func (*ReferencedLine) referenced()        {}

// Length returns geometric length of the path (meters)
func (line *ReferencedLine) Length() float64 {
	total := 0.0
	for _, shape := range line.Shapes {
		total += getSphericalLength(shape)
	}
	return total
}

// edgeLengths returns geometric length of every edge
func (line *ReferencedLine) edgeLengths() []float64 {
	lengths := make([]float64, len(line.Shapes))
	for i, shape := range line.Shapes {
		lengths[i] = getSphericalLength(shape)
	}
	return lengths
}

// Coordinates returns geometry of the whole path
func (line *ReferencedLine) Coordinates() []Coordinate {
	return line.coordinatesBetween(0, len(line.Vertices)-1)
}

// LocationCoordinates returns geometry of the path trimmed by offsets
func (line *ReferencedLine) LocationCoordinates() []Coordinate {
	coordinates := line.Coordinates()
	length := getSphericalLength(coordinates)
	return lineSubstring(coordinates, line.PositiveOffset/100*length, length-line.NegativeOffset/100*length)
}

// coordinatesBetween returns geometry of the path between vertex indices [from, to]
func (line *ReferencedLine) coordinatesBetween(from, to int) []Coordinate {
	result := []Coordinate{}
	for i := from; i < to && i < len(line.Shapes); i++ {
		shape := line.Shapes[i]
		if len(result) > 0 && len(shape) > 0 && result[len(result)-1] == shape[0] {
			shape = shape[1:]
		}
		result = append(result, shape...)
	}
	return result
}

// Clone returns deep copy of the line
func (line *ReferencedLine) Clone() *ReferencedLine {
	clone := &ReferencedLine{
		Vertices:       make([]VertexID, len(line.Vertices)),
		Edges:          make([]Edge, len(line.Edges)),
		Shapes:         make([][]Coordinate, len(line.Shapes)),
		PositiveOffset: line.PositiveOffset,
		NegativeOffset: line.NegativeOffset,
	}
	copy(clone.Vertices, line.Vertices)
	copy(clone.Edges, line.Edges)
	for i, shape := range line.Shapes {
		clone.Shapes[i] = copyLine(shape)
	}
	return clone
}

// Add appends another line starting at the last vertex of this one
func (line *ReferencedLine) Add(other *ReferencedLine) error {
	if len(line.Vertices) == 0 || len(other.Vertices) == 0 || line.Vertices[len(line.Vertices)-1] != other.Vertices[0] {
		return errors.Wrap(ErrInvalidArgument, "lines have no vertex in common")
	}
	line.Vertices = append(line.Vertices, other.Vertices[1:]...)
	line.Edges = append(line.Edges, other.Edges...)
	line.Shapes = append(line.Shapes, other.Shapes...)
	return nil
}

// validatePath checks vertex/edge counts and offset ranges of a path
func validatePath(vertices []VertexID, edges []Edge, positiveOffset, negativeOffset float64) error {
	if len(vertices) < 2 || len(edges) < 1 {
		return errors.Wrapf(ErrInvalidArgument, "path needs at least two vertices and one edge, got %d and %d", len(vertices), len(edges))
	}
	if len(edges)+1 != len(vertices) {
		return errors.Wrapf(ErrInvalidArgument, "number of vertices (%d) must be number of edges (%d) + 1", len(vertices), len(edges))
	}
	if positiveOffset < 0 || positiveOffset >= 100 {
		return errors.Wrapf(ErrInvalidArgument, "positive offset %f is out of range [0, 100)", positiveOffset)
	}
	if negativeOffset < 0 || negativeOffset >= 100 {
		return errors.Wrapf(ErrInvalidArgument, "negative offset %f is out of range [0, 100)", negativeOffset)
	}
	if positiveOffset+negativeOffset > 100 {
		return errors.Wrapf(ErrInvalidArgument, "offsets %f and %f sum over 100", positiveOffset, negativeOffset)
	}
	return nil
}

// ValidateConnected checks that every edge joins its vertices and is traversable in the path direction
func (line *ReferencedLine) ValidateConnected(engine *Engine) error {
	if err := validatePath(line.Vertices, line.Edges, line.PositiveOffset, line.NegativeOffset); err != nil {
		return err
	}
	for i, edge := range line.Edges {
		from, to := line.Vertices[i], line.Vertices[i+1]
		found := false
		for _, neighbor := range engine.graph.Neighbors(from) {
			if neighbor.Vertex == to && neighbor.Edge.ID == edge.ID && neighbor.Edge.Forward == edge.Forward {
				found = true
				break
			}
		}
		if !found {
			return errors.Wrapf(ErrInvalidArgument, "edge %d cannot be found between vertex %d and %d, path is not connected", edge.ID, from, to)
		}
		if !engine.vehicle.CanTraverse(edge.Tags) {
			return errors.Wrapf(ErrInvalidArgument, "edge at index %d cannot be traversed by vehicle", i)
		}
		if !engine.Traversable(edge) {
			return errors.Wrapf(ErrInvalidArgument, "edge at index %d cannot be traversed by vehicle in the given direction", i)
		}
	}
	return nil
}

// ReferencedPointAlongLine is a point on (or beside) a one-edge route
type ReferencedPointAlongLine struct {
	Route       *ReferencedLine
	Coordinate  Coordinate
	Orientation Orientation
	SideOfRoad  SideOfRoad
}

func (*ReferencedPointAlongLine) Type() LocationType { return LOCATION_POINT_ALONG_LINE }
func (*ReferencedPointAlongLine) referenced()        {}

// Area locations do not depend on the graph, they carry location objects as is

type ReferencedGeoCoordinate struct {
	Coordinate Coordinate
}

func (*ReferencedGeoCoordinate) Type() LocationType { return LOCATION_GEO_COORDINATE }
func (*ReferencedGeoCoordinate) referenced()        {}

type ReferencedCircle struct {
	Center Coordinate
	Radius uint32 // meters
}

func (*ReferencedCircle) Type() LocationType { return LOCATION_CIRCLE }
func (*ReferencedCircle) referenced()        {}

type ReferencedRectangle struct {
	LowerLeft  Coordinate
	UpperRight Coordinate
}

func (*ReferencedRectangle) Type() LocationType { return LOCATION_RECTANGLE }
func (*ReferencedRectangle) referenced()        {}

type ReferencedGrid struct {
	LowerLeft  Coordinate
	UpperRight Coordinate
	Columns    int
	Rows       int
}

func (*ReferencedGrid) Type() LocationType { return LOCATION_GRID }
func (*ReferencedGrid) referenced()        {}

type ReferencedPolygon struct {
	Corners []Coordinate
}

func (*ReferencedPolygon) Type() LocationType { return LOCATION_POLYGON }
func (*ReferencedPolygon) referenced()        {}
