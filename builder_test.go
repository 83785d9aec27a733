package openlr

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

// longChainNetwork is 1 - 2 - 3 - 4 - 5 along the equator, 6000m per edge
func longChainNetwork(t *testing.T) *RoadNetwork {
	primary := highway("primary")
	return buildNetwork(t,
		map[VertexID]Coordinate{
			1: at(0, 0),
			2: at(6000, 0),
			3: at(12000, 0),
			4: at(18000, 0),
			5: at(24000, 0),
		},
		[]testEdge{
			{1, 2, primary},
			{2, 3, primary},
			{3, 4, primary},
			{4, 5, primary},
		},
	)
}

func pathEdges(t *testing.T, network *RoadNetwork, vertices []VertexID) []Edge {
	t.Helper()
	edges := []Edge{}
	for i := 0; i < len(vertices)-1; i++ {
		found := false
		for _, neighbor := range network.Neighbors(vertices[i]) {
			if neighbor.Vertex == vertices[i+1] {
				edges = append(edges, neighbor.Edge)
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("No edge between %d and %d", vertices[i], vertices[i+1])
		}
	}
	return edges
}

func TestBuildLineLocation(t *testing.T) {
	network := chainNetwork(t)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})
	vertices := []VertexID{1, 2, 3}
	line, err := encoder.BuildLineLocation(context.Background(), vertices, pathEdges(t, network, vertices), 10, 20)
	if err != nil {
		t.Error(err)
		return
	}
	if Round(line.Length(), 0.01) != 2000 {
		t.Errorf("Line length must be %f, but got %f", 2000.0, line.Length())
	}
	trimmed := line.LocationCoordinates()
	if l := getSphericalLength(trimmed); Round(l, 0.01) != 1400 {
		t.Errorf("Trimmed line length must be %f, but got %f", 1400.0, l)
	}

	cases := []struct {
		name     string
		vertices []VertexID
		edges    []Edge
		pos, neg float64
	}{
		{"single vertex", []VertexID{1}, nil, 0, 0},
		{"edge count mismatch", []VertexID{1, 2, 3}, pathEdges(t, network, []VertexID{1, 2}), 0, 0},
		{"offsets over 100", vertices, pathEdges(t, network, vertices), 60, 50},
		{"negative offset", vertices, pathEdges(t, network, vertices), -1, 0},
		{"disconnected", []VertexID{1, 3}, pathEdges(t, network, []VertexID{1, 2}), 0, 0},
	}
	for _, c := range cases {
		if _, err := encoder.BuildLineLocation(context.Background(), c.vertices, c.edges, c.pos, c.neg); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Path '%s' must fail with %v, but got %v", c.name, ErrInvalidArgument, err)
		}
	}
}

func TestBuildLineLocationFromPoints(t *testing.T) {
	network := chainNetwork(t)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})
	line, err := encoder.BuildLineLocationFromPoints(context.Background(), at(500, 10), at(2500, -10), 50)
	if err != nil {
		t.Error(err)
		return
	}
	if !reflect.DeepEqual(line.Vertices, []VertexID{1, 2, 3, 4}) {
		t.Errorf("Vertices must be [1 2 3 4], but got %v", line.Vertices)
	}
	if Round(line.PositiveOffset, 0.01) != Round(500.0/3000*100, 0.01) {
		t.Errorf("Positive offset must be %f, but got %f", 500.0/3000*100, line.PositiveOffset)
	}
	if Round(line.NegativeOffset, 0.01) != Round(500.0/3000*100, 0.01) {
		t.Errorf("Negative offset must be %f, but got %f", 500.0/3000*100, line.NegativeOffset)
	}

	// Both points on the same edge, travelling against its stored direction
	line, err = encoder.BuildLineLocationFromPoints(context.Background(), at(1800, 0), at(1200, 0), 50)
	if err != nil {
		t.Error(err)
		return
	}
	if !reflect.DeepEqual(line.Vertices, []VertexID{3, 2}) || line.Edges[0].Forward {
		t.Errorf("Path must be reversed edge [3 2], but got %v", line.Vertices)
	}
	if Round(line.PositiveOffset, 0.01) != 20 || Round(line.NegativeOffset, 0.01) != 20 {
		t.Errorf("Offsets must be 20 and 20, but got %f and %f", line.PositiveOffset, line.NegativeOffset)
	}

	if _, err := encoder.BuildLineLocationFromPoints(context.Background(), at(500, 500), at(2500, 0), 100); !errors.Is(err, ErrNoNetworkNearby) {
		t.Errorf("Point far from network must fail with %v, but got %v", ErrNoNetworkNearby, err)
	}
}

func TestAdjustToValidPoints(t *testing.T) {
	network := chainNetwork(t)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})
	vertices := []VertexID{2, 3}
	line, err := encoder.BuildLineLocation(context.Background(), vertices, pathEdges(t, network, vertices), 0, 0)
	if err != nil {
		t.Error(err)
		return
	}
	if err := encoder.AdjustToValidPoints(context.Background(), line); err != nil {
		t.Error(err)
		return
	}
	if !reflect.DeepEqual(line.Vertices, []VertexID{1, 2, 3, 4}) {
		t.Errorf("Vertices must be extended to [1 2 3 4], but got %v", line.Vertices)
	}
	if len(line.Edges) != 3 || len(line.Shapes) != 3 {
		t.Errorf("Line must have 3 edges and shapes, but got %d and %d", len(line.Edges), len(line.Shapes))
	}
	if err := line.ValidateConnected(encoder.engine); err != nil {
		t.Errorf("Extended line must stay connected: %s", err)
	}
	if Round(line.PositiveOffset, 0.01) != Round(100.0/3, 0.01) || Round(line.NegativeOffset, 0.01) != Round(100.0/3, 0.01) {
		t.Errorf("Offsets must be %f and %f, but got %f and %f", 100.0/3, 100.0/3, line.PositiveOffset, line.NegativeOffset)
	}
	// Trimmed geometry keeps pointing to the original edge
	trimmed := line.LocationCoordinates()
	if start := trimmed[0].Lon * metersPerDegree; Round(start, 0.1) != 1000 {
		t.Errorf("Location must start at %fm, but got %fm", 1000.0, start)
	}

	before := line.Clone()
	if err := encoder.AdjustToValidPoints(context.Background(), line); err != nil {
		t.Error(err)
		return
	}
	if !reflect.DeepEqual(before.Vertices, line.Vertices) || before.PositiveOffset != line.PositiveOffset || before.NegativeOffset != line.NegativeOffset {
		t.Errorf("Line with valid ends must stay untouched, but got %v", line.Vertices)
	}
}

func TestAdjustToValidPointsRejectsDetour(t *testing.T) {
	primary := highway("primary")
	// 1 and 3 are joined directly, so anchoring the path 2 -> 3 at vertex 1 would change the route
	network := buildNetwork(t,
		map[VertexID]Coordinate{
			1: at(0, 0),
			2: at(500, 800),
			3: at(1000, 0),
			7: at(-1000, 0),
			8: at(2000, 0),
		},
		[]testEdge{
			{1, 2, primary},
			{2, 3, primary},
			{1, 3, primary},
			{1, 7, primary},
			{3, 8, primary},
		},
	)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})
	vertices := []VertexID{2, 3}
	line, err := encoder.BuildLineLocation(context.Background(), vertices, pathEdges(t, network, vertices), 0, 0)
	if err != nil {
		t.Error(err)
		return
	}
	if err := encoder.AdjustToValidPoints(context.Background(), line); !errors.Is(err, ErrNoValidAnchorFound) {
		t.Errorf("Anchor search must fail with %v, but got %v", ErrNoValidAnchorFound, err)
	}
}

func TestAdjustToValidDistances(t *testing.T) {
	network := longChainNetwork(t)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})
	vertices := []VertexID{1, 2, 3, 4, 5}
	line, err := encoder.BuildLineLocation(context.Background(), vertices, pathEdges(t, network, vertices), 0, 0)
	if err != nil {
		t.Error(err)
		return
	}
	breakpoints, err := encoder.AdjustToValidDistances(line, []int{0, 4})
	if err != nil {
		t.Error(err)
		return
	}
	if !reflect.DeepEqual(breakpoints, []int{0, 2, 4}) {
		t.Errorf("Breakpoints must be [0 2 4], but got %v", breakpoints)
	}
	lengths := line.edgeLengths()
	for k := 1; k < len(breakpoints); k++ {
		span := 0.0
		for i := breakpoints[k-1]; i < breakpoints[k]; i++ {
			span += lengths[i]
		}
		if span > maxLRPDistance {
			t.Errorf("Span #%d must not exceed %fm, but got %fm", k, maxLRPDistance, span)
		}
	}
	if _, err := encoder.AdjustToValidDistances(line, []int{0}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Single breakpoint must fail with %v, but got %v", ErrInvalidArgument, err)
	}
	if _, err := encoder.AdjustToValidDistances(line, []int{2, 1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Decreasing breakpoints must fail with %v, but got %v", ErrInvalidArgument, err)
	}
}

func TestAdjustToValidDistancesLongEdge(t *testing.T) {
	network := buildNetwork(t,
		map[VertexID]Coordinate{1: at(0, 0), 2: at(20000, 0)},
		[]testEdge{{1, 2, highway("motorway")}},
	)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})
	line, err := encoder.BuildLineLocation(context.Background(), []VertexID{1, 2}, pathEdges(t, network, []VertexID{1, 2}), 0, 0)
	if err != nil {
		t.Error(err)
		return
	}
	if _, err := encoder.AdjustToValidDistances(line, []int{0, 1}); !errors.Is(err, ErrDistanceLimitUnresolvable) {
		t.Errorf("Single edge over 15km must fail with %v, but got %v", ErrDistanceLimitUnresolvable, err)
	}
	if _, err := encoder.EncodeLine(context.Background(), line); !errors.Is(err, ErrDistanceLimitUnresolvable) {
		t.Errorf("Encoding single edge over 15km must fail with %v, but got %v", ErrDistanceLimitUnresolvable, err)
	}
}

func TestBuildPointAlongLine(t *testing.T) {
	network := chainNetwork(t)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})
	pal, err := encoder.BuildPointAlongLine(context.Background(), at(1500, 20), 50)
	if err != nil {
		t.Error(err)
		return
	}
	if !reflect.DeepEqual(pal.Route.Vertices, []VertexID{1, 2, 3, 4}) {
		t.Errorf("Route must be anchored at valid vertices [1 2 3 4], but got %v", pal.Route.Vertices)
	}
	if pal.SideOfRoad != SIDE_LEFT {
		t.Errorf("Side of road must be %s, but got %s", SIDE_LEFT, pal.SideOfRoad)
	}
	if pal.Orientation != ORIENTATION_NONE {
		t.Errorf("Orientation on two-way road must be %s, but got %s", ORIENTATION_NONE, pal.Orientation)
	}

	if _, err := encoder.BuildPointAlongLine(context.Background(), at(1500, 500), 100); !errors.Is(err, ErrNoNetworkNearby) {
		t.Errorf("Point far from network must fail with %v, but got %v", ErrNoNetworkNearby, err)
	}

	long := buildNetwork(t,
		map[VertexID]Coordinate{1: at(0, 0), 2: at(16000, 0)},
		[]testEdge{{1, 2, highway("motorway")}},
	)
	encoder = NewEncoder(NewEngine(long, NewCarProfile(nil)), OSMAttributeMapper{})
	if _, err := encoder.BuildPointAlongLine(context.Background(), at(8000, 0), 50); !errors.Is(err, ErrDistanceLimitUnresolvable) {
		t.Errorf("Point on edge over 15km must fail with %v, but got %v", ErrDistanceLimitUnresolvable, err)
	}
}

func TestEncodeLine(t *testing.T) {
	network := longChainNetwork(t)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})
	vertices := []VertexID{1, 2, 3, 4, 5}
	line, err := encoder.BuildLineLocation(context.Background(), vertices, pathEdges(t, network, vertices), 0, 0)
	if err != nil {
		t.Error(err)
		return
	}
	loc, err := encoder.EncodeLine(context.Background(), line)
	if err != nil {
		t.Error(err)
		return
	}
	if len(loc.Points) != 3 {
		t.Errorf("Line of 24km must have %d LRPs, but got %d", 3, len(loc.Points))
		return
	}
	for i, lrp := range loc.Points {
		if lrp.FRC != FRC_2 || lrp.FOW != FOW_SINGLE_CARRIAGEWAY {
			t.Errorf("LRP #%d attributes must be %s/%s, but got %s/%s", i, FRC_2, FOW_SINGLE_CARRIAGEWAY, lrp.FRC, lrp.FOW)
		}
	}
	if Round(loc.Points[0].DistanceToNext, 0.1) != 12000 {
		t.Errorf("Distance to next must be %f, but got %f", 12000.0, loc.Points[0].DistanceToNext)
	}
	if angleDifference(loc.Points[0].Bearing, 90) > 0.01 {
		t.Errorf("First bearing must be %f, but got %f", 90.0, loc.Points[0].Bearing)
	}
	if angleDifference(loc.Points[2].Bearing, 270) > 0.01 {
		t.Errorf("Last bearing must be %f, but got %f", 270.0, loc.Points[2].Bearing)
	}
	if len(line.Vertices) != 5 || line.PositiveOffset != 0 {
		t.Errorf("Source line must stay untouched")
	}
	if _, err := Encode(loc); err != nil {
		t.Errorf("Encoded line must be serializable: %s", err)
	}
}

func TestEncodePointAlongLine(t *testing.T) {
	network := chainNetwork(t)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})
	pal, err := encoder.BuildPointAlongLine(context.Background(), at(1500, 20), 50)
	if err != nil {
		t.Error(err)
		return
	}
	loc, err := encoder.EncodePointAlongLine(context.Background(), pal)
	if err != nil {
		t.Error(err)
		return
	}
	if Round(loc.PositiveOffset, 0.01) != 50 {
		t.Errorf("Positive offset must be %f, but got %f", 50.0, loc.PositiveOffset)
	}
	if Round(loc.First.DistanceToNext, 0.1) != 3000 {
		t.Errorf("Distance to next must be %f, but got %f", 3000.0, loc.First.DistanceToNext)
	}
	if math.Abs(loc.Last.Coordinate.Lon*metersPerDegree-3000) > 0.01 {
		t.Errorf("Last LRP must lie at vertex 4, but got %s", loc.Last.Coordinate)
	}
	if _, err := encoder.EncodePointAlongLine(context.Background(), &ReferencedPointAlongLine{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Point without route must fail with %v, but got %v", ErrInvalidArgument, err)
	}
}

func TestEncodeAreas(t *testing.T) {
	encoder := NewEncoder(NewEngine(NewRoadNetwork(), NewCarProfile(nil)), nil)
	corners := []Coordinate{at(0, 0), at(100, 0), at(100, 100)}
	loc, err := encoder.Encode(context.Background(), &ReferencedPolygon{Corners: corners})
	if err != nil {
		t.Error(err)
		return
	}
	polygon := loc.(*PolygonLocation)
	corners[0] = at(50, 50)
	if polygon.Corners[0] != at(0, 0) {
		t.Errorf("Polygon corners must be copied")
	}
	text, err := encoder.EncodeString(context.Background(), &ReferencedCircle{Center: at(0, 0), Radius: 150})
	if err != nil {
		t.Error(err)
		return
	}
	if text == "" {
		t.Errorf("Encoded circle must not be empty")
	}
}

func TestBuildLineLocationVertexExact(t *testing.T) {
	network := chainNetwork(t)
	encoder := NewEncoder(NewEngine(network, NewCarProfile(nil)), OSMAttributeMapper{})

	// start 500m along 1 -> 2, end 500m along 4 -> 3
	line, err := encoder.BuildLineLocationVertexExact(context.Background(), at(0, 0), at(1000, 0), 500, at(3000, 0), at(2000, 0), 500, 5)
	if err != nil {
		t.Error(err)
		return
	}
	if !reflect.DeepEqual(line.Vertices, []VertexID{1, 2, 3, 4}) {
		t.Errorf("Vertices must be [1 2 3 4], but got %v", line.Vertices)
	}
	if Round(line.PositiveOffset, 0.01) != 16.67 || Round(line.NegativeOffset, 0.01) != 16.67 {
		t.Errorf("Offsets must be %f/%f, but got %f/%f", 16.67, 16.67, line.PositiveOffset, line.NegativeOffset)
	}

	// both locations on edge 2 -> 3, the end one given from the opposite vertex
	line, err = encoder.BuildLineLocationVertexExact(context.Background(), at(1000, 0), at(2000, 0), 200, at(2000, 0), at(1000, 0), 300, 5)
	if err != nil {
		t.Error(err)
		return
	}
	if !reflect.DeepEqual(line.Vertices, []VertexID{2, 3}) {
		t.Errorf("Vertices must be [2 3], but got %v", line.Vertices)
	}
	if Round(line.PositiveOffset, 0.01) != 20 || Round(line.NegativeOffset, 0.01) != 30 {
		t.Errorf("Offsets must be %f/%f, but got %f/%f", 20.0, 30.0, line.PositiveOffset, line.NegativeOffset)
	}

	// offsets at the edge ends start and finish at vertices
	line, err = encoder.BuildLineLocationVertexExact(context.Background(), at(0, 0), at(1000, 0), 0, at(2000, 0), at(3000, 0), 999.95, 5)
	if err != nil {
		t.Error(err)
		return
	}
	if !reflect.DeepEqual(line.Vertices, []VertexID{1, 2, 3, 4}) {
		t.Errorf("Vertices must be [1 2 3 4], but got %v", line.Vertices)
	}
	if line.PositiveOffset > 0.01 || line.NegativeOffset > 0.01 {
		t.Errorf("Offsets must be zero, but got %f/%f", line.PositiveOffset, line.NegativeOffset)
	}

	cases := []struct {
		scenario    string
		startFrom   Coordinate
		startTo     Coordinate
		startOffset float64
		tolerance   float64
		expectedErr error
	}{
		{"offset beyond edge", at(0, 0), at(1000, 0), 1500, 5, ErrInvalidArgument},
		{"negative offset", at(0, 0), at(1000, 0), -1, 5, ErrInvalidArgument},
		{"not adjacent vertices", at(0, 0), at(2000, 0), 100, 5, ErrNoNetworkNearby},
		{"no vertex at coordinate", at(500, 3), at(1000, 0), 100, 5, ErrNoNetworkNearby},
		{"far from network", at(0, 500), at(1000, 0), 100, 5, ErrNoNetworkNearby},
		{"zero tolerance", at(0, 0), at(1000, 0), 100, 0, ErrInvalidArgument},
	}
	for _, c := range cases {
		_, err := encoder.BuildLineLocationVertexExact(context.Background(), c.startFrom, c.startTo, c.startOffset, at(3000, 0), at(2000, 0), 500, c.tolerance)
		if !errors.Is(err, c.expectedErr) {
			t.Errorf("Scenario '%s' must fail with %v, but got %v", c.scenario, c.expectedErr, err)
		}
	}
}
