package openlr

import (
	"context"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// twoEdgeNetwork is 1 - 2 - 3 along the equator, 2500m per edge
func twoEdgeNetwork(t *testing.T) *RoadNetwork {
	primary := highway("primary")
	return buildNetwork(t,
		map[VertexID]Coordinate{
			1: eq(0),
			2: eq(2500),
			3: eq(5000),
		},
		[]testEdge{
			{1, 2, primary},
			{2, 3, primary},
		},
	)
}

func TestEncodeDecodeLine(t *testing.T) {
	network := twoEdgeNetwork(t)
	contracted, err := network.Contract(NewCarProfile(nil), zerolog.Nop())
	if err != nil {
		t.Error(err)
		return
	}
	engines := map[string]*Engine{
		"dijkstra":                NewEngine(network, NewCarProfile(nil)),
		"contraction hierarchies": NewEngine(network, NewCarProfile(nil), WithVertexRouter(contracted)),
	}
	for name, engine := range engines {
		encoder := NewEncoder(engine, OSMAttributeMapper{})
		decoder := NewDecoder(engine, OSMAttributeMapper{})
		line, err := encoder.BuildLineLocationFromPoints(context.Background(), eq(1000), eq(4500), 20)
		if err != nil {
			t.Errorf("%s: %s", name, err)
			continue
		}
		text, err := encoder.EncodeString(context.Background(), line)
		if err != nil {
			t.Errorf("%s: %s", name, err)
			continue
		}
		resolved, err := decoder.DecodeString(context.Background(), text)
		if err != nil {
			t.Errorf("%s: %s", name, err)
			continue
		}
		decoded, ok := resolved.(*ReferencedLine)
		if !ok {
			t.Errorf("%s: decoded location must be %s, but got %s", name, LOCATION_LINE, resolved.Type())
			continue
		}
		if !reflect.DeepEqual(decoded.Vertices, []VertexID{1, 2, 3}) {
			t.Errorf("%s: decoded vertices must be [1 2 3], but got %v", name, decoded.Vertices)
		}
		// 20% and 10% of 5000m survive offset bucketing within one bucket
		if diff := decoded.PositiveOffset - 20; diff < -0.4 || diff > 0.4 {
			t.Errorf("%s: positive offset must be about %f, but got %f", name, 20.0, decoded.PositiveOffset)
		}
		if diff := decoded.NegativeOffset - 10; diff < -0.4 || diff > 0.4 {
			t.Errorf("%s: negative offset must be about %f, but got %f", name, 10.0, decoded.NegativeOffset)
		}
		trimmed := decoded.LocationCoordinates()
		if l := getSphericalLength(trimmed); l < 3480 || l > 3520 {
			t.Errorf("%s: trimmed location must be about %fm long, but got %fm", name, 3500.0, l)
		}
	}
}

func TestDecodeLineLocation(t *testing.T) {
	network := twoEdgeNetwork(t)
	engine := NewEngine(network, NewCarProfile(nil))
	encoder := NewEncoder(engine, OSMAttributeMapper{})
	decoder := NewDecoder(engine, OSMAttributeMapper{})
	vertices := []VertexID{1, 2, 3}
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
	if len(loc.Points) != 2 {
		t.Errorf("Number of LRPs must be %d, but got %d", 2, len(loc.Points))
		return
	}
	first := loc.Points[0]
	if first.FRC != FRC_2 || first.FOW != FOW_SINGLE_CARRIAGEWAY || first.LowestFRCToNext != FRC_2 {
		t.Errorf("First LRP attributes must be %s/%s/%s, but got %s/%s/%s", FRC_2, FOW_SINGLE_CARRIAGEWAY, FRC_2, first.FRC, first.FOW, first.LowestFRCToNext)
	}
	if angleDifference(first.Bearing, 90) > 0.01 {
		t.Errorf("First bearing must be %f, but got %f", 90.0, first.Bearing)
	}
	if Round(first.DistanceToNext, 0.1) != 5000 {
		t.Errorf("Distance to next must be %f, but got %f", 5000.0, first.DistanceToNext)
	}
	data, err := Encode(loc)
	if err != nil {
		t.Error(err)
		return
	}
	resolved, err := decoder.Decode(context.Background(), data)
	if err != nil {
		t.Error(err)
		return
	}
	decoded := resolved.(*ReferencedLine)
	if !reflect.DeepEqual(decoded.Vertices, vertices) {
		t.Errorf("Decoded vertices must be %v, but got %v", vertices, decoded.Vertices)
	}
	for i, edge := range decoded.Edges {
		if edge.ID != line.Edges[i].ID || edge.Forward != line.Edges[i].Forward {
			t.Errorf("Decoded edge #%d must be %d (forward: %t), but got %d (forward: %t)", i, line.Edges[i].ID, line.Edges[i].Forward, edge.ID, edge.Forward)
		}
	}
	if err := decoded.ValidateConnected(engine); err != nil {
		t.Errorf("Decoded line must be connected: %s", err)
	}
}

func TestDecodeLineOppositeDirection(t *testing.T) {
	network := twoEdgeNetwork(t)
	engine := NewEngine(network, NewCarProfile(nil))
	encoder := NewEncoder(engine, OSMAttributeMapper{})
	decoder := NewDecoder(engine, OSMAttributeMapper{})
	vertices := []VertexID{3, 2, 1}
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
	resolved, err := decoder.Resolve(context.Background(), loc)
	if err != nil {
		t.Error(err)
		return
	}
	if decoded := resolved.(*ReferencedLine); !reflect.DeepEqual(decoded.Vertices, vertices) {
		t.Errorf("Decoded vertices must be %v, but got %v", vertices, decoded.Vertices)
	}
}

func TestDecodeLineLongRoute(t *testing.T) {
	network := longChainNetwork(t)
	engine := NewEngine(network, NewCarProfile(nil))
	encoder := NewEncoder(engine, OSMAttributeMapper{})
	decoder := NewDecoder(engine, OSMAttributeMapper{})
	vertices := []VertexID{1, 2, 3, 4, 5}
	line, err := encoder.BuildLineLocation(context.Background(), vertices, pathEdges(t, network, vertices), 0, 0)
	if err != nil {
		t.Error(err)
		return
	}
	text, err := encoder.EncodeString(context.Background(), line)
	if err != nil {
		t.Error(err)
		return
	}
	resolved, err := decoder.DecodeString(context.Background(), text)
	if err != nil {
		t.Error(err)
		return
	}
	if decoded := resolved.(*ReferencedLine); !reflect.DeepEqual(decoded.Vertices, vertices) {
		t.Errorf("Decoded vertices must be %v, but got %v", vertices, decoded.Vertices)
	}
}

func TestDecodePointAlongLine(t *testing.T) {
	network := chainNetwork(t)
	engine := NewEngine(network, NewCarProfile(nil))
	encoder := NewEncoder(engine, OSMAttributeMapper{})
	decoder := NewDecoder(engine, OSMAttributeMapper{})
	pal, err := encoder.BuildPointAlongLine(context.Background(), at(1500, 20), 50)
	if err != nil {
		t.Error(err)
		return
	}
	text, err := encoder.EncodeString(context.Background(), pal)
	if err != nil {
		t.Error(err)
		return
	}
	resolved, err := decoder.DecodeString(context.Background(), text)
	if err != nil {
		t.Error(err)
		return
	}
	decoded, ok := resolved.(*ReferencedPointAlongLine)
	if !ok {
		t.Errorf("Decoded location must be %s, but got %s", LOCATION_POINT_ALONG_LINE, resolved.Type())
		return
	}
	if !reflect.DeepEqual(decoded.Route.Vertices, []VertexID{1, 2, 3, 4}) {
		t.Errorf("Decoded route must be [1 2 3 4], but got %v", decoded.Route.Vertices)
	}
	if meters := decoded.Coordinate.Lon * metersPerDegree; meters < 1490 || meters > 1520 {
		t.Errorf("Decoded point must lie about 1500m from the start, but got %fm", meters)
	}
	if decoded.SideOfRoad != SIDE_LEFT {
		t.Errorf("Side of road must be %s, but got %s", SIDE_LEFT, decoded.SideOfRoad)
	}
}

func TestDecodeFailures(t *testing.T) {
	network := twoEdgeNetwork(t)
	engine := NewEngine(network, NewCarProfile(nil))
	decoder := NewDecoder(engine, OSMAttributeMapper{}, WithCandidateRadius(50), WithMaxCandidates(3), WithDistanceTolerance(50))

	far := &LineLocation{Points: []LocationReferencePoint{
		{Coordinate: at(0, 5000), FRC: FRC_2, FOW: FOW_SINGLE_CARRIAGEWAY, Bearing: 90, LowestFRCToNext: FRC_2, DistanceToNext: 5000},
		{Coordinate: at(5000, 5000), FRC: FRC_2, FOW: FOW_SINGLE_CARRIAGEWAY, Bearing: 270, LowestFRCToNext: FRC_2},
	}}
	if _, err := decoder.Resolve(context.Background(), far); !errors.Is(err, ErrNoNetworkNearby) {
		t.Errorf("Line far from network must fail with %v, but got %v", ErrNoNetworkNearby, err)
	}

	wrongDistance := &LineLocation{Points: []LocationReferencePoint{
		{Coordinate: eq(0), FRC: FRC_2, FOW: FOW_SINGLE_CARRIAGEWAY, Bearing: 90, LowestFRCToNext: FRC_2, DistanceToNext: 9000},
		{Coordinate: eq(5000), FRC: FRC_2, FOW: FOW_SINGLE_CARRIAGEWAY, Bearing: 270, LowestFRCToNext: FRC_2},
	}}
	if _, err := decoder.Resolve(context.Background(), wrongDistance); !errors.Is(err, ErrPathNotFound) {
		t.Errorf("Line with mismatching distance must fail with %v, but got %v", ErrPathNotFound, err)
	}

	if _, err := decoder.Decode(context.Background(), []byte{0x0B, 0x00}); !errors.Is(err, ErrUnrecognizedLocationType) {
		t.Errorf("Short record must fail with %v, but got %v", ErrUnrecognizedLocationType, err)
	}
	if _, err := decoder.Decode(context.Background(), nil); !errors.Is(err, ErrUnrecognizedLocationType) {
		t.Errorf("Empty record must fail with %v, but got %v", ErrUnrecognizedLocationType, err)
	}
	if _, err := decoder.DecodeString(context.Background(), "%%%"); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Broken base64 must fail with %v, but got %v", ErrMalformedRecord, err)
	}
	if _, err := decoder.Resolve(context.Background(), nil); !errors.Is(err, ErrUnrecognizedLocationType) {
		t.Errorf("Nil location must fail with %v, but got %v", ErrUnrecognizedLocationType, err)
	}
}

func TestDecodeAreas(t *testing.T) {
	decoder := NewDecoder(NewEngine(NewRoadNetwork(), NewCarProfile(nil)), nil)
	cases := []Location{
		&GeoCoordinateLocation{Coordinate: at(10, 10)},
		&CircleLocation{Center: at(10, 10), Radius: 250},
		&RectangleLocation{LowerLeft: at(0, 0), UpperRight: at(100, 100)},
		&GridLocation{LowerLeft: at(0, 0), UpperRight: at(100, 100), Columns: 2, Rows: 3},
		&PolygonLocation{Corners: []Coordinate{at(0, 0), at(100, 0), at(100, 100)}},
	}
	for _, loc := range cases {
		data, err := Encode(loc)
		if err != nil {
			t.Error(err)
			continue
		}
		resolved, err := decoder.Decode(context.Background(), data)
		if err != nil {
			t.Error(err)
			continue
		}
		if resolved.Type() != loc.Type() {
			t.Errorf("Resolved location must be %s, but got %s", loc.Type(), resolved.Type())
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := decoder.Resolve(ctx, cases[1]); !errors.Is(err, context.Canceled) {
		t.Errorf("Cancelled resolution must fail with %v, but got %v", context.Canceled, err)
	}
}

func TestResolverPriority(t *testing.T) {
	decoder := NewDecoder(NewEngine(NewRoadNetwork(), NewCarProfile(nil)), nil)
	order := []LocationType{}
	for _, resolver := range decoder.resolvers {
		order = append(order, resolver.codec.locationType)
	}
	correct := []LocationType{LOCATION_CIRCLE, LOCATION_GEO_COORDINATE, LOCATION_GRID, LOCATION_LINE, LOCATION_POINT_ALONG_LINE, LOCATION_POLYGON, LOCATION_RECTANGLE}
	if !reflect.DeepEqual(order, correct) {
		t.Errorf("Resolvers order must be %v, but got %v", correct, order)
	}
	for _, resolver := range decoder.resolvers {
		if resolver.resolve == nil {
			t.Errorf("Resolver for %s must be set", resolver.codec.locationType)
		}
	}
}
