package openlr

import (
	"context"

	"github.com/pkg/errors"
)

// EncodeLine turns referenced line into line location. The line itself is not modified:
// anchors are corrected and intermediate points inserted on a copy
func (encoder *Encoder) EncodeLine(ctx context.Context, line *ReferencedLine) (*LineLocation, error) {
	work := line.Clone()
	if len(work.Shapes) != len(work.Edges) {
		work.Shapes = encoder.shapes(work.Edges)
	}
	if err := work.ValidateConnected(encoder.engine); err != nil {
		return nil, err
	}
	if err := encoder.AdjustToValidPoints(ctx, work); err != nil {
		return nil, err
	}
	breakpoints, err := encoder.AdjustToValidDistances(work, []int{0, len(work.Vertices) - 1})
	if err != nil {
		return nil, err
	}

	prefix := make([]float64, len(work.Vertices))
	for i, l := range work.edgeLengths() {
		prefix[i+1] = prefix[i] + l
	}
	points := make([]LocationReferencePoint, 0, len(breakpoints))
	for k, idx := range breakpoints {
		if k < len(breakpoints)-1 {
			next := breakpoints[k+1]
			lrp := encoder.lrpFor(work, idx, idx, work.coordinatesBetween(idx, next))
			lrp.LowestFRCToNext = encoder.lowestFRC(work.Edges[idx:next])
			lrp.DistanceToNext = prefix[next] - prefix[idx]
			points = append(points, lrp)
			continue
		}
		prev := breakpoints[k-1]
		lrp := encoder.lrpFor(work, idx, idx-1, reverseLine(work.coordinatesBetween(prev, idx)))
		lrp.LowestFRCToNext = lrp.FRC
		points = append(points, lrp)
	}
	loc := &LineLocation{
		Points:         points,
		PositiveOffset: work.PositiveOffset,
		NegativeOffset: work.NegativeOffset,
	}
	if err := validateOffsets(loc.PositiveOffset, loc.NegativeOffset); err != nil {
		return nil, errors.Wrap(err, "offsets after anchor correction")
	}
	encoder.logger.Debug().
		Int("vertices", len(work.Vertices)).
		Int("points", len(points)).
		Float64("positive_offset", loc.PositiveOffset).
		Float64("negative_offset", loc.NegativeOffset).
		Msg("line encoded")
	return loc, nil
}

// lrpFor builds location reference point at vertex index `vertexIdx` using attributes of edge `edgeIdx`.
// Bearing is measured along `span` which starts at the vertex
func (encoder *Encoder) lrpFor(line *ReferencedLine, vertexIdx, edgeIdx int, span []Coordinate) LocationReferencePoint {
	coordinate, ok := encoder.engine.graph.VertexCoordinate(line.Vertices[vertexIdx])
	if !ok && len(span) > 0 {
		coordinate = span[0]
	}
	frc, fow := roadAttributes(encoder.mapper, line.Edges[edgeIdx].Tags)
	return LocationReferencePoint{
		Coordinate: coordinate,
		FRC:        frc,
		FOW:        fow,
		Bearing:    bearingAlongLine(span, bearingDistance),
	}
}

// lowestFRC returns the least important FRC (the biggest number) among given edges
func (encoder *Encoder) lowestFRC(edges []Edge) FunctionalRoadClass {
	lowest := FRC_0
	for _, edge := range edges {
		frc, _ := roadAttributes(encoder.mapper, edge.Tags)
		if frc > lowest {
			lowest = frc
		}
	}
	return lowest
}

// EncodePointAlongLine turns referenced point along line into location object
func (encoder *Encoder) EncodePointAlongLine(ctx context.Context, pal *ReferencedPointAlongLine) (*PointAlongLineLocation, error) {
	route := pal.Route
	if route == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "point along line without route")
	}
	if err := validatePath(route.Vertices, route.Edges, 0, 0); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(route.Shapes) != len(route.Edges) {
		route = route.Clone()
		route.Shapes = encoder.shapes(route.Edges)
	}
	length := route.Length()
	if length >= maxLRPDistance {
		return nil, errors.Wrapf(ErrDistanceLimitUnresolvable, "route is %.1fm long", length)
	}
	coordinates := route.Coordinates()
	_, offset, ok := projectOnLine(coordinates, pal.Coordinate)
	if !ok || length <= 0 {
		return nil, errors.Wrapf(ErrProjectionFailed, "location %s on route", pal.Coordinate)
	}
	n := len(route.Vertices)
	first := encoder.lrpFor(route, 0, 0, coordinates)
	first.LowestFRCToNext = encoder.lowestFRC(route.Edges)
	first.DistanceToNext = length
	last := encoder.lrpFor(route, n-1, n-2, reverseLine(coordinates))
	last.LowestFRCToNext = last.FRC
	return &PointAlongLineLocation{
		First:          first,
		Last:           last,
		PositiveOffset: clampPercent(offset / length * 100),
		Orientation:    pal.Orientation,
		SideOfRoad:     pal.SideOfRoad,
	}, nil
}

// Encode turns any referenced location into location object
func (encoder *Encoder) Encode(ctx context.Context, loc ReferencedLocation) (Location, error) {
	switch l := loc.(type) {
	case *ReferencedLine:
		line, err := encoder.EncodeLine(ctx, l)
		if err != nil {
			return nil, err
		}
		return line, nil
	case *ReferencedPointAlongLine:
		point, err := encoder.EncodePointAlongLine(ctx, l)
		if err != nil {
			return nil, err
		}
		return point, nil
	case *ReferencedGeoCoordinate:
		return &GeoCoordinateLocation{Coordinate: l.Coordinate}, nil
	case *ReferencedCircle:
		return &CircleLocation{Center: l.Center, Radius: l.Radius}, nil
	case *ReferencedRectangle:
		return &RectangleLocation{LowerLeft: l.LowerLeft, UpperRight: l.UpperRight}, nil
	case *ReferencedGrid:
		return &GridLocation{LowerLeft: l.LowerLeft, UpperRight: l.UpperRight, Columns: l.Columns, Rows: l.Rows}, nil
	case *ReferencedPolygon:
		corners := make([]Coordinate, len(l.Corners))
		copy(corners, l.Corners)
		return &PolygonLocation{Corners: corners}, nil
	}
	return nil, errors.Wrapf(ErrUnrecognizedLocationType, "referenced location %T", loc)
}

// EncodeString turns referenced location into base64 physical representation
func (encoder *Encoder) EncodeString(ctx context.Context, loc ReferencedLocation) (string, error) {
	location, err := encoder.Encode(ctx, loc)
	if err != nil {
		return "", err
	}
	return EncodeString(location)
}
