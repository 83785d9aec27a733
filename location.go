package openlr

// LocationType discriminates location objects
type LocationType uint8

const (
	LOCATION_LINE = LocationType(iota + 1)
	LOCATION_POINT_ALONG_LINE
	LOCATION_GEO_COORDINATE
	LOCATION_CIRCLE
	LOCATION_RECTANGLE
	LOCATION_GRID
	LOCATION_POLYGON
)

func (iotaIdx LocationType) String() string {
	return [...]string{"line", "point_along_line", "geo_coordinate", "circle", "rectangle", "grid", "polygon"}[iotaIdx-1]
}

// Location is a map-independent location object. Implemented by the *Location types of this package only
type Location interface {
	Type() LocationType
	location()
}

// LocationReferencePoint is one anchor of a location
type LocationReferencePoint struct {
	Coordinate      Coordinate
	FRC             FunctionalRoadClass
	FOW             FormOfWay
	Bearing         float64 // degrees [0, 360)
	LowestFRCToNext FunctionalRoadClass
	DistanceToNext  float64 // meters, ignored for the last point
}

// LineLocation is a path given by at least two location reference points
type LineLocation struct {
	Points []LocationReferencePoint
	// PositiveOffset trims the start of the path, percent [0, 100)
	PositiveOffset float64
	// NegativeOffset trims the end of the path, percent [0, 100)
	NegativeOffset float64
}

func (*LineLocation) Type() LocationType { return LOCATION_LINE }
func (*LineLocation) location()          {}

// First returns first location reference point
func (loc *LineLocation) First() LocationReferencePoint {
	return loc.Points[0]
}

// Last returns last location reference point
func (loc *LineLocation) Last() LocationReferencePoint {
	return loc.Points[len(loc.Points)-1]
}

// Intermediate returns location reference points between the first and the last ones
func (loc *LineLocation) Intermediate() []LocationReferencePoint {
	if len(loc.Points) <= 2 {
		return nil
	}
	return loc.Points[1 : len(loc.Points)-1]
}

// PointAlongLineLocation is a point given by an offset on the line between two location reference points
type PointAlongLineLocation struct {
	First          LocationReferencePoint
	Last           LocationReferencePoint
	PositiveOffset float64 // percent [0, 100)
	Orientation    Orientation
	SideOfRoad     SideOfRoad
}

func (*PointAlongLineLocation) Type() LocationType { return LOCATION_POINT_ALONG_LINE }
func (*PointAlongLineLocation) location()          {}

type GeoCoordinateLocation struct {
	Coordinate Coordinate
}

func (*GeoCoordinateLocation) Type() LocationType { return LOCATION_GEO_COORDINATE }
func (*GeoCoordinateLocation) location()          {}

type CircleLocation struct {
	Center Coordinate
	Radius uint32 // meters
}

func (*CircleLocation) Type() LocationType { return LOCATION_CIRCLE }
func (*CircleLocation) location()          {}

type RectangleLocation struct {
	LowerLeft  Coordinate
	UpperRight Coordinate
}

func (*RectangleLocation) Type() LocationType { return LOCATION_RECTANGLE }
func (*RectangleLocation) location()          {}

type GridLocation struct {
	LowerLeft  Coordinate
	UpperRight Coordinate
	Columns    int
	Rows       int
}

func (*GridLocation) Type() LocationType { return LOCATION_GRID }
func (*GridLocation) location()          {}

// PolygonLocation is a closed area given by at least three corners
type PolygonLocation struct {
	Corners []Coordinate
}

func (*PolygonLocation) Type() LocationType { return LOCATION_POLYGON }
func (*PolygonLocation) location()          {}
