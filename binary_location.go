package openlr

import (
	"encoding/base64"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

const (
	lineBaseSize         = 16 // header + first LRP (9) + last LRP (6)
	lineMaxOffsetBytes   = 2
	intermediateSize     = 7
	pointAlongLineSize   = 17
	geoCoordinateSize    = 7
	circleMinSize        = 8
	circleMaxSize        = 11
	rectangleSize        = 11
	rectangleLargeSize   = 13
	gridSize             = 15
	gridLargeSize        = 17
	polygonMinCorners    = 3
	absoluteCoordSize    = 6
	relativeCoordSize    = 4
	maxGridDimensionSize = math.MaxUint16
)

// binaryCodec decodes one location type. canDecode inspects header flags and record size only
type binaryCodec struct {
	locationType LocationType
	canDecode    func(h header, size int) bool
	decode       func(data []byte) (Location, error)
}

// binaryCodecs in dispatch order: circle, geo-coordinate, grid, line, point along line, polygon, rectangle
var binaryCodecs = []binaryCodec{
	{LOCATION_CIRCLE, canDecodeCircle, decodeCircle},
	{LOCATION_GEO_COORDINATE, canDecodeGeoCoordinate, decodeGeoCoordinate},
	{LOCATION_GRID, canDecodeGrid, decodeGrid},
	{LOCATION_LINE, canDecodeLine, decodeLine},
	{LOCATION_POINT_ALONG_LINE, canDecodePointAlongLine, decodePointAlongLine},
	{LOCATION_POLYGON, canDecodePolygon, decodePolygon},
	{LOCATION_RECTANGLE, canDecodeRectangle, decodeRectangle},
}

// findBinaryCodec returns codec able to decode given record
func findBinaryCodec(data []byte) (binaryCodec, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return binaryCodec{}, err
	}
	for _, codec := range binaryCodecs {
		if codec.canDecode(h, len(data)) {
			return codec, nil
		}
	}
	return binaryCodec{}, errors.Wrapf(ErrUnrecognizedLocationType, "header %08b, %d bytes", data[0], len(data))
}

// Decode parses physical binary record into location object
func Decode(data []byte) (Location, error) {
	codec, err := findBinaryCodec(data)
	if err != nil {
		return nil, err
	}
	loc, err := codec.decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "can't decode %s location", codec.locationType)
	}
	return loc, nil
}

// DecodeString parses base64 representation of physical binary record
func DecodeString(data string) (Location, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "can't decode base64: %s", err.Error())
	}
	return Decode(raw)
}

// Encode emits physical binary record for given location object
func Encode(loc Location) ([]byte, error) {
	var data []byte
	var err error
	switch l := loc.(type) {
	case *LineLocation:
		data, err = encodeLine(l)
	case *PointAlongLineLocation:
		data, err = encodePointAlongLine(l)
	case *GeoCoordinateLocation:
		data, err = encodeGeoCoordinate(l)
	case *CircleLocation:
		data, err = encodeCircle(l)
	case *RectangleLocation:
		data, err = encodeRectangle(l)
	case *GridLocation:
		data, err = encodeGrid(l)
	case *PolygonLocation:
		data, err = encodePolygon(l)
	default:
		return nil, errors.Wrapf(ErrUnrecognizedLocationType, "location %T", loc)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "can't encode %s location", loc.Type())
	}
	return data, nil
}

// EncodeString emits base64 representation of physical binary record
func EncodeString(loc Location) (string, error) {
	data, err := Encode(loc)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

/* Line */

func canDecodeLine(h header, size int) bool {
	return h.HasAttributes && !h.IsPoint && h.areaFlag() == 0 && size >= lineBaseSize
}

func decodeLine(data []byte) (Location, error) {
	if len(data) < lineBaseSize {
		return nil, errors.Wrapf(ErrMalformedRecord, "line record has %d bytes", len(data))
	}
	intermediates := (len(data) - lineBaseSize) / intermediateSize
	offsetBytes := (len(data) - lineBaseSize) % intermediateSize
	if offsetBytes > lineMaxOffsetBytes {
		return nil, errors.Wrapf(ErrMalformedRecord, "line record of %d bytes does not match 16+7k(+offsets)", len(data))
	}

	points := make([]LocationReferencePoint, 0, intermediates+2)
	first, err := decodeCoordinate(data, 1)
	if err != nil {
		return nil, err
	}
	points = append(points, LocationReferencePoint{
		Coordinate:      first,
		FRC:             decodeFRC(data, 7, 2),
		FOW:             decodeFOW(data, 7, 5),
		LowestFRCToNext: decodeFRC(data, 8, 0),
		Bearing:         decodeBearing(readBits(data, 8, 3, 5)),
		DistanceToNext:  decodeDistance(data[9]),
	})

	position := 10
	reference := first
	for i := 0; i < intermediates; i++ {
		coordinate, err := decodeRelativeCoordinate(reference, data, position)
		if err != nil {
			return nil, err
		}
		reference = coordinate
		position += relativeCoordSize
		lrp := LocationReferencePoint{
			Coordinate: coordinate,
			FRC:        decodeFRC(data, position, 2),
			FOW:        decodeFOW(data, position, 5),
		}
		position++
		lrp.LowestFRCToNext = decodeFRC(data, position, 0)
		lrp.Bearing = decodeBearing(readBits(data, position, 3, 5))
		position++
		lrp.DistanceToNext = decodeDistance(data[position])
		position++
		points = append(points, lrp)
	}

	last, err := decodeRelativeCoordinate(reference, data, position)
	if err != nil {
		return nil, err
	}
	points = append(points, LocationReferencePoint{
		Coordinate:      last,
		FRC:             decodeFRC(data, position+4, 2),
		FOW:             decodeFOW(data, position+4, 5),
		Bearing:         decodeBearing(readBits(data, position+5, 3, 5)),
		LowestFRCToNext: decodeFRC(data, position+4, 2),
	})

	loc := &LineLocation{Points: points}
	positiveFlag := decodeFlag(data, position+5, 1)
	negativeFlag := decodeFlag(data, position+5, 2)
	flags := 0
	if positiveFlag {
		flags++
	}
	if negativeFlag {
		flags++
	}
	if flags > offsetBytes {
		return nil, errors.Wrapf(ErrMalformedRecord, "%d offset flags set but only %d offset bytes present", flags, offsetBytes)
	}
	if offsetBytes == lineMaxOffsetBytes {
		// fixed layout: positive offset byte first, negative one second
		if positiveFlag {
			loc.PositiveOffset = decodeOffset(data[position+6])
		}
		if negativeFlag {
			loc.NegativeOffset = decodeOffset(data[position+7])
		}
		return loc, nil
	}
	idx := position + 6
	if positiveFlag {
		loc.PositiveOffset = decodeOffset(data[idx])
		idx++
	}
	if negativeFlag {
		loc.NegativeOffset = decodeOffset(data[idx])
	}
	return loc, nil
}

func validateOffsets(positive, negative float64) error {
	if positive < 0 || positive >= 100 {
		return errors.Wrapf(ErrInvalidFieldValue, "positive offset %f is out of range [0, 100)", positive)
	}
	if negative < 0 || negative >= 100 {
		return errors.Wrapf(ErrInvalidFieldValue, "negative offset %f is out of range [0, 100)", negative)
	}
	if positive+negative > 100 {
		return errors.Wrapf(ErrInvalidFieldValue, "offsets %f and %f sum over 100", positive, negative)
	}
	return nil
}

// encodeLRPAttributes writes FRC/FOW byte at idx and LFRCNP/bearing byte at idx+1
func encodeLRPAttributes(lrp LocationReferencePoint, data []byte, idx int) error {
	if err := encodeFRC(lrp.FRC, data, idx, 2); err != nil {
		return err
	}
	if err := encodeFOW(lrp.FOW, data, idx, 5); err != nil {
		return err
	}
	if err := encodeFRC(lrp.LowestFRCToNext, data, idx+1, 0); err != nil {
		return err
	}
	sector, err := encodeBearing(lrp.Bearing)
	if err != nil {
		return err
	}
	writeBits(data, idx+1, 3, 5, sector)
	return nil
}

func encodeLine(loc *LineLocation) ([]byte, error) {
	if len(loc.Points) < 2 {
		return nil, errors.Wrapf(ErrInvalidFieldValue, "line location needs at least 2 points, got %d", len(loc.Points))
	}
	if err := validateOffsets(loc.PositiveOffset, loc.NegativeOffset); err != nil {
		return nil, err
	}
	intermediates := loc.Intermediate()
	data := make([]byte, lineBaseSize+lineMaxOffsetBytes+len(intermediates)*intermediateSize)
	if err := encodeHeader(header{Version: binaryVersion, HasAttributes: true}, data); err != nil {
		return nil, err
	}

	first := loc.First()
	reference, err := encodeCoordinate(first.Coordinate, data, 1)
	if err != nil {
		return nil, err
	}
	if err := encodeLRPAttributes(first, data, 7); err != nil {
		return nil, err
	}
	if data[9], err = encodeDistance(first.DistanceToNext); err != nil {
		return nil, err
	}

	position := 10
	for _, intermediate := range intermediates {
		// chain on the quantized previous point so rounding errors do not accumulate
		reference, err = encodeRelativeCoordinate(reference, intermediate.Coordinate, data, position)
		if err != nil {
			return nil, err
		}
		position += relativeCoordSize
		if err := encodeLRPAttributes(intermediate, data, position); err != nil {
			return nil, err
		}
		position += 2
		if data[position], err = encodeDistance(intermediate.DistanceToNext); err != nil {
			return nil, err
		}
		position++
	}

	last := loc.Last()
	if _, err := encodeRelativeCoordinate(reference, last.Coordinate, data, position); err != nil {
		return nil, err
	}
	if err := encodeFRC(last.FRC, data, position+4, 2); err != nil {
		return nil, err
	}
	if err := encodeFOW(last.FOW, data, position+4, 5); err != nil {
		return nil, err
	}
	sector, err := encodeBearing(last.Bearing)
	if err != nil {
		return nil, err
	}
	writeBits(data, position+5, 3, 5, sector)
	if loc.PositiveOffset > 0 {
		encodeFlag(true, data, position+5, 1)
		if data[position+6], err = encodeOffset(loc.PositiveOffset); err != nil {
			return nil, err
		}
	}
	if loc.NegativeOffset > 0 {
		encodeFlag(true, data, position+5, 2)
		if data[position+7], err = encodeOffset(loc.NegativeOffset); err != nil {
			return nil, err
		}
	}
	return data, nil
}

/* Point along line */

func canDecodePointAlongLine(h header, size int) bool {
	return h.HasAttributes && h.IsPoint && h.areaFlag() == 0
}

func decodePointAlongLine(data []byte) (Location, error) {
	if len(data) != pointAlongLineSize && len(data) != pointAlongLineSize-1 {
		return nil, errors.Wrapf(ErrMalformedRecord, "point along line record has %d bytes", len(data))
	}
	first, err := decodeCoordinate(data, 1)
	if err != nil {
		return nil, err
	}
	last, err := decodeRelativeCoordinate(first, data, 10)
	if err != nil {
		return nil, err
	}
	loc := &PointAlongLineLocation{
		First: LocationReferencePoint{
			Coordinate:      first,
			FRC:             decodeFRC(data, 7, 2),
			FOW:             decodeFOW(data, 7, 5),
			LowestFRCToNext: decodeFRC(data, 8, 0),
			Bearing:         decodeBearing(readBits(data, 8, 3, 5)),
			DistanceToNext:  decodeDistance(data[9]),
		},
		Last: LocationReferencePoint{
			Coordinate: last,
			FRC:        decodeFRC(data, 14, 2),
			FOW:        decodeFOW(data, 14, 5),
			Bearing:    decodeBearing(readBits(data, 15, 3, 5)),
		},
		Orientation: Orientation(readBits(data, 7, 0, 2)),
		SideOfRoad:  SideOfRoad(readBits(data, 14, 0, 2)),
	}
	loc.Last.LowestFRCToNext = loc.Last.FRC
	if decodeFlag(data, 15, 1) {
		if len(data) != pointAlongLineSize {
			return nil, errors.Wrap(ErrMalformedRecord, "positive offset flag set but offset byte is missing")
		}
		loc.PositiveOffset = decodeOffset(data[16])
	}
	return loc, nil
}

func encodePointAlongLine(loc *PointAlongLineLocation) ([]byte, error) {
	if err := validateOffsets(loc.PositiveOffset, 0); err != nil {
		return nil, err
	}
	if loc.Orientation > ORIENTATION_BOTH {
		return nil, errors.Wrapf(ErrInvalidFieldValue, "orientation %d", loc.Orientation)
	}
	if loc.SideOfRoad > SIDE_BOTH {
		return nil, errors.Wrapf(ErrInvalidFieldValue, "side of road %d", loc.SideOfRoad)
	}
	data := make([]byte, pointAlongLineSize)
	if err := encodeHeader(header{Version: binaryVersion, HasAttributes: true, IsPoint: true}, data); err != nil {
		return nil, err
	}
	reference, err := encodeCoordinate(loc.First.Coordinate, data, 1)
	if err != nil {
		return nil, err
	}
	if err := encodeLRPAttributes(loc.First, data, 7); err != nil {
		return nil, err
	}
	writeBits(data, 7, 0, 2, uint8(loc.Orientation))
	if data[9], err = encodeDistance(loc.First.DistanceToNext); err != nil {
		return nil, err
	}
	if _, err := encodeRelativeCoordinate(reference, loc.Last.Coordinate, data, 10); err != nil {
		return nil, err
	}
	if err := encodeFRC(loc.Last.FRC, data, 14, 2); err != nil {
		return nil, err
	}
	if err := encodeFOW(loc.Last.FOW, data, 14, 5); err != nil {
		return nil, err
	}
	writeBits(data, 14, 0, 2, uint8(loc.SideOfRoad))
	sector, err := encodeBearing(loc.Last.Bearing)
	if err != nil {
		return nil, err
	}
	writeBits(data, 15, 3, 5, sector)
	if loc.PositiveOffset > 0 {
		encodeFlag(true, data, 15, 1)
		if data[16], err = encodeOffset(loc.PositiveOffset); err != nil {
			return nil, err
		}
	}
	return data, nil
}

/* Geo-coordinate */

func canDecodeGeoCoordinate(h header, size int) bool {
	return !h.HasAttributes && h.IsPoint && h.areaFlag() == 0
}

func decodeGeoCoordinate(data []byte) (Location, error) {
	if len(data) != geoCoordinateSize {
		return nil, errors.Wrapf(ErrMalformedRecord, "geo-coordinate record has %d bytes", len(data))
	}
	c, err := decodeCoordinate(data, 1)
	if err != nil {
		return nil, err
	}
	return &GeoCoordinateLocation{Coordinate: c}, nil
}

func encodeGeoCoordinate(loc *GeoCoordinateLocation) ([]byte, error) {
	data := make([]byte, geoCoordinateSize)
	if err := encodeHeader(header{Version: binaryVersion, IsPoint: true}, data); err != nil {
		return nil, err
	}
	if _, err := encodeCoordinate(loc.Coordinate, data, 1); err != nil {
		return nil, err
	}
	return data, nil
}

/* Circle */

func canDecodeCircle(h header, size int) bool {
	return !h.HasAttributes && !h.IsPoint && h.areaFlag() == 0
}

func decodeCircle(data []byte) (Location, error) {
	if len(data) < circleMinSize || len(data) > circleMaxSize {
		return nil, errors.Wrapf(ErrMalformedRecord, "circle record has %d bytes", len(data))
	}
	center, err := decodeCoordinate(data, 1)
	if err != nil {
		return nil, err
	}
	radius := uint32(0)
	for _, b := range data[1+absoluteCoordSize:] {
		radius = radius<<8 | uint32(b)
	}
	return &CircleLocation{Center: center, Radius: radius}, nil
}

func encodeCircle(loc *CircleLocation) ([]byte, error) {
	radiusBytes := 1
	for r := loc.Radius >> 8; r > 0; r >>= 8 {
		radiusBytes++
	}
	data := make([]byte, 1+absoluteCoordSize+radiusBytes)
	if err := encodeHeader(header{Version: binaryVersion}, data); err != nil {
		return nil, err
	}
	if _, err := encodeCoordinate(loc.Center, data, 1); err != nil {
		return nil, err
	}
	r := loc.Radius
	for i := len(data) - 1; i >= 1+absoluteCoordSize; i-- {
		data[i] = byte(r)
		r >>= 8
	}
	return data, nil
}

/* Rectangle */

func canDecodeRectangle(h header, size int) bool {
	return h.areaFlag() == 2 && size != gridSize && size != gridLargeSize
}

// decodeBox decodes lower-left absolute coordinate and upper-right coordinate which is
// relative when large is false
func decodeBox(data []byte, large bool) (Coordinate, Coordinate, error) {
	lowerLeft, err := decodeCoordinate(data, 1)
	if err != nil {
		return Coordinate{}, Coordinate{}, err
	}
	var upperRight Coordinate
	if large {
		upperRight, err = decodeCoordinate(data, 1+absoluteCoordSize)
	} else {
		upperRight, err = decodeRelativeCoordinate(lowerLeft, data, 1+absoluteCoordSize)
	}
	if err != nil {
		return Coordinate{}, Coordinate{}, err
	}
	return lowerLeft, upperRight, nil
}

// encodeBox returns buffer of size small (or large when upper-right does not fit relative encoding)
// with header, lower-left and upper-right written
func encodeBox(lowerLeft, upperRight Coordinate, small, large int) ([]byte, error) {
	data := make([]byte, small)
	reference, err := encodeCoordinate(lowerLeft, data, 1)
	if err != nil {
		return nil, err
	}
	if relativeFits(reference, upperRight) {
		if _, err := encodeRelativeCoordinate(reference, upperRight, data, 1+absoluteCoordSize); err != nil {
			return nil, err
		}
	} else {
		data = append(data, make([]byte, large-small)...)
		if _, err := encodeCoordinate(upperRight, data, 1+absoluteCoordSize); err != nil {
			return nil, err
		}
	}
	if err := encodeHeader(header{Version: binaryVersion, ArF1: true}, data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeRectangle(data []byte) (Location, error) {
	if len(data) != rectangleSize && len(data) != rectangleLargeSize {
		return nil, errors.Wrapf(ErrMalformedRecord, "rectangle record has %d bytes", len(data))
	}
	lowerLeft, upperRight, err := decodeBox(data, len(data) == rectangleLargeSize)
	if err != nil {
		return nil, err
	}
	return &RectangleLocation{LowerLeft: lowerLeft, UpperRight: upperRight}, nil
}

func encodeRectangle(loc *RectangleLocation) ([]byte, error) {
	return encodeBox(loc.LowerLeft, loc.UpperRight, rectangleSize, rectangleLargeSize)
}

/* Grid */

func canDecodeGrid(h header, size int) bool {
	return h.areaFlag() == 2 && (size == gridSize || size == gridLargeSize)
}

func decodeGrid(data []byte) (Location, error) {
	if len(data) != gridSize && len(data) != gridLargeSize {
		return nil, errors.Wrapf(ErrMalformedRecord, "grid record has %d bytes", len(data))
	}
	lowerLeft, upperRight, err := decodeBox(data, len(data) == gridLargeSize)
	if err != nil {
		return nil, err
	}
	position := len(data) - 4
	return &GridLocation{
		LowerLeft:  lowerLeft,
		UpperRight: upperRight,
		Columns:    int(binary.BigEndian.Uint16(data[position : position+2])),
		Rows:       int(binary.BigEndian.Uint16(data[position+2 : position+4])),
	}, nil
}

func encodeGrid(loc *GridLocation) ([]byte, error) {
	if loc.Columns < 1 || loc.Columns > maxGridDimensionSize || loc.Rows < 1 || loc.Rows > maxGridDimensionSize {
		return nil, errors.Wrapf(ErrInvalidFieldValue, "grid dimensions %dx%d", loc.Columns, loc.Rows)
	}
	box, err := encodeBox(loc.LowerLeft, loc.UpperRight, rectangleSize, rectangleLargeSize)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(box)+4)
	copy(data, box)
	binary.BigEndian.PutUint16(data[len(box):], uint16(loc.Columns))
	binary.BigEndian.PutUint16(data[len(box)+2:], uint16(loc.Rows))
	return data, nil
}

/* Polygon */

func canDecodePolygon(h header, size int) bool {
	return h.areaFlag() == 1
}

func decodePolygon(data []byte) (Location, error) {
	rest := len(data) - 1 - absoluteCoordSize
	if rest < relativeCoordSize*(polygonMinCorners-1) || rest%relativeCoordSize != 0 {
		return nil, errors.Wrapf(ErrMalformedRecord, "polygon record has %d bytes", len(data))
	}
	first, err := decodeCoordinate(data, 1)
	if err != nil {
		return nil, err
	}
	corners := []Coordinate{first}
	reference := first
	for position := 1 + absoluteCoordSize; position < len(data); position += relativeCoordSize {
		corner, err := decodeRelativeCoordinate(reference, data, position)
		if err != nil {
			return nil, err
		}
		corners = append(corners, corner)
		reference = corner
	}
	return &PolygonLocation{Corners: corners}, nil
}

func encodePolygon(loc *PolygonLocation) ([]byte, error) {
	if len(loc.Corners) < polygonMinCorners {
		return nil, errors.Wrapf(ErrInvalidFieldValue, "polygon needs at least %d corners, got %d", polygonMinCorners, len(loc.Corners))
	}
	data := make([]byte, 1+absoluteCoordSize+relativeCoordSize*(len(loc.Corners)-1))
	if err := encodeHeader(header{Version: binaryVersion, ArF0: true}, data); err != nil {
		return nil, err
	}
	reference, err := encodeCoordinate(loc.Corners[0], data, 1)
	if err != nil {
		return nil, err
	}
	position := 1 + absoluteCoordSize
	for _, corner := range loc.Corners[1:] {
		reference, err = encodeRelativeCoordinate(reference, corner, data, position)
		if err != nil {
			return nil, err
		}
		position += relativeCoordSize
	}
	return data, nil
}
