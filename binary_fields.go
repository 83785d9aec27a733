package openlr

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

const (
	// degreesResolution is 2^24: 24-bit absolute coordinates span 360 degrees
	degreesResolution = 16777216.0
	// maxInt24Magnitude is the largest magnitude carried by 23 bits
	maxInt24Magnitude = 1<<23 - 1
	// relativeResolution relative coordinates are stored in 1/100000 degree
	relativeResolution = 100000.0
	// distanceStep meters per distance-to-next bucket
	distanceStep = 58.6
	// maxDistanceBucket saturation value for distance-to-next bucket
	maxDistanceBucket = 255
	// bearingSectorHalf is half of the bearing sector, decoded bearings point to the sector middle
	bearingSectorHalf = 5.625
	// offsetBuckets number of offset buckets
	offsetBuckets = 256
)

// bearingSectors lower bounds (degrees) of 32 bearing sectors as published by the OpenLR whitepaper
var bearingSectors = [32]float64{
	0.00, 11.25, 22.50, 33.75, 45.00, 56.25, 67.50, 78.75,
	90.00, 101.25, 112.50, 123.75, 135.00, 146.25, 157.50, 168.75,
	180.00, 191.25, 202.50, 213.75, 225.00, 236.25, 247.50, 258.75,
	270.00, 281.25, 292.50, 303.75, 315.00, 326.25, 337.50, 348.75,
}

func checkLength(data []byte, offset, size int) error {
	if offset < 0 || len(data) < offset+size {
		return errors.Wrapf(ErrMalformedRecord, "need %d bytes at offset %d, got buffer of %d bytes", size, offset, len(data))
	}
	return nil
}

// decodeInt24 decodes big-endian 24-bit value where the top bit of the first byte is a sign flag
// and the remaining 23 bits are the magnitude
func decodeInt24(data []byte, offset int) (int32, error) {
	if err := checkLength(data, offset, 3); err != nil {
		return 0, err
	}
	result := int32(data[offset]&0x7F)<<16 | int32(data[offset+1])<<8 | int32(data[offset+2])
	if data[offset]&0x80 != 0 {
		return -result, nil
	}
	return result, nil
}

// encodeInt24 is the inverse of decodeInt24
func encodeInt24(value int32, data []byte, offset int) error {
	if err := checkLength(data, offset, 3); err != nil {
		return err
	}
	magnitude := value
	sign := byte(0)
	if value < 0 {
		magnitude = -value
		sign = 0x80
	}
	if magnitude > maxInt24Magnitude {
		return errors.Wrapf(ErrInvalidFieldValue, "value %d does not fit 24 bits", value)
	}
	data[offset] = sign | byte(magnitude>>16)&0x7F
	data[offset+1] = byte(magnitude >> 8)
	data[offset+2] = byte(magnitude)
	return nil
}

// decodeInt16 decodes big-endian 16-bit two's complement value
func decodeInt16(data []byte, offset int) (int32, error) {
	if err := checkLength(data, offset, 2); err != nil {
		return 0, err
	}
	result := int32(data[offset])<<8 | int32(data[offset+1])
	if data[offset]&0x80 != 0 {
		return result - 65536, nil
	}
	return result, nil
}

// encodeInt16 is the inverse of decodeInt16
func encodeInt16(value int32, data []byte, offset int) error {
	if err := checkLength(data, offset, 2); err != nil {
		return err
	}
	if value < math.MinInt16 || value > math.MaxInt16 {
		return errors.Wrapf(ErrInvalidFieldValue, "value %d does not fit 16 bits", value)
	}
	u := uint16(int16(value))
	data[offset] = byte(u >> 8)
	data[offset+1] = byte(u)
	return nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// decodeDegrees converts 24-bit integer to degrees
func decodeDegrees(raw int32) float64 {
	v := float64(raw)
	return ((v - sign(v)*0.5) * 360) / degreesResolution
}

// encodeDegrees converts degrees to 24-bit integer. Magnitude saturates at 2^23-1
func encodeDegrees(degrees float64) int32 {
	raw := sign(degrees)*0.5 + degrees*degreesResolution/360
	if raw > maxInt24Magnitude {
		return maxInt24Magnitude
	}
	if raw < -maxInt24Magnitude {
		return -maxInt24Magnitude
	}
	return int32(raw)
}

// decodeCoordinate decodes absolute coordinate: 3 bytes longitude, then 3 bytes latitude
func decodeCoordinate(data []byte, offset int) (Coordinate, error) {
	lon, err := decodeInt24(data, offset)
	if err != nil {
		return Coordinate{}, err
	}
	lat, err := decodeInt24(data, offset+3)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Lat: decodeDegrees(lat), Lon: decodeDegrees(lon)}, nil
}

// encodeCoordinate writes absolute coordinate and returns its quantized value (what a decoder will see)
func encodeCoordinate(c Coordinate, data []byte, offset int) (Coordinate, error) {
	if !c.IsValid() || math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return Coordinate{}, errors.Wrapf(ErrInvalidFieldValue, "coordinate %s is out of WGS84 range", c)
	}
	lon := encodeDegrees(c.Lon)
	lat := encodeDegrees(c.Lat)
	if err := encodeInt24(lon, data, offset); err != nil {
		return Coordinate{}, err
	}
	if err := encodeInt24(lat, data, offset+3); err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Lat: decodeDegrees(lat), Lon: decodeDegrees(lon)}, nil
}

// decodeRelativeCoordinate decodes coordinate relative to reference: 2 bytes longitude, then 2 bytes latitude
func decodeRelativeCoordinate(reference Coordinate, data []byte, offset int) (Coordinate, error) {
	lon, err := decodeInt16(data, offset)
	if err != nil {
		return Coordinate{}, err
	}
	lat, err := decodeInt16(data, offset+2)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{
		Lat: reference.Lat + float64(lat)/relativeResolution,
		Lon: reference.Lon + float64(lon)/relativeResolution,
	}, nil
}

func relativeDeltas(reference, c Coordinate) (int64, int64) {
	lon := int64(math.Round((c.Lon - reference.Lon) * relativeResolution))
	lat := int64(math.Round((c.Lat - reference.Lat) * relativeResolution))
	return lon, lat
}

// relativeFits reports whether c can be stored relative to reference
func relativeFits(reference, c Coordinate) bool {
	lon, lat := relativeDeltas(reference, c)
	return lon >= math.MinInt16 && lon <= math.MaxInt16 && lat >= math.MinInt16 && lat <= math.MaxInt16
}

// encodeRelativeCoordinate writes c relative to reference and returns the quantized value of c
func encodeRelativeCoordinate(reference, c Coordinate, data []byte, offset int) (Coordinate, error) {
	if !c.IsValid() {
		return Coordinate{}, errors.Wrapf(ErrInvalidFieldValue, "coordinate %s is out of WGS84 range", c)
	}
	if !relativeFits(reference, c) {
		return Coordinate{}, errors.Wrapf(ErrInvalidFieldValue, "coordinate %s is too far from previous point %s", c, reference)
	}
	lon, lat := relativeDeltas(reference, c)
	if err := encodeInt16(int32(lon), data, offset); err != nil {
		return Coordinate{}, err
	}
	if err := encodeInt16(int32(lat), data, offset+2); err != nil {
		return Coordinate{}, err
	}
	return Coordinate{
		Lat: reference.Lat + float64(lat)/relativeResolution,
		Lon: reference.Lon + float64(lon)/relativeResolution,
	}, nil
}

// encodeBearing returns bearing sector [0, 31] for given angle [0, 360]
func encodeBearing(angle float64) (uint8, error) {
	if math.IsNaN(angle) || angle < 0 || angle > 360 {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "bearing %f is out of range [0, 360]", angle)
	}
	if angle == 360 {
		angle = 0
	}
	// first sector whose lower bound is greater than angle, minus one
	idx := sort.Search(len(bearingSectors), func(i int) bool {
		return bearingSectors[i] > angle
	})
	return uint8(idx - 1), nil
}

// decodeBearing returns the middle angle of given sector
func decodeBearing(sector uint8) float64 {
	return bearingSectors[sector&0x1F] + bearingSectorHalf
}

// encodeDistance returns distance-to-next bucket for given distance (meters)
func encodeDistance(meters float64) (uint8, error) {
	if math.IsNaN(meters) || meters < 0 {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "distance %f is negative", meters)
	}
	bucket := math.Floor(meters / distanceStep)
	if bucket > maxDistanceBucket {
		return maxDistanceBucket, nil
	}
	return uint8(bucket), nil
}

// decodeDistance returns distance (meters) for given bucket
func decodeDistance(bucket uint8) float64 {
	return float64(bucket) * distanceStep
}

// encodeOffset returns offset bucket for given percentage [0, 100)
func encodeOffset(percentage float64) (uint8, error) {
	if math.IsNaN(percentage) || percentage < 0 || percentage >= 100 {
		return 0, errors.Wrapf(ErrInvalidFieldValue, "offset %f is out of range [0, 100)", percentage)
	}
	bucket := math.Floor(percentage * offsetBuckets / 100)
	if bucket > offsetBuckets-1 {
		bucket = offsetBuckets - 1
	}
	return uint8(bucket), nil
}

// decodeOffset returns offset percentage pointing to the middle of the bucket
func decodeOffset(bucket uint8) float64 {
	return (float64(bucket) + 0.5) * 100 / offsetBuckets
}

// writeBits writes value of given width into data[idx]. bitOffset is counted from the most significant bit
func writeBits(data []byte, idx int, bitOffset, width uint, value uint8) {
	shift := 8 - bitOffset - width
	mask := byte((1<<width)-1) << shift
	data[idx] = data[idx]&^mask | (value<<shift)&mask
}

// readBits is the inverse of writeBits
func readBits(data []byte, idx int, bitOffset, width uint) uint8 {
	shift := 8 - bitOffset - width
	return (data[idx] >> shift) & byte((1<<width)-1)
}

func encodeFRC(frc FunctionalRoadClass, data []byte, idx int, bitOffset uint) error {
	if !frc.IsValid() {
		return errors.Wrapf(ErrInvalidFieldValue, "functional road class %d", frc)
	}
	writeBits(data, idx, bitOffset, 3, uint8(frc))
	return nil
}

func decodeFRC(data []byte, idx int, bitOffset uint) FunctionalRoadClass {
	return FunctionalRoadClass(readBits(data, idx, bitOffset, 3))
}

func encodeFOW(fow FormOfWay, data []byte, idx int, bitOffset uint) error {
	if !fow.IsValid() {
		return errors.Wrapf(ErrInvalidFieldValue, "form of way %d", fow)
	}
	writeBits(data, idx, bitOffset, 3, uint8(fow))
	return nil
}

func decodeFOW(data []byte, idx int, bitOffset uint) FormOfWay {
	return FormOfWay(readBits(data, idx, bitOffset, 3))
}

func encodeFlag(flag bool, data []byte, idx int, bitOffset uint) {
	v := uint8(0)
	if flag {
		v = 1
	}
	writeBits(data, idx, bitOffset, 1, v)
}

func decodeFlag(data []byte, idx int, bitOffset uint) bool {
	return readBits(data, idx, bitOffset, 1) == 1
}
