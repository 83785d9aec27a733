package openlr

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Coordinate representation of point on Earth (WGS84 degrees)
type Coordinate struct {
	Lat float64
	Lon float64
}

// String returns pretty printed value for Coordinate
func (c Coordinate) String() string {
	return fmt.Sprintf("Lon: %f | Lat: %f", c.Lon, c.Lat)
}

// Point converts coordinate to orb.Point (X == Lon, Y == Lat)
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// IsValid reports whether coordinate is inside WGS84 range
func (c Coordinate) IsValid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// greatCircleDistance returns distance between two coordinates (meters)
func greatCircleDistance(p, q Coordinate) float64 {
	return geo.DistanceHaversine(p.Point(), q.Point())
}

// getSphericalLength returns length for given line (meters)
func getSphericalLength(line []Coordinate) float64 {
	totalLength := 0.0
	if len(line) < 2 {
		return totalLength
	}
	for i := 1; i < len(line); i++ {
		totalLength += greatCircleDistance(line[i-1], line[i])
	}
	return totalLength
}

// bearingBetween returns initial bearing from p to q in degrees [0, 360)
func bearingBetween(p, q Coordinate) float64 {
	b := geo.Bearing(p.Point(), q.Point())
	return normalizeAngle(b)
}

func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}

// angleDifference returns absolute difference of two bearings in range [0, 180]
func angleDifference(a, b float64) float64 {
	diff := math.Abs(normalizeAngle(a) - normalizeAngle(b))
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// pointOnSegmentByFraction returns a point on given segment assuming knowledge about fraction
func pointOnSegmentByFraction(p, q Coordinate, fraction float64) Coordinate {
	return Coordinate{
		Lon: (1-fraction)*p.Lon + (fraction * q.Lon),
		Lat: (1-fraction)*p.Lat + (fraction * q.Lat),
	}
}

// pointAlongLine returns the point lying at given distance (meters) from the start of line.
// Distance is clamped to the line length.
func pointAlongLine(line []Coordinate, distance float64) Coordinate {
	if len(line) == 0 {
		return Coordinate{}
	}
	if distance <= 0 || len(line) == 1 {
		return line[0]
	}
	cl := 0.0
	for i := 1; i < len(line); i++ {
		segment := greatCircleDistance(line[i-1], line[i])
		if cl+segment >= distance {
			if segment == 0 {
				return line[i]
			}
			return pointOnSegmentByFraction(line[i-1], line[i], (distance-cl)/segment)
		}
		cl += segment
	}
	return line[len(line)-1]
}

// lineSubstring returns part of the line between given distances (meters) from its start
func lineSubstring(line []Coordinate, from, to float64) []Coordinate {
	if len(line) < 2 || to <= from {
		return []Coordinate{pointAlongLine(line, from)}
	}
	result := []Coordinate{pointAlongLine(line, from)}
	cl := 0.0
	for i := 1; i < len(line); i++ {
		cl += greatCircleDistance(line[i-1], line[i])
		if cl <= from {
			continue
		}
		if cl >= to {
			break
		}
		result = append(result, line[i])
	}
	return append(result, pointAlongLine(line, to))
}

// bearingAlongLine returns bearing from the first point of the line to the point lying
// at given distance along it. Used for LRP bearings (20m ahead).
func bearingAlongLine(line []Coordinate, distance float64) float64 {
	if len(line) < 2 {
		return 0
	}
	length := getSphericalLength(line)
	if distance > length {
		distance = length
	}
	return bearingBetween(line[0], pointAlongLine(line, distance))
}

// projectOnLine projects point on the given polyline (in Web Mercator plane) and returns
// projected point and its offset (meters) from the first point of the line.
// Returns false when line is degenerate.
func projectOnLine(line []Coordinate, pt Coordinate) (Coordinate, float64, bool) {
	if len(line) < 2 {
		return Coordinate{}, 0, false
	}
	target := pointToEuclidean(pt.Point())
	bestDistance := math.Inf(1)
	bestOffset := 0.0
	var bestProjected Coordinate
	found := false
	cl := 0.0
	for i := 1; i < len(line); i++ {
		a := pointToEuclidean(line[i-1].Point())
		b := pointToEuclidean(line[i].Point())
		fraction, ok := projectionFraction(a, b, target)
		segment := greatCircleDistance(line[i-1], line[i])
		if ok {
			projected := pointOnSegmentByFraction(line[i-1], line[i], fraction)
			d := greatCircleDistance(projected, pt)
			if d < bestDistance {
				bestDistance = d
				bestProjected = projected
				bestOffset = cl + fraction*segment
				found = true
			}
		}
		cl += segment
	}
	return bestProjected, bestOffset, found
}

// projectionFraction returns fraction [0, 1] of projection of point p onto segment a-b
func projectionFraction(a, b, p orb.Point) (float64, bool) {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0, true
	}
	fraction := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	if math.IsNaN(fraction) {
		return 0, false
	}
	return math.Max(0, math.Min(1, fraction)), true
}

// sideOfRoad tells on which side of the directed line given point lies.
// Points closer than onRoadDistance (meters) to the line are on the road
func sideOfRoad(line []Coordinate, pt Coordinate, onRoadDistance float64) SideOfRoad {
	if len(line) < 2 {
		return SIDE_ON_ROAD
	}
	target := pointToEuclidean(pt.Point())
	bestDistance := math.Inf(1)
	bestSegment := 0
	for i := 1; i < len(line); i++ {
		fraction, ok := projectionFraction(pointToEuclidean(line[i-1].Point()), pointToEuclidean(line[i].Point()), target)
		if !ok {
			continue
		}
		d := greatCircleDistance(pointOnSegmentByFraction(line[i-1], line[i], fraction), pt)
		if d < bestDistance {
			bestDistance = d
			bestSegment = i
		}
	}
	if bestSegment == 0 || bestDistance < onRoadDistance {
		return SIDE_ON_ROAD
	}
	if sideOfLine(line[bestSegment-1], line[bestSegment], pt) > 0 {
		return SIDE_LEFT
	}
	return SIDE_RIGHT
}

// reverseLine reverses order of points in given line. Returns new slice
func reverseLine(pts []Coordinate) []Coordinate {
	inputLen := len(pts)
	output := make([]Coordinate, inputLen)
	for i, n := range pts {
		j := inputLen - i - 1
		output[j] = n
	}
	return output
}

// copyLine copies given line. Returns new slice
func copyLine(pts []Coordinate) []Coordinate {
	output := make([]Coordinate, len(pts))
	copy(output, pts)
	return output
}

// lineString converts coordinates to orb.LineString
func lineString(pts []Coordinate) orb.LineString {
	ls := make(orb.LineString, len(pts))
	for i, pt := range pts {
		ls[i] = pt.Point()
	}
	return ls
}
