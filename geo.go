package openlr

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	earthR = 20037508.34
)

func epsg4326To3857(lon, lat float64) (float64, float64) {
	x := lon * earthR / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * earthR / 180
	return x, y
}

func pointToEuclidean(pt orb.Point) orb.Point {
	euclideanX, euclideanY := epsg4326To3857(pt.Lon(), pt.Lat())
	return orb.Point{euclideanX, euclideanY}
}

// sideOfLine returns positive value when point p lies to the left of directed segment a->b,
// negative when to the right and zero when collinear. Computed in Web Mercator plane.
func sideOfLine(a, b, p Coordinate) float64 {
	ea := pointToEuclidean(a.Point())
	eb := pointToEuclidean(b.Point())
	ep := pointToEuclidean(p.Point())
	return (eb[0]-ea[0])*(ep[1]-ea[1]) - (eb[1]-ea[1])*(ep[0]-ea[0])
}
