package area

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DistanceKM returns the great-circle distance between two points in kilometres.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2}) / 1000
}

// nearest scans areas and returns the index of the closest one, or -1 when areas is empty.
func nearest(areas []Area, lat, lon float64) (int, float64) {
	best, bestKM := -1, math.MaxFloat64
	p := orb.Point{lon, lat}
	for i := range areas {
		d := geo.DistanceHaversine(p, orb.Point{areas[i].Longitude, areas[i].Latitude}) / 1000
		if d < bestKM {
			best, bestKM = i, d
		}
	}
	return best, bestKM
}
