// Package geo computes great-circle distances between coordinates.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// MaxDistanceKm is half the Earth's circumference, the largest possible result.
const MaxDistanceKm = math.Pi * EarthRadiusKm

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees. Any NaN input yields NaN.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// rounding can push a a hair past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// Point is a coordinate pair that may be missing.
type Point struct {
	Lat, Lng float64
	Valid    bool
}

// Distances computes pairwise distances. A pair with a missing endpoint
// yields an invalid result rather than a number.
func Distances(from, to []Point) ([]float64, []bool) {
	n := min(len(from), len(to))
	out := make([]float64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if !from[i].Valid || !to[i].Valid {
			continue
		}
		d := Haversine(from[i].Lat, from[i].Lng, to[i].Lat, to[i].Lng)
		if math.IsNaN(d) {
			continue
		}
		out[i], valid[i] = d, true
	}
	return out, valid
}
