package engine

import "math"

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// HaversineKm returns the great-circle distance between two points in
// kilometers. Total over all valid coordinate pairs: identical points
// yield 0 and antipodal points yield half the Earth's circumference.
func HaversineKm(a, b LatLon) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lon - a.Lon)

	h := math.Pow(math.Sin(dPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
