package geo

import "math"

// EarthRadiusM is the mean Earth radius used for haversine distances.
const EarthRadiusM = 6371000.0

// Point is a geographic coordinate in degrees.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0) &&
		!math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0)
}

// DegToRad converts degrees to radians.
func DegToRad(d float64) float64 { return d * math.Pi / 180 }

// RadToDeg converts radians to degrees.
func RadToDeg(r float64) float64 { return r * 180 / math.Pi }

// HaversineM returns the great-circle distance between a and b in meters.
func HaversineM(a, b Point) float64 {
	dLat := DegToRad(b.Lat - a.Lat)
	dLon := DegToRad(b.Lon - a.Lon)
	la1 := DegToRad(a.Lat)
	la2 := DegToRad(b.Lat)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BearingDeg returns the initial bearing from a to b in degrees [0, 360).
func BearingDeg(a, b Point) float64 {
	la1 := DegToRad(a.Lat)
	la2 := DegToRad(b.Lat)
	dLon := DegToRad(b.Lon - a.Lon)
	y := math.Sin(dLon) * math.Cos(la2)
	x := math.Cos(la1)*math.Sin(la2) - math.Sin(la1)*math.Cos(la2)*math.Cos(dLon)
	deg := RadToDeg(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// NormalizeDeltaDeg normalizes an angle difference to (-180, 180].
func NormalizeDeltaDeg(d float64) float64 {
	for d > 180 {
		d -= 360
	}
	for d <= -180 {
		d += 360
	}
	return d
}
