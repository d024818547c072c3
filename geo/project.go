package geo

import "math"

// XY is a point in a local planar frame, in meters.
type XY struct {
	X float64
	Y float64
}

// ProjectXY maps p into a local equirectangular frame in meters, using refLat
// as the reference latitude. The projection is only accurate over short
// distances, which is all the engine ever needs: windows of a few hundred
// meters around the vehicle.
func ProjectXY(p Point, refLat float64) XY {
	cos := math.Cos(DegToRad(refLat))
	return XY{
		X: DegToRad(p.Lon) * cos * EarthRadiusM,
		Y: DegToRad(p.Lat) * EarthRadiusM,
	}
}

// PointToSegment projects p onto the segment a-b and returns the closest point
// on the segment, the distance to it in meters, and the interpolation
// parameter t clamped to [0, 1].
func PointToSegment(p, a, b Point) (Point, float64, float64) {
	refLat := a.Lat
	pp := ProjectXY(p, refLat)
	pa := ProjectXY(a, refLat)
	pb := ProjectXY(b, refLat)

	vx := pb.X - pa.X
	vy := pb.Y - pa.Y
	wx := pp.X - pa.X
	wy := pp.Y - pa.Y

	t := 0.0
	if denom := vx*vx + vy*vy; denom > 0 {
		t = (wx*vx + wy*vy) / denom
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	closest := Point{
		Lon: a.Lon + t*(b.Lon-a.Lon),
		Lat: a.Lat + t*(b.Lat-a.Lat),
	}
	return closest, HaversineM(p, closest), t
}

// PointToPolylineM returns the minimum distance in meters from p to the
// polyline defined by line. Returns +Inf for polylines with fewer than two
// points.
func PointToPolylineM(p Point, line []Point) float64 {
	if len(line) < 2 {
		return math.Inf(1)
	}
	min := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		_, d, _ := PointToSegment(p, line[i], line[i+1])
		if d < min {
			min = d
		}
	}
	return min
}
