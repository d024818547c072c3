package route

import (
	"errors"
	"fmt"

	"github.com/theoremus-urban-solutions/navtrack/geo"
)

// ErrRouteTooShort marks a route geometry with fewer than two points.
var ErrRouteTooShort = errors.New("route needs at least 2 points")

// Route is an immutable, ordered polyline plus its derived metrics. It is
// created once per area load and replaced wholesale on reload; nothing
// mutates it in place.
type Route struct {
	Name     string
	Points   []geo.Point
	CumDistM []float64 // per-vertex cumulative distance along the route
	EdgeLenM []float64 // per-edge length, len(Points)-1 entries
}

// New validates points and builds the route metrics. The cumulative-distance
// array is non-decreasing by construction and its last element equals the sum
// of all edge lengths.
func New(points []geo.Point, name string) (*Route, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrRouteTooShort, len(points))
	}
	for i, p := range points {
		if !p.Finite() {
			return nil, fmt.Errorf("route point %d is not finite: %+v", i, p)
		}
	}
	pts := make([]geo.Point, len(points))
	copy(pts, points)

	r := &Route{
		Name:     name,
		Points:   pts,
		CumDistM: make([]float64, len(pts)),
		EdgeLenM: make([]float64, len(pts)-1),
	}
	for i := 1; i < len(pts); i++ {
		r.EdgeLenM[i-1] = geo.HaversineM(pts[i-1], pts[i])
		r.CumDistM[i] = r.CumDistM[i-1] + r.EdgeLenM[i-1]
	}
	return r, nil
}

// TotalM returns the total route length in meters.
func (r *Route) TotalM() float64 {
	return r.CumDistM[len(r.CumDistM)-1]
}

// Edges returns the number of edges in the polyline.
func (r *Route) Edges() int {
	return len(r.EdgeLenM)
}

// EdgeBearing returns the bearing of edge i in degrees.
func (r *Route) EdgeBearing(i int) float64 {
	if i < 0 {
		i = 0
	}
	if i >= r.Edges() {
		i = r.Edges() - 1
	}
	return geo.BearingDeg(r.Points[i], r.Points[i+1])
}

// ClampAlong clamps a distance-along-route to [0, TotalM].
func (r *Route) ClampAlong(d float64) float64 {
	if d < 0 {
		return 0
	}
	if t := r.TotalM(); d > t {
		return t
	}
	return d
}
