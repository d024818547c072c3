package route

import (
	"math"

	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/geo"
)

// Maneuver is one turn event derived from route geometry.
type Maneuver struct {
	Index    int     // route vertex index
	AlongM   float64 // distance along the route
	DeltaDeg float64 // signed turn angle, (-180, 180]
	Kind     string  // depart, arrive, or a Classify result
}

// Classify names a turn by its signed delta in degrees. The sign gives the
// side: positive is right, negative is left.
func Classify(deltaDeg float64) string {
	abs := math.Abs(deltaDeg)
	side := "right"
	if deltaDeg < 0 {
		side = "left"
	}
	switch {
	case abs > 150:
		return "uturn"
	case abs > 100:
		return "sharp-" + side
	case abs > 50:
		return side
	case abs > 25:
		return "slight-" + side
	default:
		return "straight"
	}
}

// BuildManeuvers derives the sparse turn list from route geometry. It runs
// once per route load. Interior vertices are skipped when the turn is too
// shallow, too close to the previous accepted maneuver, or flanked by an edge
// short enough to be geometry noise. A synthetic depart at distance 0 and
// arrive at the total distance bracket the list.
func BuildManeuvers(r *Route, cfg config.Engine) []Maneuver {
	ms := []Maneuver{{Index: 0, AlongM: 0, Kind: "depart"}}
	lastAlong := 0.0
	for i := 1; i < len(r.Points)-1; i++ {
		if r.EdgeLenM[i-1] < cfg.MinEdgeLenM || r.EdgeLenM[i] < cfg.MinEdgeLenM {
			continue
		}
		in := geo.BearingDeg(r.Points[i-1], r.Points[i])
		out := geo.BearingDeg(r.Points[i], r.Points[i+1])
		delta := geo.NormalizeDeltaDeg(out - in)
		if math.Abs(delta) < cfg.MinTurnAngleDeg {
			continue
		}
		along := r.CumDistM[i]
		if along-lastAlong < cfg.MinManeuverSpacingM {
			continue
		}
		ms = append(ms, Maneuver{
			Index:    i,
			AlongM:   along,
			DeltaDeg: delta,
			Kind:     Classify(delta),
		})
		lastAlong = along
	}
	ms = append(ms, Maneuver{
		Index:  len(r.Points) - 1,
		AlongM: r.TotalM(),
		Kind:   "arrive",
	})
	return ms
}

// NextManeuver returns the first maneuver beyond progressM plus the passed
// guard, which keeps a just-passed maneuver from re-triggering.
func NextManeuver(ms []Maneuver, progressM, guardM float64) (Maneuver, bool) {
	for _, m := range ms {
		if m.AlongM > progressM+guardM {
			return m, true
		}
	}
	return Maneuver{}, false
}
