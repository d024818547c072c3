package route

import (
	"math"

	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/geo"
)

// Match is the result of projecting a position onto the route.
type Match struct {
	EdgeIndex   int
	T           float64
	Point       geo.Point
	CrossTrackM float64
	AlongM      float64
}

// Matcher finds the closest point on the route to a position. Consecutive
// fixes are spatially local, so it first searches a window of edges around
// the last match and only falls back to an exhaustive scan when the best
// windowed candidate is clearly off (beyond windowFallbackM). That keeps the
// per-tick cost O(window) on routes with thousands of vertices while still
// recovering after a GPS gap or teleport.
type Matcher struct {
	route     *Route
	cfg       config.Engine
	lastIndex int
}

// NewMatcher returns a Matcher over r.
func NewMatcher(r *Route, cfg config.Engine) *Matcher {
	return &Matcher{route: r, cfg: cfg}
}

// LastIndex returns the edge index of the most recent match.
func (m *Matcher) LastIndex() int { return m.lastIndex }

// Reset moves the matcher's search anchor to the given edge, clamped to the
// route. Used when navigation resumes at a point ahead.
func (m *Matcher) Reset(edgeIndex int) {
	if edgeIndex < 0 {
		edgeIndex = 0
	}
	if max := m.route.Edges() - 1; edgeIndex > max {
		edgeIndex = max
	}
	m.lastIndex = edgeIndex
}

// Match projects p onto the route using the two-tier search and advances the
// search anchor to the winning edge.
func (m *Matcher) Match(p geo.Point) Match {
	lo := m.lastIndex - m.cfg.SearchBackEdges
	hi := m.lastIndex + m.cfg.SearchAheadEdges
	best := m.searchRange(p, lo, hi)
	if best.CrossTrackM > m.cfg.WindowFallbackM {
		best = m.searchRange(p, 0, m.route.Edges()-1)
	}
	m.lastIndex = best.EdgeIndex
	return best
}

// MatchExhaustive projects p onto the route scanning every edge, without
// moving the search anchor. This is the smart-start search.
func (m *Matcher) MatchExhaustive(p geo.Point) Match {
	return m.searchRange(p, 0, m.route.Edges()-1)
}

func (m *Matcher) searchRange(p geo.Point, lo, hi int) Match {
	if lo < 0 {
		lo = 0
	}
	if max := m.route.Edges() - 1; hi > max {
		hi = max
	}
	best := Match{EdgeIndex: lo, CrossTrackM: math.Inf(1)}
	for i := lo; i <= hi; i++ {
		pt, dist, t := geo.PointToSegment(p, m.route.Points[i], m.route.Points[i+1])
		if dist < best.CrossTrackM {
			best = Match{
				EdgeIndex:   i,
				T:           t,
				Point:       pt,
				CrossTrackM: dist,
				AlongM:      m.route.CumDistM[i] + t*m.route.EdgeLenM[i],
			}
		}
	}
	return best
}
