package navtrack

import (
	"errors"
	"log"
	"math"
	"time"

	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/coverage"
	"github.com/theoremus-urban-solutions/navtrack/geo"
	"github.com/theoremus-urban-solutions/navtrack/gps"
	"github.com/theoremus-urban-solutions/navtrack/internal/timeutil"
	"github.com/theoremus-urban-solutions/navtrack/route"
)

var (
	// ErrNoRoute is returned when an operation needs a loaded route.
	ErrNoRoute = errors.New("no route loaded")

	// ErrNoPosition is returned when an operation needs a current position
	// before any fix has arrived.
	ErrNoPosition = errors.New("no current position")
)

// Navigator owns the navigation lifecycle and wires each incoming fix
// through: state transition → route matching → fix processing → coverage
// check → derived outputs. It is tick-driven and single-threaded: the host
// calls Tick once per fix, and within one tick the state transition is
// applied strictly before coverage marking, and marking strictly before the
// persistence enqueue.
type Navigator struct {
	cfg   config.Engine
	clock timeutil.Clock

	route     *route.Route
	matcher   *route.Matcher
	maneuvers []route.Maneuver
	proc      *gps.Processor
	tracker   *coverage.Tracker

	state            NavState
	arrivedAtStartAt time.Time
	smartStart       *route.Match
	resume           *ResumeCandidate
	lastFix          *gps.Fix

	lastCoveragePct float64
	haveCoverage    bool
}

// New returns a Navigator in Setup. A nil clock means the real one.
func New(cfg config.Engine, clock timeutil.Clock) *Navigator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Navigator{cfg: cfg, clock: clock, state: Setup}
}

// State returns the current navigation state.
func (n *Navigator) State() NavState { return n.state }

// Route returns the loaded route, or nil.
func (n *Navigator) Route() *route.Route { return n.route }

// Maneuvers returns the maneuver list built at route load.
func (n *Navigator) Maneuvers() []route.Maneuver { return n.maneuvers }

// Coverage returns the coverage tracker, or nil when the area has no
// trackable segments.
func (n *Navigator) Coverage() *coverage.Tracker { return n.tracker }

// LoadArea replaces the active route and coverage segments wholesale and
// moves to RoutePreview. Any previous tracker's timers are canceled first.
// sink may be nil (or segments empty) to navigate without coverage tracking.
func (n *Navigator) LoadArea(r *route.Route, segments []coverage.Segment, sink coverage.Sink, missionID string) error {
	if r == nil {
		return ErrNoRoute
	}
	if n.tracker != nil {
		n.tracker.Close()
		n.tracker = nil
	}
	n.route = r
	n.matcher = route.NewMatcher(r, n.cfg)
	n.maneuvers = route.BuildManeuvers(r, n.cfg)
	n.proc = gps.NewProcessor(n.cfg)
	if sink != nil && len(segments) > 0 {
		n.tracker = coverage.NewTracker(segments, n.cfg, n.clock, sink, missionID)
	}
	n.state = RoutePreview
	n.smartStart = nil
	n.resume = nil
	n.lastFix = nil
	n.haveCoverage = false
	log.Printf("nav: loaded route %q (%.1f km, %d points, %d maneuvers)",
		r.Name, r.TotalM()/1000, len(r.Points), len(n.maneuvers))
	return nil
}

// StartNavigation begins active navigation directly from the preview, or
// early out of the arrived-at-start dwell.
func (n *Navigator) StartNavigation() error {
	if n.route == nil {
		return ErrNoRoute
	}
	switch n.state {
	case RoutePreview, ArrivedAtStart, NavigatingToStart:
		n.state = ActiveNavigation
	}
	return nil
}

// NavigateToStart finds the smart-start point (the route point closest to the
// current position, full-route search) and begins guidance toward it. When
// the vehicle is already within the start radius it goes straight to active
// navigation. Without a position yet this is a no-op error, not a crash.
func (n *Navigator) NavigateToStart() (*ResumeCandidate, error) {
	if n.route == nil {
		return nil, ErrNoRoute
	}
	if n.lastFix == nil {
		return nil, ErrNoPosition
	}
	m := n.matcher.MatchExhaustive(n.lastFix.Point())
	n.smartStart = &m
	target := &ResumeCandidate{
		VertexIndex: m.EdgeIndex,
		Point:       m.Point,
		AlongM:      m.AlongM,
		DistanceM:   m.CrossTrackM,
	}
	if m.CrossTrackM <= n.cfg.SmartStartRadiusM {
		n.state = ActiveNavigation
		return target, nil
	}
	n.state = NavigatingToStart
	return target, nil
}

// AcceptResume resumes active navigation at the current resume candidate:
// the matcher anchor and smoothed progress are hard-reset to the candidate
// so the backward-jump rule does not fight the jump.
func (n *Navigator) AcceptResume() {
	if n.state != ResumeAhead || n.resume == nil {
		return
	}
	edge := n.resume.VertexIndex
	if max := n.route.Edges() - 1; edge > max {
		edge = max
	}
	n.matcher.Reset(edge)
	n.proc.Reseed(n.resume.AlongM, n.clock.Now())
	n.resume = nil
	n.state = ActiveNavigation
}

// DismissResume falls back to plain off-route guidance.
func (n *Navigator) DismissResume() {
	if n.state != ResumeAhead {
		return
	}
	n.resume = nil
	n.state = OffRoute
}

// Reset ends the session and returns to Setup. Coverage timers are canceled;
// queued persistence ids are dropped with the tracker, so callers wanting a
// final write should flush the tracker first.
func (n *Navigator) Reset() {
	if n.tracker != nil {
		n.tracker.Close()
		n.tracker = nil
	}
	n.route = nil
	n.matcher = nil
	n.maneuvers = nil
	n.proc = nil
	n.state = Setup
	n.smartStart = nil
	n.resume = nil
	n.lastFix = nil
	n.haveCoverage = false
}

// Close cancels all scheduled work. The navigator is not usable afterwards.
func (n *Navigator) Close() {
	if n.tracker != nil {
		n.tracker.Close()
	}
}

// Tick consumes one fix and returns the per-tick output record plus the
// discrete events the tick produced. Invalid fixes are rejected without
// mutating any state. Tick never blocks on I/O: persistence happens on the
// tracker's own timer.
func (n *Navigator) Tick(f gps.Fix) (TickOutput, []Event, error) {
	if err := f.Validate(); err != nil {
		return TickOutput{}, nil, err
	}
	fix := f
	n.lastFix = &fix

	if n.route == nil || n.state == Setup || n.state == RoutePreview {
		// Not navigating yet; the fix only refreshes the known position.
		return n.outputFor(0, 0, route.Match{}, gps.Derived{}), nil, nil
	}

	m := n.matcher.Match(f.Point())
	var routeBearing *float64
	if m.CrossTrackM <= n.cfg.OffRouteM {
		b := n.route.EdgeBearing(m.EdgeIndex)
		routeBearing = &b
	}
	d := n.proc.Advance(f, m.AlongM, routeBearing)
	progress := n.route.ClampAlong(d.ProgressM)
	remaining := n.route.TotalM() - progress

	var events []Event

	prev := n.state
	next := nextState(transitionInput{
		state:         prev,
		remainingM:    remaining,
		crossTrackM:   m.CrossTrackM,
		distToStartM:  n.distToSmartStart(f.Point()),
		dwellElapsed:  prev == ArrivedAtStart && n.clock.Since(n.arrivedAtStartAt) >= n.cfg.ArrivedAtStartDwell(),
		arriveRadiusM: n.cfg.ArriveRadiusM,
		startRadiusM:  n.cfg.SmartStartRadiusM,
		offRouteM:     n.cfg.OffRouteM,
		resumeAheadM:  n.cfg.ResumeAheadM,
	})

	if next == ResumeAhead && prev != ResumeAhead {
		// Beyond plausibly-near-the-route: look for a point ahead to resume
		// from. With nothing resumable in the remaining route, plain
		// off-route guidance is all we can offer.
		if cand, ok := n.findResumeAhead(f.Point()); ok {
			n.resume = &cand
			events = append(events, Event{Kind: EventResumeCandidate, Resume: n.resume})
		} else {
			next = OffRoute
		}
	}
	if next != prev {
		if next == ArrivedAtStart {
			n.arrivedAtStartAt = n.clock.Now()
		}
		n.state = next
		events = append(events, Event{Kind: EventStateChanged, From: prev, To: next})
		log.Printf("nav: %s -> %s (progress %.0f m, remaining %.0f m, cross-track %.0f m)",
			prev, next, progress, remaining, m.CrossTrackM)
	}

	// Coverage marking runs strictly after the state transition, persistence
	// enqueue strictly after marking (inside Check).
	if n.tracker != nil && n.state != Setup && n.state != RoutePreview {
		if driven := n.tracker.Check(f.Point()); len(driven) > 0 {
			events = append(events, Event{Kind: EventSegmentsDriven, SegmentIDs: driven})
		}
	}
	if n.tracker != nil {
		for _, issue := range n.tracker.Issues() {
			is := issue
			events = append(events, Event{Kind: EventPersistenceIssue, Issue: &is})
		}
	}

	return n.outputFor(progress, remaining, m, d), events, nil
}

func (n *Navigator) distToSmartStart(p geo.Point) float64 {
	if n.smartStart == nil {
		return math.Inf(1)
	}
	return geo.HaversineM(p, n.smartStart.Point)
}

// findResumeAhead scans route vertices forward from the matcher anchor for
// the first one within the resume-search radius of pos. The search radius is
// wider than the resume trigger: once the whole route is beyond the trigger
// distance, a candidate can only exist inside the wider ring.
func (n *Navigator) findResumeAhead(pos geo.Point) (ResumeCandidate, bool) {
	for i := n.matcher.LastIndex(); i < len(n.route.Points); i++ {
		d := geo.HaversineM(pos, n.route.Points[i])
		if d <= n.cfg.ResumeSearchM {
			return ResumeCandidate{
				VertexIndex: i,
				Point:       n.route.Points[i],
				AlongM:      n.route.CumDistM[i],
				DistanceM:   d,
			}, true
		}
	}
	return ResumeCandidate{}, false
}

func (n *Navigator) outputFor(progress, remaining float64, m route.Match, d gps.Derived) TickOutput {
	out := TickOutput{
		State:       n.state,
		StateName:   n.state.String(),
		ProgressM:   progress,
		RemainingM:  remaining,
		OffRoute:    n.state == OffRoute || n.state == ResumeAhead,
		CrossTrackM: m.CrossTrackM,
	}
	if d.SpeedOK {
		v := d.SpeedMps
		out.SpeedMps = &v
	}
	if d.HeadingOK {
		h := d.HeadingDeg
		out.HeadingDeg = &h
	}
	if next, ok := route.NextManeuver(n.maneuvers, progress, n.cfg.ManeuverPassedM); ok {
		out.NextManeuver = &ManeuverInfo{
			Kind:        next.Kind,
			AlongM:      next.AlongM,
			DistanceM:   next.AlongM - progress,
			VertexIndex: next.Index,
		}
	}
	if n.tracker != nil {
		pct := n.tracker.CoveragePct()
		out.CoveragePct = pct
		if n.haveCoverage {
			out.CoverageDeltaPct = pct - n.lastCoveragePct
		}
		n.lastCoveragePct = pct
		n.haveCoverage = true
	}
	return out
}
