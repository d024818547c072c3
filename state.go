package navtrack

// NavState is the navigation lifecycle state. Exactly one value is current;
// transitions depend only on the current state, the smoothed progress, the
// remaining distance, the cross-track distance, and explicit user actions.
type NavState int

const (
	Setup NavState = iota
	RoutePreview
	NavigatingToStart
	ArrivedAtStart
	ActiveNavigation
	OffRoute
	ResumeAhead
	Arrived
)

var stateNames = [...]string{
	Setup:             "setup",
	RoutePreview:      "route_preview",
	NavigatingToStart: "navigating_to_start",
	ArrivedAtStart:    "arrived_at_start",
	ActiveNavigation:  "active_navigation",
	OffRoute:          "off_route",
	ResumeAhead:       "resume_ahead",
	Arrived:           "arrived",
}

func (s NavState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// transitionInput is everything a per-tick transition decision may read.
type transitionInput struct {
	state         NavState
	remainingM    float64
	crossTrackM   float64
	distToStartM  float64 // distance to the smart-start point, when relevant
	dwellElapsed  bool    // arrived-at-start dwell has passed
	arriveRadiusM float64
	startRadiusM  float64
	offRouteM     float64
	resumeAheadM  float64
}

// nextState is the pure per-tick transition function. Side effects (timers,
// resume searches, events) belong to the Navigator.
func nextState(in transitionInput) NavState {
	switch in.state {
	case NavigatingToStart:
		if in.distToStartM <= in.startRadiusM {
			return ArrivedAtStart
		}
		return NavigatingToStart

	case ArrivedAtStart:
		if in.dwellElapsed {
			return ActiveNavigation
		}
		return ArrivedAtStart

	case ActiveNavigation:
		// Arrival wins over off-route: a vehicle 30 m off the road at the
		// destination has still arrived.
		if in.remainingM < in.arriveRadiusM {
			return Arrived
		}
		if in.crossTrackM > in.resumeAheadM {
			return ResumeAhead
		}
		if in.crossTrackM > in.offRouteM {
			return OffRoute
		}
		return ActiveNavigation

	case OffRoute:
		if in.remainingM < in.arriveRadiusM {
			return Arrived
		}
		if in.crossTrackM > in.resumeAheadM {
			return ResumeAhead
		}
		if in.crossTrackM <= in.offRouteM {
			return ActiveNavigation
		}
		return OffRoute

	default:
		// Setup, RoutePreview, ResumeAhead, and Arrived only move on
		// explicit user action.
		return in.state
	}
}
