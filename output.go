package navtrack

import (
	"github.com/theoremus-urban-solutions/navtrack/coverage"
	"github.com/theoremus-urban-solutions/navtrack/geo"
)

// EventKind discriminates the discrete events a tick can emit.
type EventKind string

const (
	EventStateChanged     EventKind = "state_changed"
	EventSegmentsDriven   EventKind = "segments_driven"
	EventPersistenceIssue EventKind = "persistence_issue"
	EventResumeCandidate  EventKind = "resume_candidate"
)

// Event is one discrete occurrence within a tick, delivered to the UI layer
// after the tick's state has been applied.
type Event struct {
	Kind EventKind

	// state_changed
	From NavState
	To   NavState

	// segments_driven
	SegmentIDs []string

	// persistence_issue
	Issue *coverage.Issue

	// resume_candidate
	Resume *ResumeCandidate
}

// ManeuverInfo describes the next turn relative to current progress.
type ManeuverInfo struct {
	Kind        string  `json:"kind"`
	AlongM      float64 `json:"along_m"`
	DistanceM   float64 `json:"distance_m"`
	VertexIndex int     `json:"vertex_index"`
}

// ResumeCandidate is a route point ahead that navigation can resume from
// after the vehicle has left the route entirely.
type ResumeCandidate struct {
	VertexIndex int
	Point       geo.Point
	AlongM      float64
	DistanceM   float64 // straight-line distance from the vehicle
}

// TickOutput is the per-tick record consumed by the UI layer. It is plain
// data: the engine holds no rendering handles.
type TickOutput struct {
	State            NavState      `json:"-"`
	StateName        string        `json:"state"`
	ProgressM        float64       `json:"progress_m"`
	RemainingM       float64       `json:"remaining_m"`
	NextManeuver     *ManeuverInfo `json:"next_maneuver,omitempty"`
	OffRoute         bool          `json:"off_route"`
	CrossTrackM      float64       `json:"cross_track_m"`
	HeadingDeg       *float64      `json:"heading_deg,omitempty"`
	SpeedMps         *float64      `json:"speed_mps,omitempty"`
	CoveragePct      float64       `json:"coverage_pct"`
	CoverageDeltaPct float64       `json:"coverage_delta_pct"`
}
