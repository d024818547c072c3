// Package route models the active route polyline and everything derived from
// it once at load time: per-vertex cumulative distances, the windowed
// closest-point matcher, the sparse maneuver list, and the smart-start
// search.
package route
