// Package coverage tracks which road segments of a coverage area the vehicle
// has physically traversed. Undriven segments are indexed in a planar spatial
// grid; each tick, candidates near the vehicle are distance-checked and newly
// covered segments are marked driven, removed from the grid, and queued for
// debounced, bounded-retry persistence to a remote sink.
package coverage
