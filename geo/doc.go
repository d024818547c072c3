// Package geo provides the pure geodesy primitives used by the navigation
// engine: great-circle distance, bearings, a local equirectangular projection,
// and point-to-segment / point-to-polyline projection. All functions are
// deterministic and side-effect free; callers are responsible for rejecting
// non-finite coordinates before they reach this package.
package geo
