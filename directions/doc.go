// Package directions is a thin client for an OSRM-shaped routing service,
// used for drive-to-start ETAs. Failures degrade to ErrUnavailable; nothing
// here is allowed to take down a navigation tick.
package directions
