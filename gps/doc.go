// Package gps turns a noisy stream of position fixes into stable derived
// signals: a smoothed distance-along-route, a resolved heading, and a mean
// speed. The Processor is the sole writer of smoothed progress; everything
// else in the engine reads it.
package gps
