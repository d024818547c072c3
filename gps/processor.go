package gps

import (
	"math"
	"time"

	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/geo"
)

// Derived is the per-tick output of the processor.
type Derived struct {
	ProgressM  float64
	SpeedMps   float64
	SpeedOK    bool
	HeadingDeg float64
	HeadingOK  bool
}

// Processor smooths raw along-route distances and resolves speed and heading
// from a fix stream. It is deliberately a lightweight 1-D filter rather than
// a Kalman filter: only forward motion along a fixed route is physically
// meaningful, so a clamp-and-blend over a short history is enough.
type Processor struct {
	cfg config.Engine

	speeds  []float64
	history []float64

	lastValid    float64
	lastProgress time.Time
	hasProgress  bool

	prev    *Fix
	hasPrev bool
}

// NewProcessor returns a Processor using the given engine tunables.
func NewProcessor(cfg config.Engine) *Processor {
	return &Processor{cfg: cfg}
}

// Advance consumes one fix plus its raw along-route distance and returns the
// derived signals. routeBearing, when non-nil, is the route's local bearing
// at the matched edge and serves as the heading of last resort.
func (p *Processor) Advance(f Fix, rawAlongM float64, routeBearing *float64) Derived {
	d := Derived{}
	d.SpeedMps, d.SpeedOK = p.updateSpeed(f)
	d.HeadingDeg, d.HeadingOK = p.resolveHeading(f, routeBearing)
	d.ProgressM = p.UpdateProgress(rawAlongM, f.Time)
	prev := f
	p.prev = &prev
	p.hasPrev = true
	return d
}

// Progress returns the current smoothed along-route distance.
func (p *Processor) Progress() float64 { return p.lastValid }

// UpdateProgress feeds one raw along-route distance through the filter and
// returns the new smoothed progress:
//
//  1. the raw sample joins a bounded history;
//  2. a backward jump beyond backwardJumpM is held at the last valid value
//     unless enough history samples vote for the regression;
//  3. forward jumps are clamped to maxSpeedMps × elapsed;
//  4. the result is blended with the history mean.
func (p *Processor) UpdateProgress(rawM float64, at time.Time) float64 {
	p.history = append(p.history, rawM)
	if len(p.history) > p.cfg.ProgressHistory {
		p.history = p.history[1:]
	}

	if !p.hasProgress {
		if rawM < 0 {
			rawM = 0
		}
		p.lastValid = rawM
		p.lastProgress = at
		p.hasProgress = true
		return p.lastValid
	}

	r := rawM
	if p.lastValid-r > p.cfg.BackwardJumpM {
		votes := 0
		for _, h := range p.history {
			if h < p.lastValid-p.cfg.BackwardJumpM {
				votes++
			}
		}
		if votes < p.cfg.BackwardVotes {
			// Not enough evidence that the vehicle really moved back;
			// hold position and wait for the history to agree.
			return p.lastValid
		}
	}

	if elapsed := at.Sub(p.lastProgress).Seconds(); elapsed > 0 {
		if max := p.lastValid + p.cfg.MaxSpeedMps*elapsed; r > max {
			r = max
		}
	} else if r > p.lastValid {
		r = p.lastValid
	}

	mean := 0.0
	for _, h := range p.history {
		mean += h
	}
	mean /= float64(len(p.history))

	final := p.cfg.BlendNew*r + (1-p.cfg.BlendNew)*mean
	if final < 0 {
		final = 0
	}
	p.lastValid = final
	p.lastProgress = at
	return final
}

// Reseed hard-resets smoothed progress to alongM and reseeds the history with
// that single value, so the backward-jump rule does not fight the reset.
func (p *Processor) Reseed(alongM float64, at time.Time) {
	p.lastValid = alongM
	p.lastProgress = at
	p.hasProgress = true
	p.history = append(p.history[:0], alongM)
}

// Reset clears all processor state.
func (p *Processor) Reset() {
	p.speeds = p.speeds[:0]
	p.history = p.history[:0]
	p.lastValid = 0
	p.hasProgress = false
	p.prev = nil
	p.hasPrev = false
}

// updateSpeed appends one speed sample (reported, or derived from
// displacement over time) and returns the rolling mean. ok is false while no
// samples exist.
func (p *Processor) updateSpeed(f Fix) (float64, bool) {
	var sample float64
	have := false
	switch {
	case f.SpeedMps != nil && !math.IsNaN(*f.SpeedMps) && *f.SpeedMps >= 0:
		sample = *f.SpeedMps
		have = true
	case p.hasPrev:
		dt := f.Time.Sub(p.prev.Time).Seconds()
		if dt > 0 {
			sample = geo.HaversineM(p.prev.Point(), f.Point()) / dt
			have = true
		}
	}
	if have {
		p.speeds = append(p.speeds, sample)
		if len(p.speeds) > p.cfg.SpeedWindow {
			p.speeds = p.speeds[1:]
		}
	}
	if len(p.speeds) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, s := range p.speeds {
		sum += s
	}
	return sum / float64(len(p.speeds)), true
}

// resolveHeading picks the first available of: the fix's own heading, the
// bearing from the previous fix, or the route's local bearing.
func (p *Processor) resolveHeading(f Fix, routeBearing *float64) (float64, bool) {
	if f.HeadingDeg != nil && !math.IsNaN(*f.HeadingDeg) {
		return math.Mod(math.Mod(*f.HeadingDeg, 360)+360, 360), true
	}
	if p.hasPrev {
		// A bearing between two samples closer than a meter is all noise.
		if geo.HaversineM(p.prev.Point(), f.Point()) >= 1 {
			return geo.BearingDeg(p.prev.Point(), f.Point()), true
		}
	}
	if routeBearing != nil {
		return *routeBearing, true
	}
	return 0, false
}
