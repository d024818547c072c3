package helpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/coverage"
	"github.com/theoremus-urban-solutions/navtrack/geo"
	"github.com/theoremus-urban-solutions/navtrack/gps"
	"github.com/theoremus-urban-solutions/navtrack/route"
)

// FixBase is the wall-clock origin of all synthetic fix streams.
var FixBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// MeridianRoute builds a route running due north along the prime meridian
// from lat 0, with n vertices spaced stepDeg apart. At the equator 0.001
// degrees is roughly 111 m.
func MeridianRoute(t *testing.T, n int, stepDeg float64) *route.Route {
	t.Helper()
	pts := make([]geo.Point, n)
	for i := range pts {
		pts[i] = geo.Point{Lat: float64(i) * stepDeg}
	}
	r, err := route.New(pts, "meridian test route")
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// MeridianSegments splits the same meridian corridor into count undriven
// segments of stepDeg latitude each, ids "seg-0".."seg-<count-1>".
func MeridianSegments(count int, stepDeg float64) []coverage.Segment {
	segs := make([]coverage.Segment, count)
	for i := range segs {
		lo := float64(i) * stepDeg
		hi := float64(i+1) * stepDeg
		segs[i] = coverage.Segment{
			ID:       fmt.Sprintf("seg-%02d", i),
			Geometry: []geo.Point{{Lat: lo}, {Lat: hi}},
			LengthM:  geo.HaversineM(geo.Point{Lat: lo}, geo.Point{Lat: hi}),
			Status:   coverage.StatusUndriven,
		}
	}
	return segs
}

// DriveFixes produces a fix stream moving north from fromLat to toLat in
// steps evenly spaced samples, intervalS seconds apart starting at FixBase.
func DriveFixes(fromLat, toLat float64, steps, intervalS int) []gps.Fix {
	fixes := make([]gps.Fix, steps)
	for i := range fixes {
		frac := float64(i) / float64(steps-1)
		fixes[i] = gps.Fix{
			Lat:  fromLat + frac*(toLat-fromLat),
			Time: FixBase.Add(time.Duration(i*intervalS) * time.Second),
		}
	}
	return fixes
}

// HoldFixes repeats the same position extra times after a stream, continuing
// its cadence, so smoothed progress can settle at the end of a drive.
func HoldFixes(fixes []gps.Fix, extra, intervalS int) []gps.Fix {
	last := fixes[len(fixes)-1]
	for i := 1; i <= extra; i++ {
		f := last
		f.Time = last.Time.Add(time.Duration(i*intervalS) * time.Second)
		fixes = append(fixes, f)
	}
	return fixes
}

// CollectingSink records every flush batch. The first failFirst calls return
// err instead of recording.
type CollectingSink struct {
	mu        sync.Mutex
	failFirst int
	err       error
	batches   [][]string
	missions  []string
}

// NewCollectingSink returns a sink whose first failFirst flushes fail with err.
func NewCollectingSink(failFirst int, err error) *CollectingSink {
	return &CollectingSink{failFirst: failFirst, err: err}
}

func (s *CollectingSink) Flush(ctx context.Context, ids []string, missionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFirst > 0 {
		s.failFirst--
		return s.err
	}
	batch := make([]string, len(ids))
	copy(batch, ids)
	s.batches = append(s.batches, batch)
	s.missions = append(s.missions, missionID)
	return nil
}

// Batches returns a copy of the recorded flush batches.
func (s *CollectingSink) Batches() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.batches))
	copy(out, s.batches)
	return out
}

// FlushedIDs returns the set union of all recorded batches.
func (s *CollectingSink) FlushedIDs() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]bool)
	for _, b := range s.batches {
		for _, id := range b {
			ids[id] = true
		}
	}
	return ids
}

// TestEngine returns the engine tunables used across the integration tests.
func TestEngine() config.Engine {
	return config.DefaultEngine()
}
