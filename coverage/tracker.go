package coverage

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/geo"
	"github.com/theoremus-urban-solutions/navtrack/internal/timeutil"
)

// Tracker detects, in real time, which undriven segments the vehicle has just
// covered and persists that fact reliably. Marking is one-way and idempotent;
// queued ids survive sink failures. Flushes are debounced through the
// injected clock and retried a bounded number of times before the tracker
// pauses syncing and surfaces an Issue.
type Tracker struct {
	cfg   config.Engine
	clock timeutil.Clock
	sink  Sink

	mu        sync.Mutex
	missionID string
	segments  map[string]*Segment
	undriven  map[string]struct{}
	driven    map[string]struct{}
	grid      *Grid

	drivenLenM    float64
	driveableLenM float64

	queue  []string
	queued map[string]struct{}

	failures int
	paused   bool
	issues   []Issue

	flushTimer timeutil.Timer
	closed     bool
}

// NewTracker indexes the undriven segments of an area and prepares the
// persistence queue. Segments already driven count toward coverage but are
// never re-checked; undriveable segments are excluded entirely.
func NewTracker(segments []Segment, cfg config.Engine, clock timeutil.Clock, sink Sink, missionID string) *Tracker {
	t := &Tracker{
		cfg:       cfg,
		clock:     clock,
		sink:      sink,
		missionID: missionID,
		segments:  make(map[string]*Segment),
		undriven:  make(map[string]struct{}),
		driven:    make(map[string]struct{}),
		queued:    make(map[string]struct{}),
	}

	refLat := 0.0
	for _, s := range segments {
		if len(s.Geometry) > 0 {
			refLat = s.Geometry[0].Lat
			break
		}
	}
	t.grid = NewGrid(cfg.CellSizeM, refLat)

	for i := range segments {
		s := segments[i]
		if s.Status == StatusUndriveable {
			continue
		}
		t.segments[s.ID] = &s
		t.driveableLenM += s.LengthM
		if s.Status == StatusDriven {
			t.driven[s.ID] = struct{}{}
			t.drivenLenM += s.LengthM
			continue
		}
		t.undriven[s.ID] = struct{}{}
		t.grid.Insert(s.ID, s.Geometry)
	}
	log.Printf("coverage: indexed %d undriven of %d driveable segments (%.1f km driveable)",
		len(t.undriven), len(t.segments), t.driveableLenM/1000)
	return t
}

// Check marks every undriven segment within the match threshold of p as
// driven and returns their ids, already queued for persistence. The grid
// prunes candidates; only those get the exact point-to-polyline check.
func (t *Tracker) Check(p geo.Point) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var marked []string
	for _, id := range t.grid.Near(p, t.cfg.SegmentMatchM) {
		seg := t.segments[id]
		if seg == nil {
			continue
		}
		if geo.PointToPolylineM(p, seg.Geometry) > t.cfg.SegmentMatchM {
			continue
		}
		if t.markLocked(id) {
			marked = append(marked, id)
		}
	}
	if len(marked) > 0 {
		t.scheduleFlushLocked()
	}
	return marked
}

// Mark flips a single segment to driven by id. It returns false when the id
// is unknown or already driven; re-marking never double-counts length.
func (t *Tracker) Mark(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.markLocked(id) {
		return false
	}
	t.scheduleFlushLocked()
	return true
}

func (t *Tracker) markLocked(id string) bool {
	if _, ok := t.undriven[id]; !ok {
		return false
	}
	seg := t.segments[id]
	delete(t.undriven, id)
	t.driven[id] = struct{}{}
	t.drivenLenM += seg.LengthM
	t.grid.Remove(id, seg.Geometry)
	if _, dup := t.queued[id]; !dup {
		t.queued[id] = struct{}{}
		t.queue = append(t.queue, id)
	}
	return true
}

// scheduleFlushLocked (re)arms the debounce timer. While paused after retry
// exhaustion nothing is scheduled; ids stay queued for a manual FlushNow.
func (t *Tracker) scheduleFlushLocked() {
	if t.paused || t.closed || len(t.queue) == 0 {
		return
	}
	if t.flushTimer != nil {
		t.flushTimer.Stop()
	}
	t.flushTimer = t.clock.AfterFunc(t.cfg.PersistDebounce(), t.flushAsync)
}

// flushAsync runs on the timer goroutine; the tick loop never waits on it.
func (t *Tracker) flushAsync() {
	if err := t.flush(context.Background()); err != nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.closed {
			return
		}
		t.failures++
		if t.failures >= t.cfg.MaxPersistRetries {
			t.paused = true
			t.issues = append(t.issues, Issue{
				Kind:    "retry_exhausted",
				Err:     err,
				Pending: len(t.queue),
			})
			log.Printf("coverage: sync paused after %d failed flushes (%d ids pending): %v",
				t.failures, len(t.queue), err)
			return
		}
		log.Printf("coverage: flush failed (attempt %d of %d), retrying: %v",
			t.failures, t.cfg.MaxPersistRetries, err)
		t.scheduleFlushLocked()
	}
}

// flush writes the queued batch through the sink. When a mission-scoped
// write fails but the missionless write of the same ids succeeds, the
// mission association is dropped rather than losing the coverage fact.
func (t *Tracker) flush(ctx context.Context) error {
	t.mu.Lock()
	if len(t.queue) == 0 {
		t.mu.Unlock()
		return nil
	}
	ids := make([]string, len(t.queue))
	copy(ids, t.queue)
	mission := t.missionID
	t.mu.Unlock()

	err := t.sink.Flush(ctx, ids, mission)
	if err != nil && mission != "" {
		if baseErr := t.sink.Flush(ctx, ids, ""); baseErr == nil {
			t.mu.Lock()
			t.missionID = ""
			t.mu.Unlock()
			log.Printf("coverage: mission-scoped flush failed, persisted %d ids without mission: %v", len(ids), err)
			err = nil
		}
	}
	if err != nil {
		return err
	}

	t.mu.Lock()
	flushed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		flushed[id] = struct{}{}
		delete(t.queued, id)
	}
	remaining := t.queue[:0]
	for _, id := range t.queue {
		if _, ok := flushed[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	t.queue = remaining
	t.failures = 0
	t.paused = false
	t.mu.Unlock()
	return nil
}

// FlushNow flushes synchronously, e.g. on session end. It clears the paused
// state when it succeeds; when it fails while syncing is already paused the
// error wraps ErrSyncPaused.
func (t *Tracker) FlushNow(ctx context.Context) error {
	err := t.flush(ctx)
	if err != nil && t.Paused() {
		return fmt.Errorf("%w: %v", ErrSyncPaused, err)
	}
	return err
}

// Issues drains persistence issues accumulated since the last call.
func (t *Tracker) Issues() []Issue {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.issues
	t.issues = nil
	return out
}

// Paused reports whether automatic persistence is suspended.
func (t *Tracker) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Pending returns how many ids await persistence.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// DrivenLengthM returns the accumulated length of driven segments.
func (t *Tracker) DrivenLengthM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drivenLenM
}

// CoveragePct returns driven length as a percentage of driveable length.
func (t *Tracker) CoveragePct() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.driveableLenM <= 0 {
		return 0
	}
	return t.drivenLenM / t.driveableLenM * 100
}

// Close cancels any scheduled flush or retry. Queued ids are left in place;
// callers wanting a final write should FlushNow first.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.flushTimer != nil {
		t.flushTimer.Stop()
		t.flushTimer = nil
	}
}
