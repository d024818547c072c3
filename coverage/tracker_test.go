package coverage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/geo"
	"github.com/theoremus-urban-solutions/navtrack/internal/timeutil"
)

// recordingSink records flush calls and fails the first failN of them.
type recordingSink struct {
	mu     sync.Mutex
	calls  []flushCall
	failN  int
	baseOK bool // mission-scoped calls fail, missionless succeed
}

type flushCall struct {
	IDs       []string
	MissionID string
}

func (s *recordingSink) Flush(_ context.Context, ids []string, missionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, flushCall{IDs: append([]string(nil), ids...), MissionID: missionID})
	if s.baseOK {
		if missionID != "" {
			return errors.New("mission store down")
		}
		return nil
	}
	if len(s.calls) <= s.failN {
		return errors.New("sink down")
	}
	return nil
}

func (s *recordingSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func testSegments() []Segment {
	return []Segment{
		{
			ID:      "seg-1",
			LengthM: 100,
			Status:  StatusUndriven,
			Geometry: []geo.Point{
				{Lon: 0, Lat: 0.0005},
				{Lon: 0, Lat: 0.0014},
			},
		},
		{
			ID:      "seg-2",
			LengthM: 50,
			Status:  StatusUndriven,
			Geometry: []geo.Point{
				{Lon: 0.01, Lat: 0},
				{Lon: 0.01, Lat: 0.0005},
			},
		},
		{
			ID:      "seg-3",
			LengthM: 30,
			Status:  StatusDriven,
			Geometry: []geo.Point{
				{Lon: 0.02, Lat: 0},
				{Lon: 0.02, Lat: 0.0003},
			},
		},
		{
			ID:      "seg-4",
			LengthM: 999,
			Status:  StatusUndriveable,
			Geometry: []geo.Point{
				{Lon: 0.03, Lat: 0},
				{Lon: 0.03, Lat: 0.0003},
			},
		},
	}
}

func newTestTracker(t *testing.T, sink Sink, mission string) (*Tracker, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	tr := NewTracker(testSegments(), config.DefaultEngine(), clock, sink, mission)
	t.Cleanup(tr.Close)
	return tr, clock
}

func TestCheckMarksNearbySegment(t *testing.T) {
	sink := &recordingSink{}
	tr, _ := newTestTracker(t, sink, "")

	// On top of seg-1, ~1.1 km from seg-2.
	driven := tr.Check(geo.Point{Lon: 0, Lat: 0.001})
	require.Equal(t, []string{"seg-1"}, driven)

	assert.Equal(t, 130.0, tr.DrivenLengthM(), "seg-1 plus preloaded seg-3")
	assert.Equal(t, 1, tr.Pending())

	// The marked segment left the grid: checking again is a no-op.
	assert.Empty(t, tr.Check(geo.Point{Lon: 0, Lat: 0.001}))
	assert.Equal(t, 130.0, tr.DrivenLengthM())
}

func TestMarkIsIdempotent(t *testing.T) {
	tr, _ := newTestTracker(t, &recordingSink{}, "")

	require.True(t, tr.Mark("seg-1"))
	assert.False(t, tr.Mark("seg-1"), "second mark must be a no-op")
	assert.False(t, tr.Mark("nope"), "unknown ids are rejected")
	assert.False(t, tr.Mark("seg-4"), "undriveable segments are not tracked")

	assert.Equal(t, 130.0, tr.DrivenLengthM(), "seg-1 counted exactly once")
	assert.Equal(t, 1, tr.Pending())
}

func TestCoveragePct(t *testing.T) {
	tr, _ := newTestTracker(t, &recordingSink{}, "")

	// Driveable total 180 m (undriveable seg-4 excluded), 30 m preloaded.
	assert.InDelta(t, 100*30.0/180.0, tr.CoveragePct(), 1e-9)
	tr.Mark("seg-1")
	assert.InDelta(t, 100*130.0/180.0, tr.CoveragePct(), 1e-9)
}

func TestDebouncedFlush(t *testing.T) {
	sink := &recordingSink{}
	tr, clock := newTestTracker(t, sink, "mission-7")

	tr.Mark("seg-1")
	assert.Zero(t, sink.callCount(), "flush must wait out the debounce")

	// A second mark inside the quiet period restarts the debounce and the
	// two ids go out as one batch.
	clock.Advance(time.Second)
	tr.Mark("seg-2")
	clock.Advance(1900 * time.Millisecond)
	assert.Zero(t, sink.callCount())
	clock.Advance(200 * time.Millisecond)

	require.Equal(t, 1, sink.callCount())
	assert.ElementsMatch(t, []string{"seg-1", "seg-2"}, sink.calls[0].IDs)
	assert.Equal(t, "mission-7", sink.calls[0].MissionID)
	assert.Zero(t, tr.Pending())
}

func TestRetryThenSuccess(t *testing.T) {
	sink := &recordingSink{failN: 1}
	tr, clock := newTestTracker(t, sink, "")

	tr.Mark("seg-1")
	clock.Advance(2 * time.Second)
	require.Equal(t, 1, sink.callCount())
	assert.Equal(t, 1, tr.Pending(), "failed batch stays queued")

	// The retry fires after another debounce interval and succeeds.
	clock.Advance(2 * time.Second)
	require.Equal(t, 2, sink.callCount())
	assert.Zero(t, tr.Pending())
	assert.False(t, tr.Paused())
	assert.Empty(t, tr.Issues())
}

func TestRetryExhaustion(t *testing.T) {
	sink := &recordingSink{failN: 99}
	tr, clock := newTestTracker(t, sink, "")

	tr.Mark("seg-1")
	clock.Advance(2 * time.Second) // failure 1, reschedules
	clock.Advance(2 * time.Second) // failure 2, exhausted
	require.Equal(t, 2, sink.callCount())

	issues := tr.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "retry_exhausted", issues[0].Kind)
	assert.Equal(t, 1, issues[0].Pending)
	assert.True(t, tr.Paused())
	assert.Equal(t, 1, tr.Pending(), "pending ids are kept, not lost")

	// No further automatic retries.
	clock.Advance(time.Minute)
	assert.Equal(t, 2, sink.callCount())

	// Issues drain once.
	assert.Empty(t, tr.Issues())
}

func TestFlushNowRecoversFromPause(t *testing.T) {
	sink := &recordingSink{failN: 2}
	tr, clock := newTestTracker(t, sink, "")

	tr.Mark("seg-1")
	clock.Advance(2 * time.Second)
	clock.Advance(2 * time.Second)
	require.True(t, tr.Paused())

	require.NoError(t, tr.FlushNow(context.Background()))
	assert.False(t, tr.Paused())
	assert.Zero(t, tr.Pending())
}

func TestFlushNowWhilePausedWrapsErr(t *testing.T) {
	sink := &recordingSink{failN: 99}
	tr, clock := newTestTracker(t, sink, "")

	tr.Mark("seg-1")
	clock.Advance(2 * time.Second)
	clock.Advance(2 * time.Second)
	require.True(t, tr.Paused())

	err := tr.FlushNow(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyncPaused)
}

func TestMissionFallbackDropsAssociation(t *testing.T) {
	sink := &recordingSink{baseOK: true}
	tr, clock := newTestTracker(t, sink, "mission-9")

	tr.Mark("seg-1")
	clock.Advance(2 * time.Second)

	// Two calls: the failed mission-scoped write, then the missionless one.
	require.Equal(t, 2, sink.callCount())
	assert.Equal(t, "mission-9", sink.calls[0].MissionID)
	assert.Equal(t, "", sink.calls[1].MissionID)
	assert.Zero(t, tr.Pending(), "coverage fact persisted without mission")
	assert.False(t, tr.Paused())

	// Later batches go straight to the base store.
	tr.Mark("seg-2")
	clock.Advance(2 * time.Second)
	require.Equal(t, 3, sink.callCount())
	assert.Equal(t, "", sink.calls[2].MissionID)
}

func TestCloseCancelsScheduledFlush(t *testing.T) {
	sink := &recordingSink{}
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	tr := NewTracker(testSegments(), config.DefaultEngine(), clock, sink, "")

	tr.Mark("seg-1")
	tr.Close()
	clock.Advance(time.Minute)
	assert.Zero(t, sink.callCount(), "no flush after Close")
	assert.Equal(t, 1, tr.Pending(), "ids remain for a caller-driven final write")
}
