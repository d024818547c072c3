package timeutil

import (
	"testing"
	"time"
)

var epoch = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestMockClockFiresInDeadlineOrder(t *testing.T) {
	c := NewMockClock(epoch)
	var order []string
	c.AfterFunc(3*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(1*time.Second, func() { order = append(order, "a") })

	c.Advance(5 * time.Second)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("fire order = %v", order)
	}
	if got := c.Now(); !got.Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("now = %v", got)
	}
}

func TestMockClockStop(t *testing.T) {
	c := NewMockClock(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("first Stop should report true")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestMockClockDoesNotFireFutureTimers(t *testing.T) {
	c := NewMockClock(epoch)
	fired := false
	c.AfterFunc(10*time.Second, func() { fired = true })
	c.Advance(9 * time.Second)
	if fired {
		t.Error("timer fired before its deadline")
	}
	c.Advance(time.Second)
	if !fired {
		t.Error("timer did not fire at its deadline")
	}
}

func TestMockClockHonorsRescheduledTimers(t *testing.T) {
	c := NewMockClock(epoch)
	var fires int
	var schedule func()
	schedule = func() {
		fires++
		if fires < 3 {
			c.AfterFunc(time.Second, schedule)
		}
	}
	c.AfterFunc(time.Second, schedule)

	// A chain of one-second timers all falls inside a single wide advance.
	c.Advance(10 * time.Second)
	if fires != 3 {
		t.Errorf("fires = %d, want 3", fires)
	}
}
