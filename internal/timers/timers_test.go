package timers

import (
	"sync"
	"testing"
	"time"
)

// fakeClock hands out manually-fired timer channels.
type fakeClock struct {
	mu        sync.Mutex
	durations []time.Duration
	fires     []chan time.Time
}

func (c *fakeClock) after(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.durations = append(c.durations, d)
	c.fires = append(c.fires, ch)
	return ch
}

func (c *fakeClock) fire(i int) {
	c.mu.Lock()
	ch := c.fires[i]
	c.mu.Unlock()
	ch <- time.Now()
}

// offRecorder records off calls thread-safely.
type offRecorder struct {
	mu       sync.Mutex
	channels []int
}

func (r *offRecorder) off(channel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
	return nil
}

func (r *offRecorder) calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.channels))
	copy(out, r.channels)
	return out
}

func TestFiresOffAfterDuration(t *testing.T) {
	clock := &fakeClock{}
	rec := &offRecorder{}
	s := NewScheduler(rec.off, false)
	s.after = clock.after

	s.ScheduleOff(0, 30*time.Second)
	if got := clock.durations[0]; got != 30*time.Second {
		t.Errorf("scheduled duration = %v, want 30s", got)
	}
	if len(rec.calls()) != 0 {
		t.Fatal("off called before timer fired")
	}

	clock.fire(0)
	s.Wait()

	if got := rec.calls(); len(got) != 1 || got[0] != 0 {
		t.Errorf("off calls = %v, want [0]", got)
	}
}

func TestNoSupersessionByDefault(t *testing.T) {
	clock := &fakeClock{}
	rec := &offRecorder{}
	s := NewScheduler(rec.off, false)
	s.after = clock.after

	// Two timed ons for the same channel: both timers fire.
	s.ScheduleOff(2, 10*time.Second)
	s.ScheduleOff(2, 60*time.Second)

	clock.fire(0)
	clock.fire(1)
	s.Wait()

	if got := rec.calls(); len(got) != 2 {
		t.Errorf("off calls = %v, want two redundant offs", got)
	}
}

func TestSupersedeSuppressesStaleTimer(t *testing.T) {
	clock := &fakeClock{}
	rec := &offRecorder{}
	s := NewScheduler(rec.off, true)
	s.after = clock.after

	s.ScheduleOff(2, 10*time.Second)
	s.ScheduleOff(2, 60*time.Second)

	// The first (stale) timer fires: must be suppressed.
	clock.fire(0)
	clock.fire(1)
	s.Wait()

	if got := rec.calls(); len(got) != 1 || got[0] != 2 {
		t.Errorf("off calls = %v, want exactly one for channel 2", got)
	}
}

func TestSupersedeTracksChannelsIndependently(t *testing.T) {
	clock := &fakeClock{}
	rec := &offRecorder{}
	s := NewScheduler(rec.off, true)
	s.after = clock.after

	s.ScheduleOff(0, 10*time.Second)
	s.ScheduleOff(1, 10*time.Second)

	clock.fire(0)
	clock.fire(1)
	s.Wait()

	got := rec.calls()
	if len(got) != 2 {
		t.Fatalf("off calls = %v, want one per channel", got)
	}
	seen := map[int]bool{}
	for _, ch := range got {
		seen[ch] = true
	}
	if !seen[0] || !seen[1] {
		t.Errorf("off calls = %v, want channels 0 and 1", got)
	}
}
