// Package timers turns relay channels off after a delay.
package timers

import (
	"log"
	"sync"
	"time"
)

// Scheduler spawns one goroutine per scheduled auto-off. Timers are never
// cancelled: a manual off issued before the deadline leaves the timer alive
// and it performs a redundant, idempotent off when it fires.
//
// With supersession enabled, each channel carries a generation counter;
// scheduling a new timer bumps it, and a firing timer whose captured
// generation is stale does nothing. The compatibility default leaves this
// off, so an older timer still turns the channel off at its original
// deadline even after a newer timed on.
type Scheduler struct {
	off       func(channel int) error
	supersede bool
	after     func(time.Duration) <-chan time.Time

	mu   sync.Mutex
	gens map[int]uint64
	wg   sync.WaitGroup
}

// NewScheduler creates a Scheduler that calls off when a timer elapses.
// Duration bounds are the caller's responsibility.
func NewScheduler(off func(channel int) error, supersede bool) *Scheduler {
	return &Scheduler{
		off:       off,
		supersede: supersede,
		after:     time.After,
		gens:      make(map[int]uint64),
	}
}

// ScheduleOff arranges for the channel to turn off after d. Returns
// immediately; the wait happens on a new goroutine.
func (s *Scheduler) ScheduleOff(channel int, d time.Duration) {
	s.mu.Lock()
	s.gens[channel]++
	gen := s.gens[channel]
	s.mu.Unlock()

	// Start the timer before returning so the deadline is anchored to the
	// scheduling call, not to goroutine startup.
	timer := s.after(d)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-timer

		if s.supersede {
			s.mu.Lock()
			stale := s.gens[channel] != gen
			s.mu.Unlock()
			if stale {
				return
			}
		}

		if err := s.off(channel); err != nil {
			log.Printf("timers: auto-off channel %d: %v", channel, err)
		}
	}()
}

// Wait blocks until every pending timer has fired. Intended for shutdown
// and tests.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
