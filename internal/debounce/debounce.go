// Package debounce provides cancellable timers and a keystroke debouncer.
package debounce

import (
	"sync"
	"time"
)

// Handle identifies a scheduled action. The zero Handle is never issued.
type Handle uint64

// Scheduler runs actions after a delay unless they are cancelled first.
type Scheduler struct {
	mu     sync.Mutex
	last   Handle
	timers map[Handle]*time.Timer
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[Handle]*time.Timer)}
}

// Schedule runs fn after delay, on its own goroutine.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	h := s.last
	s.timers[h] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, ok := s.timers[h]
		delete(s.timers, h)
		s.mu.Unlock()
		if ok {
			fn()
		}
	})
	return h
}

// Cancel prevents h from running. It returns false if h already ran or was
// cancelled.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[h]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, h)
	return true
}

// CancelAll cancels every pending action.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, t := range s.timers {
		t.Stop()
		delete(s.timers, h)
	}
}

// Pending returns the number of actions not yet run.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Debouncer coalesces bursts of triggers: only the last one runs, Delay after
// the burst ended.
type Debouncer struct {
	Delay time.Duration

	sched *Scheduler
	mu    sync.Mutex
	last  Handle
}

// New returns a Debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{Delay: delay, sched: NewScheduler()}
}

// Trigger cancels the previous pending fn and schedules this one.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last != 0 {
		d.sched.Cancel(d.last)
	}
	d.last = d.sched.Schedule(d.Delay, fn)
}

// Stop cancels the pending fn, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sched.CancelAll()
	d.last = 0
}
