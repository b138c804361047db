package core

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Timer represents a scheduled event
type Timer struct {
	WakeTime time.Time
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps a list of timers sorted by WakeTime and runs the due ones.
// It is owned by a single poll loop; handlers run on the caller of ProcessTimers.
type Scheduler struct {
	clock     clock.Clock
	timerList *Timer
}

// NewScheduler creates a scheduler reading time from clk (wall clock when nil)
func NewScheduler(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{clock: clk}
}

// Now returns the scheduler's current time
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Clock returns the time source backing the scheduler
func (s *Scheduler) Clock() clock.Clock {
	return s.clock
}

// ScheduleTimer adds a timer to the schedule
func (s *Scheduler) ScheduleTimer(t *Timer) {
	s.insertTimer(t)
}

// After schedules handler to run once d has elapsed
func (s *Scheduler) After(d time.Duration, handler func(*Timer) uint8) *Timer {
	t := &Timer{
		WakeTime: s.clock.Now().Add(d),
		Handler:  handler,
	}
	s.insertTimer(t)
	return t
}

// insertTimer inserts a timer in sorted order by WakeTime.
// Timers with equal WakeTime fire in insertion order.
func (s *Scheduler) insertTimer(t *Timer) {
	if s.timerList == nil || t.WakeTime.Before(s.timerList.WakeTime) {
		t.Next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.Next != nil && !t.WakeTime.Before(current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Pending returns the number of scheduled timers
func (s *Scheduler) Pending() int {
	n := 0
	for t := s.timerList; t != nil; t = t.Next {
		n++
	}
	return n
}

// NextWake returns the wake time of the earliest timer
func (s *Scheduler) NextWake() (time.Time, bool) {
	if s.timerList == nil {
		return time.Time{}, false
	}
	return s.timerList.WakeTime, true
}

// ProcessTimers runs every timer whose WakeTime is not after the current time
func (s *Scheduler) ProcessTimers() {
	currentTime := s.clock.Now()

	for s.timerList != nil && !s.timerList.WakeTime.After(currentTime) {
		timer := s.timerList
		s.timerList = timer.Next
		timer.Next = nil // Clear Next pointer to avoid circular references

		result := timer.Handler(timer)

		// Reschedule if requested
		if result == SF_RESCHEDULE {
			s.insertTimer(timer)
		}
	}
}
