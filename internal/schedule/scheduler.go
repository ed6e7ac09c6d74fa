// Package schedule runs deferred engine work: debounced and throttled timers
// and a coalescing animation-frame queue. Every task has a name; scheduling a
// name that is already pending replaces it, and any pending task can be
// cancelled by name.
//
// Nothing runs on its own goroutine. The host drives the scheduler from its
// frame loop by calling Frame (or RunDue between frames), and time comes from
// a clockwork.Clock so tests can use a fake clock.
package schedule

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

type timer struct {
	name     string
	deadline time.Time
	seq      uint64
	fn       func()
}

type Scheduler struct {
	clock  clockwork.Clock
	logger *slog.Logger

	seq    uint64
	timers map[string]*timer

	frameOrder []string
	frames     map[string]func()
}

// New creates a scheduler. A nil clock uses the real clock and a nil logger
// uses slog.Default().
func New(clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		clock:  clock,
		logger: logger,
		timers: make(map[string]*timer),
		frames: make(map[string]func()),
	}
}

func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Debounce schedules fn to run delay from now. A pending task with the same
// name is replaced and its deadline restarts.
func (s *Scheduler) Debounce(name string, delay time.Duration, fn func()) {
	s.seq++
	s.timers[name] = &timer{name: name, deadline: s.clock.Now().Add(delay), seq: s.seq, fn: fn}
}

// Throttle schedules fn to run delay from now unless a task with the same
// name is already pending, in which case the pending deadline is kept and
// only fn is replaced, so the latest state runs at most once per delay.
func (s *Scheduler) Throttle(name string, delay time.Duration, fn func()) {
	if t, ok := s.timers[name]; ok {
		t.fn = fn
		return
	}
	s.Debounce(name, delay, fn)
}

// RequestFrame queues fn for the next animation frame. Requests with the same
// name in one frame coalesce; the last fn wins and keeps its first position.
func (s *Scheduler) RequestFrame(name string, fn func()) {
	if _, ok := s.frames[name]; !ok {
		s.frameOrder = append(s.frameOrder, name)
	}
	s.frames[name] = fn
}

// Cancel drops a pending timer or frame task. It reports whether anything was
// pending.
func (s *Scheduler) Cancel(name string) bool {
	_, hadTimer := s.timers[name]
	delete(s.timers, name)
	_, hadFrame := s.frames[name]
	if hadFrame {
		delete(s.frames, name)
		s.frameOrder = removeName(s.frameOrder, name)
	}
	return hadTimer || hadFrame
}

func (s *Scheduler) CancelAll() {
	s.timers = make(map[string]*timer)
	s.frames = make(map[string]func())
	s.frameOrder = nil
}

// Pending reports whether a timer or frame task with this name is queued.
func (s *Scheduler) Pending(name string) bool {
	if _, ok := s.timers[name]; ok {
		return true
	}
	_, ok := s.frames[name]
	return ok
}

// Flush runs a pending timer immediately, ignoring its deadline.
func (s *Scheduler) Flush(name string) bool {
	t, ok := s.timers[name]
	if !ok {
		return false
	}
	delete(s.timers, name)
	s.run(t.name, t.fn)
	return true
}

// RunDue runs every timer whose deadline has passed, earliest first. Tasks
// scheduled while running wait for the next call.
func (s *Scheduler) RunDue() int {
	now := s.clock.Now()
	var due []*timer
	for _, t := range s.timers {
		if !t.deadline.After(now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})

	ran := 0
	for _, t := range due {
		// an earlier task may have cancelled or replaced this one
		if current, ok := s.timers[t.name]; !ok || current != t {
			continue
		}
		delete(s.timers, t.name)
		s.run(t.name, t.fn)
		ran++
	}
	return ran
}

// Frame advances one animation frame: due timers run first, then the frame
// queue drains. Frame requests made during the frame run on the next one.
func (s *Scheduler) Frame() int {
	ran := s.RunDue()

	order, frames := s.frameOrder, s.frames
	s.frameOrder = nil
	s.frames = make(map[string]func())
	for _, name := range order {
		s.run(name, frames[name])
		ran++
	}
	return ran
}

func (s *Scheduler) run(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task failed", "task", name, "error", fmt.Sprint(r))
		}
	}()
	fn()
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
