package combat

import "time"

// TimerID identifies a scheduled entry. Zero is never a valid id.
type TimerID uint64

type timer struct {
	id       TimerID
	deadline time.Duration
	interval time.Duration // zero for one-shot entries
	fn       func()
}

// Timeline is an explicit schedule of deadlines advanced by the frame loop.
// It stands in for interval and timeout callbacks: nothing fires except
// inside Advance, so timer work never races the frame update.
type Timeline struct {
	now     time.Duration
	nextID  TimerID
	entries map[TimerID]*timer
}

// NewTimeline creates an empty timeline at time zero
func NewTimeline() *Timeline {
	return &Timeline{entries: make(map[TimerID]*timer)}
}

// Now returns the simulated time since the timeline was created
func (tl *Timeline) Now() time.Duration {
	return tl.now
}

// Pending returns the number of scheduled entries
func (tl *Timeline) Pending() int {
	return len(tl.entries)
}

// After schedules fn once, delay from now. Negative delays fire on the next
// Advance.
func (tl *Timeline) After(delay time.Duration, fn func()) TimerID {
	if delay < 0 {
		delay = 0
	}
	return tl.add(&timer{deadline: tl.now + delay, fn: fn})
}

// Every schedules fn at now+interval, now+2*interval, ... until cancelled.
// Non-positive intervals are rejected with a zero id.
func (tl *Timeline) Every(interval time.Duration, fn func()) TimerID {
	if interval <= 0 {
		return 0
	}
	return tl.add(&timer{deadline: tl.now + interval, interval: interval, fn: fn})
}

func (tl *Timeline) add(t *timer) TimerID {
	tl.nextID++
	t.id = tl.nextID
	tl.entries[t.id] = t
	return t.id
}

// Cancel removes an entry. It reports whether the entry was still pending.
func (tl *Timeline) Cancel(id TimerID) bool {
	if _, ok := tl.entries[id]; !ok {
		return false
	}
	delete(tl.entries, id)
	return true
}

// Advance moves time forward by dt, firing every due entry in deadline order
// (registration order on ties). Now() equals the entry's deadline while its
// callback runs. Callbacks may schedule or cancel entries.
func (tl *Timeline) Advance(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	target := tl.now + dt
	for {
		next := tl.earliest(target)
		if next == nil {
			break
		}
		tl.now = next.deadline
		if next.interval > 0 {
			next.deadline += next.interval
		} else {
			delete(tl.entries, next.id)
		}
		next.fn()
	}
	tl.now = target
}

func (tl *Timeline) earliest(limit time.Duration) *timer {
	var best *timer
	for _, t := range tl.entries {
		if t.deadline > limit {
			continue
		}
		if best == nil || t.deadline < best.deadline ||
			(t.deadline == best.deadline && t.id < best.id) {
			best = t
		}
	}
	return best
}
