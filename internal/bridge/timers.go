package bridge

import (
	"sync"
	"time"
)

type timerKind int

const (
	timerIdleWarning timerKind = iota
	timerIdleHangup
	timerMaxWarning
	timerMaxHangup
	timerCount
)

func (k timerKind) String() string {
	switch k {
	case timerIdleWarning:
		return "idle_warning"
	case timerIdleHangup:
		return "idle_hangup"
	case timerMaxWarning:
		return "max_warning"
	case timerMaxHangup:
		return "max_hangup"
	}
	return "unknown"
}

// timerSet owns the four call deadlines. Firing is delivered through the
// fire callback, which enqueues onto the session's reactor; the callback
// runs on the timer goroutine and must not touch session state directly.
type timerSet struct {
	mu      sync.Mutex
	fire    func(timerKind)
	timers  [timerCount]*time.Timer
	stopped bool
}

func newTimerSet(fire func(timerKind)) *timerSet {
	return &timerSet{fire: fire}
}

func (t *timerSet) arm(k timerKind, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armLocked(k, d)
}

func (t *timerSet) armLocked(k timerKind, d time.Duration) {
	if t.stopped {
		return
	}
	if t.timers[k] != nil {
		t.timers[k].Stop()
	}
	t.timers[k] = time.AfterFunc(d, func() { t.fire(k) })
}

// resetIdle cancels and reschedules both idle deadlines from now. The hangup
// deadline sits a further hang beyond the warning one.
func (t *timerSet) resetIdle(warn, hang time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armLocked(timerIdleWarning, warn)
	t.armLocked(timerIdleHangup, warn+hang)
}

// armMax arms the absolute call-length deadlines. Called once, never rearmed.
func (t *timerSet) armMax(warn, hang time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armLocked(timerMaxWarning, warn)
	t.armLocked(timerMaxHangup, hang)
}

// cancelAll stops every deadline and refuses later arms. Safe to call more
// than once.
func (t *timerSet) cancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for i := range t.timers {
		if t.timers[i] != nil {
			t.timers[i].Stop()
			t.timers[i] = nil
		}
	}
}
