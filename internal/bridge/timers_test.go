package bridge

import (
	"sync"
	"testing"
	"time"
)

type firedLog struct {
	mu    sync.Mutex
	kinds []timerKind
}

func (f *firedLog) record(k timerKind) {
	f.mu.Lock()
	f.kinds = append(f.kinds, k)
	f.mu.Unlock()
}

func (f *firedLog) count(k timerKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, got := range f.kinds {
		if got == k {
			n++
		}
	}
	return n
}

func TestTimerSet_IdleWarningBeforeHangup(t *testing.T) {
	var fired firedLog
	ts := newTimerSet(fired.record)
	defer ts.cancelAll()

	ts.resetIdle(20*time.Millisecond, 20*time.Millisecond)
	waitFor(t, time.Second, "idle hangup fired", func() bool {
		return fired.count(timerIdleHangup) == 1
	})

	fired.mu.Lock()
	defer fired.mu.Unlock()
	if len(fired.kinds) != 2 || fired.kinds[0] != timerIdleWarning || fired.kinds[1] != timerIdleHangup {
		t.Fatalf("unexpected firing order: %v", fired.kinds)
	}
}

func TestTimerSet_ResetIdlePushesDeadlinesOut(t *testing.T) {
	var fired firedLog
	ts := newTimerSet(fired.record)
	defer ts.cancelAll()

	ts.resetIdle(50*time.Millisecond, 50*time.Millisecond)
	for i := 0; i < 8; i++ {
		time.Sleep(15 * time.Millisecond)
		ts.resetIdle(50*time.Millisecond, 50*time.Millisecond)
	}
	if fired.count(timerIdleWarning) != 0 {
		t.Fatal("idle warning fired despite being continuously reset")
	}
}

func TestTimerSet_MaxDeadlinesUnaffectedByIdleResets(t *testing.T) {
	var fired firedLog
	ts := newTimerSet(fired.record)
	defer ts.cancelAll()

	ts.armMax(30*time.Millisecond, 60*time.Millisecond)
	for i := 0; i < 10; i++ {
		time.Sleep(10 * time.Millisecond)
		ts.resetIdle(time.Hour, time.Hour)
	}
	if fired.count(timerMaxWarning) != 1 || fired.count(timerMaxHangup) != 1 {
		t.Fatalf("max deadlines did not fire exactly once: %v", fired.kinds)
	}
}

func TestTimerSet_CancelAllStopsAndRefusesRearm(t *testing.T) {
	var fired firedLog
	ts := newTimerSet(fired.record)

	ts.resetIdle(20*time.Millisecond, 20*time.Millisecond)
	ts.cancelAll()
	ts.cancelAll() // idempotent
	ts.resetIdle(5*time.Millisecond, 5*time.Millisecond)
	ts.armMax(5*time.Millisecond, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	fired.mu.Lock()
	defer fired.mu.Unlock()
	if len(fired.kinds) != 0 {
		t.Fatalf("timers fired after cancelAll: %v", fired.kinds)
	}
}
