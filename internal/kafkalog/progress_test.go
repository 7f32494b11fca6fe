package kafkalog

import (
	"errors"
	"testing"
)

// =============================================================================
// PROGRESS TRACKER TESTS
// =============================================================================
//
// These tests verify the read-to-end bookkeeping in isolation:
// 1. Waiters fire only once every partition reaches its target
// 2. Already-satisfied waiters fire immediately
// 3. Overlapping waiters complete independently
// 4. Positions never move backwards
// 5. fail() terminates pending and future waiters
//

func TestProgressWaiterFiresWhenAllTargetsReached(t *testing.T) {
	p := newProgress()

	fired := false
	p.wait(map[int]int64{0: 2, 1: 1}, func(err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		fired = true
	})

	p.observe(0, 0)
	if fired {
		t.Fatal("waiter fired before partition 0 reached its target")
	}
	p.observe(0, 1) // partition 0 now at position 2
	if fired {
		t.Fatal("waiter fired before partition 1 reached its target")
	}
	p.observe(1, 0) // partition 1 now at position 1
	if !fired {
		t.Fatal("waiter did not fire after all targets were reached")
	}
}

func TestProgressSatisfiedWaiterFiresImmediately(t *testing.T) {
	p := newProgress()
	p.observe(0, 4)

	fired := false
	p.wait(map[int]int64{0: 5}, func(err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		fired = true
	})
	if !fired {
		t.Fatal("already-satisfied waiter should fire inline")
	}
}

func TestProgressEmptyTargetsFireImmediately(t *testing.T) {
	p := newProgress()

	fired := false
	p.wait(map[int]int64{}, func(err error) { fired = true })
	if !fired {
		t.Fatal("waiter with no targets should fire inline")
	}
}

func TestProgressOverlappingWaiters(t *testing.T) {
	p := newProgress()

	firstFired := false
	secondFired := false
	p.wait(map[int]int64{0: 1}, func(error) { firstFired = true })
	p.wait(map[int]int64{0: 3}, func(error) { secondFired = true })

	p.observe(0, 0)
	if !firstFired {
		t.Error("first waiter should have fired at position 1")
	}
	if secondFired {
		t.Error("second waiter fired too early")
	}

	p.observe(0, 2)
	if !secondFired {
		t.Error("second waiter should have fired at position 3")
	}
}

func TestProgressPositionsNeverRegress(t *testing.T) {
	p := newProgress()
	p.advanceTo(0, 10)
	p.advanceTo(0, 5)

	fired := false
	p.wait(map[int]int64{0: 10}, func(error) { fired = true })
	if !fired {
		t.Fatal("position regressed below 10")
	}
}

func TestProgressFail(t *testing.T) {
	p := newProgress()
	boom := errors.New("stopped")

	var pendingErr error
	p.wait(map[int]int64{0: 1}, func(err error) { pendingErr = err })

	p.fail(boom)
	if !errors.Is(pendingErr, boom) {
		t.Errorf("pending waiter error = %v, want %v", pendingErr, boom)
	}

	var lateErr error
	p.wait(map[int]int64{0: 1}, func(err error) { lateErr = err })
	if !errors.Is(lateErr, boom) {
		t.Errorf("late waiter error = %v, want %v", lateErr, boom)
	}

	// A second fail must not panic or overwrite the original error.
	p.fail(errors.New("other"))
	var thirdErr error
	p.wait(nil, func(err error) { thirdErr = err })
	if !errors.Is(thirdErr, boom) {
		t.Errorf("waiter after double fail error = %v, want %v", thirdErr, boom)
	}
}
