package kafkalog

import "sync"

// =============================================================================
// PROGRESS TRACKER - READ-TO-END BOOKKEEPING
// =============================================================================
//
// Tracks the delivery position of every partition and the set of pending
// read-to-end waiters. A waiter holds one target position per partition;
// it fires once every partition has been delivered up to its target.
//
// Positions are "next undelivered offset": delivering offset N moves the
// position to N+1. Positions only move forward, so replays or duplicate
// observations cannot regress a waiter.
//
// Waiter callbacks are always invoked outside the tracker's lock, so a
// callback may call back into the tracker without deadlocking.
//
// =============================================================================

// waiter is one pending read-to-end call. remaining holds the partitions
// whose targets have not been reached yet.
type waiter struct {
	remaining map[int]int64
	fn        func(error)
}

// progress tracks per-partition delivery positions and pending waiters.
type progress struct {
	mu       sync.Mutex
	position map[int]int64
	waiters  []*waiter
	failed   error
}

func newProgress() *progress {
	return &progress{position: make(map[int]int64)}
}

// advanceTo moves a partition's position forward. Positions never move
// backwards. Any waiter fully satisfied by the move fires with nil.
func (p *progress) advanceTo(partition int, position int64) {
	p.mu.Lock()
	if position <= p.position[partition] {
		p.mu.Unlock()
		return
	}
	p.position[partition] = position

	var fired []func(error)
	kept := p.waiters[:0]
	for _, w := range p.waiters {
		if target, ok := w.remaining[partition]; ok && position >= target {
			delete(w.remaining, partition)
		}
		if len(w.remaining) == 0 {
			fired = append(fired, w.fn)
		} else {
			kept = append(kept, w)
		}
	}
	p.waiters = kept
	p.mu.Unlock()

	for _, fn := range fired {
		fn(nil)
	}
}

// observe records delivery of a single record.
func (p *progress) observe(partition int, offset int64) {
	p.advanceTo(partition, offset+1)
}

// wait registers a read-to-end waiter. Targets already satisfied are
// dropped immediately; a waiter with nothing left fires inline.
func (p *progress) wait(targets map[int]int64, fn func(error)) {
	p.mu.Lock()
	if p.failed != nil {
		err := p.failed
		p.mu.Unlock()
		fn(err)
		return
	}

	remaining := make(map[int]int64, len(targets))
	for partition, target := range targets {
		if p.position[partition] < target {
			remaining[partition] = target
		}
	}
	if len(remaining) == 0 {
		p.mu.Unlock()
		fn(nil)
		return
	}

	p.waiters = append(p.waiters, &waiter{remaining: remaining, fn: fn})
	p.mu.Unlock()
}

// fail terminates every pending waiter with err and causes all future
// wait calls to fail immediately with the same error.
func (p *progress) fail(err error) {
	p.mu.Lock()
	if p.failed != nil {
		p.mu.Unlock()
		return
	}
	p.failed = err
	pending := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	for _, w := range pending {
		w.fn(err)
	}
}
