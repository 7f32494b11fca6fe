// =============================================================================
// SET TICKET - ASYNCHRONOUS COMPLETION HANDLE FOR WRITES
// =============================================================================
//
// A Set call fans out one append per key and returns immediately. The
// ticket is the caller's handle on the joined outcome: it resolves
// exactly once, after every append has been acknowledged, carrying the
// first-observed append error (nil on full success).
//
// USAGE:
//
//   ticket, err := st.Set(pairs, nil)
//   if err != nil { ... }            // lifecycle error, nothing submitted
//   if err := ticket.Wait(ctx); err != nil { ... }
//
// =============================================================================

package store

import "context"

// SetTicket resolves once all appends of one Set call have settled.
type SetTicket struct {
	done chan struct{}
	err  error
}

func newSetTicket() *SetTicket {
	return &SetTicket{done: make(chan struct{})}
}

// resolve completes the ticket. Must be called exactly once.
func (t *SetTicket) resolve(err error) {
	t.err = err
	close(t.done)
}

// Done returns a channel closed when the ticket resolves.
func (t *SetTicket) Done() <-chan struct{} {
	return t.done
}

// Err returns the joined outcome. Only valid after Done is closed.
func (t *SetTicket) Err() error {
	return t.err
}

// Wait blocks until the ticket resolves or ctx expires. The store
// applies no timeout of its own; the caller's context is the only bound.
func (t *SetTicket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
