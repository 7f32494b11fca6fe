// =============================================================================
// KAFKALOG - KAFKA AS A REPLICATED APPEND-ONLY LOG
// =============================================================================
//
// WHAT IS THIS?
// A thin adapter that presents a Kafka topic as an ordered, partitioned,
// replicated append-only log of key/value byte pairs. Callers register a
// single per-record handler; the adapter invokes it for every record, in
// log order, both during initial replay and for every record appended
// afterwards (by this process or any other writer sharing the topic).
//
// ARCHITECTURE:
//
//   ┌──────────────────────────────────────────────────────────────────┐
//   │                          KafkaLog                                │
//   │                                                                  │
//   │   Append(k, v, onAck) ──► writer ──────────────► Kafka topic     │
//   │                                                      │           │
//   │   partition readers  ◄───────────────────────────────┘           │
//   │        │                                                         │
//   │        ▼                                                         │
//   │   dispatch goroutine ──► handler(Record)   (strictly sequential) │
//   │        │                                                         │
//   │        ▼                                                         │
//   │   progress tracker ──► ReadToEnd waiters                         │
//   └──────────────────────────────────────────────────────────────────┘
//
// GUARANTEES:
//   - The handler is never invoked concurrently with itself.
//   - Records from one partition are delivered in partition order.
//   - Start returns only after every record that existed before Start
//     has been delivered to the handler.
//   - ReadToEnd's callback fires only after every record committed
//     before the call has been delivered to the handler.
//
// =============================================================================

package kafkalog

import "context"

// Record is a single key/value pair read from the log.
// Key and Value may both be nil; nil is preserved, not normalized.
type Record struct {
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
}

// RecordHandler is invoked once per record, in log order. Implementations
// do not need to be safe for concurrent use: the log guarantees strictly
// sequential delivery.
type RecordHandler func(Record)

// AckFunc receives the outcome of a single Append. It is invoked exactly
// once per Append call.
type AckFunc func(error)

// Log is the consumed surface of the replicated log. The production
// implementation is KafkaLog; tests substitute their own.
type Log interface {
	// Start provisions the underlying topic if needed and replays every
	// pre-existing record through the handler before returning.
	Start(ctx context.Context) error

	// Stop releases all resources. Pending ReadToEnd waiters fail with
	// ErrLogStopped. Call once.
	Stop() error

	// Append asynchronously appends one record. onAck is invoked exactly
	// once, from another goroutine, with the append outcome. A nil key
	// and/or nil value is legal and sent as such.
	Append(key, value []byte, onAck AckFunc)

	// ReadToEnd invokes onCaughtUp once the handler has seen every record
	// committed to the log as of the time of this call. Overlapping calls
	// are tracked independently.
	ReadToEnd(onCaughtUp func(error))
}
