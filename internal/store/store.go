// =============================================================================
// BACKING STORE - DURABLE KEY-VALUE STATE ON A REPLICATED LOG
// =============================================================================
//
// WHAT IS THIS?
// A durable key-value store for small pieces of worker state (offsets,
// checkpoints). Durability and replication are delegated entirely to a
// compacted Kafka topic; the store keeps a complete, current snapshot of
// the key space in memory for low-latency reads.
//
// ARCHITECTURE:
//
//   ┌───────────────────────────────────────────────────────────────────┐
//   │                            Store                                  │
//   │                                                                   │
//   │   Set(pairs) ──► one Append per pair ──► Kafka topic              │
//   │                      │                       │                    │
//   │                 join counter            replay handler            │
//   │                      │                       │                    │
//   │                      ▼                       ▼                    │
//   │              ticket + onComplete      in-memory cache             │
//   │                                              ▲                    │
//   │   Get(keys) ──► ReadToEnd ───────────────────┘                    │
//   │                 (wait for catch-up, then snapshot cache)          │
//   └───────────────────────────────────────────────────────────────────┘
//
// CONSISTENCY PROTOCOL:
//   - Start blocks until the full log has been replayed, so the cache is
//     current before anyone can read it.
//   - Get issues a read-to-end first, so it observes every record
//     committed by any writer before the call, then snapshots the cache.
//   - Set fans out independent appends and joins them into one outcome:
//     success only if every append succeeded, otherwise the first
//     failure observed (in arrival order).
//
// LIFECYCLE:
//
//   UNCONFIGURED ──Configure──► CONFIGURED ──Start──► STARTED ──Stop──► STOPPED
//
// Operations outside their state fail synchronously with a lifecycle
// error; nothing is retried internally.
//
// =============================================================================

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"offsetstore/internal/config"
	"offsetstore/internal/kafkalog"
	"offsetstore/internal/metrics"
)

// =============================================================================
// ERROR DEFINITIONS
// =============================================================================

var (
	// ErrAlreadyConfigured means Configure was called twice.
	ErrAlreadyConfigured = errors.New("store already configured")

	// ErrNotConfigured means Start requires a prior Configure.
	ErrNotConfigured = errors.New("store not configured")

	// ErrAlreadyStarted means Start was called twice.
	ErrAlreadyStarted = errors.New("store already started")

	// ErrNotStarted means the operation requires a started store.
	ErrNotStarted = errors.New("store not started")

	// ErrStopped means the store has been stopped; it cannot be reused.
	ErrStopped = errors.New("store stopped")
)

// State is the store's lifecycle state.
type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateStarted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// LogFactory builds the replicated log the store appends to and replays
// from. Tests inject their own factory to substitute a fake log.
type LogFactory func(cfg kafkalog.Config) kafkalog.Log

// ClusterIDFunc resolves the identity of the cluster backing the log.
// The result tags diagnostics only; resolution failure never fails
// Configure.
type ClusterIDFunc func(ctx context.Context, brokers []string, clientID string) (string, error)

// Options configures a Store. Zero values select production defaults.
type Options struct {
	// Logger receives store log output. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives store instrumentation. nil disables it.
	Metrics *metrics.StoreMetrics

	// NewLog overrides log construction. Defaults to the Kafka-backed log.
	NewLog LogFactory

	// ClusterID overrides cluster identity resolution.
	ClusterID ClusterIDFunc
}

// Snapshot is the immutable record of everything Configure resolved.
type Snapshot struct {
	Topic     string
	Producer  config.ProducerParams
	Consumer  config.ConsumerParams
	Admin     config.AdminParams
	ClusterID string
}

// Store is the backing store. Safe for concurrent use by multiple
// goroutines once started.
type Store struct {
	logger    *slog.Logger
	metrics   *metrics.StoreMetrics
	newLog    LogFactory
	clusterID ClusterIDFunc

	// mu guards state, data and log. The replay handler and every cache
	// snapshot go through it; the handler itself is never invoked
	// concurrently (log guarantee), so the critical sections stay tiny.
	mu       sync.Mutex
	state    State
	starting bool
	data     map[Key][]byte
	log      kafkalog.Log
	snapshot Snapshot
}

// New creates an unconfigured Store.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newLog := opts.NewLog
	if newLog == nil {
		newLog = func(cfg kafkalog.Config) kafkalog.Log {
			return kafkalog.New(cfg)
		}
	}
	clusterID := opts.ClusterID
	if clusterID == nil {
		clusterID = kafkalog.ClusterID
	}

	return &Store{
		logger:    logger.With("component", "offset-store"),
		metrics:   opts.Metrics,
		newLog:    newLog,
		clusterID: clusterID,
		data:      make(map[Key][]byte),
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Configure resolves client parameters from the worker configuration and
// builds the backing log. Call exactly once, before Start.
//
// The clientIDBase is supplied by the owning process; every client the
// store derives is identified as clientIDBase + "offsets".
//
// Cluster identity resolution is diagnostic only: a failure is logged
// and Configure still succeeds.
func (s *Store) Configure(ctx context.Context, cfg config.WorkerConfig, clientIDBase string) error {
	s.mu.Lock()
	if s.state != StateUnconfigured {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrAlreadyConfigured, state)
	}
	s.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return err
	}

	producer, consumer, admin := config.ResolveParams(cfg, clientIDBase)

	snapshot := Snapshot{
		Topic:    cfg.Topic,
		Producer: producer,
		Consumer: consumer,
		Admin:    admin,
	}

	idCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		idCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if id, err := s.clusterID(idCtx, cfg.BootstrapServers, producer.ClientID); err != nil {
		s.logger.Warn("failed to resolve kafka cluster id", "error", err)
	} else {
		snapshot.ClusterID = id
		s.logger = s.logger.With("kafka_cluster_id", id)
	}

	log := s.newLog(kafkalog.Config{
		Topic:    cfg.Topic,
		Producer: producer,
		Consumer: consumer,
		Admin:    admin,
		Handler:  s.onRecord,
		Logger:   s.logger,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnconfigured {
		return fmt.Errorf("%w (state %s)", ErrAlreadyConfigured, s.state)
	}
	s.log = log
	s.snapshot = snapshot
	s.state = StateConfigured

	s.logger.Info("store configured",
		"topic", cfg.Topic,
		"client_id", producer.ClientID,
		"exactly_once", cfg.ExactlyOnceSource)
	return nil
}

// Start starts the backing log and blocks until every pre-existing
// record has been replayed into the cache. When Start returns, the cache
// is current as of this moment.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateUnconfigured:
		s.mu.Unlock()
		return ErrNotConfigured
	case StateStarted:
		s.mu.Unlock()
		return ErrAlreadyStarted
	case StateStopped:
		s.mu.Unlock()
		return ErrStopped
	}
	// The state stays CONFIGURED until the replay finishes, so a second
	// concurrent Start needs its own guard.
	if s.starting {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.starting = true
	log := s.log
	s.mu.Unlock()

	s.logger.Info("starting store")

	// The replay handler takes s.mu for every record, so the lock must
	// not be held across Start.
	if err := log.Start(ctx); err != nil {
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
		return fmt.Errorf("failed to start backing log: %w", err)
	}

	s.mu.Lock()
	s.state = StateStarted
	keys := len(s.data)
	s.mu.Unlock()

	s.logger.Info("store started", "cached_keys", keys)
	return nil
}

// Stop stops the backing log and makes the store permanently unusable.
// In-flight operations fail rather than hang.
func (s *Store) Stop() error {
	s.mu.Lock()
	switch s.state {
	case StateStopped:
		s.mu.Unlock()
		return ErrStopped
	case StateStarted:
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrNotStarted, state)
	}
	s.state = StateStopped
	log := s.log
	s.mu.Unlock()

	s.logger.Info("stopping store")
	if err := log.Stop(); err != nil && !errors.Is(err, kafkalog.ErrLogStopped) {
		return fmt.Errorf("failed to stop backing log: %w", err)
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the configuration resolved by Configure.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// =============================================================================
// REPLAY
// =============================================================================

// onRecord is the per-record replay handler. The log invokes it strictly
// sequentially, in log order, for every replayed and newly appended
// record. Last writer wins; a nil value is a legal overwrite, not a
// deletion.
func (s *Store) onRecord(rec kafkalog.Record) {
	key := KeyOf(rec.Key)
	value := cloneValue(rec.Value)

	s.mu.Lock()
	s.data[key] = value
	keys := len(s.data)
	s.mu.Unlock()

	s.metrics.ObserveReplay()
	s.metrics.SetCacheKeys(keys)
}

// =============================================================================
// READS
// =============================================================================

// Get returns the values for the requested keys. Before snapshotting the
// cache it reads the log to its current end, so the result reflects
// every record committed by any writer before this call.
//
// Keys with no entry map to a nil value; a missing key is not an error.
// The call blocks until the log has caught up or ctx expires.
func (s *Store) Get(ctx context.Context, keys []Key) (map[Key][]byte, error) {
	if err := s.readToEnd(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[Key][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			result[k] = cloneValue(v)
		} else {
			result[k] = nil
		}
	}
	return result, nil
}

// Dump returns the entire cached key space, read-to-end first like Get.
// Intended for the debug surface and operational tooling.
func (s *Store) Dump(ctx context.Context) (map[Key][]byte, error) {
	if err := s.readToEnd(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[Key][]byte, len(s.data))
	for k, v := range s.data {
		result[k] = cloneValue(v)
	}
	return result, nil
}

// CachedKeys returns the number of keys currently cached, without a
// read-to-end round.
func (s *Store) CachedKeys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// readToEnd suspends the caller until the log has delivered everything
// committed as of now. Concurrent calls are tracked independently by the
// log.
func (s *Store) readToEnd(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateStarted {
		state := s.state
		s.mu.Unlock()
		if state == StateStopped {
			return ErrStopped
		}
		return ErrNotStarted
	}
	log := s.log
	s.mu.Unlock()

	started := time.Now()
	caughtUp := make(chan error, 1)
	log.ReadToEnd(func(err error) { caughtUp <- err })

	select {
	case err := <-caughtUp:
		if err != nil {
			return fmt.Errorf("failed to read log to end: %w", err)
		}
		s.metrics.ObserveReadToEnd(time.Since(started).Seconds())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// WRITES
// =============================================================================

// setJoin recombines the independent per-key appends of one Set call
// into a single outcome. The first failure observed (in acknowledgment
// arrival order) wins; later outcomes never overwrite it. The completion
// fires exactly once, after every append has settled.
type setJoin struct {
	mu         sync.Mutex
	remaining  int
	firstErr   error
	onComplete func(error)
	ticket     *SetTicket
}

func (j *setJoin) ack(err error) {
	j.mu.Lock()
	if err != nil && j.firstErr == nil {
		j.firstErr = err
	}
	j.remaining--
	done := j.remaining == 0
	outcome := j.firstErr
	j.mu.Unlock()

	if !done {
		return
	}
	if j.onComplete != nil {
		j.onComplete(outcome)
	}
	j.ticket.resolve(outcome)
}

// Set persists the given pairs by appending one record per pair to the
// log. It returns immediately after submission; the returned ticket
// resolves once every append has been acknowledged. onComplete (optional)
// is invoked exactly once with the joined outcome just before the ticket
// resolves.
//
// A nil key and/or nil value is valid and is sent as such. Appends are
// independent: acknowledgments may arrive in any order, and a failed
// append does not undo the others. The aggregate outcome is nil only if
// every append succeeded, otherwise the first failure observed.
//
// Submitting two values for the same key in one call is impossible by
// construction (map input); relative ordering of appends to the same key
// across calls is decided by log position.
func (s *Store) Set(pairs map[Key][]byte, onComplete func(error)) (*SetTicket, error) {
	s.mu.Lock()
	if s.state != StateStarted {
		state := s.state
		s.mu.Unlock()
		if state == StateStopped {
			return nil, ErrStopped
		}
		return nil, ErrNotStarted
	}
	log := s.log
	s.mu.Unlock()

	ticket := newSetTicket()
	join := &setJoin{
		remaining:  len(pairs),
		onComplete: onComplete,
		ticket:     ticket,
	}

	if len(pairs) == 0 {
		if onComplete != nil {
			onComplete(nil)
		}
		ticket.resolve(nil)
		return ticket, nil
	}

	for key, value := range pairs {
		log.Append(key.Bytes(), cloneValue(value), func(err error) {
			s.metrics.ObserveAppend(err)
			if err != nil {
				s.logger.Error("append failed", "error", err)
			}
			join.ack(err)
		})
	}
	return ticket, nil
}
