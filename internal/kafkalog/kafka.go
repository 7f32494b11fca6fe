package kafkalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"offsetstore/internal/config"
)

// =============================================================================
// KAFKA-BACKED LOG IMPLEMENTATION
// =============================================================================
//
// LIFECYCLE:
//
//   New ──► Start ──► (Append / ReadToEnd)* ──► Stop
//
//   Start:
//    1. Create the topic if missing (partitions, replication factor and
//       the optional topic settings come from the admin parameters).
//    2. Snapshot first/last offsets for every partition.
//    3. Launch one reader goroutine per partition plus one dispatch
//       goroutine that funnels all records through the handler.
//    4. Block until the handler has seen everything up to the snapshot.
//
//   Stop:
//    Cancel the consumers, close readers and writer, fail pending
//    read-to-end waiters, wait for all goroutines to exit.
//
// APPEND PATH:
// Each Append runs one WriteMessages call in its own goroutine and hands
// the outcome to the caller's ack. The writer batches internally; acks
// arrive in completion order, not submission order.
//
// =============================================================================

var (
	// ErrLogStarted means Start was called twice.
	ErrLogStarted = errors.New("log already started")

	// ErrLogNotStarted means an operation requires a started log.
	ErrLogNotStarted = errors.New("log not started")

	// ErrLogStopped means the log has been stopped and cannot be reused.
	ErrLogStopped = errors.New("log stopped")
)

// readerQueueDepth bounds how far a single partition reader can run
// ahead of the dispatch goroutine.
const readerQueueDepth = 256

// messageReader is the slice of kafka.Reader the partition consumers
// depend on.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Config collects everything KafkaLog needs to run.
type Config struct {
	Topic    string
	Producer config.ProducerParams
	Consumer config.ConsumerParams
	Admin    config.AdminParams
	Handler  RecordHandler
	Logger   *slog.Logger
}

// KafkaLog is the production Log implementation backed by a Kafka topic.
type KafkaLog struct {
	cfg    Config
	logger *slog.Logger

	client *kafka.Client
	writer *kafka.Writer

	progress *progress

	mu      sync.Mutex
	started bool
	stopped bool
	readers []messageReader

	ctx    context.Context
	cancel context.CancelFunc

	records    chan kafka.Message
	readerWG   sync.WaitGroup
	dispatchWG sync.WaitGroup
	appendWG   sync.WaitGroup
}

// New creates a KafkaLog. The log does nothing until Start.
func New(cfg Config) *KafkaLog {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &KafkaLog{
		cfg:    cfg,
		logger: logger.With("topic", cfg.Topic),
		client: &kafka.Client{
			Addr: kafka.TCP(cfg.Admin.Brokers...),
			Transport: &kafka.Transport{
				ClientID: cfg.Producer.ClientID,
			},
		},
		progress: newProgress(),
		ctx:      ctx,
		cancel:   cancel,
		records:  make(chan kafka.Message, readerQueueDepth),
	}
}

// Start provisions the topic, replays all existing records through the
// handler, and returns once the replay has caught up. After Start
// returns, the caller's view of the log is current as of call time.
func (l *KafkaLog) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrLogStopped
	}
	if l.started {
		l.mu.Unlock()
		return ErrLogStarted
	}
	l.started = true
	l.mu.Unlock()

	if err := l.ensureTopic(ctx); err != nil {
		return fmt.Errorf("failed to provision topic: %w", err)
	}

	offsets, err := l.fetchOffsets(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch partition offsets: %w", err)
	}

	l.mu.Lock()
	l.writer = &kafka.Writer{
		Addr:         kafka.TCP(l.cfg.Producer.Brokers...),
		Topic:        l.cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Transport: &kafka.Transport{
			ClientID: l.cfg.Producer.ClientID,
		},
	}
	l.mu.Unlock()

	// Readable history starts at each partition's first offset; anything
	// before it is gone to retention and can never be delivered.
	targets := make(map[int]int64, len(offsets))
	for _, po := range offsets {
		l.progress.advanceTo(po.Partition, po.FirstOffset)
		targets[po.Partition] = po.LastOffset
	}

	l.startConsumers(offsets)

	// Initial replay: suspend until the handler has seen every record
	// that existed when Start was called.
	caughtUp := make(chan error, 1)
	l.progress.wait(targets, func(err error) { caughtUp <- err })

	select {
	case err := <-caughtUp:
		if err != nil {
			return fmt.Errorf("initial replay failed: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("initial replay interrupted: %w", ctx.Err())
	}

	l.logger.Info("log started", "partitions", len(offsets))
	return nil
}

// ensureTopic creates the topic with the configured partition count and
// replication factor. An already existing topic is not an error; its
// settings are left untouched.
func (l *KafkaLog) ensureTopic(ctx context.Context) error {
	topicConfig := kafka.TopicConfig{
		Topic:             l.cfg.Topic,
		NumPartitions:     l.cfg.Admin.Partitions,
		ReplicationFactor: l.cfg.Admin.ReplicationFactor,
	}
	if l.cfg.Admin.MinInsyncReplicas > 0 {
		topicConfig.ConfigEntries = append(topicConfig.ConfigEntries, kafka.ConfigEntry{
			ConfigName:  "min.insync.replicas",
			ConfigValue: strconv.Itoa(l.cfg.Admin.MinInsyncReplicas),
		})
	}
	if l.cfg.Admin.MaxMessageBytes > 0 {
		topicConfig.ConfigEntries = append(topicConfig.ConfigEntries, kafka.ConfigEntry{
			ConfigName:  "max.message.bytes",
			ConfigValue: strconv.Itoa(l.cfg.Admin.MaxMessageBytes),
		})
	}

	resp, err := l.client.CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{topicConfig},
	})
	if err != nil {
		return err
	}
	if topicErr := resp.Errors[l.cfg.Topic]; topicErr != nil {
		if errors.Is(topicErr, kafka.TopicAlreadyExists) {
			l.logger.Debug("topic already exists")
			return nil
		}
		return topicErr
	}

	l.logger.Info("created topic",
		"partitions", l.cfg.Admin.Partitions,
		"replication_factor", l.cfg.Admin.ReplicationFactor)
	return nil
}

// fetchOffsets returns the first and last offset of every partition.
func (l *KafkaLog) fetchOffsets(ctx context.Context) ([]kafka.PartitionOffsets, error) {
	meta, err := l.client.Metadata(ctx, &kafka.MetadataRequest{
		Topics: []string{l.cfg.Topic},
	})
	if err != nil {
		return nil, err
	}

	var partitions []int
	for _, t := range meta.Topics {
		if t.Name != l.cfg.Topic {
			continue
		}
		if t.Error != nil {
			return nil, t.Error
		}
		for _, p := range t.Partitions {
			partitions = append(partitions, p.ID)
		}
	}
	if len(partitions) == 0 {
		return nil, fmt.Errorf("topic %q has no partitions", l.cfg.Topic)
	}

	requests := make([]kafka.OffsetRequest, 0, 2*len(partitions))
	for _, p := range partitions {
		requests = append(requests, kafka.FirstOffsetOf(p), kafka.LastOffsetOf(p))
	}

	resp, err := l.client.ListOffsets(ctx, &kafka.ListOffsetsRequest{
		Topics:         map[string][]kafka.OffsetRequest{l.cfg.Topic: requests},
		IsolationLevel: l.isolationLevel(),
	})
	if err != nil {
		return nil, err
	}

	offsets := resp.Topics[l.cfg.Topic]
	for _, po := range offsets {
		if po.Error != nil {
			return nil, fmt.Errorf("partition %d: %w", po.Partition, po.Error)
		}
	}
	return offsets, nil
}

// isolationLevel maps the resolved consumer parameter onto the client
// type. An unset level falls back to the client default.
func (l *KafkaLog) isolationLevel() kafka.IsolationLevel {
	if l.cfg.Consumer.IsolationLevel == config.IsolationReadCommitted {
		return kafka.ReadCommitted
	}
	return kafka.ReadUncommitted
}

// startConsumers launches one reader per partition and the single
// dispatch goroutine that preserves sequential handler delivery.
func (l *KafkaLog) startConsumers(offsets []kafka.PartitionOffsets) {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
		ClientID:  l.cfg.Consumer.ClientID,
	}

	l.mu.Lock()
	for _, po := range offsets {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:        l.cfg.Consumer.Brokers,
			Topic:          l.cfg.Topic,
			Partition:      po.Partition,
			Dialer:         dialer,
			MinBytes:       1,
			MaxBytes:       10 << 20,
			IsolationLevel: l.isolationLevel(),
		})
		if err := reader.SetOffset(kafka.FirstOffset); err != nil {
			l.logger.Warn("failed to rewind reader", "partition", po.Partition, "error", err)
		}
		l.readers = append(l.readers, reader)

		l.readerWG.Add(1)
		go l.consumePartition(reader, po.Partition)
	}
	l.mu.Unlock()

	l.dispatchWG.Add(1)
	go l.dispatch()
}

// consumePartition reads one partition and feeds the shared record
// channel. Exits when the log is stopped. A fatal read error kills the
// partition's delivery for good, so it must fail every pending and
// future read-to-end waiter; otherwise callers would hang against a
// target this partition can never reach.
func (l *KafkaLog) consumePartition(reader messageReader, partition int) {
	defer l.readerWG.Done()

	for {
		msg, err := reader.ReadMessage(l.ctx)
		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			l.logger.Error("read failed", "partition", partition, "error", err)
			l.progress.fail(fmt.Errorf("partition %d read failed: %w", partition, err))
			return
		}
		select {
		case l.records <- msg:
		case <-l.ctx.Done():
			return
		}
	}
}

// dispatch is the only goroutine that invokes the handler, which keeps
// delivery strictly sequential across all partitions.
func (l *KafkaLog) dispatch() {
	defer l.dispatchWG.Done()

	for {
		select {
		case msg := <-l.records:
			l.deliver(msg)
		case <-l.ctx.Done():
			// Drain whatever the readers already queued so positions
			// stay consistent with what the handler has seen.
			for {
				select {
				case msg := <-l.records:
					l.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (l *KafkaLog) deliver(msg kafka.Message) {
	if l.cfg.Handler != nil {
		l.cfg.Handler(Record{
			Partition: msg.Partition,
			Offset:    msg.Offset,
			Key:       msg.Key,
			Value:     msg.Value,
		})
	}
	l.progress.observe(msg.Partition, msg.Offset)
}

// Append asynchronously appends one record to the log. onAck fires
// exactly once with the append outcome. Acks may arrive in any order
// relative to other Appends.
func (l *KafkaLog) Append(key, value []byte, onAck AckFunc) {
	l.mu.Lock()
	// The writer only exists once Start has finished provisioning, so a
	// nil writer means Start is still in flight.
	if !l.started || l.stopped || l.writer == nil {
		err := ErrLogNotStarted
		if l.stopped {
			err = ErrLogStopped
		}
		l.mu.Unlock()
		go onAck(err)
		return
	}
	writer := l.writer
	l.appendWG.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.appendWG.Done()
		err := writer.WriteMessages(l.ctx, kafka.Message{Key: key, Value: value})
		onAck(err)
	}()
}

// ReadToEnd invokes onCaughtUp once every record committed to the log as
// of this call has been delivered to the handler. Overlapping calls each
// get their own completion.
func (l *KafkaLog) ReadToEnd(onCaughtUp func(error)) {
	l.mu.Lock()
	if !l.started || l.stopped {
		err := ErrLogNotStarted
		if l.stopped {
			err = ErrLogStopped
		}
		l.mu.Unlock()
		go onCaughtUp(err)
		return
	}
	l.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
		defer cancel()

		offsets, err := l.fetchOffsets(ctx)
		if err != nil {
			onCaughtUp(fmt.Errorf("failed to fetch end offsets: %w", err))
			return
		}

		targets := make(map[int]int64, len(offsets))
		for _, po := range offsets {
			targets[po.Partition] = po.LastOffset
		}
		l.progress.wait(targets, onCaughtUp)
	}()
}

// Stop shuts the log down. In-flight appends and pending read-to-end
// waiters fail rather than hang. Call once.
func (l *KafkaLog) Stop() error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrLogStopped
	}
	l.stopped = true
	readers := l.readers
	writer := l.writer
	l.mu.Unlock()

	l.cancel()
	l.progress.fail(ErrLogStopped)

	var firstErr error
	for _, r := range readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.readerWG.Wait()
	l.dispatchWG.Wait()
	l.appendWG.Wait()

	if writer != nil {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	l.logger.Info("log stopped")
	return firstErr
}
