// =============================================================================
// PARAMETER RESOLUTION - DERIVING CLIENT SETTINGS FROM WORKER CONFIG
// =============================================================================
//
// WHAT IS THIS?
// The offset store talks to Kafka through three distinct clients: a
// producer (appends), a consumer (replay), and an admin client (topic
// provisioning). Each needs its own parameter set, all derived
// deterministically from the single WorkerConfig.
//
// FLOW:
//
//   WorkerConfig ──► ResolveParams(cfg, clientIDBase)
//                        │
//                        ├──► ProducerParams  (brokers, client id, acks)
//                        ├──► ConsumerParams  (brokers, client id, isolation)
//                        └──► AdminParams     (topic, partitions, RF, extras)
//
// ISOLATION LEVEL RULES (read consistency under concurrent writers):
//
//   exactly-once ON  + level unset ──► inject "read-committed"
//   exactly-once ON  + level set   ──► override to "read-committed"
//   exactly-once OFF + anything    ──► pass through unchanged
//
// With exactly-once in effect the store must never observe uncommitted
// or aborted writes, no matter what the operator configured.
//
// CLIENT IDENTITY:
// Every derived client is named <base> + "offsets". The base is supplied
// by the owning process, which gives each store instance a distinct,
// attributable identity without any global coordination.
//
// =============================================================================

package config

// clientIDSuffix distinguishes this store's clients from other clients
// the same worker process derives from the same base.
const clientIDSuffix = "offsets"

// ProducerParams configures the append side of the store.
type ProducerParams struct {
	Brokers  []string
	ClientID string
}

// ConsumerParams configures the replay side of the store.
type ConsumerParams struct {
	Brokers  []string
	ClientID string

	// IsolationLevel is "" when no level applies; otherwise one of the
	// Isolation* constants.
	IsolationLevel string
}

// AdminParams configures topic provisioning.
//
// MinInsyncReplicas and MaxMessageBytes are 0 when the operator did not
// set them; provisioning must then leave the broker defaults alone.
type AdminParams struct {
	Brokers           []string
	Topic             string
	Partitions        int
	ReplicationFactor int
	MinInsyncReplicas int
	MaxMessageBytes   int
}

// ResolveParams derives the three client parameter sets from the worker
// configuration. It performs no network calls and does not re-validate
// the configuration; call WorkerConfig.Validate first.
func ResolveParams(cfg WorkerConfig, clientIDBase string) (ProducerParams, ConsumerParams, AdminParams) {
	clientID := clientIDBase + clientIDSuffix

	producer := ProducerParams{
		Brokers:  cfg.BootstrapServers,
		ClientID: clientID,
	}

	consumer := ConsumerParams{
		Brokers:        cfg.BootstrapServers,
		ClientID:       clientID,
		IsolationLevel: cfg.IsolationLevel,
	}
	if cfg.ExactlyOnceSource {
		// Overrides any operator-supplied level, including an explicit
		// read-uncommitted.
		consumer.IsolationLevel = IsolationReadCommitted
	}

	admin := AdminParams{
		Brokers:           cfg.BootstrapServers,
		Topic:             cfg.Topic,
		Partitions:        cfg.Partitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.MinInsyncReplicas > 0 {
		admin.MinInsyncReplicas = cfg.MinInsyncReplicas
	}
	if cfg.MaxMessageBytes > 0 {
		admin.MaxMessageBytes = cfg.MaxMessageBytes
	}

	return producer, consumer, admin
}
