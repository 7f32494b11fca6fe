// =============================================================================
// WORKER CONFIGURATION - SETTINGS FOR THE OFFSET STORE
// =============================================================================
//
// WHAT IS THIS?
// The worker-level configuration consumed by the offset store. A worker
// process persists small pieces of state (offsets/checkpoints) to a
// compacted Kafka topic; everything the store needs to reach that topic
// and provision it lives here.
//
// CONFIGURATION SOURCES (merged in priority order):
//   1. Command-line flags (highest)
//   2. Environment variables (OFFSETSTORE_ prefix)
//   3. Config file (YAML, via --config)
//   4. Built-in defaults (lowest)
//
// EXAMPLE CONFIG FILE:
//
//   bootstrap_servers:
//     - broker1:9092
//     - broker2:9093
//   topic: worker-offsets
//   partitions: 25
//   replication_factor: 3
//   min_insync_replicas: 2
//   exactly_once_source: true
//
// =============================================================================

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Isolation levels accepted for the consumer side of the store.
// The values mirror the broker-side setting names.
const (
	IsolationReadUncommitted = "read-uncommitted"
	IsolationReadCommitted   = "read-committed"
)

// Defaults applied when a field is not set by any configuration source.
const (
	DefaultTopic             = "worker-offsets"
	DefaultPartitions        = 25
	DefaultReplicationFactor = 3
	DefaultHTTPAddr          = ":8080"
	DefaultDialTimeout       = 10 * time.Second
)

// WorkerConfig holds every setting the offset store consumes.
//
// The optional numeric fields use 0 to mean "not set": they are only
// forwarded to topic provisioning when the operator supplied them
// explicitly, so the broker's own defaults apply otherwise.
type WorkerConfig struct {
	// BootstrapServers is the list of Kafka broker addresses (host:port).
	BootstrapServers []string `mapstructure:"bootstrap_servers"`

	// Topic is the compacted topic the store appends to and replays from.
	Topic string `mapstructure:"topic"`

	// Partitions is the partition count used when provisioning the topic.
	Partitions int `mapstructure:"partitions"`

	// ReplicationFactor is the replication factor used when provisioning.
	ReplicationFactor int `mapstructure:"replication_factor"`

	// MinInsyncReplicas is optional (0 = unset). Forwarded verbatim to
	// topic provisioning when set.
	MinInsyncReplicas int `mapstructure:"min_insync_replicas"`

	// MaxMessageBytes is optional (0 = unset). Forwarded verbatim to
	// topic provisioning when set.
	MaxMessageBytes int `mapstructure:"max_message_bytes"`

	// ExactlyOnceSource indicates the worker runs with exactly-once
	// semantics. When true the store's consumer must never observe
	// uncommitted or aborted writes.
	ExactlyOnceSource bool `mapstructure:"exactly_once_source"`

	// IsolationLevel is an optional explicit consumer isolation level
	// ("" = unset). See ResolveParams for how it interacts with
	// ExactlyOnceSource.
	IsolationLevel string `mapstructure:"isolation_level"`

	// DialTimeout bounds metadata and provisioning requests.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// HTTPAddr is the listen address for the debug/metrics HTTP server.
	HTTPAddr string `mapstructure:"http_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Default returns a WorkerConfig with all defaults applied.
func Default() WorkerConfig {
	return WorkerConfig{
		Topic:             DefaultTopic,
		Partitions:        DefaultPartitions,
		ReplicationFactor: DefaultReplicationFactor,
		DialTimeout:       DefaultDialTimeout,
		HTTPAddr:          DefaultHTTPAddr,
		LogLevel:          "info",
	}
}

// Load reads configuration from the given file (optional, "" to skip),
// environment variables and defaults. The result is not validated:
// callers merge command-line flags on top first, and Store.Configure
// validates the final configuration.
//
// Environment variables use the OFFSETSTORE_ prefix with underscores,
// e.g. OFFSETSTORE_TOPIC, OFFSETSTORE_BOOTSTRAP_SERVERS.
func Load(path string) (WorkerConfig, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("topic", defaults.Topic)
	v.SetDefault("partitions", defaults.Partitions)
	v.SetDefault("replication_factor", defaults.ReplicationFactor)
	v.SetDefault("dial_timeout", defaults.DialTimeout)
	v.SetDefault("http_addr", defaults.HTTPAddr)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix("OFFSETSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return WorkerConfig{}, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	var cfg WorkerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return WorkerConfig{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, nil
}
