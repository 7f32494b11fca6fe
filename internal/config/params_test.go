package config

import (
	"reflect"
	"testing"
)

// =============================================================================
// PARAMETER RESOLUTION TESTS
// =============================================================================
//
// These tests pin down the two behavioral laws of parameter resolution:
//
//   1. Client identity: every derived client id is <base> + "offsets".
//   2. Isolation level: exactly-once forces read-committed on the
//      consumer, overriding any operator-supplied level; with
//      exactly-once off the configured level passes through unchanged,
//      including "unset".
// =============================================================================

func TestResolveParamsClientIDs(t *testing.T) {
	cfg := validConfig()

	producer, consumer, _ := ResolveParams(cfg, "worker-17-")

	const want = "worker-17-offsets"
	if producer.ClientID != want {
		t.Errorf("producer client id = %q, want %q", producer.ClientID, want)
	}
	if consumer.ClientID != want {
		t.Errorf("consumer client id = %q, want %q", consumer.ClientID, want)
	}
}

func TestResolveParamsIsolationLevel(t *testing.T) {
	tests := []struct {
		name        string
		exactlyOnce bool
		configured  string
		want        string
	}{
		{
			name:        "exactly-once injects read-committed when unset",
			exactlyOnce: true,
			configured:  "",
			want:        IsolationReadCommitted,
		},
		{
			name:        "exactly-once overrides explicit read-uncommitted",
			exactlyOnce: true,
			configured:  IsolationReadUncommitted,
			want:        IsolationReadCommitted,
		},
		{
			name:        "disabled leaves unset alone",
			exactlyOnce: false,
			configured:  "",
			want:        "",
		},
		{
			name:        "disabled passes explicit level through",
			exactlyOnce: false,
			configured:  IsolationReadUncommitted,
			want:        IsolationReadUncommitted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.ExactlyOnceSource = tt.exactlyOnce
			cfg.IsolationLevel = tt.configured

			_, consumer, _ := ResolveParams(cfg, "base-")
			if consumer.IsolationLevel != tt.want {
				t.Errorf("isolation level = %q, want %q", consumer.IsolationLevel, tt.want)
			}
		})
	}
}

func TestResolveParamsAdminCopiesTopicSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Topic = "worker-offsets"
	cfg.Partitions = 25
	cfg.ReplicationFactor = 5
	cfg.MinInsyncReplicas = 3
	cfg.MaxMessageBytes = 1001

	_, _, admin := ResolveParams(cfg, "base-")

	if admin.Topic != "worker-offsets" {
		t.Errorf("topic = %q, want %q", admin.Topic, "worker-offsets")
	}
	if admin.Partitions != 25 {
		t.Errorf("partitions = %d, want 25", admin.Partitions)
	}
	if admin.ReplicationFactor != 5 {
		t.Errorf("replication factor = %d, want 5", admin.ReplicationFactor)
	}
	if admin.MinInsyncReplicas != 3 {
		t.Errorf("min insync replicas = %d, want 3", admin.MinInsyncReplicas)
	}
	if admin.MaxMessageBytes != 1001 {
		t.Errorf("max message bytes = %d, want 1001", admin.MaxMessageBytes)
	}
	if !reflect.DeepEqual(admin.Brokers, cfg.BootstrapServers) {
		t.Errorf("brokers = %v, want %v", admin.Brokers, cfg.BootstrapServers)
	}
}

func TestResolveParamsOptionalSettingsStayUnset(t *testing.T) {
	cfg := validConfig()
	cfg.MinInsyncReplicas = 0
	cfg.MaxMessageBytes = 0

	_, _, admin := ResolveParams(cfg, "base-")

	if admin.MinInsyncReplicas != 0 {
		t.Errorf("min insync replicas = %d, want 0 (unset)", admin.MinInsyncReplicas)
	}
	if admin.MaxMessageBytes != 0 {
		t.Errorf("max message bytes = %d, want 0 (unset)", admin.MaxMessageBytes)
	}
}
