package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Topic != DefaultTopic {
		t.Errorf("topic = %q, want %q", cfg.Topic, DefaultTopic)
	}
	if cfg.Partitions != DefaultPartitions {
		t.Errorf("partitions = %d, want %d", cfg.Partitions, DefaultPartitions)
	}
	if cfg.ReplicationFactor != DefaultReplicationFactor {
		t.Errorf("replication factor = %d, want %d", cfg.ReplicationFactor, DefaultReplicationFactor)
	}
	if cfg.DialTimeout != DefaultDialTimeout {
		t.Errorf("dial timeout = %v, want %v", cfg.DialTimeout, DefaultDialTimeout)
	}
	if cfg.ExactlyOnceSource {
		t.Error("exactly-once should default to off")
	}
	if cfg.IsolationLevel != "" {
		t.Errorf("isolation level = %q, want unset", cfg.IsolationLevel)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
bootstrap_servers:
  - broker1:9092
  - broker2:9093
topic: custom-offsets
partitions: 50
replication_factor: 5
min_insync_replicas: 2
exactly_once_source: true
isolation_level: read-committed
dial_timeout: 5s
log_level: debug
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.BootstrapServers) != 2 || cfg.BootstrapServers[0] != "broker1:9092" {
		t.Errorf("bootstrap servers = %v", cfg.BootstrapServers)
	}
	if cfg.Topic != "custom-offsets" {
		t.Errorf("topic = %q, want custom-offsets", cfg.Topic)
	}
	if cfg.Partitions != 50 || cfg.ReplicationFactor != 5 {
		t.Errorf("topic sizing = %d/%d, want 50/5", cfg.Partitions, cfg.ReplicationFactor)
	}
	if cfg.MinInsyncReplicas != 2 {
		t.Errorf("min insync replicas = %d, want 2", cfg.MinInsyncReplicas)
	}
	if !cfg.ExactlyOnceSource {
		t.Error("exactly_once_source not read from file")
	}
	if cfg.IsolationLevel != IsolationReadCommitted {
		t.Errorf("isolation level = %q, want %q", cfg.IsolationLevel, IsolationReadCommitted)
	}
	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("dial timeout = %v, want 5s", cfg.DialTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load succeeded for a missing config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OFFSETSTORE_TOPIC", "env-offsets")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Topic != "env-offsets" {
		t.Errorf("topic = %q, want env-offsets", cfg.Topic)
	}
}
