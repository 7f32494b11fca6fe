package config

import (
	"strings"
	"testing"
)

// =============================================================================
// CONFIG VALIDATION TESTS
// =============================================================================
//
// TEST STRATEGY: Table-driven tests
//   Each test case specifies:
//   - name: what we're testing
//   - mutate: how the case differs from a known-good config
//   - wantErr: whether we expect validation to fail
//   - errContains: substring(s) the error message should contain
// =============================================================================

// validConfig returns a minimal configuration that passes validation.
func validConfig() WorkerConfig {
	cfg := Default()
	cfg.BootstrapServers = []string{"broker1:9092", "broker2:9093"}
	return cfg
}

func TestWorkerConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*WorkerConfig)
		wantErr     bool
		errContains []string
	}{
		{
			name:    "valid minimal config",
			mutate:  func(c *WorkerConfig) {},
			wantErr: false,
		},
		{
			name: "no bootstrap servers",
			mutate: func(c *WorkerConfig) {
				c.BootstrapServers = nil
			},
			wantErr:     true,
			errContains: []string{"bootstrap_servers: at least one broker address is required"},
		},
		{
			name: "bootstrap server without port",
			mutate: func(c *WorkerConfig) {
				c.BootstrapServers = []string{"broker1"}
			},
			wantErr:     true,
			errContains: []string{"bootstrap_servers[0]", "invalid address"},
		},
		{
			name: "empty topic",
			mutate: func(c *WorkerConfig) {
				c.Topic = ""
			},
			wantErr:     true,
			errContains: []string{"topic: must not be empty"},
		},
		{
			name: "topic with whitespace",
			mutate: func(c *WorkerConfig) {
				c.Topic = "worker offsets"
			},
			wantErr:     true,
			errContains: []string{"topic: must not contain whitespace"},
		},
		{
			name: "zero partitions",
			mutate: func(c *WorkerConfig) {
				c.Partitions = 0
			},
			wantErr:     true,
			errContains: []string{"partitions: must be > 0"},
		},
		{
			name: "negative replication factor",
			mutate: func(c *WorkerConfig) {
				c.ReplicationFactor = -1
			},
			wantErr:     true,
			errContains: []string{"replication_factor: must be > 0"},
		},
		{
			name: "min insync replicas above replication factor",
			mutate: func(c *WorkerConfig) {
				c.ReplicationFactor = 3
				c.MinInsyncReplicas = 4
			},
			wantErr:     true,
			errContains: []string{"min_insync_replicas: 4 exceeds replication_factor 3"},
		},
		{
			name: "negative max message bytes",
			mutate: func(c *WorkerConfig) {
				c.MaxMessageBytes = -1
			},
			wantErr:     true,
			errContains: []string{"max_message_bytes: must be >= 0"},
		},
		{
			name: "unknown isolation level",
			mutate: func(c *WorkerConfig) {
				c.IsolationLevel = "serializable"
			},
			wantErr:     true,
			errContains: []string{"isolation_level"},
		},
		{
			name: "explicit read-uncommitted is accepted",
			mutate: func(c *WorkerConfig) {
				c.IsolationLevel = IsolationReadUncommitted
			},
			wantErr: false,
		},
		{
			name: "multiple errors at once",
			mutate: func(c *WorkerConfig) {
				c.BootstrapServers = nil
				c.Topic = ""
			},
			wantErr:     true,
			errContains: []string{"bootstrap_servers", "topic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr && err == nil {
				t.Errorf("expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error but got: %v", err)
				return
			}

			if err != nil {
				errMsg := err.Error()
				for _, want := range tt.errContains {
					if !strings.Contains(errMsg, want) {
						t.Errorf("error %q does not contain %q", errMsg, want)
					}
				}
			}
		})
	}
}

func TestValidationErrorFormatting(t *testing.T) {
	single := &ValidationError{Errors: []string{"topic: must not be empty"}}
	if strings.Contains(single.Error(), "\n") {
		t.Errorf("single error should format on one line, got %q", single.Error())
	}

	multi := &ValidationError{Errors: []string{"a", "b"}}
	if !strings.Contains(multi.Error(), "1. a") || !strings.Contains(multi.Error(), "2. b") {
		t.Errorf("multiple errors should be numbered, got %q", multi.Error())
	}
}
