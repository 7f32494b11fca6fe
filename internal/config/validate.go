package config

import (
	"fmt"
	"net"
	"strings"
)

// =============================================================================
// CONFIG VALIDATION
// =============================================================================
//
// PATTERN: ACCUMULATE ERRORS
// All validation problems are collected and returned together so the
// operator can fix everything in one pass instead of playing
// whack-a-mole with one error per restart.
//
// =============================================================================

// ValidationError holds one or more configuration validation failures.
type ValidationError struct {
	Errors []string
}

// Error implements the error interface.
// Formats all validation errors as a numbered list for readability.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0])
	}

	var b strings.Builder
	b.WriteString("configuration validation failed:\n")
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err)
	}
	return b.String()
}

// Validate checks the worker configuration for common mistakes.
// Returns nil if valid, or a *ValidationError with all problems found.
func (c *WorkerConfig) Validate() error {
	var errs []string

	// BootstrapServers: without brokers there is nothing to talk to
	if len(c.BootstrapServers) == 0 {
		errs = append(errs, "bootstrap_servers: at least one broker address is required")
	} else {
		for i, addr := range c.BootstrapServers {
			if err := validateAddress(addr); err != nil {
				errs = append(errs, fmt.Sprintf("bootstrap_servers[%d]: invalid address %q: %v", i, addr, err))
			}
		}
	}

	// Topic: the durable home of every offset this store persists
	if c.Topic == "" {
		errs = append(errs, "topic: must not be empty")
	} else if strings.ContainsAny(c.Topic, " \t\n\r") {
		errs = append(errs, "topic: must not contain whitespace")
	}

	if c.Partitions <= 0 {
		errs = append(errs, fmt.Sprintf("partitions: must be > 0, got %d", c.Partitions))
	}
	if c.ReplicationFactor <= 0 {
		errs = append(errs, fmt.Sprintf("replication_factor: must be > 0, got %d", c.ReplicationFactor))
	}
	if c.MinInsyncReplicas < 0 {
		errs = append(errs, fmt.Sprintf("min_insync_replicas: must be >= 0, got %d", c.MinInsyncReplicas))
	} else if c.ReplicationFactor > 0 && c.MinInsyncReplicas > c.ReplicationFactor {
		errs = append(errs, fmt.Sprintf("min_insync_replicas: %d exceeds replication_factor %d", c.MinInsyncReplicas, c.ReplicationFactor))
	}
	if c.MaxMessageBytes < 0 {
		errs = append(errs, fmt.Sprintf("max_message_bytes: must be >= 0, got %d", c.MaxMessageBytes))
	}

	// IsolationLevel: optional, but must be a known value when set
	switch c.IsolationLevel {
	case "", IsolationReadUncommitted, IsolationReadCommitted:
	default:
		errs = append(errs, fmt.Sprintf("isolation_level: must be %q or %q, got %q",
			IsolationReadUncommitted, IsolationReadCommitted, c.IsolationLevel))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// validateAddress checks that a string is a valid host:port address.
func validateAddress(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("must be host:port format: %w", err)
	}
	if port == "" {
		return fmt.Errorf("port must not be empty")
	}
	return nil
}
