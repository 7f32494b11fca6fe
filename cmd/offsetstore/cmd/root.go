// =============================================================================
// ROOT COMMAND - CLI ENTRY POINT AND GLOBAL FLAGS
// =============================================================================
//
// WHAT IS THIS?
// The root command that initializes the CLI and defines global flags.
// All subcommands inherit these flags and share the resolved worker
// configuration.
//
// GLOBAL FLAGS:
//   --config            Config file path (YAML)
//   --bootstrap, -b     Kafka bootstrap servers (host:port, repeatable)
//   --topic, -t         Offsets topic name
//   --client-id         Client id base ("offsets" is appended)
//   --exactly-once      Exactly-once source support mode
//   --isolation-level   Explicit consumer isolation level
//   --timeout           Per-operation timeout
//   --log-level         debug, info, warn, error
//
// SUBCOMMANDS:
//   get         Read values for one or more keys
//   set         Write key-value pairs
//   dump        Dump the whole cached key space
//   serve       Run the store with its debug/metrics HTTP server
//   version     Show version information
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"offsetstore/internal/config"
	"offsetstore/internal/store"
)

// =============================================================================
// GLOBAL STATE
// =============================================================================

var (
	// Global flags
	configFlag        string
	bootstrapFlag     []string
	topicFlag         string
	partitionsFlag    int
	replicationFlag   int
	minInsyncFlag     int
	maxMsgBytesFlag   int
	exactlyOnceFlag   bool
	isolationFlag     string
	clientIDFlag      string
	timeoutFlag       time.Duration
	logLevelFlag      string

	// Shared instances, resolved by initialize before each run
	cfg    config.WorkerConfig
	logger *slog.Logger
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "offsetstore",
	Short: "Command-line interface for the Kafka-backed offset store",
	Long: `offsetstore - Inspect and modify a worker's durable key-value state.

The offset store keeps small pieces of worker state (source offsets,
checkpoints) in a compacted Kafka topic, with an in-memory cache kept
current by replaying the topic. This tool speaks the same protocol as a
worker, so every read observes everything committed before it:
  • get reads the log to its end before answering
  • set appends one record per pair and waits for all acknowledgments
  • dump prints the entire key space
  • serve runs the store with its HTTP debug and metrics surface

Use "offsetstore [command] --help" for more information about a command.`,
	PersistentPreRunE: initialize,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "Config file path (YAML)")
	pf.StringSliceVarP(&bootstrapFlag, "bootstrap", "b", nil,
		"Kafka bootstrap servers, host:port (env: OFFSETSTORE_BOOTSTRAP_SERVERS)")
	pf.StringVarP(&topicFlag, "topic", "t", "", "Offsets topic name")
	pf.IntVar(&partitionsFlag, "partitions", 0, "Partition count used when provisioning the topic")
	pf.IntVar(&replicationFlag, "replication-factor", 0, "Replication factor used when provisioning the topic")
	pf.IntVar(&minInsyncFlag, "min-insync-replicas", 0, "min.insync.replicas for the topic (0 = broker default)")
	pf.IntVar(&maxMsgBytesFlag, "max-message-bytes", 0, "max.message.bytes for the topic (0 = broker default)")
	pf.BoolVar(&exactlyOnceFlag, "exactly-once", false, "Run with exactly-once source support semantics")
	pf.StringVar(&isolationFlag, "isolation-level", "", "Consumer isolation level (read-uncommitted, read-committed)")
	pf.StringVar(&clientIDFlag, "client-id", "", "Client id base; \"offsets\" is appended to derive the Kafka client id")
	pf.DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Per-operation timeout")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// initialize resolves the worker configuration before each command:
// file and environment first, then command-line flags on top.
func initialize(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	loaded, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("bootstrap") {
		cfg.BootstrapServers = bootstrapFlag
	}
	if flags.Changed("topic") {
		cfg.Topic = topicFlag
	}
	if flags.Changed("partitions") {
		cfg.Partitions = partitionsFlag
	}
	if flags.Changed("replication-factor") {
		cfg.ReplicationFactor = replicationFlag
	}
	if flags.Changed("min-insync-replicas") {
		cfg.MinInsyncReplicas = minInsyncFlag
	}
	if flags.Changed("max-message-bytes") {
		cfg.MaxMessageBytes = maxMsgBytesFlag
	}
	if flags.Changed("exactly-once") {
		cfg.ExactlyOnceSource = exactlyOnceFlag
	}
	if flags.Changed("isolation-level") {
		cfg.IsolationLevel = isolationFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}

	logger = newLogger(cfg.LogLevel)
	return nil
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// clientIDBase returns the base every derived Kafka client id starts
// with. One-shot invocations get a unique base so concurrent runs are
// distinguishable in broker logs.
func clientIDBase() string {
	if clientIDFlag != "" {
		return clientIDFlag
	}
	return "offsetstore-cli-" + uuid.NewString()[:8] + "-"
}

// getContext returns a context bounded by the --timeout flag.
func getContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeoutFlag)
}

// openStore configures and starts a store against the resolved
// configuration. The returned stop function must run before exit.
func openStore(ctx context.Context, opts store.Options) (*store.Store, func(), error) {
	if opts.Logger == nil {
		opts.Logger = logger
	}
	st := store.New(opts)

	if err := st.Configure(ctx, cfg, clientIDBase()); err != nil {
		return nil, nil, err
	}
	if err := st.Start(ctx); err != nil {
		return nil, nil, err
	}

	stop := func() {
		if err := st.Stop(); err != nil {
			logger.Error("failed to stop store", "error", err)
		}
	}
	return st, stop, nil
}
