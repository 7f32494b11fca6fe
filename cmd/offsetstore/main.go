// =============================================================================
// OFFSETSTORE CLI - MAIN ENTRY POINT
// =============================================================================
//
// WHAT IS THIS?
// The main entry point for the offsetstore command-line interface.
// This tool lets operators read, write and inspect the durable key-value
// state a worker keeps in its compacted Kafka offsets topic.
//
// USAGE:
//   offsetstore [command] [flags]
//
// EXAMPLES:
//   offsetstore get conn-0/sink                  # Read one key
//   offsetstore set conn-0/sink='{"pos":42}'     # Write one key
//   offsetstore dump                             # Dump the whole key space
//   offsetstore serve                            # Run the debug/metrics server
//
// CONFIGURATION:
//   Config file: --config path/to/config.yaml
//   Env vars: OFFSETSTORE_BOOTSTRAP_SERVERS, OFFSETSTORE_TOPIC, ...
//
// =============================================================================

package main

import (
	"os"

	"offsetstore/cmd/offsetstore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
