// =============================================================================
// SET COMMAND - WRITE KEY-VALUE PAIRS
// =============================================================================
//
// WHAT IS THIS?
// Command for writing key-value pairs to the offsets topic. Each pair
// becomes one appended record; the command waits until every append has
// been acknowledged by the brokers.
//
// USAGE:
//   offsetstore set <key>=<value> [key=value...] [flags]
//
// FLAGS:
//   --tombstone       Keys to write with a null value (repeatable)
//   --null-key-value  Value to write under the null key
//
// EXAMPLES:
//   offsetstore set conn-0/sink='{"pos":42}'
//   offsetstore set a=1 b=2 c=3
//   offsetstore set --tombstone conn-0/sink
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"offsetstore/internal/store"
)

var (
	setTombstones   []string
	setNullKeyValue string
)

var setCmd = &cobra.Command{
	Use:   "set <key>=<value> [key=value...]",
	Short: "Write key-value pairs",
	Long: `Write the given key-value pairs to the offsets topic.

Pairs are split on the first "=". A tombstone writes a null value, which
is a legal stored value, not a deletion. All appends of one invocation
are independent: if one fails the others may still have been written.

Examples:
  offsetstore set conn-0/sink='{"pos":42}'
  offsetstore set a=1 b=2
  offsetstore set --tombstone conn-0/sink
  offsetstore set --null-key-value bootstrap`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && len(setTombstones) == 0 && !cmd.Flags().Changed("null-key-value") {
			return fmt.Errorf("requires at least one pair, --tombstone or --null-key-value")
		}
		return nil
	},
	RunE: runSet,
}

func init() {
	setCmd.Flags().StringSliceVar(&setTombstones, "tombstone", nil,
		"Key to write with a null value (repeatable)")
	setCmd.Flags().StringVar(&setNullKeyValue, "null-key-value", "",
		"Value to write under the null key")
}

func runSet(cmd *cobra.Command, args []string) error {
	pairs := make(map[store.Key][]byte, len(args)+len(setTombstones)+1)
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return fmt.Errorf("invalid pair %q: expected key=value", arg)
		}
		pairs[store.KeyOf([]byte(key))] = []byte(value)
	}
	for _, key := range setTombstones {
		pairs[store.KeyOf([]byte(key))] = nil
	}
	if cmd.Flags().Changed("null-key-value") {
		pairs[store.NullKey] = []byte(setNullKeyValue)
	}

	ctx, cancel := getContext()
	defer cancel()

	st, stop, err := openStore(ctx, store.Options{})
	if err != nil {
		return err
	}
	defer stop()

	ticket, err := st.Set(pairs, nil)
	if err != nil {
		return err
	}
	if err := ticket.Wait(ctx); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	fmt.Printf("Wrote %d pair(s) to %s\n", len(pairs), cfg.Topic)
	return nil
}
