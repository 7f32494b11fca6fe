// =============================================================================
// DUMP COMMAND - PRINT THE WHOLE KEY SPACE
// =============================================================================
//
// WHAT IS THIS?
// Command for dumping every key-value pair the offsets topic currently
// holds, after a read-to-end round. Useful for debugging a worker's
// persisted state and for migrations.
//
// USAGE:
//   offsetstore dump [flags]
//
// FLAGS:
//   -o, --output  Output format: plain, json
//
// =============================================================================

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"offsetstore/internal/store"
)

var dumpOutput string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the whole cached key space",
	Long: `Replay the offsets topic and print every key-value pair it holds.

Examples:
  offsetstore dump -b broker:9092
  offsetstore dump -o json > offsets.json`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "plain", "Output format: plain, json")
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx, cancel := getContext()
	defer cancel()

	st, stop, err := openStore(ctx, store.Options{})
	if err != nil {
		return err
	}
	defer stop()

	data, err := st.Dump(ctx)
	if err != nil {
		return err
	}

	if dumpOutput == "json" {
		return printEntriesJSON(data)
	}

	keys := make([]store.Key, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].IsNull() || keys[j].IsNull() {
			return keys[i].IsNull() && !keys[j].IsNull()
		}
		return string(keys[i].Bytes()) < string(keys[j].Bytes())
	})

	for _, k := range keys {
		fmt.Printf("%s\t%s\n", keyLabel(k), valueLabel(data[k]))
	}
	fmt.Printf("\n%d key(s) in %s\n", len(keys), cfg.Topic)
	return nil
}
