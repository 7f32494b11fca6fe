// =============================================================================
// GET COMMAND - READ VALUES FOR KEYS
// =============================================================================
//
// WHAT IS THIS?
// Command for reading the current values of one or more keys. The store
// reads the offsets topic to its end first, so the answer reflects every
// write committed by any worker before the call.
//
// USAGE:
//   offsetstore get <key> [key...] [flags]
//
// FLAGS:
//   --null-key    Also read the null key
//   -o, --output  Output format: plain, json
//
// EXAMPLES:
//   offsetstore get conn-0/sink -b broker:9092
//   offsetstore get conn-0/sink conn-1/sink -o json
//
// =============================================================================

package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"offsetstore/internal/store"
)

var (
	getNullKey bool
	getOutput  string
)

var getCmd = &cobra.Command{
	Use:   "get <key> [key...]",
	Short: "Read values for one or more keys",
	Long: `Read the current values of the given keys.

Keys are read as UTF-8 strings. A key with no stored value prints as
absent; that is not an error.

Examples:
  offsetstore get conn-0/sink
  offsetstore get conn-0/sink conn-1/sink -o json
  offsetstore get --null-key`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !getNullKey {
			return fmt.Errorf("requires at least one key (or --null-key)")
		}
		return nil
	},
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getNullKey, "null-key", false, "Also read the null key")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "plain", "Output format: plain, json")
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := getContext()
	defer cancel()

	st, stop, err := openStore(ctx, store.Options{})
	if err != nil {
		return err
	}
	defer stop()

	keys := make([]store.Key, 0, len(args)+1)
	for _, arg := range args {
		keys = append(keys, store.KeyOf([]byte(arg)))
	}
	if getNullKey {
		keys = append(keys, store.NullKey)
	}

	values, err := st.Get(ctx, keys)
	if err != nil {
		return err
	}

	if getOutput == "json" {
		return printEntriesJSON(values)
	}
	for _, k := range keys {
		fmt.Printf("%s\t%s\n", keyLabel(k), valueLabel(values[k]))
	}
	return nil
}

// keyLabel renders a key for plain output.
func keyLabel(k store.Key) string {
	if k.IsNull() {
		return "<null>"
	}
	return string(k.Bytes())
}

// valueLabel renders a value for plain output. Raw bytes that are not
// printable UTF-8 still round-trip through %q escaping.
func valueLabel(v []byte) string {
	if v == nil {
		return "(absent)"
	}
	return fmt.Sprintf("%q", v)
}

// printEntriesJSON emits entries with base64 keys and values, null for
// the null key and for absent values.
func printEntriesJSON(values map[store.Key][]byte) error {
	type entry struct {
		Key   *string `json:"key"`
		Value *string `json:"value"`
	}
	entries := make([]entry, 0, len(values))
	for k, v := range values {
		entries = append(entries, entry{Key: b64(k.Bytes()), Value: b64(v)})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func b64(b []byte) *string {
	if b == nil {
		return nil
	}
	s := base64.StdEncoding.EncodeToString(b)
	return &s
}
