// =============================================================================
// VERSION COMMAND - SHOW VERSION INFORMATION
// =============================================================================
//
// WHAT IS THIS?
// Command to display CLI version information.
//
// USAGE:
//   offsetstore version
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the CLI version, overridable at build time via
// -ldflags "-X offsetstore/cmd/offsetstore/cmd.Version=...".
var Version = "v0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Printf("offsetstore %s %s/%s %s\n", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	return nil
}
