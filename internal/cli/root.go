// Package cli wires the riskseg command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errRunFailed signals a run that did not complete cleanly. The summary has already
// been printed; Execute only translates it into the exit code.
var errRunFailed = errors.New("run did not complete")

var rootCmd = &cobra.Command{
	Use:   "riskseg",
	Short: "Extract and segment risk-factor disclosures from EDGAR filings",
	Long: `riskseg indexes SEC EDGAR full-text submission files, extracts the
risk-factor section from each filing's primary document, and splits it into
bounded, training-ready text segments.

Runs are resumable: completed files are tracked by content hash and skipped
on later invocations, and files that fail are quarantined in a dead-letter
log instead of stopping the batch.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = "0.1.0"
	rootCmd.SetVersionTemplate(fmt.Sprintf("riskseg %s\n", rootCmd.Version))
}

// Execute runs the root command. Exit codes: 0 on clean completion, 1 when
// some files failed, 2 on setup errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRunFailed) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
