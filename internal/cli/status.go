package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/filinglab/riskseg/internal/config"
	"github.com/filinglab/riskseg/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status <run-id>",
	Short: "Inspect the checkpoint of an interrupted run",
	Long: `Show the per-file outcomes checkpointed by a run. The checkpoint only
exists while a run is in flight or after an interruption; clean completion
deletes it. Quarantined files are listed from the dead-letter log.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&flagStateDir, "state-dir", "", "Directory holding manifest and checkpoint state")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cmd.Flags().Changed("state-dir") {
		cfg.StateDir = flagStateDir
	}
	runID := args[0]

	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(cfg.StateDir, "state.db"), log)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer func() { _ = st.Close() }()

	entries, err := st.LoadCheckpoint(context.Background(), runID)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no checkpoint for run %s (completed cleanly or never ran)\n", runID)
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Run %s: %d checkpointed files", runID, len(entries))))
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Outcome]++
	}
	for outcome, n := range counts {
		fmt.Fprintf(w, "  %s %d\n", dimStyle.Render(outcome+":"), n)
	}

	dlPath := cfg.DeadLetterFile
	if dlPath == "" {
		dlPath = filepath.Join(cfg.StateDir, "deadletter.jsonl")
	}
	letters, err := store.ReadDeadLetters(dlPath)
	if err != nil {
		return fmt.Errorf("read dead-letter log: %w", err)
	}
	for _, l := range letters {
		fmt.Fprintf(w, "%s %s %s\n",
			errorStyle.Render(l.Stage), l.File, dimStyle.Render(l.Reason))
	}
	return nil
}
