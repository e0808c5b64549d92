package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/filinglab/riskseg/internal/api"
	"github.com/filinglab/riskseg/internal/batch"
	"github.com/filinglab/riskseg/internal/config"
	"github.com/filinglab/riskseg/internal/estimate"
	"github.com/filinglab/riskseg/internal/extract"
	"github.com/filinglab/riskseg/internal/output"
	"github.com/filinglab/riskseg/internal/segment"
	"github.com/filinglab/riskseg/internal/store"
)

var (
	flagOut        string
	flagStateDir   string
	flagItem       string
	flagFormType   string
	flagWorkers    int
	flagMinWords   int
	flagMaxWords   int
	flagStatusAddr string
)

var runCmd = &cobra.Command{
	Use:   "run [files or directories...]",
	Short: "Process a batch of submission files",
	Long: `Process the given submission files (directories are scanned one level
deep for .txt, .sgml, and .nc files). Configuration comes from RISKSEG_*
environment variables; flags override them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output directory for segment files")
	runCmd.Flags().StringVar(&flagStateDir, "state-dir", "", "Directory for manifest, checkpoint, and dead-letter state")
	runCmd.Flags().StringVar(&flagItem, "item", "", `Target item (default "1A")`)
	runCmd.Flags().StringVar(&flagFormType, "form-type", "", `Form type of the primary document (default "10-K")`)
	runCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "Worker count (default: number of CPUs)")
	runCmd.Flags().IntVar(&flagMinWords, "min-words", 0, "Minimum words per segment")
	runCmd.Flags().IntVar(&flagMaxWords, "max-words", 0, "Maximum words per segment")
	runCmd.Flags().StringVar(&flagStatusAddr, "status-addr", "", "Serve the status API on this address (e.g. :8080)")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyFlags(cmd, &cfg)

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no input files found")
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	st, err := store.Open(filepath.Join(cfg.StateDir, "state.db"), log)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer func() { _ = st.Close() }()

	dlPath := cfg.DeadLetterFile
	if dlPath == "" {
		dlPath = filepath.Join(cfg.StateDir, "deadletter.jsonl")
	}
	dlog, err := store.OpenDeadLetterLog(dlPath)
	if err != nil {
		return fmt.Errorf("open dead-letter log: %w", err)
	}
	defer func() { _ = dlog.Close() }()

	writer, err := output.NewWriter(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	orch := batch.New(batch.Config{
		Target:   extract.Target{Item: cfg.TargetItem},
		FormType: cfg.FormType,
		Segment: segment.Config{
			MinWords:       cfg.MinSegmentWords,
			MaxWords:       cfg.MaxSegmentWords,
			SimilarityDrop: cfg.SimilarityDrop,
		},
		Workers:       cfg.WorkerCount,
		RecycleAfter:  cfg.WorkerRecycleAfter,
		MemoryCeiling: cfg.MemoryCeilingBytes,
		Estimate: estimate.Params{
			TimeoutBase:   cfg.TimeoutBase,
			TimeoutPerMiB: cfg.TimeoutPerMiB,
			TimeoutMax:    cfg.TimeoutMax,
		},
		CheckpointInterval: cfg.CheckpointInterval,
	}, st, dlog, writer, log)

	if cfg.StatusAddr != "" {
		srv := &http.Server{
			Addr:        cfg.StatusAddr,
			Handler:     api.NewServer(orch.State(), dlPath, log),
			ReadTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("status API listening", "addr", cfg.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("status server error", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	sum, err := orch.Run(ctx, paths)
	if err != nil {
		return fmt.Errorf("run batch: %w", err)
	}

	formatSummary(cmd.OutOrStdout(), sum)
	if sum.Snapshot.Status != batch.StatusCompleted {
		return errRunFailed
	}
	return nil
}

// applyFlags overrides env-derived configuration with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = flagOut
	}
	if cmd.Flags().Changed("state-dir") {
		cfg.StateDir = flagStateDir
	}
	if cmd.Flags().Changed("item") {
		cfg.TargetItem = flagItem
	}
	if cmd.Flags().Changed("form-type") {
		cfg.FormType = flagFormType
	}
	if cmd.Flags().Changed("workers") {
		cfg.WorkerCount = flagWorkers
	}
	if cmd.Flags().Changed("min-words") {
		cfg.MinSegmentWords = flagMinWords
	}
	if cmd.Flags().Changed("max-words") {
		cfg.MaxSegmentWords = flagMaxWords
	}
	if cmd.Flags().Changed("status-addr") {
		cfg.StatusAddr = flagStatusAddr
	}
}

// collectInputs expands directory arguments one level deep. EDGAR full-text
// submissions ship as .txt; .sgml and .nc are older dissemination names for
// the same container format.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".txt", ".sgml", ".nc":
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}
