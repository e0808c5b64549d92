package config

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

type Config struct {
	// Target section
	TargetItem string // e.g. "1A"
	FormType   string // e.g. "10-K"

	// Output
	OutputDir string

	// Durable state: manifest db, checkpoints, dead-letter log
	StateDir       string
	DeadLetterFile string

	// Segmentation
	MinSegmentWords int
	MaxSegmentWords int
	SimilarityDrop  float64

	// Worker pool
	WorkerCount        int
	WorkerRecycleAfter int

	// Admission control
	MemoryCeilingBytes int64

	// Adaptive timeouts
	TimeoutBase   time.Duration
	TimeoutPerMiB time.Duration
	TimeoutMax    time.Duration

	CheckpointInterval time.Duration

	// Status API (disabled when empty)
	StatusAddr string
}

func Load() Config {
	cfg := Config{
		TargetItem: envOr("RISKSEG_TARGET_ITEM", "1A"),
		FormType:   envOr("RISKSEG_FORM_TYPE", "10-K"),

		OutputDir: envOr("RISKSEG_OUTPUT_DIR", "out"),

		StateDir:       envOr("RISKSEG_STATE_DIR", ".riskseg"),
		DeadLetterFile: os.Getenv("RISKSEG_DEADLETTER_FILE"),

		MinSegmentWords: envInt("RISKSEG_MIN_SEGMENT_WORDS", 50),
		MaxSegmentWords: envInt("RISKSEG_MAX_SEGMENT_WORDS", 380),
		SimilarityDrop:  envFloat("RISKSEG_SIMILARITY_DROP", 0.35),

		WorkerCount:        envInt("RISKSEG_WORKER_COUNT", runtime.NumCPU()),
		WorkerRecycleAfter: envInt("RISKSEG_WORKER_RECYCLE_AFTER", 25),

		MemoryCeilingBytes: envInt64("RISKSEG_MEMORY_CEILING_BYTES", 2<<30),

		TimeoutBase:   envDuration("RISKSEG_TIMEOUT_BASE", 30*time.Second),
		TimeoutPerMiB: envDuration("RISKSEG_TIMEOUT_PER_MIB", 5*time.Second),
		TimeoutMax:    envDuration("RISKSEG_TIMEOUT_MAX", 10*time.Minute),

		CheckpointInterval: envDuration("RISKSEG_CHECKPOINT_INTERVAL", 30*time.Second),

		StatusAddr: os.Getenv("RISKSEG_STATUS_ADDR"),
	}

	if cfg.MinSegmentWords <= 0 {
		cfg.MinSegmentWords = 50
	}
	if cfg.MaxSegmentWords <= cfg.MinSegmentWords {
		cfg.MaxSegmentWords = cfg.MinSegmentWords * 4
	}
	if cfg.SimilarityDrop <= 0 || cfg.SimilarityDrop >= 1 {
		cfg.SimilarityDrop = 0.35
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}
	if cfg.WorkerRecycleAfter <= 0 {
		cfg.WorkerRecycleAfter = 25
	}
	if cfg.MemoryCeilingBytes <= 0 {
		cfg.MemoryCeilingBytes = 2 << 30
	}
	if cfg.TimeoutBase <= 0 {
		cfg.TimeoutBase = 30 * time.Second
	}
	if cfg.TimeoutMax < cfg.TimeoutBase {
		cfg.TimeoutMax = 10 * time.Minute
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 30 * time.Second
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
