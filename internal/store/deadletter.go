package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// DeadLetter is one quarantined failure, consumable by an external retry
// tool. Append-only; a file appears at most once per run.
type DeadLetter struct {
	File      string    `json:"file"`
	Stage     string    `json:"stage"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"ts"`
}

// DeadLetterLog appends failures to a JSONL file. Writes are serialized;
// in practice only the orchestrator goroutine calls Append.
type DeadLetterLog struct {
	mu sync.Mutex
	f  *os.File
}

// OpenDeadLetterLog opens path for appending, creating it if absent.
func OpenDeadLetterLog(path string) (*DeadLetterLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dead-letter log: %w", err)
	}
	return &DeadLetterLog{f: f}, nil
}

// Append writes one entry and flushes it to disk.
func (l *DeadLetterLog) Append(d DeadLetter) error {
	line, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dead letter: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append dead letter: %w", err)
	}
	return l.f.Sync()
}

// Close closes the underlying file.
func (l *DeadLetterLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// ReadDeadLetters loads every entry from a JSONL dead-letter file.
// Unparseable lines are skipped.
func ReadDeadLetters(path string) ([]DeadLetter, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open dead-letter log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []DeadLetter
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var d DeadLetter
		if err := json.Unmarshal(sc.Bytes(), &d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, sc.Err()
}
