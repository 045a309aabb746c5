// Package training appends rupture-repair exchanges to an on-disk corpus
// for later offline learning. Records are JSON lines partitioned by day and
// rupture category; excellent-tier records are additionally mirrored into a
// curated candidate log for dataset review. Records are never mutated after
// write.
package training

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"attune/internal/logging"
	"attune/internal/repair"
	"attune/internal/rupture"
)

// Exchange is one rupture-repair attempt, accepted or rejected.
type Exchange struct {
	Timestamp        time.Time        `json:"timestamp"`
	RuptureCategory  rupture.Category `json:"rupture_category"`
	UserSignal       string           `json:"user_signal"`
	OriginalResponse string           `json:"original_response"`
	BaselineRepair   string           `json:"baseline_repair"`
	FinalRepair      string           `json:"final_repair"`
	Issues           []string         `json:"issues,omitempty"`
	Confidence       float64          `json:"confidence"`
	QualityTier      repair.Tier      `json:"quality_tier"`
}

// Logger is the append-only training corpus sink. Appends are atomic per
// record: a single mutex serializes writers so concurrent records never
// interleave.
type Logger struct {
	mu  sync.Mutex
	dir string
	log *zap.Logger
}

// NewLogger creates a logger rooted at dir. The directory tree is created
// lazily on first append.
func NewLogger(dir string) *Logger {
	return &Logger{
		dir: dir,
		log: logging.Get(logging.CategoryTraining),
	}
}

// Append writes one exchange. The partition path is
// <dir>/<YYYY-MM-DD>/<category>.jsonl; excellent exchanges also land in
// <dir>/curated/candidates.jsonl.
func (l *Logger) Append(ex Exchange) error {
	if ex.Timestamp.IsZero() {
		ex.Timestamp = time.Now()
	}
	if ex.QualityTier == "" {
		ex.QualityTier = repair.TierBasic
	}

	line, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("failed to encode training exchange: %w", err)
	}
	line = append(line, '\n')

	day := ex.Timestamp.UTC().Format("2006-01-02")
	path := filepath.Join(l.dir, day, string(ex.RuptureCategory)+".jsonl")

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := appendLine(path, line); err != nil {
		return err
	}

	if ex.QualityTier == repair.TierExcellent {
		curated := filepath.Join(l.dir, "curated", "candidates.jsonl")
		if err := appendLine(curated, line); err != nil {
			// The primary record is durable; a curation-mirror failure is
			// logged, not fatal.
			l.log.Warn("curated mirror append failed", zap.Error(err))
		}
	}
	return nil
}

func appendLine(path string, line []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create training partition: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open training log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append training record: %w", err)
	}
	return nil
}

// ReadPartition loads every exchange from one day/category partition.
// Used by curation tooling and tests.
func (l *Logger) ReadPartition(day string, category rupture.Category) ([]Exchange, error) {
	path := filepath.Join(l.dir, day, string(category)+".jsonl")
	return readExchanges(path)
}

// ReadCurated loads the excellent-tier candidate log.
func (l *Logger) ReadCurated() ([]Exchange, error) {
	return readExchanges(filepath.Join(l.dir, "curated", "candidates.jsonl"))
}

func readExchanges(path string) ([]Exchange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read training log %s: %w", path, err)
	}

	var out []Exchange
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var ex Exchange
		if err := dec.Decode(&ex); err != nil {
			return nil, fmt.Errorf("corrupt training record in %s: %w", path, err)
		}
		out = append(out, ex)
	}
	return out, nil
}
