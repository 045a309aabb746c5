package training

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"attune/internal/repair"
	"attune/internal/rupture"
)

func sample(tier repair.Tier) Exchange {
	return Exchange{
		Timestamp:        time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		RuptureCategory:  rupture.CategoryExplicitAnger,
		UserSignal:       "you're not listening",
		OriginalResponse: "original",
		BaselineRepair:   "baseline",
		FinalRepair:      "final",
		Issues:           []string{"generic"},
		Confidence:       0.9,
		QualityTier:      tier,
	}
}

func TestAppend_PartitionedByDayAndCategory(t *testing.T) {
	t.Parallel()

	l := NewLogger(t.TempDir())
	if err := l.Append(sample(repair.TierGood)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	got, err := l.ReadPartition("2026-08-31", rupture.CategoryExplicitAnger)
	if err != nil {
		t.Fatalf("ReadPartition error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].FinalRepair != "final" || got[0].UserSignal != "you're not listening" {
		t.Errorf("record round-trip mismatch: %+v", got[0])
	}
}

func TestAppend_ExcellentMirroredToCurated(t *testing.T) {
	t.Parallel()

	l := NewLogger(t.TempDir())
	if err := l.Append(sample(repair.TierExcellent)); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := l.Append(sample(repair.TierBasic)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	curated, err := l.ReadCurated()
	if err != nil {
		t.Fatalf("ReadCurated error: %v", err)
	}
	if len(curated) != 1 {
		t.Fatalf("curated log should carry only excellent records, got %d", len(curated))
	}
	if curated[0].QualityTier != repair.TierExcellent {
		t.Errorf("tier mismatch: %s", curated[0].QualityTier)
	}

	primary, err := l.ReadPartition("2026-08-31", rupture.CategoryExplicitAnger)
	if err != nil {
		t.Fatalf("ReadPartition error: %v", err)
	}
	if len(primary) != 2 {
		t.Errorf("primary partition should carry every record, got %d", len(primary))
	}
}

func TestAppend_ConcurrentRecordsDoNotInterleave(t *testing.T) {
	t.Parallel()

	l := NewLogger(t.TempDir())

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ex := sample(repair.TierGood)
			ex.UserSignal = fmt.Sprintf("signal-%d", i)
			if err := l.Append(ex); err != nil {
				t.Errorf("Append error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := l.ReadPartition("2026-08-31", rupture.CategoryExplicitAnger)
	if err != nil {
		t.Fatalf("ReadPartition error: %v", err)
	}
	if len(got) != writers {
		t.Fatalf("expected %d intact records, got %d", writers, len(got))
	}
	seen := make(map[string]bool)
	for _, ex := range got {
		seen[ex.UserSignal] = true
	}
	if len(seen) != writers {
		t.Errorf("records were lost or corrupted: %d unique signals", len(seen))
	}
}

func TestAppend_DefaultsApplied(t *testing.T) {
	t.Parallel()

	l := NewLogger(t.TempDir())
	ex := sample("")
	ex.Timestamp = time.Time{}
	if err := l.Append(ex); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	day := time.Now().UTC().Format("2006-01-02")
	got, err := l.ReadPartition(day, rupture.CategoryExplicitAnger)
	if err != nil {
		t.Fatalf("ReadPartition error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].QualityTier != repair.TierBasic {
		t.Errorf("missing tier should default to basic, got %s", got[0].QualityTier)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("missing timestamp should be filled at append time")
	}
}

func TestReadPartition_MissingIsEmpty(t *testing.T) {
	t.Parallel()

	l := NewLogger(t.TempDir())
	got, err := l.ReadPartition("1999-01-01", rupture.CategoryWithdrawal)
	if err != nil {
		t.Fatalf("missing partition must not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
