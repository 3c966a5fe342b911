package usecase

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eslsoft/conceptgraph/internal/adapter/cache"
	"github.com/eslsoft/conceptgraph/internal/adapter/repository/memory"
	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

type masteryFixture struct {
	engine *masteryEngine
	clock  *stepClock
}

func newMasteryFixture(opts ...MasteryOption) masteryFixture {
	clock := newStepClock()
	engine := NewMasteryEngine(memory.NewPerformanceStore(), quietLogger(), opts...).(*masteryEngine)
	engine.clock = clock.Now
	return masteryFixture{engine: engine, clock: clock}
}

// record appends attempts oldest first, so the last outcome is the newest.
func (f masteryFixture) record(t *testing.T, student, concept string, v entity.DifficultyVector, outcomes ...bool) {
	t.Helper()
	for _, ok := range outcomes {
		_, err := f.engine.RecordPerformance(context.Background(), &entity.PerformanceRecord{
			StudentID:          student,
			ConceptID:          concept,
			QuestionDifficulty: v,
			IsCorrect:          ok,
			TimeTakenSeconds:   30,
		})
		if err != nil {
			t.Fatalf("RecordPerformance: %v", err)
		}
	}
}

func repeat(ok bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = ok
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCalculateMastery_FloorWithTwoRecords(t *testing.T) {
	f := newMasteryFixture()
	f.record(t, "s", "c", dna(6, 5, 10, entity.IntegrationSingle, 3, entity.ApproachDirect), true, true)
	score, err := f.engine.CalculateMastery(context.Background(), "s", "c")
	if err != nil {
		t.Fatalf("CalculateMastery: %v", err)
	}
	if score != 0 {
		t.Fatalf("mastery with two records = %v, want 0", score)
	}
}

func TestCalculateMastery_CeilingWithTenCorrect(t *testing.T) {
	f := newMasteryFixture()
	f.record(t, "s", "c", dna(6, 5, 10, entity.IntegrationSingle, 3, entity.ApproachDirect), repeat(true, 12)...)
	score, err := f.engine.CalculateMastery(context.Background(), "s", "c")
	if err != nil {
		t.Fatalf("CalculateMastery: %v", err)
	}
	if score > 1 || score <= 0.9 {
		t.Fatalf("mastery = %v, want in (0.9, 1]", score)
	}
	mastered, _ := f.engine.IsMastered(context.Background(), "s", "c")
	if !mastered {
		t.Fatalf("expected concept to be mastered")
	}
}

func TestCalculateMastery_WeightsAndBonuses(t *testing.T) {
	v := dna(3, 2, 4, entity.IntegrationSingle, 3, entity.ApproachDirect)
	cases := []struct {
		name     string
		outcomes []bool
		want     float64
	}{
		// weights are not renormalized below ten records
		{"three correct", repeat(true, 3), 0.45 + 0.1 + 0.045},
		{"newest wrong", []bool{true, true, true, true, false}, 0.55 + 0.1 + 0.045},
		{"two of five recent", []bool{true, true, false, false, false}, 0.25 + 0.045},
		{"old misses fall out of the window", append(repeat(false, 5), repeat(true, 10)...), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newMasteryFixture()
			f.record(t, "s", "c", v, tc.outcomes...)
			got, err := f.engine.CalculateMastery(context.Background(), "s", "c")
			if err != nil {
				t.Fatalf("CalculateMastery: %v", err)
			}
			if !approx(got, tc.want) {
				t.Fatalf("mastery = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRecommendAdjustment(t *testing.T) {
	v := easyDNA()
	cases := []struct {
		name     string
		outcomes []bool
		want     float64
	}{
		{"insufficient data", []bool{true, true}, 0},
		{"high accuracy", repeat(true, 5), 0.5},
		{"low accuracy", []bool{true, false, false}, -0.5},
		{"moderate accuracy", []bool{true, true, true, false, false}, 0},
		{"only the last five count", append(repeat(false, 6), repeat(true, 5)...), 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newMasteryFixture()
			f.record(t, "s", "c", v, tc.outcomes...)
			got, err := f.engine.RecommendAdjustment(context.Background(), "s", "c")
			if err != nil {
				t.Fatalf("RecommendAdjustment: %v", err)
			}
			if got != tc.want {
				t.Fatalf("adjustment = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRecordPerformance_InvalidatesCachedMastery(t *testing.T) {
	ctx := context.Background()
	f := newMasteryFixture(WithMasteryCache(cache.NewMemory(), time.Hour))
	v := easyDNA()
	f.record(t, "s", "c", v, false, false, false)

	before, err := f.engine.CalculateMastery(ctx, "s", "c")
	if err != nil {
		t.Fatalf("CalculateMastery: %v", err)
	}
	f.record(t, "s", "c", v, true)
	after, err := f.engine.CalculateMastery(ctx, "s", "c")
	if err != nil {
		t.Fatalf("CalculateMastery: %v", err)
	}
	if after <= before {
		t.Fatalf("stale mastery served: before %v after %v", before, after)
	}
}

// pausingPerformanceStore holds the first armed Recent call after it has read the records,
// until release is closed.
type pausingPerformanceStore struct {
	repository.PerformanceRepository
	armed   atomic.Bool
	paused  chan struct{}
	release chan struct{}
}

func (s *pausingPerformanceStore) Recent(ctx context.Context, studentID, conceptID string, limit int) ([]entity.PerformanceRecord, error) {
	records, err := s.PerformanceRepository.Recent(ctx, studentID, conceptID, limit)
	if s.armed.CompareAndSwap(true, false) {
		close(s.paused)
		<-s.release
	}
	return records, err
}

func TestRecordPerformance_RetiresScoresComputedConcurrently(t *testing.T) {
	ctx := context.Background()
	store := &pausingPerformanceStore{
		PerformanceRepository: memory.NewPerformanceStore(),
		paused:                make(chan struct{}),
		release:               make(chan struct{}),
	}
	clock := newStepClock()
	engine := NewMasteryEngine(store, quietLogger(), WithMasteryCache(cache.NewMemory(), time.Hour)).(*masteryEngine)
	engine.clock = clock.Now
	f := masteryFixture{engine: engine, clock: clock}
	v := easyDNA()
	f.record(t, "s", "c", v, false, false)

	store.armed.Store(true)
	type result struct {
		score float64
		err   error
	}
	inflight := make(chan result, 1)
	go func() {
		score, err := engine.CalculateMastery(ctx, "s", "c")
		inflight <- result{score, err}
	}()
	<-store.paused

	f.record(t, "s", "c", v, true, true, true)
	close(store.release)
	old := <-inflight
	if old.err != nil || old.score != 0 {
		t.Fatalf("in-flight score = %v (%v), want 0 from two records", old.score, old.err)
	}

	fresh, err := engine.CalculateMastery(ctx, "s", "c")
	if err != nil {
		t.Fatalf("CalculateMastery: %v", err)
	}
	if fresh <= 0 {
		t.Fatalf("score computed before the new records is still served: %v", fresh)
	}
}

func TestRecordPerformance_Validation(t *testing.T) {
	f := newMasteryFixture()
	_, err := f.engine.RecordPerformance(context.Background(), &entity.PerformanceRecord{
		StudentID:          " ",
		ConceptID:          "c",
		QuestionDifficulty: dna(7, 1, 1, entity.IntegrationSingle, 1, entity.ApproachDirect),
	})
	var verr *entity.ValidationError
	if !errors.As(err, &verr) || len(verr.Problems) != 3 {
		t.Fatalf("expected 3 validation problems, got %v", err)
	}

	rec, err := f.engine.RecordPerformance(context.Background(), &entity.PerformanceRecord{
		StudentID: "s", ConceptID: "c", QuestionDifficulty: easyDNA(), TimeTakenSeconds: 12,
	})
	if err != nil {
		t.Fatalf("RecordPerformance: %v", err)
	}
	if rec.ID == "" || rec.Timestamp.IsZero() {
		t.Fatalf("record not stamped: %+v", rec)
	}
}

func TestHistoryAndMasteredSet(t *testing.T) {
	ctx := context.Background()
	f := newMasteryFixture(WithMasteryThreshold(0.5))
	v := dna(3, 2, 4, entity.IntegrationSingle, 3, entity.ApproachDirect)
	f.record(t, "s", "algebra", v, true, true, true)
	f.record(t, "s", "geometry", v, false, false, false)
	f.record(t, "other", "calculus", v, true, true, true)

	history, err := f.engine.History(ctx, "s")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(history))
	}
	byConcept := map[string]entity.MasteryRecord{}
	for _, rec := range history {
		byConcept[rec.ConceptID] = rec
	}
	if !byConcept["algebra"].IsMastered || byConcept["geometry"].IsMastered {
		t.Fatalf("unexpected mastery flags: %+v", history)
	}

	set, err := f.engine.MasteredSet(ctx, "s")
	if err != nil {
		t.Fatalf("MasteredSet: %v", err)
	}
	if len(set) != 1 || !set["algebra"] {
		t.Fatalf("mastered set = %v, want {algebra}", set)
	}
}
