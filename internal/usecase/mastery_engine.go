package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

const (
	DefaultMasteryThreshold = 0.8

	masteryWindow        = 10
	masteryMinRecords    = 3
	consistencyWindow    = 5
	consistencyThreshold = 0.8
	consistencyBonus     = 0.1
	difficultyBonusScale = 0.1
	difficultyBonusCap   = 0.1

	adjustmentWindow  = 5
	adjustmentRaise   = 0.5
	adjustmentLower   = -0.5
	highAccuracyLimit = 0.8
	lowAccuracyLimit  = 0.4
)

// recencyWeights apply to the newest record first. They are not renormalized when fewer
// than ten records exist.
var recencyWeights = [masteryWindow]float64{0.15, 0.15, 0.15, 0.15, 0.10, 0.10, 0.10, 0.05, 0.03, 0.02}

// MasteryEngine derives mastery from the performance history.
type MasteryEngine interface {
	RecordPerformance(ctx context.Context, record *entity.PerformanceRecord) (*entity.PerformanceRecord, error)
	CalculateMastery(ctx context.Context, studentID, conceptID string) (float64, error)
	IsMastered(ctx context.Context, studentID, conceptID string) (bool, error)
	// RecommendAdjustment returns -0.5, 0 or +0.5 from the latest attempts.
	RecommendAdjustment(ctx context.Context, studentID, conceptID string) (float64, error)
	History(ctx context.Context, studentID string) ([]entity.MasteryRecord, error)
	// MasteredSet returns the ids of every attempted concept the student has mastered.
	MasteredSet(ctx context.Context, studentID string) (map[string]bool, error)
}

// MasteryOption tunes the engine.
type MasteryOption func(*masteryEngine)

// WithMasteryThreshold overrides the mastery threshold (default 0.8).
func WithMasteryThreshold(threshold float64) MasteryOption {
	return func(e *masteryEngine) {
		if threshold > 0 && threshold <= 1 {
			e.threshold = threshold
		}
	}
}

// WithMasteryCache caches computed mastery values.
func WithMasteryCache(cache repository.Cache, ttl time.Duration) MasteryOption {
	return func(e *masteryEngine) {
		e.cache = newDerivedCache(cache, ttl, e.log)
	}
}

func NewMasteryEngine(repo repository.PerformanceRepository, log logrus.FieldLogger, opts ...MasteryOption) MasteryEngine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &masteryEngine{
		repo:      repo,
		log:       log.WithField("component", "mastery_engine"),
		threshold: DefaultMasteryThreshold,
		clock:     time.Now,
		newID:     func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type masteryEngine struct {
	repo      repository.PerformanceRepository
	cache     *derivedCache
	log       logrus.FieldLogger
	threshold float64
	clock     func() time.Time
	newID     func() string
}

// masteryVersionKey counts the records appended for one student and concept. Cached scores
// are keyed by it, so a record retires every score computed before it.
func masteryVersionKey(studentID, conceptID string) string {
	return fmt.Sprintf("mastery-version:%s:%s", studentID, conceptID)
}

func masteryKey(studentID, conceptID string, version int64) string {
	return fmt.Sprintf("mastery:%s:%s:%d", studentID, conceptID, version)
}

func (e *masteryEngine) RecordPerformance(ctx context.Context, record *entity.PerformanceRecord) (*entity.PerformanceRecord, error) {
	if record == nil {
		return nil, &entity.ValidationError{Field: "performance_record", Problems: []string{"record is required"}}
	}
	rec := *record
	rec.Normalize(e.clock().UTC())
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = e.newID()
	}

	if err := e.repo.Append(ctx, &rec); err != nil {
		return nil, entity.WrapStore("append performance", err)
	}
	e.cache.bump(ctx, masteryVersionKey(rec.StudentID, rec.ConceptID))

	e.log.WithFields(logrus.Fields{
		"student_id": rec.StudentID,
		"concept_id": rec.ConceptID,
		"is_correct": rec.IsCorrect,
	}).Info("performance recorded")
	return &rec, nil
}

func (e *masteryEngine) CalculateMastery(ctx context.Context, studentID, conceptID string) (float64, error) {
	fill := func(ctx context.Context) (float64, error) {
		records, err := e.repo.Recent(ctx, studentID, conceptID, masteryWindow)
		if err != nil {
			return 0, entity.WrapStore("recent performance", err)
		}
		score := masteryScore(records)
		e.log.WithFields(logrus.Fields{
			"student_id": studentID,
			"concept_id": conceptID,
			"records":    len(records),
			"mastery":    score,
		}).Debug("mastery computed")
		return score, nil
	}
	version := e.cache.version(ctx, masteryVersionKey(studentID, conceptID))
	if version < 0 {
		return fill(ctx)
	}
	return load(ctx, e.cache, masteryKey(studentID, conceptID, version), fill)
}

// masteryScore expects records newest first.
func masteryScore(records []entity.PerformanceRecord) float64 {
	if len(records) < masteryMinRecords {
		return 0
	}
	if len(records) > masteryWindow {
		records = records[:masteryWindow]
	}

	var accuracy float64
	for i, r := range records {
		if r.IsCorrect {
			accuracy += recencyWeights[i]
		}
	}

	var bonus float64
	if correctRatio(records[:min(consistencyWindow, len(records))]) >= consistencyThreshold {
		bonus = consistencyBonus
	}

	var bloom, abstraction float64
	for _, r := range records {
		bloom += float64(r.QuestionDifficulty.BloomLevel)
		abstraction += float64(r.QuestionDifficulty.AbstractionLevel)
	}
	n := float64(len(records))
	avgDifficulty := (bloom/n/float64(entity.MaxBloomLevel) + abstraction/n/float64(entity.MaxAbstractionLevel)) / 2
	difficultyBonus := min(difficultyBonusCap, avgDifficulty*difficultyBonusScale)

	return min(1.0, accuracy+bonus+difficultyBonus)
}

func correctRatio(records []entity.PerformanceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var correct int
	for _, r := range records {
		if r.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(records))
}

func (e *masteryEngine) IsMastered(ctx context.Context, studentID, conceptID string) (bool, error) {
	score, err := e.CalculateMastery(ctx, studentID, conceptID)
	if err != nil {
		return false, err
	}
	return score >= e.threshold, nil
}

func (e *masteryEngine) RecommendAdjustment(ctx context.Context, studentID, conceptID string) (float64, error) {
	records, err := e.repo.Recent(ctx, studentID, conceptID, adjustmentWindow)
	if err != nil {
		return 0, entity.WrapStore("recent performance", err)
	}
	if len(records) < masteryMinRecords {
		return 0, nil
	}
	accuracy := correctRatio(records)
	switch {
	case accuracy >= highAccuracyLimit:
		return adjustmentRaise, nil
	case accuracy <= lowAccuracyLimit:
		return adjustmentLower, nil
	default:
		return 0, nil
	}
}

func (e *masteryEngine) History(ctx context.Context, studentID string) ([]entity.MasteryRecord, error) {
	conceptIDs, err := e.repo.AttemptedConcepts(ctx, studentID)
	if err != nil {
		return nil, entity.WrapStore("attempted concepts", err)
	}

	history := make([]entity.MasteryRecord, 0, len(conceptIDs))
	for _, conceptID := range conceptIDs {
		score, err := e.CalculateMastery(ctx, studentID, conceptID)
		if err != nil {
			return nil, err
		}
		history = append(history, entity.MasteryRecord{
			StudentID:    studentID,
			ConceptID:    conceptID,
			MasteryLevel: score,
			IsMastered:   score >= e.threshold,
			LastUpdated:  e.clock().UTC(),
		})
	}
	e.log.WithFields(logrus.Fields{"student_id": studentID, "concepts": len(history)}).Info("mastery history loaded")
	return history, nil
}

func (e *masteryEngine) MasteredSet(ctx context.Context, studentID string) (map[string]bool, error) {
	history, err := e.History(ctx, studentID)
	if err != nil {
		return nil, err
	}
	mastered := make(map[string]bool, len(history))
	for _, rec := range history {
		if rec.IsMastered {
			mastered[rec.ConceptID] = true
		}
	}
	return mastered, nil
}
