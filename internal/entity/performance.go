package entity

import (
	"strings"
	"time"
)

// PerformanceRecord is one attempt of a student at a question on a concept. Records are append-only.
type PerformanceRecord struct {
	ID                 string           `json:"id"`
	StudentID          string           `json:"student_id"`
	ConceptID          string           `json:"concept_id"`
	QuestionDifficulty DifficultyVector `json:"question_difficulty"`
	IsCorrect          bool             `json:"is_correct"`
	TimeTakenSeconds   float64          `json:"time_taken_seconds"`
	Timestamp          time.Time        `json:"timestamp"`
}

// Normalize fills the timestamp when the caller left it empty.
func (r *PerformanceRecord) Normalize(now time.Time) {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.ConceptID = strings.TrimSpace(r.ConceptID)
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
}

func (r *PerformanceRecord) Validate() error {
	var problems []string
	if r.StudentID == "" {
		problems = append(problems, "student_id must not be empty")
	}
	if r.ConceptID == "" {
		problems = append(problems, "concept_id must not be empty")
	}
	if r.TimeTakenSeconds <= 0 {
		problems = append(problems, "time_taken_seconds must be positive")
	}
	for _, p := range r.QuestionDifficulty.Violations() {
		problems = append(problems, "question_difficulty."+p)
	}
	if len(problems) > 0 {
		return &ValidationError{Field: "performance_record", Problems: problems}
	}
	return nil
}

// MasteryRecord is derived from performance history on demand and never stored.
type MasteryRecord struct {
	StudentID    string    `json:"student_id"`
	ConceptID    string    `json:"concept_id"`
	MasteryLevel float64   `json:"mastery_level"`
	IsMastered   bool      `json:"is_mastered"`
	LastUpdated  time.Time `json:"last_updated"`
}
