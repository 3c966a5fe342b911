package sqlgraph

import (
	"context"
	"fmt"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

var _ repository.PerformanceRepository = (*Store)(nil)

const performanceColumns = "id, student_id, concept_id, bloom_level, abstraction_level, computational_complexity, " +
	"concept_integration, real_world_context, problem_solving_approach, is_correct, time_taken_seconds, recorded_at"

func (s *Store) Append(ctx context.Context, record *entity.PerformanceRecord) error {
	dna := record.QuestionDifficulty
	_, err := s.db.ExecContext(ctx, s.rebind("INSERT INTO performance_records ("+performanceColumns+
		") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		record.ID, record.StudentID, record.ConceptID,
		dna.BloomLevel, dna.AbstractionLevel, dna.ComputationalComplexity, string(dna.ConceptIntegration),
		dna.RealWorldContext, string(dna.ProblemSolvingApproach),
		record.IsCorrect, record.TimeTakenSeconds, formatTime(record.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append performance record: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, studentID, conceptID string, limit int) ([]entity.PerformanceRecord, error) {
	query := "SELECT " + performanceColumns + " FROM performance_records WHERE student_id = ? AND concept_id = ?" +
		" ORDER BY recorded_at DESC, seq DESC"
	args := []any{studentID, conceptID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query performance records: %w", err)
	}
	defer rows.Close()

	var out []entity.PerformanceRecord
	for rows.Next() {
		var (
			rec                   entity.PerformanceRecord
			integration, approach string
			recordedAt            string
		)
		dna := &rec.QuestionDifficulty
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.ConceptID,
			&dna.BloomLevel, &dna.AbstractionLevel, &dna.ComputationalComplexity, &integration,
			&dna.RealWorldContext, &approach, &rec.IsCorrect, &rec.TimeTakenSeconds, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan performance record: %w", err)
		}
		dna.ConceptIntegration = entity.ConceptIntegration(integration)
		dna.ProblemSolvingApproach = entity.ProblemApproach(approach)
		if rec.Timestamp, err = parseTime(recordedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate performance records: %w", err)
	}
	return out, nil
}

func (s *Store) AttemptedConcepts(ctx context.Context, studentID string) ([]string, error) {
	return s.queryIDs(ctx, "SELECT concept_id FROM performance_records WHERE student_id = ?"+
		" GROUP BY concept_id ORDER BY MIN(seq)", studentID)
}
