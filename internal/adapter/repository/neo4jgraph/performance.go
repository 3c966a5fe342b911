package neo4jgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

var _ repository.PerformanceRepository = (*Store)(nil)

const performanceSequence = "performance_record"

func (s *Store) Append(ctx context.Context, record *entity.PerformanceRecord) error {
	dna := record.QuestionDifficulty
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		seq, err := nextSeq(ctx, tx, performanceSequence, 1)
		if err != nil {
			return nil, err
		}
		result, err := tx.Run(ctx, "CREATE (p:PerformanceRecord $props)", map[string]any{"props": map[string]any{
			"id":                       record.ID,
			"seq":                      seq,
			"student_id":               record.StudentID,
			"concept_id":               record.ConceptID,
			"bloom_level":              dna.BloomLevel,
			"abstraction_level":        dna.AbstractionLevel,
			"computational_complexity": dna.ComputationalComplexity,
			"concept_integration":      string(dna.ConceptIntegration),
			"real_world_context":       dna.RealWorldContext,
			"problem_solving_approach": string(dna.ProblemSolvingApproach),
			"is_correct":               record.IsCorrect,
			"time_taken_seconds":       record.TimeTakenSeconds,
			"recorded_at":              formatTime(record.Timestamp),
		}})
		if err != nil {
			return nil, err
		}
		_, err = result.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("append performance record: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, studentID, conceptID string, limit int) ([]entity.PerformanceRecord, error) {
	query := "MATCH (p:PerformanceRecord {student_id: $student_id, concept_id: $concept_id})" +
		" RETURN p ORDER BY p.recorded_at DESC, p.seq DESC"
	params := map[string]any{"student_id": studentID, "concept_id": conceptID}
	if limit > 0 {
		query += " LIMIT $limit"
		params["limit"] = limit
	}
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var out []entity.PerformanceRecord
		for result.Next(ctx) {
			v, _ := result.Record().Get("p")
			node, ok := v.(neo4j.Node)
			if !ok {
				return nil, fmt.Errorf("unexpected performance record value %T", v)
			}
			rec, err := nodeRecord(node.Props)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query performance records: %w", err)
	}
	return res.([]entity.PerformanceRecord), nil
}

func nodeRecord(props map[string]any) (entity.PerformanceRecord, error) {
	rec := entity.PerformanceRecord{
		ID:        asString(props["id"]),
		StudentID: asString(props["student_id"]),
		ConceptID: asString(props["concept_id"]),
		QuestionDifficulty: entity.DifficultyVector{
			BloomLevel:              int(asInt64(props["bloom_level"])),
			AbstractionLevel:        int(asInt64(props["abstraction_level"])),
			ComputationalComplexity: int(asInt64(props["computational_complexity"])),
			ConceptIntegration:      entity.ConceptIntegration(asString(props["concept_integration"])),
			RealWorldContext:        int(asInt64(props["real_world_context"])),
			ProblemSolvingApproach:  entity.ProblemApproach(asString(props["problem_solving_approach"])),
		},
		TimeTakenSeconds: asFloat(props["time_taken_seconds"]),
	}
	rec.IsCorrect, _ = props["is_correct"].(bool)
	ts, err := parseTime(props["recorded_at"])
	if err != nil {
		return entity.PerformanceRecord{}, err
	}
	rec.Timestamp = ts
	return rec, nil
}

func (s *Store) AttemptedConcepts(ctx context.Context, studentID string) ([]string, error) {
	return s.readIDs(ctx, "MATCH (p:PerformanceRecord {student_id: $student_id})"+
		" WITH p.concept_id AS id, min(p.seq) AS first"+
		" RETURN id ORDER BY first",
		map[string]any{"student_id": studentID})
}
