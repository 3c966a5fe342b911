package repository

import (
	"context"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

// GraphStore abstracts persistence of the concept graph so the use cases stay storage agnostic.
// Edge-type arguments restrict traversals; an empty list means every type.
type GraphStore interface {
	PutConcept(ctx context.Context, concept *entity.Concept) error
	// GetConcept returns nil, nil when the id is absent.
	GetConcept(ctx context.Context, id string) (*entity.Concept, error)
	GetConcepts(ctx context.Context, ids []string) ([]entity.Concept, error)
	QueryConcepts(ctx context.Context, filter ConceptFilter) ([]entity.Concept, error)

	PutRelationship(ctx context.Context, rel *entity.Relationship) error
	// FindPath returns the concept ids of some path from -> ... -> to, or nil when none exists.
	FindPath(ctx context.Context, from, to string, types []entity.RelationshipType) ([]string, error)
	Successors(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error)
	Predecessors(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error)
	// PredecessorsClosure returns every transitive predecessor, deduplicated, self excluded.
	PredecessorsClosure(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error)

	// Dump returns all concepts and relationships ordered by creation time.
	Dump(ctx context.Context) ([]entity.Concept, []entity.Relationship, error)
	// BulkUpsert writes concepts (upsert by id) and relationships (deduplicated by
	// source/type/target) in a single transaction.
	BulkUpsert(ctx context.Context, concepts []entity.Concept, rels []entity.Relationship) error
}

// PerformanceRepository stores the append-only performance history.
type PerformanceRepository interface {
	Append(ctx context.Context, record *entity.PerformanceRecord) error
	// Recent returns at most limit records for the pair, newest first.
	Recent(ctx context.Context, studentID, conceptID string, limit int) ([]entity.PerformanceRecord, error)
	// AttemptedConcepts lists the distinct concept ids a student has records for.
	AttemptedConcepts(ctx context.Context, studentID string) ([]string, error)
}
