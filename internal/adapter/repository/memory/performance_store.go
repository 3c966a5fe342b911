package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

// PerformanceStore is an append-only in-memory performance history.
type PerformanceStore struct {
	mu      sync.RWMutex
	records []entity.PerformanceRecord
}

var _ repository.PerformanceRepository = (*PerformanceStore)(nil)

func NewPerformanceStore() *PerformanceStore {
	return &PerformanceStore{}
}

func (s *PerformanceStore) Append(ctx context.Context, record *entity.PerformanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

func (s *PerformanceStore) Recent(ctx context.Context, studentID, conceptID string, limit int) ([]entity.PerformanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type indexed struct {
		rec entity.PerformanceRecord
		pos int
	}
	var matches []indexed
	for i, rec := range s.records {
		if rec.StudentID == studentID && rec.ConceptID == conceptID {
			matches = append(matches, indexed{rec: rec, pos: i})
		}
	}
	// newest first; later appends win ties
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.rec.Timestamp.Equal(b.rec.Timestamp) {
			return a.rec.Timestamp.After(b.rec.Timestamp)
		}
		return a.pos > b.pos
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]entity.PerformanceRecord, len(matches))
	for i, m := range matches {
		out[i] = m.rec
	}
	return out, nil
}

func (s *PerformanceStore) AttemptedConcepts(ctx context.Context, studentID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var ids []string
	for _, rec := range s.records {
		if rec.StudentID != studentID {
			continue
		}
		if _, dup := seen[rec.ConceptID]; dup {
			continue
		}
		seen[rec.ConceptID] = struct{}{}
		ids = append(ids, rec.ConceptID)
	}
	return ids, nil
}
