package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

// GraphStore keeps the concept graph in process memory. It is safe for concurrent use.
type GraphStore struct {
	mu       sync.RWMutex
	seq      int64
	concepts map[string]*storedConcept
	edges    []entity.Relationship
	edgeKeys map[string]struct{}
	out      map[string][]int
	in       map[string][]int
}

type storedConcept struct {
	concept entity.Concept
	seq     int64
}

var _ repository.GraphStore = (*GraphStore)(nil)

func NewGraphStore() *GraphStore {
	return &GraphStore{
		concepts: make(map[string]*storedConcept),
		edgeKeys: make(map[string]struct{}),
		out:      make(map[string][]int),
		in:       make(map[string][]int),
	}
}

func cloneConcept(c entity.Concept) entity.Concept {
	c.Keywords = slices.Clone(c.Keywords)
	return c
}

func (s *GraphStore) PutConcept(ctx context.Context, concept *entity.Concept) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putConceptLocked(*concept)
	return nil
}

func (s *GraphStore) putConceptLocked(c entity.Concept) {
	if existing, ok := s.concepts[c.ID]; ok {
		existing.concept = cloneConcept(c)
		return
	}
	s.seq++
	s.concepts[c.ID] = &storedConcept{concept: cloneConcept(c), seq: s.seq}
}

func (s *GraphStore) GetConcept(ctx context.Context, id string) (*entity.Concept, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.concepts[id]
	if !ok {
		return nil, nil
	}
	c := cloneConcept(stored.concept)
	return &c, nil
}

func (s *GraphStore) GetConcepts(ctx context.Context, ids []string) ([]entity.Concept, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Concept, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if stored, ok := s.concepts[id]; ok {
			out = append(out, cloneConcept(stored.concept))
		}
	}
	return out, nil
}

func (s *GraphStore) QueryConcepts(ctx context.Context, filter repository.ConceptFilter) ([]entity.Concept, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Concept, 0)
	for _, stored := range s.orderedLocked() {
		if filter.Matches(&stored.concept) {
			out = append(out, cloneConcept(stored.concept))
		}
	}
	return out, nil
}

// orderedLocked lists concepts by creation time, then insertion order.
func (s *GraphStore) orderedLocked() []*storedConcept {
	list := make([]*storedConcept, 0, len(s.concepts))
	for _, stored := range s.concepts {
		list = append(list, stored)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.concept.CreatedAt.Equal(b.concept.CreatedAt) {
			return a.concept.CreatedAt.Before(b.concept.CreatedAt)
		}
		return a.seq < b.seq
	})
	return list
}

func (s *GraphStore) PutRelationship(ctx context.Context, rel *entity.Relationship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putEdgeLocked(*rel)
	return nil
}

func (s *GraphStore) putEdgeLocked(rel entity.Relationship) {
	key := rel.Key()
	if _, dup := s.edgeKeys[key]; dup {
		return
	}
	s.edgeKeys[key] = struct{}{}
	idx := len(s.edges)
	s.edges = append(s.edges, rel)
	s.out[rel.SourceID] = append(s.out[rel.SourceID], idx)
	s.in[rel.TargetID] = append(s.in[rel.TargetID], idx)
}

func allowed(types []entity.RelationshipType, t entity.RelationshipType) bool {
	return len(types) == 0 || slices.Contains(types, t)
}

func (s *GraphStore) FindPath(ctx context.Context, from, to string, types []entity.RelationshipType) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if from == to {
		return []string{from}, nil
	}

	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, idx := range s.out[cur] {
			edge := s.edges[idx]
			if !allowed(types, edge.Type) {
				continue
			}
			next := edge.TargetID
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == to {
				return unwindPath(parent, from, to), nil
			}
			queue = append(queue, next)
		}
	}
	return nil, nil
}

func unwindPath(parent map[string]string, from, to string) []string {
	var path []string
	for cur := to; ; cur = parent[cur] {
		path = append(path, cur)
		if cur == from {
			break
		}
	}
	slices.Reverse(path)
	return path
}

func (s *GraphStore) Successors(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error) {
	return s.neighbours(ctx, id, types, true)
}

func (s *GraphStore) Predecessors(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error) {
	return s.neighbours(ctx, id, types, false)
}

func (s *GraphStore) neighbours(ctx context.Context, id string, types []entity.RelationshipType, outgoing bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.neighboursLocked(id, types, outgoing), nil
}

func (s *GraphStore) neighboursLocked(id string, types []entity.RelationshipType, outgoing bool) []string {
	index := s.in
	if outgoing {
		index = s.out
	}
	var ids []string
	seen := make(map[string]struct{})
	for _, idx := range index[id] {
		edge := s.edges[idx]
		if !allowed(types, edge.Type) {
			continue
		}
		other := edge.SourceID
		if outgoing {
			other = edge.TargetID
		}
		if _, dup := seen[other]; dup {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}
	return ids
}

func (s *GraphStore) PredecessorsClosure(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{id: {}}
	var closure []string
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, prev := range s.neighboursLocked(cur, types, false) {
			if _, dup := seen[prev]; dup {
				continue
			}
			seen[prev] = struct{}{}
			closure = append(closure, prev)
			queue = append(queue, prev)
		}
	}
	return closure, nil
}

func (s *GraphStore) Dump(ctx context.Context) ([]entity.Concept, []entity.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	concepts := make([]entity.Concept, 0, len(s.concepts))
	for _, stored := range s.orderedLocked() {
		concepts = append(concepts, cloneConcept(stored.concept))
	}
	rels := slices.Clone(s.edges)
	sort.SliceStable(rels, func(i, j int) bool { return rels[i].CreatedAt.Before(rels[j].CreatedAt) })
	if rels == nil {
		rels = []entity.Relationship{}
	}
	return concepts, rels, nil
}

func (s *GraphStore) BulkUpsert(ctx context.Context, concepts []entity.Concept, rels []entity.Relationship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range concepts {
		s.putConceptLocked(c)
	}
	for _, rel := range rels {
		s.putEdgeLocked(rel)
	}
	return nil
}
