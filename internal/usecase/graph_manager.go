package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

// GraphManager owns concept and relationship mutations and the traversals derived from them.
type GraphManager interface {
	CreateConcept(ctx context.Context, draft *entity.Concept) (*entity.Concept, error)
	// CreateConcepts creates each draft independently; bad drafts are reported, not fatal.
	CreateConcepts(ctx context.Context, drafts []entity.Concept) (*BatchResult, error)
	// GetConcept returns nil, nil when the concept does not exist.
	GetConcept(ctx context.Context, id string) (*entity.Concept, error)
	QueryConcepts(ctx context.Context, filter repository.ConceptFilter) ([]entity.Concept, error)

	// DetectCycle reports whether adding source -> target would close a cycle over ordering edges.
	DetectCycle(ctx context.Context, sourceID, targetID string) (bool, error)
	CreateRelationship(ctx context.Context, sourceID, targetID string, relType entity.RelationshipType) (*entity.Relationship, error)

	GetPrerequisites(ctx context.Context, conceptID string, opts ...TraversalOption) ([]entity.Concept, error)
	// GetDependents returns direct successors only.
	GetDependents(ctx context.Context, conceptID string, types ...entity.RelationshipType) ([]entity.Concept, error)

	ExportGraph(ctx context.Context) (*GraphExport, error)
	ImportGraph(ctx context.Context, data map[string]any, opts ...ImportOption) (*ImportResult, error)
}

// BatchResult reports a batch where each item succeeds or fails on its own.
type BatchResult struct {
	Created []entity.Concept `json:"created"`
	Errors  []ItemError      `json:"errors"`
}

// ItemError describes why the item at Index was skipped.
type ItemError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type traversalConfig struct {
	recursive bool
	types     []entity.RelationshipType
}

// TraversalOption tunes GetPrerequisites.
type TraversalOption func(*traversalConfig)

// Direct limits the traversal to immediate predecessors.
func Direct() TraversalOption {
	return func(c *traversalConfig) { c.recursive = false }
}

// WithEdgeTypes overrides the edge types followed (default prerequisite and builds-upon).
func WithEdgeTypes(types ...entity.RelationshipType) TraversalOption {
	return func(c *traversalConfig) {
		if len(types) > 0 {
			c.types = slices.Clone(types)
		}
	}
}

// GraphOption tunes the manager at construction.
type GraphOption func(*graphManager)

// WithGraphCache enables closure caching through the shared cache.
func WithGraphCache(cache repository.Cache, ttl time.Duration) GraphOption {
	return func(m *graphManager) {
		m.cache = newDerivedCache(cache, ttl, m.log)
	}
}

// NewGraphManager wires the store with default behaviour.
func NewGraphManager(store repository.GraphStore, log logrus.FieldLogger, opts ...GraphOption) GraphManager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &graphManager{
		store: store,
		log:   log.WithField("component", "graph_manager"),
		clock: time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type graphManager struct {
	store repository.GraphStore
	cache *derivedCache
	log   logrus.FieldLogger
	clock func() time.Time
	newID func() string

	// writeMu serialises every check-then-write on the graph so concurrent edge insertions
	// cannot jointly close a cycle.
	writeMu sync.Mutex
	// localGen guards this process against stale closures even when the shared counter fails.
	localGen atomic.Int64
}

func (m *graphManager) CreateConcept(ctx context.Context, draft *entity.Concept) (*entity.Concept, error) {
	if draft == nil {
		return nil, &entity.ValidationError{Field: "concept", Problems: []string{"concept is required"}}
	}
	concept := *draft
	concept.Keywords = slices.Clone(draft.Keywords)
	concept.ID = m.newID()
	now := m.clock().UTC()
	concept.CreatedAt = now
	concept.UpdatedAt = now
	concept.Normalize(now)
	if err := concept.Validate(); err != nil {
		return nil, err
	}

	if err := m.store.PutConcept(ctx, &concept); err != nil {
		return nil, entity.WrapStore("put concept", err)
	}
	m.log.WithFields(logrus.Fields{"concept_id": concept.ID, "name": concept.Name}).Info("concept created")
	return &concept, nil
}

func (m *graphManager) CreateConcepts(ctx context.Context, drafts []entity.Concept) (*BatchResult, error) {
	result := &BatchResult{Created: []entity.Concept{}, Errors: []ItemError{}}
	for i := range drafts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		created, err := m.CreateConcept(ctx, &drafts[i])
		if err != nil {
			m.log.WithError(err).WithField("index", i).Warn("skipping concept in batch")
			result.Errors = append(result.Errors, ItemError{Index: i, Message: err.Error()})
			continue
		}
		result.Created = append(result.Created, *created)
	}
	return result, nil
}

func (m *graphManager) GetConcept(ctx context.Context, id string) (*entity.Concept, error) {
	concept, err := m.store.GetConcept(ctx, id)
	if err != nil {
		return nil, entity.WrapStore("get concept", err)
	}
	return concept, nil
}

func (m *graphManager) QueryConcepts(ctx context.Context, filter repository.ConceptFilter) ([]entity.Concept, error) {
	concepts, err := m.store.QueryConcepts(ctx, filter)
	if err != nil {
		return nil, entity.WrapStore("query concepts", err)
	}
	return concepts, nil
}

func (m *graphManager) DetectCycle(ctx context.Context, sourceID, targetID string) (bool, error) {
	path, err := m.cyclePath(ctx, sourceID, targetID)
	if err != nil {
		return false, err
	}
	return len(path) > 0, nil
}

// cyclePath returns the existing path target -> ... -> source that an edge source -> target
// would close, or nil. A self-loop is always a cycle.
func (m *graphManager) cyclePath(ctx context.Context, sourceID, targetID string) ([]string, error) {
	if sourceID == targetID {
		return []string{sourceID}, nil
	}
	path, err := m.store.FindPath(ctx, targetID, sourceID, entity.OrderingTypes())
	if err != nil {
		return nil, entity.WrapStore("find path", err)
	}
	return path, nil
}

func (m *graphManager) CreateRelationship(ctx context.Context, sourceID, targetID string, relType entity.RelationshipType) (*entity.Relationship, error) {
	if !relType.Valid() {
		return nil, &entity.ValidationError{Field: "relationship_type", Problems: []string{fmt.Sprintf("unknown relationship type %q", string(relType))}}
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	source, target, err := m.endpoints(ctx, sourceID, targetID)
	if err != nil {
		return nil, err
	}

	if relType.Ordering() {
		path, err := m.cyclePath(ctx, sourceID, targetID)
		if err != nil {
			return nil, err
		}
		if len(path) > 0 {
			names, err := m.conceptNames(ctx, path)
			if err != nil {
				return nil, err
			}
			return nil, &entity.CycleError{
				Path: names,
				Message: fmt.Sprintf("cannot create relationship: would create a cycle, a path already exists from %s to %s (%s)",
					target.Name, source.Name, strings.Join(names, " -> ")),
			}
		}
	}

	rel := &entity.Relationship{
		SourceID:  sourceID,
		TargetID:  targetID,
		Type:      relType,
		CreatedAt: m.clock().UTC(),
	}
	if err := m.store.PutRelationship(ctx, rel); err != nil {
		return nil, entity.WrapStore("put relationship", err)
	}
	m.invalidateClosures(ctx)

	m.log.WithFields(logrus.Fields{
		"source_id": sourceID,
		"target_id": targetID,
		"type":      relType,
	}).Info("relationship created")
	return rel, nil
}

// endpoints loads both ends of a prospective edge, failing with NotFoundError.
func (m *graphManager) endpoints(ctx context.Context, sourceID, targetID string) (*entity.Concept, *entity.Concept, error) {
	source, err := m.GetConcept(ctx, sourceID)
	if err != nil {
		return nil, nil, err
	}
	if source == nil {
		return nil, nil, &entity.NotFoundError{Kind: "Source concept", ID: sourceID}
	}
	target, err := m.GetConcept(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, &entity.NotFoundError{Kind: "Target concept", ID: targetID}
	}
	return source, target, nil
}

func (m *graphManager) conceptNames(ctx context.Context, ids []string) ([]string, error) {
	concepts, err := m.store.GetConcepts(ctx, ids)
	if err != nil {
		return nil, entity.WrapStore("get concepts", err)
	}
	byID := lo.SliceToMap(concepts, func(c entity.Concept) (string, string) { return c.ID, c.Name })
	return lo.Map(ids, func(id string, _ int) string {
		if name, ok := byID[id]; ok {
			return name
		}
		return id
	}), nil
}

func (m *graphManager) invalidateClosures(ctx context.Context) {
	m.localGen.Add(1)
	m.cache.bumpGeneration(ctx)
}

func (m *graphManager) GetPrerequisites(ctx context.Context, conceptID string, opts ...TraversalOption) ([]entity.Concept, error) {
	cfg := traversalConfig{recursive: true, types: entity.OrderingTypes()}
	for _, opt := range opts {
		opt(&cfg)
	}

	concept, err := m.GetConcept(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, &entity.NotFoundError{Kind: "Concept", ID: conceptID}
	}

	var ids []string
	if cfg.recursive {
		ids, err = m.closure(ctx, conceptID, cfg.types)
	} else {
		ids, err = m.store.Predecessors(ctx, conceptID, cfg.types)
		err = entity.WrapStore("predecessors", err)
	}
	if err != nil {
		return nil, err
	}
	return m.loadOrdered(ctx, lo.Without(lo.Uniq(ids), conceptID))
}

// closure returns the cached transitive predecessor ids of a concept.
func (m *graphManager) closure(ctx context.Context, conceptID string, types []entity.RelationshipType) ([]string, error) {
	fill := func(ctx context.Context) ([]string, error) {
		ids, err := m.store.PredecessorsClosure(ctx, conceptID, types)
		if err != nil {
			return nil, entity.WrapStore("predecessors closure", err)
		}
		return ids, nil
	}
	gen := m.cache.generation(ctx)
	if gen < 0 {
		return fill(ctx)
	}
	typeKey := strings.Join(lo.Map(types, func(t entity.RelationshipType, _ int) string { return string(t) }), ",")
	key := fmt.Sprintf("closure:%d.%d:%s:%s", gen, m.localGen.Load(), conceptID, typeKey)
	return load(ctx, m.cache, key, fill)
}

func (m *graphManager) GetDependents(ctx context.Context, conceptID string, types ...entity.RelationshipType) ([]entity.Concept, error) {
	if len(types) == 0 {
		types = entity.OrderingTypes()
	}
	concept, err := m.GetConcept(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, &entity.NotFoundError{Kind: "Concept", ID: conceptID}
	}
	ids, err := m.store.Successors(ctx, conceptID, types)
	if err != nil {
		return nil, entity.WrapStore("successors", err)
	}
	return m.loadOrdered(ctx, lo.Without(lo.Uniq(ids), conceptID))
}

// loadOrdered fetches concepts and orders them by creation time, then id.
func (m *graphManager) loadOrdered(ctx context.Context, ids []string) ([]entity.Concept, error) {
	if len(ids) == 0 {
		return []entity.Concept{}, nil
	}
	concepts, err := m.store.GetConcepts(ctx, ids)
	if err != nil {
		return nil, entity.WrapStore("get concepts", err)
	}
	sortByCreation(concepts)
	return concepts, nil
}

func sortByCreation(concepts []entity.Concept) {
	sort.SliceStable(concepts, func(i, j int) bool {
		if concepts[i].CreatedAt.Equal(concepts[j].CreatedAt) {
			return concepts[i].ID < concepts[j].ID
		}
		return concepts[i].CreatedAt.Before(concepts[j].CreatedAt)
	})
}
