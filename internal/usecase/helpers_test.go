package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/conceptgraph/internal/adapter/repository/memory"
	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func dna(bloom, abstraction, complexity int, integration entity.ConceptIntegration, realWorld int, approach entity.ProblemApproach) entity.DifficultyVector {
	return entity.DifficultyVector{
		BloomLevel:              bloom,
		AbstractionLevel:        abstraction,
		ComputationalComplexity: complexity,
		ConceptIntegration:      integration,
		RealWorldContext:        realWorld,
		ProblemSolvingApproach:  approach,
	}
}

func easyDNA() entity.DifficultyVector {
	return dna(2, 2, 3, entity.IntegrationSingle, 2, entity.ApproachDirect)
}

// stepClock advances one second per call so creation order is deterministic.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type graphFixture struct {
	manager *graphManager
	store   *memory.GraphStore
}

func newGraphFixture(t *testing.T, opts ...GraphOption) graphFixture {
	t.Helper()
	store := memory.NewGraphStore()
	gm := NewGraphManager(store, quietLogger(), opts...).(*graphManager)
	clock := newStepClock()
	gm.clock = clock.Now
	var (
		mu  sync.Mutex
		seq int
	)
	gm.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("c%03d", seq)
	}
	return graphFixture{manager: gm, store: store}
}

func (f graphFixture) concept(t *testing.T, name string, classLevel int, v entity.DifficultyVector) *entity.Concept {
	t.Helper()
	c, err := f.manager.CreateConcept(context.Background(), &entity.Concept{
		Name:          name,
		Subject:       entity.SubjectMathematics,
		ClassLevel:    classLevel,
		Keywords:      []string{name},
		Description:   "about " + name,
		DifficultyDNA: v,
	})
	if err != nil {
		t.Fatalf("create concept %s: %v", name, err)
	}
	return c
}

func (f graphFixture) link(t *testing.T, source, target *entity.Concept, relType entity.RelationshipType) {
	t.Helper()
	if _, err := f.manager.CreateRelationship(context.Background(), source.ID, target.ID, relType); err != nil {
		t.Fatalf("link %s -> %s: %v", source.Name, target.Name, err)
	}
}

func conceptNames(concepts []entity.Concept) []string {
	names := make([]string, len(concepts))
	for i, c := range concepts {
		names[i] = c.Name
	}
	return names
}

type brokenQueryStore struct {
	*memory.GraphStore
}

func (brokenQueryStore) QueryConcepts(context.Context, repository.ConceptFilter) ([]entity.Concept, error) {
	return nil, errors.New("disk on fire")
}
