package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		Store:   config.StoreConfig{Driver: driver},
		Cache:   config.CacheConfig{Driver: config.CacheMemory, TTL: time.Minute},
		Mastery: config.MasteryConfig{Threshold: 0.8},
		Pathway: config.PathwayConfig{Parallelism: 2},
		Log:     config.LogConfig{Level: "error", Format: "json"},
	}
}

func draft(name string) *entity.Concept {
	return &entity.Concept{
		Name:        name,
		Subject:     entity.SubjectMathematics,
		ClassLevel:  9,
		Keywords:    []string{name},
		Description: name + " in depth",
		DifficultyDNA: entity.DifficultyVector{
			BloomLevel: 2, AbstractionLevel: 2, ComputationalComplexity: 3,
			ConceptIntegration: entity.IntegrationSingle, RealWorldContext: 2,
			ProblemSolvingApproach: entity.ApproachDirect,
		},
	}
}

func exercise(t *testing.T, c *Container) {
	t.Helper()
	ctx := context.Background()
	a, err := c.Graph.CreateConcept(ctx, draft("sets"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := c.Graph.CreateConcept(ctx, draft("functions"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.Graph.CreateRelationship(ctx, a.ID, b.ID, entity.RelationshipPrerequisite); err != nil {
		t.Fatalf("link: %v", err)
	}
	readiness, err := c.Prerequisite.CheckReadiness(ctx, "stu", b.ID, nil)
	if err != nil {
		t.Fatalf("readiness: %v", err)
	}
	if readiness.IsReady || len(readiness.UnmetPrerequisites) != 1 {
		t.Fatalf("unexpected readiness %+v", readiness)
	}
	if len(c.Personas.List()) != 6 {
		t.Fatalf("expected the built-in persona catalog")
	}
}

func TestInitialize_Memory(t *testing.T) {
	c, cleanup, err := Initialize(testConfig(config.StoreMemory))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer cleanup()
	exercise(t, c)
}

func TestInitialize_SQLite(t *testing.T) {
	cfg := testConfig(config.StoreSQLite)
	cfg.Cache.Driver = config.CacheNone
	cfg.Database.Path = filepath.Join(t.TempDir(), "graph.db")
	c, cleanup, err := Initialize(cfg)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer cleanup()
	exercise(t, c)
}

func TestInitialize_Errors(t *testing.T) {
	cfg := testConfig("cassandra")
	if _, _, err := Initialize(cfg); err == nil {
		t.Fatalf("expected unknown store driver error")
	}
	cfg = testConfig(config.StoreMemory)
	cfg.Cache.Driver = "memcached"
	if _, _, err := Initialize(cfg); err == nil {
		t.Fatalf("expected unknown cache driver error")
	}
	cfg = testConfig(config.StoreMemory)
	cfg.Persona.File = filepath.Join(t.TempDir(), "missing.yaml")
	if _, _, err := Initialize(cfg); err == nil {
		t.Fatalf("expected missing persona file error")
	}
}
