package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/conceptgraph/internal/adapter/cache"
	"github.com/eslsoft/conceptgraph/internal/adapter/repository/memory"
	"github.com/eslsoft/conceptgraph/internal/adapter/repository/neo4jgraph"
	"github.com/eslsoft/conceptgraph/internal/adapter/repository/sqlgraph"
	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
	"github.com/eslsoft/conceptgraph/internal/infrastructure/database"
	"github.com/eslsoft/conceptgraph/internal/repository"
	"github.com/eslsoft/conceptgraph/internal/usecase"
	"github.com/eslsoft/conceptgraph/internal/usecase/backup"
)

// Stores pairs the graph and performance stores of one backend.
type Stores struct {
	Graph       repository.GraphStore
	Performance repository.PerformanceRepository
}

// NewStores opens the backend selected by store.driver. SQL backends are migrated on open.
func NewStores(cfg *config.Config, log logrus.FieldLogger) (*Stores, func(), error) {
	switch cfg.Store.Driver {
	case "", config.StoreMemory:
		return &Stores{Graph: memory.NewGraphStore(), Performance: memory.NewPerformanceStore()}, func() {}, nil

	case config.StoreNeo4j:
		driver, cleanup, err := database.NewNeo4jDriver(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := neo4jgraph.New(driver, cfg.Neo4j.Database)
		if err == nil {
			err = store.EnsureSchema(context.Background())
		}
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return &Stores{Graph: store, Performance: store}, cleanup, nil
	}

	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, nil, err
	}
	db, cleanup, err := database.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(context.Background(), db, driver); err != nil {
		cleanup()
		return nil, nil, err
	}
	store, err := sqlgraph.New(db, driver)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	log.WithField("driver", driver).Debug("sql store ready")
	return &Stores{Graph: store, Performance: store}, cleanup, nil
}

func provideGraphStore(s *Stores) repository.GraphStore { return s.Graph }

func providePerformanceRepository(s *Stores) repository.PerformanceRepository { return s.Performance }

// NewCache returns the configured derived-result cache, or nil when caching is disabled.
func NewCache(cfg *config.Config) (repository.Cache, func(), error) {
	switch cfg.Cache.Driver {
	case config.CacheNone:
		return nil, func() {}, nil
	case "", config.CacheMemory:
		return cache.NewMemory(), func() {}, nil
	case config.CacheRedis:
		rdb, cleanup, err := database.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedis(rdb, cfg.Cache.Prefix), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

func provideFieldLogger(log *logrus.Logger) logrus.FieldLogger { return log }

func provideGraphManager(store repository.GraphStore, c repository.Cache, cfg *config.Config, log logrus.FieldLogger) usecase.GraphManager {
	return usecase.NewGraphManager(store, log, usecase.WithGraphCache(c, cfg.Cache.TTL))
}

func provideMasteryEngine(repo repository.PerformanceRepository, c repository.Cache, cfg *config.Config, log logrus.FieldLogger) usecase.MasteryEngine {
	return usecase.NewMasteryEngine(repo, log,
		usecase.WithMasteryThreshold(cfg.Mastery.Threshold),
		usecase.WithMasteryCache(c, cfg.Cache.TTL))
}

func providePathwayPlanner(graph usecase.GraphManager, mastery usecase.MasteryEngine, scorer usecase.DifficultyScorer, cfg *config.Config, log logrus.FieldLogger) usecase.PathwayPlanner {
	return usecase.NewPathwayPlanner(graph, mastery, scorer, log, usecase.WithPathwayParallelism(cfg.Pathway.Parallelism))
}

// providePersonaCatalog uses persona.file when set, the built-in catalog otherwise.
func providePersonaCatalog(cfg *config.Config, log logrus.FieldLogger) (usecase.PersonaCatalog, error) {
	base := usecase.DefaultPersonas()
	if cfg.Persona.File != "" {
		loaded, err := usecase.LoadPersonaFile(cfg.Persona.File)
		if err != nil {
			return nil, err
		}
		log.WithField("file", cfg.Persona.File).WithField("count", len(loaded)).Info("loaded persona catalog")
		base = loaded
	}
	return usecase.NewPersonaCatalog(base, log)
}

func provideBackupService(graph usecase.GraphManager, log logrus.FieldLogger) (*backup.Service, error) {
	return backup.NewService(graph, backup.WithIndent(true), backup.WithLogger(log))
}
