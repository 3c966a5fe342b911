//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
	"github.com/eslsoft/conceptgraph/internal/infrastructure/logging"
	"github.com/eslsoft/conceptgraph/internal/usecase"
)

var loggingSet = wire.NewSet(
	logging.NewLogger,
	provideFieldLogger,
)

var repositorySet = wire.NewSet(
	NewStores,
	provideGraphStore,
	providePerformanceRepository,
	NewCache,
)

var usecaseSet = wire.NewSet(
	usecase.NewDifficultyScorer,
	usecase.NewQuestionTextChecker,
	usecase.NewPrerequisiteValidator,
	usecase.NewContentValidator,
	provideGraphManager,
	provideMasteryEngine,
	providePathwayPlanner,
	providePersonaCatalog,
	provideBackupService,
)

// Initialize builds the application container using Wire.
func Initialize(cfg *config.Config) (*Container, func(), error) {
	wire.Build(
		loggingSet,
		repositorySet,
		usecaseSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}
