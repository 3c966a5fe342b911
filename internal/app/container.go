package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
	"github.com/eslsoft/conceptgraph/internal/usecase"
	"github.com/eslsoft/conceptgraph/internal/usecase/backup"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config       *config.Config
	Logger       *logrus.Logger
	Graph        usecase.GraphManager
	Prerequisite usecase.PrerequisiteValidator
	Mastery      usecase.MasteryEngine
	Pathway      usecase.PathwayPlanner
	Scorer       usecase.DifficultyScorer
	Personas     usecase.PersonaCatalog
	TextChecker  usecase.QuestionTextChecker
	Content      usecase.ContentValidator
	Backup       *backup.Service
}
