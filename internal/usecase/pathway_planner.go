package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

const (
	DefaultNextConcepts       = 5
	DefaultPathwayParallelism = 8
)

// Pathway is an ordered study plan from the student's current level to a target level.
type Pathway struct {
	StudentID     string           `json:"student_id"`
	Concepts      []entity.Concept `json:"concepts"`
	CurrentLevel  int              `json:"current_level"`
	TargetLevel   int              `json:"target_level"`
	TotalConcepts int              `json:"total_concepts"`
	MasteredCount int              `json:"mastered_count"`
}

// PathwayPlanner orders the concepts a student can study next.
type PathwayPlanner interface {
	// GeneratePathway derives the mastered set from history when mastered is nil.
	GeneratePathway(ctx context.Context, studentID string, targetLevel int, mastered map[string]bool) (*Pathway, error)
	NextConcepts(ctx context.Context, studentID string, count int, mastered map[string]bool) ([]entity.Concept, error)
}

// PathwayOption tunes the planner.
type PathwayOption func(*pathwayPlanner)

// WithPathwayParallelism bounds concurrent prerequisite lookups.
func WithPathwayParallelism(n int) PathwayOption {
	return func(p *pathwayPlanner) {
		if n > 0 {
			p.parallelism = n
		}
	}
}

func NewPathwayPlanner(graph GraphManager, mastery MasteryEngine, scorer DifficultyScorer, log logrus.FieldLogger, opts ...PathwayOption) PathwayPlanner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &pathwayPlanner{
		graph:       graph,
		mastery:     mastery,
		scorer:      scorer,
		log:         log.WithField("component", "pathway_planner"),
		parallelism: DefaultPathwayParallelism,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type pathwayPlanner struct {
	graph       GraphManager
	mastery     MasteryEngine
	scorer      DifficultyScorer
	log         logrus.FieldLogger
	parallelism int
}

func (p *pathwayPlanner) GeneratePathway(ctx context.Context, studentID string, targetLevel int, mastered map[string]bool) (*Pathway, error) {
	if targetLevel < entity.MinClassLevel || targetLevel > entity.MaxClassLevel {
		return nil, &entity.ValidationError{
			Field:    "target_class_level",
			Problems: []string{fmt.Sprintf("invalid target class level: %d. Must be %d-%d", targetLevel, entity.MinClassLevel, entity.MaxClassLevel)},
		}
	}
	mastered, err := p.masteredSet(ctx, studentID, mastered)
	if err != nil {
		return nil, err
	}
	current, err := p.currentLevel(ctx, mastered)
	if err != nil {
		return nil, err
	}

	available, err := p.available(ctx, current, targetLevel, mastered)
	if err != nil {
		return nil, err
	}
	p.order(available)

	p.log.WithFields(logrus.Fields{
		"student_id":    studentID,
		"current_level": current,
		"target_level":  targetLevel,
		"mastered":      len(mastered),
		"concepts":      len(available),
	}).Info("pathway generated")

	return &Pathway{
		StudentID:     studentID,
		Concepts:      available,
		CurrentLevel:  current,
		TargetLevel:   targetLevel,
		TotalConcepts: len(available),
		MasteredCount: len(mastered),
	}, nil
}

func (p *pathwayPlanner) NextConcepts(ctx context.Context, studentID string, count int, mastered map[string]bool) ([]entity.Concept, error) {
	if count <= 0 {
		count = DefaultNextConcepts
	}
	mastered, err := p.masteredSet(ctx, studentID, mastered)
	if err != nil {
		return nil, err
	}
	current, err := p.currentLevel(ctx, mastered)
	if err != nil {
		return nil, err
	}

	available, err := p.available(ctx, current, min(current+1, entity.MaxClassLevel), mastered)
	if err != nil {
		return nil, err
	}
	next := lo.Filter(available, func(c entity.Concept, _ int) bool { return !mastered[c.ID] })
	p.order(next)
	if len(next) > count {
		next = next[:count]
	}

	p.log.WithFields(logrus.Fields{"student_id": studentID, "concepts": len(next)}).Info("next concepts recommended")
	return next, nil
}

func (p *pathwayPlanner) masteredSet(ctx context.Context, studentID string, given map[string]bool) (map[string]bool, error) {
	if given != nil {
		return lo.PickBy(given, func(_ string, ok bool) bool { return ok }), nil
	}
	if p.mastery == nil {
		return map[string]bool{}, nil
	}
	return p.mastery.MasteredSet(ctx, studentID)
}

// currentLevel is the highest class level among mastered concepts, never below the first level.
func (p *pathwayPlanner) currentLevel(ctx context.Context, mastered map[string]bool) (int, error) {
	level := entity.MinClassLevel
	for _, id := range lo.Keys(mastered) {
		concept, err := p.graph.GetConcept(ctx, id)
		if err != nil {
			return 0, err
		}
		if concept != nil && concept.ClassLevel > level {
			level = concept.ClassLevel
		}
	}
	return min(level, entity.MaxClassLevel), nil
}

// available returns concepts in [fromLevel, toLevel] whose full prerequisite closure is mastered.
func (p *pathwayPlanner) available(ctx context.Context, fromLevel, toLevel int, mastered map[string]bool) ([]entity.Concept, error) {
	if fromLevel > toLevel {
		return []entity.Concept{}, nil
	}
	candidates, err := p.graph.QueryConcepts(ctx, repository.ConceptFilter{
		ClassLevelMin: lo.ToPtr(fromLevel),
		ClassLevelMax: lo.ToPtr(toLevel),
	})
	if err != nil {
		return nil, err
	}

	ready := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i := range candidates {
		g.Go(func() error {
			prereqs, err := p.graph.GetPrerequisites(gctx, candidates[i].ID)
			if err != nil {
				return err
			}
			ready[i] = lo.EveryBy(prereqs, func(c entity.Concept) bool { return mastered[c.ID] })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]entity.Concept, 0, len(candidates))
	for i, c := range candidates {
		if ready[i] {
			out = append(out, c)
		}
	}
	return out, nil
}

// order sorts by class level, then difficulty score, then creation.
func (p *pathwayPlanner) order(concepts []entity.Concept) {
	scores := make(map[string]float64, len(concepts))
	for _, c := range concepts {
		scores[c.ID] = p.scorer.Score(c.DifficultyDNA)
	}
	sort.SliceStable(concepts, func(i, j int) bool {
		a, b := concepts[i], concepts[j]
		if a.ClassLevel != b.ClassLevel {
			return a.ClassLevel < b.ClassLevel
		}
		if scores[a.ID] != scores[b.ID] {
			return scores[a.ID] < scores[b.ID]
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
