package usecase

import (
	"math"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

// Dimension weights shared by distance and absolute scoring. They sum to 1.
const (
	weightBloom       = 0.25
	weightAbstraction = 0.20
	weightComplexity  = 0.20
	weightIntegration = 0.15
	weightRealWorld   = 0.10
	weightApproach    = 0.10

	// complexity differences at or above this count as maximally different
	distanceComplexitySpan = 50.0
	// complexity at or above this scores as the hardest absolute position
	scoreComplexitySpan = 20.0
)

// ValidationResult lists every violated dimension; it never stops at the first one.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// DifficultyScorer validates, compares, bounds and adjusts difficulty vectors.
type DifficultyScorer interface {
	Validate(v entity.DifficultyVector) ValidationResult
	Distance(a, b entity.DifficultyVector) float64
	FitsPersona(v entity.DifficultyVector, persona *entity.Persona) bool
	Adjust(v entity.DifficultyVector, factor float64) entity.DifficultyVector
	// Score places a single vector on [0, 1] for ordering concepts by difficulty.
	Score(v entity.DifficultyVector) float64
}

func NewDifficultyScorer() DifficultyScorer {
	return difficultyScorer{}
}

type difficultyScorer struct{}

func (difficultyScorer) Validate(v entity.DifficultyVector) ValidationResult {
	errs := v.Violations()
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func (difficultyScorer) Distance(a, b entity.DifficultyVector) float64 {
	bloom := absDiff(a.BloomLevel, b.BloomLevel) / float64(entity.MaxBloomLevel-entity.MinBloomLevel)
	abstraction := absDiff(a.AbstractionLevel, b.AbstractionLevel) / float64(entity.MaxAbstractionLevel-entity.MinAbstractionLevel)
	complexity := math.Min(absDiff(a.ComputationalComplexity, b.ComputationalComplexity)/distanceComplexitySpan, 1.0)
	integration := ordinalDiff(a.ConceptIntegration.Ordinal(), b.ConceptIntegration.Ordinal(), entity.MaxIntegrationOrdinal)
	realWorld := absDiff(a.RealWorldContext, b.RealWorldContext) / float64(entity.MaxRealWorldContext-entity.MinRealWorldContext)
	approach := ordinalDiff(a.ProblemSolvingApproach.Ordinal(), b.ProblemSolvingApproach.Ordinal(), entity.MaxApproachOrdinal)

	return weightBloom*bloom +
		weightAbstraction*abstraction +
		weightComplexity*complexity +
		weightIntegration*integration +
		weightRealWorld*realWorld +
		weightApproach*approach
}

func (difficultyScorer) FitsPersona(v entity.DifficultyVector, persona *entity.Persona) bool {
	if persona == nil {
		return false
	}
	c := persona.Constraints
	return v.BloomLevel <= c.MaxBloomLevel &&
		v.AbstractionLevel <= c.MaxAbstractionLevel &&
		v.ComputationalComplexity <= c.MaxComputationalComplexity &&
		c.AllowsIntegration(v.ConceptIntegration) &&
		v.RealWorldContext <= c.MaxRealWorldContext &&
		c.AllowsApproach(v.ProblemSolvingApproach)
}

func (difficultyScorer) Adjust(v entity.DifficultyVector, factor float64) entity.DifficultyVector {
	if math.IsNaN(factor) {
		factor = 0
	}
	factor = math.Max(-1, math.Min(1, factor))

	out := v
	out.BloomLevel = clamp(v.BloomLevel+roundShift(factor*2), entity.MinBloomLevel, entity.MaxBloomLevel)
	out.AbstractionLevel = clamp(v.AbstractionLevel+roundShift(factor*1.5), entity.MinAbstractionLevel, entity.MaxAbstractionLevel)
	out.ComputationalComplexity = max(entity.MinComplexity, v.ComputationalComplexity+roundShift(factor*float64(v.ComputationalComplexity)*0.3))
	out.RealWorldContext = clamp(v.RealWorldContext+roundShift(factor), entity.MinRealWorldContext, entity.MaxRealWorldContext)

	// the enum ladders only move on a strong signal, one rung at a time
	switch {
	case factor > 0.5:
		out.ConceptIntegration = v.ConceptIntegration.Step(1)
		out.ProblemSolvingApproach = v.ProblemSolvingApproach.Step(1)
	case factor < -0.5:
		out.ConceptIntegration = v.ConceptIntegration.Step(-1)
		out.ProblemSolvingApproach = v.ProblemSolvingApproach.Step(-1)
	}
	return out
}

func (difficultyScorer) Score(v entity.DifficultyVector) float64 {
	bloom := float64(v.BloomLevel) / float64(entity.MaxBloomLevel)
	abstraction := float64(v.AbstractionLevel) / float64(entity.MaxAbstractionLevel)
	complexity := math.Min(float64(v.ComputationalComplexity)/scoreComplexitySpan, 1.0)
	realWorld := float64(v.RealWorldContext) / float64(entity.MaxRealWorldContext)

	return weightBloom*bloom +
		weightAbstraction*abstraction +
		weightComplexity*complexity +
		weightIntegration*v.ConceptIntegration.Position() +
		weightRealWorld*realWorld +
		weightApproach*v.ProblemSolvingApproach.Position()
}

func absDiff(a, b int) float64 {
	return math.Abs(float64(a - b))
}

// ordinalDiff treats an unknown enum value as maximally different from anything else.
func ordinalDiff(a, b, span int) float64 {
	if a < 0 || b < 0 {
		if a == b {
			return 0
		}
		return 1
	}
	return math.Abs(float64(a-b)) / float64(span)
}

// roundShift rounds half to even: 0.5 -> 0, 1.5 -> 2.
func roundShift(x float64) int {
	return int(math.RoundToEven(x))
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
