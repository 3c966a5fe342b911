package entity

import "fmt"

// Dimension ranges for a DifficultyVector.
const (
	MinBloomLevel       = 1
	MaxBloomLevel       = 6
	MinAbstractionLevel = 1
	MaxAbstractionLevel = 5
	MinComplexity       = 1
	MinRealWorldContext = 1
	MaxRealWorldContext = 5
)

// DifficultyVector is the six-dimensional difficulty encoding ("Difficulty DNA") of a concept
// or a question.
type DifficultyVector struct {
	BloomLevel              int                `json:"bloom_level" yaml:"bloom_level"`
	AbstractionLevel        int                `json:"abstraction_level" yaml:"abstraction_level"`
	ComputationalComplexity int                `json:"computational_complexity" yaml:"computational_complexity"`
	ConceptIntegration      ConceptIntegration `json:"concept_integration" yaml:"concept_integration"`
	RealWorldContext        int                `json:"real_world_context" yaml:"real_world_context"`
	ProblemSolvingApproach  ProblemApproach    `json:"problem_solving_approach" yaml:"problem_solving_approach"`
}

// Violations lists every dimension that falls outside its domain. An empty result means the
// vector is valid.
func (v DifficultyVector) Violations() []string {
	var problems []string
	if v.BloomLevel < MinBloomLevel || v.BloomLevel > MaxBloomLevel {
		problems = append(problems, fmt.Sprintf("bloom_level must be between %d and %d, got %d", MinBloomLevel, MaxBloomLevel, v.BloomLevel))
	}
	if v.AbstractionLevel < MinAbstractionLevel || v.AbstractionLevel > MaxAbstractionLevel {
		problems = append(problems, fmt.Sprintf("abstraction_level must be between %d and %d, got %d", MinAbstractionLevel, MaxAbstractionLevel, v.AbstractionLevel))
	}
	if v.ComputationalComplexity < MinComplexity {
		problems = append(problems, fmt.Sprintf("computational_complexity must be at least %d, got %d", MinComplexity, v.ComputationalComplexity))
	}
	if !v.ConceptIntegration.Valid() {
		problems = append(problems, fmt.Sprintf("concept_integration must be one of %v, got %q", ConceptIntegrations(), string(v.ConceptIntegration)))
	}
	if v.RealWorldContext < MinRealWorldContext || v.RealWorldContext > MaxRealWorldContext {
		problems = append(problems, fmt.Sprintf("real_world_context must be between %d and %d, got %d", MinRealWorldContext, MaxRealWorldContext, v.RealWorldContext))
	}
	if !v.ProblemSolvingApproach.Valid() {
		problems = append(problems, fmt.Sprintf("problem_solving_approach must be one of %v, got %q", ProblemApproaches(), string(v.ProblemSolvingApproach)))
	}
	return problems
}
