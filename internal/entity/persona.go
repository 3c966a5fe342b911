package entity

import (
	"fmt"
	"slices"
)

// Persona class levels; 13 is the competitive exam preparation mode.
const (
	MinPersonaLevel = 8
	MaxPersonaLevel = 13
	ExamPrepLevel   = 13
)

type VocabularyLevel string

const (
	VocabularyBasic        VocabularyLevel = "basic"
	VocabularyIntermediate VocabularyLevel = "intermediate"
	VocabularyAdvanced     VocabularyLevel = "advanced"
)

type TechnicalLevel string

const (
	TechnicalMinimal   TechnicalLevel = "minimal"
	TechnicalModerate  TechnicalLevel = "moderate"
	TechnicalExtensive TechnicalLevel = "extensive"
)

type QuestionType string

const (
	QuestionMCQ        QuestionType = "mcq"
	QuestionNumerical  QuestionType = "numerical"
	QuestionSubjective QuestionType = "subjective"
)

// DifficultyConstraints is the envelope a DifficultyVector must fit for a persona.
type DifficultyConstraints struct {
	MaxBloomLevel              int                  `json:"max_bloom_level" yaml:"max_bloom_level"`
	MaxAbstractionLevel        int                  `json:"max_abstraction_level" yaml:"max_abstraction_level"`
	MaxComputationalComplexity int                  `json:"max_computational_complexity" yaml:"max_computational_complexity"`
	AllowedConceptIntegration  []ConceptIntegration `json:"allowed_concept_integration" yaml:"allowed_concept_integration"`
	MaxRealWorldContext        int                  `json:"max_real_world_context" yaml:"max_real_world_context"`
	AllowedProblemApproaches   []ProblemApproach    `json:"allowed_problem_approaches" yaml:"allowed_problem_approaches"`
}

// AllowsIntegration reports whether the integration value is in the allowed set.
func (c DifficultyConstraints) AllowsIntegration(v ConceptIntegration) bool {
	return slices.Contains(c.AllowedConceptIntegration, v)
}

// AllowsApproach reports whether the approach value is in the allowed set.
func (c DifficultyConstraints) AllowsApproach(v ProblemApproach) bool {
	return slices.Contains(c.AllowedProblemApproaches, v)
}

// Persona is the per-class-level profile bounding acceptable content.
type Persona struct {
	ClassLevel             int                   `json:"class_level" yaml:"class_level"`
	CognitiveMaturity      int                   `json:"cognitive_maturity" yaml:"cognitive_maturity"`
	ReadingLevel           int                   `json:"reading_level" yaml:"reading_level"`
	VocabularyComplexity   VocabularyLevel       `json:"vocabulary_complexity" yaml:"vocabulary_complexity"`
	TechnicalTermUsage     TechnicalLevel        `json:"technical_term_usage" yaml:"technical_term_usage"`
	MaxSteps               int                   `json:"max_steps" yaml:"max_steps"`
	MaxTimeMinutes         int                   `json:"max_time_minutes" yaml:"max_time_minutes"`
	PreferredQuestionTypes []QuestionType        `json:"preferred_question_types" yaml:"preferred_question_types"`
	Constraints            DifficultyConstraints `json:"difficulty_constraints" yaml:"difficulty_constraints"`
}

// Validate checks the persona's attribute ranges.
func (p *Persona) Validate() error {
	var problems []string
	if p.ClassLevel < MinPersonaLevel || p.ClassLevel > MaxPersonaLevel {
		problems = append(problems, fmt.Sprintf("class_level must be between %d and %d, got %d", MinPersonaLevel, MaxPersonaLevel, p.ClassLevel))
	}
	if p.CognitiveMaturity < 1 || p.CognitiveMaturity > 5 {
		problems = append(problems, fmt.Sprintf("cognitive_maturity must be between 1 and 5, got %d", p.CognitiveMaturity))
	}
	if p.ReadingLevel < 8 || p.ReadingLevel > 16 {
		problems = append(problems, fmt.Sprintf("reading_level must be between 8 and 16, got %d", p.ReadingLevel))
	}
	switch p.VocabularyComplexity {
	case VocabularyBasic, VocabularyIntermediate, VocabularyAdvanced:
	default:
		problems = append(problems, fmt.Sprintf("unknown vocabulary_complexity %q", string(p.VocabularyComplexity)))
	}
	switch p.TechnicalTermUsage {
	case TechnicalMinimal, TechnicalModerate, TechnicalExtensive:
	default:
		problems = append(problems, fmt.Sprintf("unknown technical_term_usage %q", string(p.TechnicalTermUsage)))
	}
	if p.MaxSteps <= 0 {
		problems = append(problems, "max_steps must be positive")
	}
	if p.MaxTimeMinutes <= 0 {
		problems = append(problems, "max_time_minutes must be positive")
	}
	for _, qt := range p.PreferredQuestionTypes {
		switch qt {
		case QuestionMCQ, QuestionNumerical, QuestionSubjective:
		default:
			problems = append(problems, fmt.Sprintf("unknown question type %q", string(qt)))
		}
	}
	c := p.Constraints
	if c.MaxBloomLevel < MinBloomLevel || c.MaxBloomLevel > MaxBloomLevel {
		problems = append(problems, fmt.Sprintf("max_bloom_level must be between %d and %d", MinBloomLevel, MaxBloomLevel))
	}
	if c.MaxAbstractionLevel < MinAbstractionLevel || c.MaxAbstractionLevel > MaxAbstractionLevel {
		problems = append(problems, fmt.Sprintf("max_abstraction_level must be between %d and %d", MinAbstractionLevel, MaxAbstractionLevel))
	}
	if c.MaxComputationalComplexity < MinComplexity {
		problems = append(problems, "max_computational_complexity must be positive")
	}
	if c.MaxRealWorldContext < MinRealWorldContext || c.MaxRealWorldContext > MaxRealWorldContext {
		problems = append(problems, fmt.Sprintf("max_real_world_context must be between %d and %d", MinRealWorldContext, MaxRealWorldContext))
	}
	for _, v := range c.AllowedConceptIntegration {
		if !v.Valid() {
			problems = append(problems, fmt.Sprintf("unknown concept integration %q", string(v)))
		}
	}
	for _, v := range c.AllowedProblemApproaches {
		if !v.Valid() {
			problems = append(problems, fmt.Sprintf("unknown problem approach %q", string(v)))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Field: "persona", Problems: problems}
	}
	return nil
}

// Clone returns a deep copy so catalog entries can be handed out safely.
func (p Persona) Clone() Persona {
	out := p
	out.PreferredQuestionTypes = slices.Clone(p.PreferredQuestionTypes)
	out.Constraints.AllowedConceptIntegration = slices.Clone(p.Constraints.AllowedConceptIntegration)
	out.Constraints.AllowedProblemApproaches = slices.Clone(p.Constraints.AllowedProblemApproaches)
	return out
}
