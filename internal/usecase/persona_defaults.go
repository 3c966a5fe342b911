package usecase

import "github.com/eslsoft/conceptgraph/internal/entity"

var (
	allQuestionTypes = []entity.QuestionType{entity.QuestionMCQ, entity.QuestionNumerical, entity.QuestionSubjective}
	singleOrMulti    = []entity.ConceptIntegration{entity.IntegrationSingle, entity.IntegrationMultiConcept}
	directOrSteps    = []entity.ProblemApproach{entity.ApproachDirect, entity.ApproachMultiStep}
)

// DefaultPersonas is the built-in catalog for class levels 8 to 12 plus exam preparation (13).
func DefaultPersonas() []entity.Persona {
	return []entity.Persona{
		{
			ClassLevel:             8,
			CognitiveMaturity:      2,
			ReadingLevel:           8,
			VocabularyComplexity:   entity.VocabularyBasic,
			TechnicalTermUsage:     entity.TechnicalMinimal,
			MaxSteps:               4,
			MaxTimeMinutes:         5,
			PreferredQuestionTypes: []entity.QuestionType{entity.QuestionMCQ, entity.QuestionNumerical},
			Constraints: entity.DifficultyConstraints{
				MaxBloomLevel:              3,
				MaxAbstractionLevel:        2,
				MaxComputationalComplexity: 4,
				AllowedConceptIntegration:  []entity.ConceptIntegration{entity.IntegrationSingle},
				MaxRealWorldContext:        3,
				AllowedProblemApproaches:   directOrSteps,
			},
		},
		{
			ClassLevel:             9,
			CognitiveMaturity:      3,
			ReadingLevel:           9,
			VocabularyComplexity:   entity.VocabularyIntermediate,
			TechnicalTermUsage:     entity.TechnicalMinimal,
			MaxSteps:               6,
			MaxTimeMinutes:         7,
			PreferredQuestionTypes: allQuestionTypes,
			Constraints: entity.DifficultyConstraints{
				MaxBloomLevel:              4,
				MaxAbstractionLevel:        3,
				MaxComputationalComplexity: 6,
				AllowedConceptIntegration:  singleOrMulti,
				MaxRealWorldContext:        3,
				AllowedProblemApproaches:   directOrSteps,
			},
		},
		{
			ClassLevel:             10,
			CognitiveMaturity:      3,
			ReadingLevel:           10,
			VocabularyComplexity:   entity.VocabularyIntermediate,
			TechnicalTermUsage:     entity.TechnicalModerate,
			MaxSteps:               8,
			MaxTimeMinutes:         10,
			PreferredQuestionTypes: allQuestionTypes,
			Constraints: entity.DifficultyConstraints{
				MaxBloomLevel:              4,
				MaxAbstractionLevel:        3,
				MaxComputationalComplexity: 8,
				AllowedConceptIntegration:  singleOrMulti,
				MaxRealWorldContext:        4,
				AllowedProblemApproaches:   []entity.ProblemApproach{entity.ApproachDirect, entity.ApproachMultiStep, entity.ApproachProof},
			},
		},
		{
			ClassLevel:             11,
			CognitiveMaturity:      4,
			ReadingLevel:           11,
			VocabularyComplexity:   entity.VocabularyAdvanced,
			TechnicalTermUsage:     entity.TechnicalModerate,
			MaxSteps:               10,
			MaxTimeMinutes:         12,
			PreferredQuestionTypes: allQuestionTypes,
			Constraints: entity.DifficultyConstraints{
				MaxBloomLevel:              5,
				MaxAbstractionLevel:        4,
				MaxComputationalComplexity: 10,
				AllowedConceptIntegration:  entity.ConceptIntegrations(),
				MaxRealWorldContext:        4,
				AllowedProblemApproaches:   entity.ProblemApproaches(),
			},
		},
		{
			ClassLevel:             12,
			CognitiveMaturity:      5,
			ReadingLevel:           12,
			VocabularyComplexity:   entity.VocabularyAdvanced,
			TechnicalTermUsage:     entity.TechnicalExtensive,
			MaxSteps:               12,
			MaxTimeMinutes:         15,
			PreferredQuestionTypes: allQuestionTypes,
			Constraints: entity.DifficultyConstraints{
				MaxBloomLevel:              6,
				MaxAbstractionLevel:        5,
				MaxComputationalComplexity: 12,
				AllowedConceptIntegration:  entity.ConceptIntegrations(),
				MaxRealWorldContext:        5,
				AllowedProblemApproaches:   entity.ProblemApproaches(),
			},
		},
		{
			// exam preparation: short, hard multiple-choice items
			ClassLevel:             entity.ExamPrepLevel,
			CognitiveMaturity:      5,
			ReadingLevel:           12,
			VocabularyComplexity:   entity.VocabularyAdvanced,
			TechnicalTermUsage:     entity.TechnicalExtensive,
			MaxSteps:               15,
			MaxTimeMinutes:         3,
			PreferredQuestionTypes: []entity.QuestionType{entity.QuestionMCQ},
			Constraints: entity.DifficultyConstraints{
				MaxBloomLevel:              6,
				MaxAbstractionLevel:        5,
				MaxComputationalComplexity: 15,
				AllowedConceptIntegration:  entity.ConceptIntegrations(),
				MaxRealWorldContext:        5,
				AllowedProblemApproaches:   entity.ProblemApproaches(),
			},
		},
	}
}
