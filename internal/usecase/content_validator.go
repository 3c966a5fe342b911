package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

// GenerationRequest is what a content generator receives for one attempt.
type GenerationRequest struct {
	Concept     entity.Concept
	Target      entity.DifficultyVector
	Persona     entity.Persona
	Attempt     int
	LastRejects []string
}

// QuestionPayload is a candidate question produced by a generator.
type QuestionPayload struct {
	Text          string                  `json:"question_text"`
	QuestionType  entity.QuestionType     `json:"question_type"`
	DifficultyDNA entity.DifficultyVector `json:"difficulty_dna"`
}

// ContentGenerator produces candidate questions. Implementations live outside this module.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*QuestionPayload, error)
}

// ContentValidator gates generated content against the difficulty and persona rules.
type ContentValidator interface {
	TargetVector(concept entity.Concept, adjustment float64) entity.DifficultyVector
	// Review returns every reason the payload is unacceptable for the persona; empty means accepted.
	Review(payload *QuestionPayload, persona entity.Persona) []string
	// Generate asks gen for up to 1+retries candidates and returns the first accepted one.
	Generate(ctx context.Context, gen ContentGenerator, concept entity.Concept, persona entity.Persona, adjustment float64, retries int) (*QuestionPayload, error)
}

func NewContentValidator(scorer DifficultyScorer, text QuestionTextChecker, log logrus.FieldLogger) ContentValidator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &contentValidator{
		scorer: scorer,
		text:   text,
		log:    log.WithField("component", "content_validator"),
	}
}

type contentValidator struct {
	scorer DifficultyScorer
	text   QuestionTextChecker
	log    logrus.FieldLogger
}

func (v *contentValidator) TargetVector(concept entity.Concept, adjustment float64) entity.DifficultyVector {
	return v.scorer.Adjust(concept.DifficultyDNA, adjustment)
}

func (v *contentValidator) Review(payload *QuestionPayload, persona entity.Persona) []string {
	if payload == nil {
		return []string{"generator returned no payload"}
	}
	var reasons []string
	if res := v.scorer.Validate(payload.DifficultyDNA); !res.IsValid {
		reasons = append(reasons, res.Errors...)
	} else if !v.scorer.FitsPersona(payload.DifficultyDNA, &persona) {
		reasons = append(reasons, fmt.Sprintf("difficulty does not fit class %d persona", persona.ClassLevel))
	}
	if strings.TrimSpace(payload.Text) != "" {
		if check := v.text.Check(payload.Text, persona); !check.Valid {
			reasons = append(reasons, check.Errors...)
		}
	}
	return reasons
}

func (v *contentValidator) Generate(ctx context.Context, gen ContentGenerator, concept entity.Concept, persona entity.Persona, adjustment float64, retries int) (*QuestionPayload, error) {
	if gen == nil {
		return nil, errors.New("content generator is required")
	}
	retries = max(retries, 0)
	target := v.TargetVector(concept, adjustment)
	log := v.log.WithFields(logrus.Fields{"concept_id": concept.ID, "class_level": persona.ClassLevel})

	var (
		attempts []string
		last     []string
	)
	for attempt := 1; attempt <= retries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		payload, err := gen.Generate(ctx, GenerationRequest{
			Concept:     concept,
			Target:      target,
			Persona:     persona,
			Attempt:     attempt,
			LastRejects: last,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			last = []string{err.Error()}
		} else {
			last = v.Review(payload, persona)
			if len(last) == 0 {
				log.WithField("attempt", attempt).Info("generated content accepted")
				return payload, nil
			}
		}
		log.WithField("attempt", attempt).WithField("reasons", last).Warn("generated content rejected")
		attempts = append(attempts, fmt.Sprintf("attempt %d: %s", attempt, strings.Join(last, ", ")))
	}
	return nil, &entity.ValidationError{Field: "generated content", Problems: attempts}
}
