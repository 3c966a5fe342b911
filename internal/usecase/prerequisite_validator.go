package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

// RelationshipCheck is the outcome of a dry validation of a prospective edge.
type RelationshipCheck struct {
	IsValid bool              `json:"is_valid"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Readiness tells whether a student has mastered every prerequisite of a concept.
type Readiness struct {
	IsReady            bool             `json:"is_ready"`
	Message            string           `json:"message"`
	UnmetPrerequisites []entity.Concept `json:"unmet_prerequisites"`
}

// PrerequisiteValidator is a stateless policy layer over GraphManager.
type PrerequisiteValidator interface {
	ValidateRelationship(ctx context.Context, sourceID, targetID string) (*RelationshipCheck, error)
	CheckReadiness(ctx context.Context, studentID, conceptID string, mastered map[string]bool) (*Readiness, error)
}

func NewPrerequisiteValidator(graph GraphManager) PrerequisiteValidator {
	return &prerequisiteValidator{graph: graph}
}

type prerequisiteValidator struct {
	graph GraphManager
}

func (v *prerequisiteValidator) ValidateRelationship(ctx context.Context, sourceID, targetID string) (*RelationshipCheck, error) {
	source, err := v.graph.GetConcept(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return &RelationshipCheck{
			Message: "Source concept not found: " + sourceID,
			Details: map[string]string{"source_id": sourceID},
		}, nil
	}
	target, err := v.graph.GetConcept(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return &RelationshipCheck{
			Message: "Target concept not found: " + targetID,
			Details: map[string]string{"target_id": targetID},
		}, nil
	}

	details := map[string]string{
		"source_id":   sourceID,
		"target_id":   targetID,
		"source_name": source.Name,
		"target_name": target.Name,
	}
	cycle, err := v.graph.DetectCycle(ctx, sourceID, targetID)
	if err != nil {
		return nil, err
	}
	if cycle {
		return &RelationshipCheck{
			Message: fmt.Sprintf("Cannot create relationship: would create a cycle. A path already exists from %s (%s) to %s (%s)",
				targetID, target.Name, sourceID, source.Name),
			Details: details,
		}, nil
	}
	return &RelationshipCheck{
		IsValid: true,
		Message: "Relationship is valid and will not create a cycle",
		Details: details,
	}, nil
}

func (v *prerequisiteValidator) CheckReadiness(ctx context.Context, studentID, conceptID string, mastered map[string]bool) (*Readiness, error) {
	concept, err := v.graph.GetConcept(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return &Readiness{
			Message:            "Concept not found: " + conceptID,
			UnmetPrerequisites: []entity.Concept{},
		}, nil
	}

	prereqs, err := v.graph.GetPrerequisites(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	unmet := lo.Filter(prereqs, func(c entity.Concept, _ int) bool { return !mastered[c.ID] })
	if len(unmet) > 0 {
		names := lo.Map(unmet, func(c entity.Concept, _ int) string { return c.Name })
		return &Readiness{
			Message: fmt.Sprintf("Student %s is not ready for '%s'. Unmet prerequisites: %s",
				studentID, concept.Name, strings.Join(names, ", ")),
			UnmetPrerequisites: unmet,
		}, nil
	}
	return &Readiness{
		IsReady:            true,
		Message:            fmt.Sprintf("Student %s is ready for '%s'", studentID, concept.Name),
		UnmetPrerequisites: []entity.Concept{},
	}, nil
}
