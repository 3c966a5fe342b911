package repository

import (
	"fmt"
	"reflect"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/pkg/filterexpr"
)

// ConceptFilter is a typed conjunctive predicate over concepts. Nil fields are ignored and an
// empty filter matches every concept. Bounds are inclusive.
type ConceptFilter struct {
	Subject       *entity.Subject
	ClassLevel    *int
	ClassLevelMin *int
	ClassLevelMax *int
	// Keyword matches when any keyword contains it (case-sensitive).
	Keyword *string

	MinBloom       *int
	MaxBloom       *int
	MinAbstraction *int
	MaxAbstraction *int
	MinComplexity  *int
	MaxComplexity  *int
	MinRealWorld   *int
	MaxRealWorld   *int

	Integration *entity.ConceptIntegration
	Approach    *entity.ProblemApproach
}

// Matches evaluates the filter against a concept in memory.
func (f ConceptFilter) Matches(c *entity.Concept) bool {
	dna := c.DifficultyDNA
	switch {
	case f.Subject != nil && c.Subject != *f.Subject:
		return false
	case f.ClassLevel != nil && c.ClassLevel != *f.ClassLevel:
		return false
	case f.ClassLevelMin != nil && c.ClassLevel < *f.ClassLevelMin:
		return false
	case f.ClassLevelMax != nil && c.ClassLevel > *f.ClassLevelMax:
		return false
	case f.Keyword != nil && !c.HasKeywordContaining(*f.Keyword):
		return false
	case !within(dna.BloomLevel, f.MinBloom, f.MaxBloom):
		return false
	case !within(dna.AbstractionLevel, f.MinAbstraction, f.MaxAbstraction):
		return false
	case !within(dna.ComputationalComplexity, f.MinComplexity, f.MaxComplexity):
		return false
	case !within(dna.RealWorldContext, f.MinRealWorld, f.MaxRealWorld):
		return false
	case f.Integration != nil && dna.ConceptIntegration != *f.Integration:
		return false
	case f.Approach != nil && dna.ProblemSolvingApproach != *f.Approach:
		return false
	}
	return true
}

func within(v int, lo, hi *int) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

// ConceptFilterSchema maps CEL filter fields onto ConceptFilter.
var ConceptFilterSchema = filterexpr.Schema{
	Fields: map[string]filterexpr.FieldRule{
		"subject": {
			Kind:   filterexpr.KindString,
			Ops:    map[filterexpr.Op]string{filterexpr.OpEQ: "Subject"},
			Setter: subjectSetter,
		},
		"class_level": {
			Kind: filterexpr.KindInt,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ:  "ClassLevel",
				filterexpr.OpGTE: "ClassLevelMin",
				filterexpr.OpLTE: "ClassLevelMax",
			},
		},
		"keyword": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpContains: "Keyword"},
		},
		"bloom_level":              numberRange("MinBloom", "MaxBloom"),
		"abstraction_level":        numberRange("MinAbstraction", "MaxAbstraction"),
		"computational_complexity": numberRange("MinComplexity", "MaxComplexity"),
		"real_world_context":       numberRange("MinRealWorld", "MaxRealWorld"),
		"concept_integration": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Integration"},
			Setter: enumSetter(func(s string) bool {
				return entity.ConceptIntegration(s).Valid()
			}),
		},
		"problem_solving_approach": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Approach"},
			Setter: enumSetter(func(s string) bool {
				return entity.ProblemApproach(s).Valid()
			}),
		},
	},
}

func numberRange(minField, maxField string) filterexpr.FieldRule {
	return filterexpr.FieldRule{
		Kind: filterexpr.KindInt,
		Ops: map[filterexpr.Op]string{
			filterexpr.OpGTE: minField,
			filterexpr.OpLTE: maxField,
		},
	}
}

func subjectSetter(field reflect.Value, value any) error {
	raw, _ := value.(string)
	subject, err := entity.ParseSubject(raw)
	if err != nil {
		return err
	}
	field.Elem().SetString(string(subject))
	return nil
}

func enumSetter(valid func(string) bool) filterexpr.SetterFunc {
	return func(field reflect.Value, value any) error {
		raw, _ := value.(string)
		if !valid(raw) {
			return fmt.Errorf("unknown value %q", raw)
		}
		field.Elem().SetString(raw)
		return nil
	}
}

// ParseConceptFilter binds a CEL expression such as
// `subject == "physics" && bloom_level >= 3 && keyword.contains("force")`.
func ParseConceptFilter(expr string) (ConceptFilter, error) {
	var f ConceptFilter
	if err := filterexpr.BindCELTo(expr, &f, ConceptFilterSchema); err != nil {
		return ConceptFilter{}, &entity.ValidationError{Field: "filter", Problems: []string{err.Error()}}
	}
	return f, nil
}
