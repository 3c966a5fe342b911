package repository

import (
	"cmp"
	"slices"
	"strings"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/pkg/filterexpr"
)

// Pagination holds 1-based page parameters for listing concepts.
type Pagination struct {
	PageNo   int32
	PageSize int32
}

func (p *Pagination) Offset() int32 { return (p.PageNo - 1) * p.PageSize }

// ConceptOrderSchema whitelists the fields a concept listing can be ordered by. The default
// keeps store order.
var ConceptOrderSchema = filterexpr.OrderSchema{
	Fields: []string{"id", "name", "subject", "class_level", "bloom_level", "abstraction_level",
		"computational_complexity", "real_world_context", "created_at"},
}

// SortConcepts orders concepts in place by an order_by string such as "class_level desc, name".
// The sort is stable, so ties keep store order.
func SortConcepts(concepts []entity.Concept, orderBy string) error {
	keys, err := filterexpr.ParseOrderBy(orderBy, ConceptOrderSchema)
	if err != nil {
		return &entity.ValidationError{Field: "order_by", Problems: []string{err.Error()}}
	}
	if len(keys) == 0 {
		return nil
	}
	slices.SortStableFunc(concepts, func(a, b entity.Concept) int {
		for _, key := range keys {
			c := compareConceptField(&a, &b, key.Field)
			if key.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return nil
}

func compareConceptField(a, b *entity.Concept, field string) int {
	switch field {
	case "id":
		return strings.Compare(a.ID, b.ID)
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "subject":
		return strings.Compare(string(a.Subject), string(b.Subject))
	case "class_level":
		return cmp.Compare(a.ClassLevel, b.ClassLevel)
	case "bloom_level":
		return cmp.Compare(a.DifficultyDNA.BloomLevel, b.DifficultyDNA.BloomLevel)
	case "abstraction_level":
		return cmp.Compare(a.DifficultyDNA.AbstractionLevel, b.DifficultyDNA.AbstractionLevel)
	case "computational_complexity":
		return cmp.Compare(a.DifficultyDNA.ComputationalComplexity, b.DifficultyDNA.ComputationalComplexity)
	case "real_world_context":
		return cmp.Compare(a.DifficultyDNA.RealWorldContext, b.DifficultyDNA.RealWorldContext)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

// Page returns the slice of concepts for p. A zero page size returns everything.
func Page(concepts []entity.Concept, p Pagination) []entity.Concept {
	if p.PageSize <= 0 {
		return concepts
	}
	if p.PageNo < 1 {
		p.PageNo = 1
	}
	start := int(p.Offset())
	if start >= len(concepts) {
		return []entity.Concept{}
	}
	end := min(start+int(p.PageSize), len(concepts))
	return concepts[start:end]
}
