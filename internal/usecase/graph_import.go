package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

// GraphFormatVersion is written into every export's metadata.
const GraphFormatVersion = "1.0"

// GraphExport is the portable document produced by ExportGraph and accepted by ImportGraph.
type GraphExport struct {
	Concepts      []entity.Concept      `json:"concepts"`
	Relationships []entity.Relationship `json:"relationships"`
	Metadata      ExportMetadata        `json:"metadata"`
}

type ExportMetadata struct {
	ExportedAt        time.Time `json:"exported_at"`
	Version           string    `json:"version"`
	ConceptCount      int       `json:"concept_count"`
	RelationshipCount int       `json:"relationship_count"`
}

// ImportResult summarises an import. On failure Errors lists every problem found.
type ImportResult struct {
	Success               bool     `json:"success"`
	ConceptsImported      int      `json:"concepts_imported"`
	RelationshipsImported int      `json:"relationships_imported"`
	Errors                []string `json:"errors"`
	DryRun                bool     `json:"dry_run,omitempty"`
}

// ImportError rejects a whole import. It matches ErrCycle when the document contains a
// cycle and ErrValidation otherwise.
type ImportError struct {
	Message  string
	Problems []string
	cause    error
}

func (e *ImportError) Error() string { return e.Message }

func (e *ImportError) Unwrap() error { return e.cause }

func (e *ImportError) Is(target error) bool {
	if target != entity.ErrValidation {
		return false
	}
	var cycle *entity.CycleError
	return !errors.As(e.cause, &cycle)
}

type importConfig struct {
	dryRun bool
}

// ImportOption tunes ImportGraph.
type ImportOption func(*importConfig)

// DryRun validates the document completely without writing anything.
func DryRun(enabled bool) ImportOption {
	return func(c *importConfig) { c.dryRun = enabled }
}

var (
	requiredConceptFields      = []string{"id", "name", "class_level", "keywords", "description", "difficulty_dna"}
	requiredRelationshipFields = []string{"source_id", "target_id", "relationship_type"}
)

func (m *graphManager) ExportGraph(ctx context.Context) (*GraphExport, error) {
	concepts, rels, err := m.store.Dump(ctx)
	if err != nil {
		return nil, entity.WrapStore("dump graph", err)
	}
	if concepts == nil {
		concepts = []entity.Concept{}
	}
	if rels == nil {
		rels = []entity.Relationship{}
	}
	m.log.WithFields(logrus.Fields{
		"concepts":      len(concepts),
		"relationships": len(rels),
	}).Info("graph exported")
	return &GraphExport{
		Concepts:      concepts,
		Relationships: rels,
		Metadata: ExportMetadata{
			ExportedAt:        m.clock().UTC(),
			Version:           GraphFormatVersion,
			ConceptCount:      len(concepts),
			RelationshipCount: len(rels),
		},
	}, nil
}

func (m *graphManager) ImportGraph(ctx context.Context, data map[string]any, opts ...ImportOption) (*ImportResult, error) {
	var cfg importConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if problems := checkImportStructure(data); len(problems) > 0 {
		return m.rejectImport("Import validation failed: "+strings.Join(problems, ", "), problems, nil)
	}

	concepts, rels, err := m.parseImport(data)
	if err != nil {
		msg := "Failed to parse import data: " + err.Error()
		return m.rejectImport(msg, []string{msg}, err)
	}

	known := lo.SliceToMap(concepts, func(c entity.Concept) (string, struct{}) { return c.ID, struct{}{} })
	for _, rel := range rels {
		if _, ok := known[rel.SourceID]; !ok {
			msg := "Relationship references non-existent source concept: " + rel.SourceID
			return m.rejectImport(msg, []string{msg}, nil)
		}
		if _, ok := known[rel.TargetID]; !ok {
			msg := "Relationship references non-existent target concept: " + rel.TargetID
			return m.rejectImport(msg, []string{msg}, nil)
		}
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	existing, existingRels, err := m.store.Dump(ctx)
	if err != nil {
		return nil, entity.WrapStore("dump graph", err)
	}
	if cycle := findImportCycle(concepts, rels, existing, existingRels); len(cycle) > 0 {
		cycleErr := &entity.CycleError{Path: cycle}
		msg := "Import data contains cycles: " + cycleErr.PathString()
		cycleErr.Message = msg
		return m.rejectImport(msg, []string{msg}, cycleErr)
	}

	result := &ImportResult{
		Success:               true,
		ConceptsImported:      len(concepts),
		RelationshipsImported: len(rels),
		Errors:                []string{},
		DryRun:                cfg.dryRun,
	}
	if cfg.dryRun {
		m.log.WithFields(logrus.Fields{"concepts": len(concepts), "relationships": len(rels)}).Info("graph import validated (dry run)")
		return result, nil
	}

	if err := m.store.BulkUpsert(ctx, concepts, rels); err != nil {
		return nil, entity.WrapStore("bulk upsert", err)
	}
	m.invalidateClosures(ctx)

	m.log.WithFields(logrus.Fields{"concepts": len(concepts), "relationships": len(rels)}).Info("graph imported")
	return result, nil
}

func (m *graphManager) rejectImport(msg string, problems []string, cause error) (*ImportResult, error) {
	m.log.WithField("problems", len(problems)).Error(msg)
	return &ImportResult{Success: false, Errors: problems}, &ImportError{Message: msg, Problems: problems, cause: cause}
}

// checkImportStructure collects every structural problem before anything is parsed.
func checkImportStructure(data map[string]any) []string {
	var problems []string
	concepts, conceptsOK := data["concepts"]
	if !conceptsOK {
		problems = append(problems, "Missing 'concepts' key in import data")
	} else if _, ok := concepts.([]any); !ok {
		problems = append(problems, "'concepts' must be a list")
	}
	rels, relsOK := data["relationships"]
	if !relsOK {
		problems = append(problems, "Missing 'relationships' key in import data")
	} else if _, ok := rels.([]any); !ok {
		problems = append(problems, "'relationships' must be a list")
	}
	if len(problems) > 0 {
		return problems
	}

	problems = append(problems, checkItems("Concept", concepts.([]any), requiredConceptFields)...)
	problems = append(problems, checkItems("Relationship", rels.([]any), requiredRelationshipFields)...)
	return problems
}

func checkItems(kind string, items []any, required []string) []string {
	var problems []string
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s at index %d is not a dictionary", kind, i))
			continue
		}
		for _, field := range required {
			if _, ok := obj[field]; !ok {
				problems = append(problems, fmt.Sprintf("%s at index %d missing required field: %s", kind, i, field))
			}
		}
	}
	return problems
}

// importedConcept keeps timestamps optional so absent values can default to now.
type importedConcept struct {
	entity.Concept
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type importedRelationship struct {
	entity.Relationship
	CreatedAt *time.Time `json:"created_at"`
}

func (m *graphManager) parseImport(data map[string]any) ([]entity.Concept, []entity.Relationship, error) {
	now := m.clock().UTC()

	rawConcepts := data["concepts"].([]any)
	concepts := make([]entity.Concept, 0, len(rawConcepts))
	for i, raw := range rawConcepts {
		var item importedConcept
		if err := redecode(raw, &item); err != nil {
			return nil, nil, fmt.Errorf("concept at index %d: %w", i, err)
		}
		if _, ok := raw.(map[string]any)["subject"]; !ok {
			return nil, nil, fmt.Errorf("concept at index %d: missing subject", i)
		}
		c := item.Concept
		c.CreatedAt = lo.FromPtrOr(item.CreatedAt, now)
		c.UpdatedAt = lo.FromPtrOr(item.UpdatedAt, now)
		c.Normalize(now)
		if c.ID == "" {
			return nil, nil, fmt.Errorf("concept at index %d: id is empty", i)
		}
		if err := c.Validate(); err != nil {
			return nil, nil, fmt.Errorf("concept at index %d: %w", i, err)
		}
		concepts = append(concepts, c)
	}

	rawRels := data["relationships"].([]any)
	rels := make([]entity.Relationship, 0, len(rawRels))
	for i, raw := range rawRels {
		var item importedRelationship
		if err := redecode(raw, &item); err != nil {
			return nil, nil, fmt.Errorf("relationship at index %d: %w", i, err)
		}
		rel := item.Relationship
		if !rel.Type.Valid() {
			return nil, nil, fmt.Errorf("relationship at index %d: unknown relationship type %q", i, string(rel.Type))
		}
		rel.CreatedAt = lo.FromPtrOr(item.CreatedAt, now)
		rels = append(rels, rel)
	}
	return concepts, rels, nil
}

// redecode converts a generic JSON value into a typed struct.
func redecode(raw any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}

// findImportCycle runs a three-colour DFS over the ordering edges of the imported data
// merged with the current graph. It returns the cycle as concept names, closed on its
// first node ("A -> B -> A"), or nil.
func findImportCycle(concepts []entity.Concept, rels []entity.Relationship, existing []entity.Concept, existingRels []entity.Relationship) []string {
	const (
		white = iota
		gray
		black
	)

	names := make(map[string]string, len(concepts)+len(existing))
	var order []string
	for _, c := range existing {
		names[c.ID] = c.Name
	}
	for _, c := range concepts {
		names[c.ID] = c.Name
		order = append(order, c.ID)
	}
	for _, c := range existing {
		order = append(order, c.ID)
	}

	adjacency := make(map[string][]string)
	for _, rel := range append(append([]entity.Relationship{}, rels...), existingRels...) {
		if rel.Type.Ordering() {
			adjacency[rel.SourceID] = append(adjacency[rel.SourceID], rel.TargetID)
		}
	}

	color := make(map[string]int, len(order))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, next := range adjacency[id] {
			switch color[next] {
			case gray:
				start := lo.IndexOf(stack, next)
				cycle = append(append([]string{}, stack[start:]...), next)
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range order {
		if color[id] == white && visit(id) {
			break
		}
	}
	if cycle == nil {
		return nil
	}
	return lo.Map(cycle, func(id string, _ int) string {
		if name, ok := names[id]; ok && name != "" {
			return name
		}
		return id
	})
}
