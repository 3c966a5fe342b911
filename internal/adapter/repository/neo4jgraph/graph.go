package neo4jgraph

import (
	"context"
	"fmt"
	"slices"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

var _ repository.GraphStore = (*Store)(nil)

const conceptSequence = "concept"

const conceptProjection = "c.id AS id, c.name AS name, c.subject AS subject, c.class_level AS class_level," +
	" c.keywords AS keywords, c.description AS description, c.bloom_level AS bloom_level," +
	" c.abstraction_level AS abstraction_level, c.computational_complexity AS computational_complexity," +
	" c.concept_integration AS concept_integration, c.real_world_context AS real_world_context," +
	" c.problem_solving_approach AS problem_solving_approach, c.created_at AS created_at, c.updated_at AS updated_at"

// mergeConcepts upserts rows; seq is only written for nodes that did not exist.
const mergeConcepts = "UNWIND $rows AS row" +
	" MERGE (c:Concept {id: row.id})" +
	" ON CREATE SET c.seq = row.seq" +
	" SET c += row.props"

const mergeRelationships = "UNWIND $rows AS row" +
	" MATCH (a:Concept {id: row.source_id})" +
	" MATCH (b:Concept {id: row.target_id})" +
	" MERGE (a)-[r:RELATES {type: row.type}]->(b)" +
	" ON CREATE SET r.created_at = row.created_at" +
	" RETURN count(*) AS matched"

func conceptProps(c *entity.Concept) map[string]any {
	dna := c.DifficultyDNA
	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return map[string]any{
		"name":                     c.Name,
		"subject":                  string(c.Subject),
		"class_level":              c.ClassLevel,
		"keywords":                 keywords,
		"description":              c.Description,
		"bloom_level":              dna.BloomLevel,
		"abstraction_level":        dna.AbstractionLevel,
		"computational_complexity": dna.ComputationalComplexity,
		"concept_integration":      string(dna.ConceptIntegration),
		"real_world_context":       dna.RealWorldContext,
		"problem_solving_approach": string(dna.ProblemSolvingApproach),
		"created_at":               formatTime(c.CreatedAt),
		"updated_at":               formatTime(c.UpdatedAt),
	}
}

func recordConcept(record *neo4j.Record) (entity.Concept, error) {
	get := func(key string) any {
		v, _ := record.Get(key)
		return v
	}
	c := entity.Concept{
		ID:          asString(get("id")),
		Name:        asString(get("name")),
		Subject:     entity.Subject(asString(get("subject"))),
		ClassLevel:  int(asInt64(get("class_level"))),
		Keywords:    asStrings(get("keywords")),
		Description: asString(get("description")),
		DifficultyDNA: entity.DifficultyVector{
			BloomLevel:              int(asInt64(get("bloom_level"))),
			AbstractionLevel:        int(asInt64(get("abstraction_level"))),
			ComputationalComplexity: int(asInt64(get("computational_complexity"))),
			ConceptIntegration:      entity.ConceptIntegration(asString(get("concept_integration"))),
			RealWorldContext:        int(asInt64(get("real_world_context"))),
			ProblemSolvingApproach:  entity.ProblemApproach(asString(get("problem_solving_approach"))),
		},
	}
	var err error
	if c.CreatedAt, err = parseTime(get("created_at")); err != nil {
		return entity.Concept{}, err
	}
	if c.UpdatedAt, err = parseTime(get("updated_at")); err != nil {
		return entity.Concept{}, err
	}
	return c, nil
}

func runConcepts(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]entity.Concept, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Concept, 0)
	for result.Next(ctx) {
		c, err := recordConcept(result.Record())
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, result.Err()
}

// upsertConcepts writes concepts inside tx, assigning insertion sequence numbers to new ids.
func upsertConcepts(ctx context.Context, tx neo4j.ManagedTransaction, concepts []entity.Concept) error {
	if len(concepts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(concepts))
	for _, c := range concepts {
		ids = append(ids, c.ID)
	}
	result, err := tx.Run(ctx, "UNWIND $ids AS id MATCH (c:Concept {id: id}) RETURN c.id AS id",
		map[string]any{"ids": ids})
	if err != nil {
		return err
	}
	existingIDs, err := collectStrings(ctx, result, "id")
	if err != nil {
		return err
	}
	existing := make(map[string]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = struct{}{}
	}
	var fresh []string
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			existing[id] = struct{}{}
			fresh = append(fresh, id)
		}
	}
	seqs := make(map[string]int64, len(fresh))
	if len(fresh) > 0 {
		first, err := nextSeq(ctx, tx, conceptSequence, len(fresh))
		if err != nil {
			return err
		}
		for i, id := range fresh {
			seqs[id] = first + int64(i)
		}
	}

	rows := make([]map[string]any, 0, len(concepts))
	for i := range concepts {
		c := &concepts[i]
		rows = append(rows, map[string]any{"id": c.ID, "seq": seqs[c.ID], "props": conceptProps(c)})
	}
	result, err = tx.Run(ctx, mergeConcepts, map[string]any{"rows": rows})
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

func relationshipRows(rels []entity.Relationship) []map[string]any {
	rows := make([]map[string]any, 0, len(rels))
	for _, rel := range rels {
		rows = append(rows, map[string]any{
			"source_id":  rel.SourceID,
			"target_id":  rel.TargetID,
			"type":       string(rel.Type),
			"created_at": formatTime(rel.CreatedAt),
		})
	}
	return rows
}

func (s *Store) PutConcept(ctx context.Context, concept *entity.Concept) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, upsertConcepts(ctx, tx, []entity.Concept{*concept})
	})
	if err != nil {
		return fmt.Errorf("upsert concept: %w", err)
	}
	return nil
}

func (s *Store) GetConcept(ctx context.Context, id string) (*entity.Concept, error) {
	concepts, err := s.GetConcepts(ctx, []string{id})
	if err != nil || len(concepts) == 0 {
		return nil, err
	}
	return &concepts[0], nil
}

func (s *Store) GetConcepts(ctx context.Context, ids []string) ([]entity.Concept, error) {
	if len(ids) == 0 {
		return []entity.Concept{}, nil
	}
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return runConcepts(ctx, tx, "UNWIND range(0, size($ids) - 1) AS i"+
			" MATCH (c:Concept {id: $ids[i]})"+
			" WITH c, min(i) AS pos ORDER BY pos"+
			" RETURN "+conceptProjection, map[string]any{"ids": ids})
	})
	if err != nil {
		return nil, fmt.Errorf("get concepts: %w", err)
	}
	return res.([]entity.Concept), nil
}

// QueryConcepts pushes the scalar predicates into Cypher and applies the keyword match in Go.
func (s *Store) QueryConcepts(ctx context.Context, filter repository.ConceptFilter) ([]entity.Concept, error) {
	var (
		where  []string
		params = map[string]any{}
	)
	add := func(cond, name string, value any) {
		where = append(where, cond)
		params[name] = value
	}
	if filter.Subject != nil {
		add("c.subject = $subject", "subject", string(*filter.Subject))
	}
	if filter.ClassLevel != nil {
		add("c.class_level = $class_level", "class_level", *filter.ClassLevel)
	}
	if filter.ClassLevelMin != nil {
		add("c.class_level >= $class_min", "class_min", *filter.ClassLevelMin)
	}
	if filter.ClassLevelMax != nil {
		add("c.class_level <= $class_max", "class_max", *filter.ClassLevelMax)
	}
	bounds := []struct {
		prop     string
		min, max *int
	}{
		{"bloom_level", filter.MinBloom, filter.MaxBloom},
		{"abstraction_level", filter.MinAbstraction, filter.MaxAbstraction},
		{"computational_complexity", filter.MinComplexity, filter.MaxComplexity},
		{"real_world_context", filter.MinRealWorld, filter.MaxRealWorld},
	}
	for _, b := range bounds {
		if b.min != nil {
			add(fmt.Sprintf("c.%[1]s >= $%[1]s_min", b.prop), b.prop+"_min", *b.min)
		}
		if b.max != nil {
			add(fmt.Sprintf("c.%[1]s <= $%[1]s_max", b.prop), b.prop+"_max", *b.max)
		}
	}
	if filter.Integration != nil {
		add("c.concept_integration = $integration", "integration", string(*filter.Integration))
	}
	if filter.Approach != nil {
		add("c.problem_solving_approach = $approach", "approach", string(*filter.Approach))
	}

	query := "MATCH (c:Concept)"
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " RETURN " + conceptProjection + " ORDER BY c.created_at, c.seq"

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return runConcepts(ctx, tx, query, params)
	})
	if err != nil {
		return nil, fmt.Errorf("query concepts: %w", err)
	}
	concepts := res.([]entity.Concept)
	if filter.Keyword == nil {
		return concepts, nil
	}
	out := make([]entity.Concept, 0, len(concepts))
	for i := range concepts {
		if filter.Matches(&concepts[i]) {
			out = append(out, concepts[i])
		}
	}
	return out, nil
}

func (s *Store) PutRelationship(ctx context.Context, rel *entity.Relationship) error {
	res, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, mergeRelationships, map[string]any{"rows": relationshipRows([]entity.Relationship{*rel})})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		matched, _ := record.Get("matched")
		return asInt64(matched), nil
	})
	if err != nil {
		return fmt.Errorf("insert relationship: %w", err)
	}
	if res.(int64) == 0 {
		return &entity.NotFoundError{Kind: "Relationship endpoint", ID: rel.SourceID + " -> " + rel.TargetID}
	}
	return nil
}

func (s *Store) FindPath(ctx context.Context, from, to string, types []entity.RelationshipType) ([]string, error) {
	if from == to {
		return []string{from}, nil
	}
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, "MATCH (a:Concept {id: $from}), (b:Concept {id: $to})"+
			" MATCH p = shortestPath((a)-[:RELATES*1..]->(b))"+
			" WHERE all(r IN relationships(p) WHERE size($types) = 0 OR r.type IN $types)"+
			" RETURN [n IN nodes(p) | n.id] AS ids LIMIT 1",
			map[string]any{"from": from, "to": to, "types": typeParams(types)})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return []string(nil), result.Err()
		}
		ids, _ := result.Record().Get("ids")
		return asStrings(ids), nil
	})
	if err != nil {
		return nil, fmt.Errorf("find path: %w", err)
	}
	return res.([]string), nil
}

func (s *Store) Successors(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error) {
	return s.neighbours(ctx, "(c:Concept {id: $id})-[r:RELATES]->(n:Concept)", id, types)
}

func (s *Store) Predecessors(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error) {
	return s.neighbours(ctx, "(c:Concept {id: $id})<-[r:RELATES]-(n:Concept)", id, types)
}

func (s *Store) neighbours(ctx context.Context, pattern, id string, types []entity.RelationshipType) ([]string, error) {
	return s.readIDs(ctx, "MATCH "+pattern+
		" WHERE size($types) = 0 OR r.type IN $types"+
		" WITH n, min(r.created_at) AS first"+
		" RETURN n.id AS id ORDER BY first, id",
		map[string]any{"id": id, "types": typeParams(types)})
}

func (s *Store) PredecessorsClosure(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error) {
	params := typeParams(types)
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		seen := map[string]bool{id: true}
		var out []string
		for frontier := []string{id}; len(frontier) > 0; {
			result, err := tx.Run(ctx, "UNWIND $frontier AS fid MATCH (c:Concept {id: fid})<-[r:RELATES]-(n:Concept)"+
				" WHERE size($types) = 0 OR r.type IN $types RETURN DISTINCT n.id AS id",
				map[string]any{"frontier": frontier, "types": params})
			if err != nil {
				return nil, err
			}
			ids, err := collectStrings(ctx, result, "id")
			if err != nil {
				return nil, err
			}
			var next []string
			for _, n := range ids {
				if !seen[n] {
					seen[n] = true
					out = append(out, n)
					next = append(next, n)
				}
			}
			frontier = next
		}
		slices.Sort(out)
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query predecessors closure: %w", err)
	}
	return res.([]string), nil
}

func (s *Store) readIDs(ctx context.Context, query string, params map[string]any) ([]string, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return collectStrings(ctx, result, "id")
	})
	if err != nil {
		return nil, fmt.Errorf("query neighbours: %w", err)
	}
	return res.([]string), nil
}

type dump struct {
	concepts []entity.Concept
	rels     []entity.Relationship
}

func (s *Store) Dump(ctx context.Context) ([]entity.Concept, []entity.Relationship, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		concepts, err := runConcepts(ctx, tx, "MATCH (c:Concept) RETURN "+conceptProjection+
			" ORDER BY c.created_at, c.seq", nil)
		if err != nil {
			return nil, err
		}
		result, err := tx.Run(ctx, "MATCH (a:Concept)-[r:RELATES]->(b:Concept)"+
			" RETURN a.id AS source_id, b.id AS target_id, r.type AS type, r.created_at AS created_at"+
			" ORDER BY created_at, source_id, type, target_id", nil)
		if err != nil {
			return nil, err
		}
		rels := make([]entity.Relationship, 0)
		for result.Next(ctx) {
			record := result.Record()
			get := func(key string) any {
				v, _ := record.Get(key)
				return v
			}
			created, err := parseTime(get("created_at"))
			if err != nil {
				return nil, err
			}
			rels = append(rels, entity.Relationship{
				SourceID:  asString(get("source_id")),
				TargetID:  asString(get("target_id")),
				Type:      entity.RelationshipType(asString(get("type"))),
				CreatedAt: created,
			})
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		return dump{concepts: concepts, rels: rels}, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dump graph: %w", err)
	}
	d := res.(dump)
	return d.concepts, d.rels, nil
}

func (s *Store) BulkUpsert(ctx context.Context, concepts []entity.Concept, rels []entity.Relationship) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := upsertConcepts(ctx, tx, concepts); err != nil {
			return nil, err
		}
		if len(rels) == 0 {
			return nil, nil
		}
		result, err := tx.Run(ctx, mergeRelationships, map[string]any{"rows": relationshipRows(rels)})
		if err != nil {
			return nil, err
		}
		_, err = result.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("bulk upsert: %w", err)
	}
	return nil
}
