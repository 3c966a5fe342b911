package sqlgraph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

var _ repository.GraphStore = (*Store)(nil)

const conceptColumns = "id, name, subject, class_level, keywords, description, " +
	"bloom_level, abstraction_level, computational_complexity, concept_integration, " +
	"real_world_context, problem_solving_approach, created_at, updated_at"

const upsertConcept = "INSERT INTO concepts (" + conceptColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)" +
	" ON CONFLICT (id) DO UPDATE SET name = excluded.name, subject = excluded.subject," +
	" class_level = excluded.class_level, keywords = excluded.keywords, description = excluded.description," +
	" bloom_level = excluded.bloom_level, abstraction_level = excluded.abstraction_level," +
	" computational_complexity = excluded.computational_complexity, concept_integration = excluded.concept_integration," +
	" real_world_context = excluded.real_world_context, problem_solving_approach = excluded.problem_solving_approach," +
	" created_at = excluded.created_at, updated_at = excluded.updated_at"

const insertRelationship = "INSERT INTO relationships (source_id, target_id, relationship_type, created_at) VALUES (?, ?, ?, ?)" +
	" ON CONFLICT (source_id, relationship_type, target_id) DO NOTHING"

func conceptArgs(c *entity.Concept) ([]any, error) {
	keywords, err := encodeKeywords(c.Keywords)
	if err != nil {
		return nil, err
	}
	dna := c.DifficultyDNA
	return []any{
		c.ID, c.Name, string(c.Subject), c.ClassLevel, keywords, c.Description,
		dna.BloomLevel, dna.AbstractionLevel, dna.ComputationalComplexity, string(dna.ConceptIntegration),
		dna.RealWorldContext, string(dna.ProblemSolvingApproach),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	}, nil
}

func scanConcept(row scanner) (entity.Concept, error) {
	var (
		c                     entity.Concept
		subject, keywords     string
		integration, approach string
		created, updated      string
	)
	err := row.Scan(&c.ID, &c.Name, &subject, &c.ClassLevel, &keywords, &c.Description,
		&c.DifficultyDNA.BloomLevel, &c.DifficultyDNA.AbstractionLevel, &c.DifficultyDNA.ComputationalComplexity,
		&integration, &c.DifficultyDNA.RealWorldContext, &approach, &created, &updated)
	if err != nil {
		return entity.Concept{}, err
	}
	c.Subject = entity.Subject(subject)
	c.DifficultyDNA.ConceptIntegration = entity.ConceptIntegration(integration)
	c.DifficultyDNA.ProblemSolvingApproach = entity.ProblemApproach(approach)
	if err := json.Unmarshal([]byte(keywords), &c.Keywords); err != nil {
		return entity.Concept{}, fmt.Errorf("decode keywords of %s: %w", c.ID, err)
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return entity.Concept{}, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return entity.Concept{}, err
	}
	return c, nil
}

func (s *Store) queryConcepts(ctx context.Context, q querier, query string, args ...any) ([]entity.Concept, error) {
	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query concepts: %w", err)
	}
	defer rows.Close()
	out := make([]entity.Concept, 0)
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, fmt.Errorf("scan concept: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concepts: %w", err)
	}
	return out, nil
}

func (s *Store) PutConcept(ctx context.Context, concept *entity.Concept) error {
	args, err := conceptArgs(concept)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertConcept), args...); err != nil {
		return fmt.Errorf("upsert concept: %w", err)
	}
	return nil
}

func (s *Store) GetConcept(ctx context.Context, id string) (*entity.Concept, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+conceptColumns+" FROM concepts WHERE id = ?"), id)
	c, err := scanConcept(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get concept %s: %w", id, err)
	}
	return &c, nil
}

// GetConcepts returns the existing concepts in the order of ids, skipping unknown and repeated ids.
func (s *Store) GetConcepts(ctx context.Context, ids []string) ([]entity.Concept, error) {
	byID := make(map[string]entity.Concept, len(ids))
	for _, chunk := range chunks(ids, maxBindVars) {
		found, err := s.queryConcepts(ctx, s.db,
			"SELECT "+conceptColumns+" FROM concepts WHERE id IN ("+placeholders(len(chunk))+")", anyArgs(chunk)...)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			byID[c.ID] = c
		}
	}
	out := make([]entity.Concept, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
			delete(byID, id)
		}
	}
	return out, nil
}

// QueryConcepts pushes every column predicate into SQL. Keyword containment is checked on the
// decoded rows because keywords are stored as a JSON array.
func (s *Store) QueryConcepts(ctx context.Context, filter repository.ConceptFilter) ([]entity.Concept, error) {
	var (
		conds []string
		args  []any
	)
	eq := func(column string, v any) {
		conds = append(conds, column+" = ?")
		args = append(args, v)
	}
	bound := func(column, op string, v *int) {
		if v != nil {
			conds = append(conds, column+" "+op+" ?")
			args = append(args, *v)
		}
	}
	if filter.Subject != nil {
		eq("subject", string(*filter.Subject))
	}
	if filter.ClassLevel != nil {
		eq("class_level", *filter.ClassLevel)
	}
	bound("class_level", ">=", filter.ClassLevelMin)
	bound("class_level", "<=", filter.ClassLevelMax)
	bound("bloom_level", ">=", filter.MinBloom)
	bound("bloom_level", "<=", filter.MaxBloom)
	bound("abstraction_level", ">=", filter.MinAbstraction)
	bound("abstraction_level", "<=", filter.MaxAbstraction)
	bound("computational_complexity", ">=", filter.MinComplexity)
	bound("computational_complexity", "<=", filter.MaxComplexity)
	bound("real_world_context", ">=", filter.MinRealWorld)
	bound("real_world_context", "<=", filter.MaxRealWorld)
	if filter.Integration != nil {
		eq("concept_integration", string(*filter.Integration))
	}
	if filter.Approach != nil {
		eq("problem_solving_approach", string(*filter.Approach))
	}

	query := "SELECT " + conceptColumns + " FROM concepts"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, seq"

	concepts, err := s.queryConcepts(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	if filter.Keyword == nil {
		return concepts, nil
	}
	return slices.DeleteFunc(concepts, func(c entity.Concept) bool { return !filter.Matches(&c) }), nil
}

func (s *Store) PutRelationship(ctx context.Context, rel *entity.Relationship) error {
	_, err := s.db.ExecContext(ctx, s.rebind(insertRelationship), rel.SourceID, rel.TargetID, string(rel.Type), formatTime(rel.CreatedAt))
	if err != nil {
		return translateRelationshipError(err, rel)
	}
	return nil
}

// FindPath runs a breadth-first search one frontier per query inside a single transaction, so
// the path reflects one snapshot of the graph.
func (s *Store) FindPath(ctx context.Context, from, to string, types []entity.RelationshipType) ([]string, error) {
	if from == to {
		return []string{from}, nil
	}
	var path []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		parent := map[string]string{from: ""}
		frontier := []string{from}
		for len(frontier) > 0 {
			var next []string
			for _, chunk := range chunks(frontier, maxBindVars) {
				edges, err := s.outgoing(ctx, tx, chunk, types)
				if err != nil {
					return err
				}
				for _, e := range edges {
					if _, seen := parent[e[1]]; seen {
						continue
					}
					parent[e[1]] = e[0]
					if e[1] == to {
						path = unwindPath(parent, from, to)
						return nil
					}
					next = append(next, e[1])
				}
			}
			frontier = next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

// outgoing lists (source, target) pairs leaving any of ids.
func (s *Store) outgoing(ctx context.Context, q querier, ids []string, types []entity.RelationshipType) ([][2]string, error) {
	clause, typeArgs := typeClause("relationship_type", types)
	query := "SELECT source_id, target_id FROM relationships WHERE source_id IN (" + placeholders(len(ids)) + ")" +
		clause + " ORDER BY created_at, source_id, target_id"
	rows, err := q.QueryContext(ctx, s.rebind(query), append(anyArgs(ids), typeArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	var edges [][2]string
	for rows.Next() {
		var e [2]string
		if err := rows.Scan(&e[0], &e[1]); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func unwindPath(parent map[string]string, from, to string) []string {
	var path []string
	for cur := to; ; cur = parent[cur] {
		path = append(path, cur)
		if cur == from {
			break
		}
	}
	slices.Reverse(path)
	return path
}

func (s *Store) Successors(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error) {
	return s.neighbours(ctx, "target_id", "source_id", id, types)
}

func (s *Store) Predecessors(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error) {
	return s.neighbours(ctx, "source_id", "target_id", id, types)
}

func (s *Store) neighbours(ctx context.Context, selectCol, matchCol, id string, types []entity.RelationshipType) ([]string, error) {
	clause, typeArgs := typeClause("relationship_type", types)
	query := fmt.Sprintf("SELECT %[1]s FROM relationships WHERE %[2]s = ?%[3]s GROUP BY %[1]s ORDER BY MIN(created_at), %[1]s",
		selectCol, matchCol, clause)
	return s.queryIDs(ctx, query, append([]any{id}, typeArgs...)...)
}

func (s *Store) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PredecessorsClosure walks incoming edges with a recursive CTE. UNION deduplicates, so the
// walk terminates even when applies-to edges close a loop.
func (s *Store) PredecessorsClosure(ctx context.Context, id string, types []entity.RelationshipType) ([]string, error) {
	seedClause, seedArgs := typeClause("relationship_type", types)
	stepClause, stepArgs := typeClause("r.relationship_type", types)
	query := "WITH RECURSIVE ancestors(id) AS (" +
		" SELECT source_id FROM relationships WHERE target_id = ?" + seedClause +
		" UNION" +
		" SELECT r.source_id FROM relationships r JOIN ancestors a ON r.target_id = a.id WHERE 1 = 1" + stepClause +
		") SELECT id FROM ancestors WHERE id <> ? ORDER BY id"
	args := append([]any{id}, seedArgs...)
	args = append(args, stepArgs...)
	args = append(args, id)
	return s.queryIDs(ctx, query, args...)
}

func (s *Store) Dump(ctx context.Context) ([]entity.Concept, []entity.Relationship, error) {
	var (
		concepts []entity.Concept
		rels     []entity.Relationship
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		concepts, err = s.queryConcepts(ctx, tx, "SELECT "+conceptColumns+" FROM concepts ORDER BY created_at, seq")
		if err != nil {
			return err
		}
		rels, err = s.relationships(ctx, tx)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return concepts, rels, nil
}

func (s *Store) relationships(ctx context.Context, q querier) ([]entity.Relationship, error) {
	rows, err := q.QueryContext(ctx, "SELECT source_id, target_id, relationship_type, created_at FROM relationships"+
		" ORDER BY created_at, source_id, relationship_type, target_id")
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()
	rels := make([]entity.Relationship, 0)
	for rows.Next() {
		var (
			rel            entity.Relationship
			relType, stamp string
		)
		if err := rows.Scan(&rel.SourceID, &rel.TargetID, &relType, &stamp); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rel.Type = entity.RelationshipType(relType)
		if rel.CreatedAt, err = parseTime(stamp); err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

func (s *Store) BulkUpsert(ctx context.Context, concepts []entity.Concept, rels []entity.Relationship) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		conceptStmt, err := tx.PrepareContext(ctx, s.rebind(upsertConcept))
		if err != nil {
			return fmt.Errorf("prepare concept upsert: %w", err)
		}
		defer conceptStmt.Close()
		for i := range concepts {
			args, err := conceptArgs(&concepts[i])
			if err != nil {
				return err
			}
			if _, err := conceptStmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("upsert concept %s: %w", concepts[i].ID, err)
			}
		}

		relStmt, err := tx.PrepareContext(ctx, s.rebind(insertRelationship))
		if err != nil {
			return fmt.Errorf("prepare relationship insert: %w", err)
		}
		defer relStmt.Close()
		for i := range rels {
			rel := &rels[i]
			if _, err := relStmt.ExecContext(ctx, rel.SourceID, rel.TargetID, string(rel.Type), formatTime(rel.CreatedAt)); err != nil {
				return translateRelationshipError(err, rel)
			}
		}
		return nil
	})
}
