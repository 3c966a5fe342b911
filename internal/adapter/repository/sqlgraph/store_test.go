package sqlgraph

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/infrastructure/database"
	"github.com/eslsoft/conceptgraph/internal/repository"
)

func requireSQLite(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	db, err := database.OpenSQLiteDSN("file:" + path + "?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := New(db, "sqlite")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func concept(id string, minute int, keywords ...string) entity.Concept {
	if len(keywords) == 0 {
		keywords = []string{id}
	}
	at := epoch.Add(time.Duration(minute) * time.Minute)
	return entity.Concept{
		ID:          id,
		Name:        "Concept " + id,
		Subject:     entity.SubjectChemistry,
		ClassLevel:  10,
		Keywords:    keywords,
		Description: "covers " + id,
		DifficultyDNA: entity.DifficultyVector{
			BloomLevel: 3, AbstractionLevel: 2, ComputationalComplexity: 4,
			ConceptIntegration: entity.IntegrationMultiConcept, RealWorldContext: 3,
			ProblemSolvingApproach: entity.ApproachDirect,
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func edge(src, dst string, typ entity.RelationshipType, minute int) entity.Relationship {
	return entity.Relationship{SourceID: src, TargetID: dst, Type: typ, CreatedAt: epoch.Add(time.Duration(minute) * time.Minute)}
}

// seed builds a -> b -> c (ordering edges) plus c -> a (applies-to).
func seed(t *testing.T, s *Store) {
	t.Helper()
	err := s.BulkUpsert(context.Background(),
		[]entity.Concept{concept("a", 0, "atoms"), concept("b", 1, "bonds", "ionic"), concept("c", 2, "moles")},
		[]entity.Relationship{
			edge("a", "b", entity.RelationshipPrerequisite, 0),
			edge("b", "c", entity.RelationshipBuildsUpon, 1),
			edge("c", "a", entity.RelationshipAppliesTo, 2),
		})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	if got := pg.rebind("SELECT 1 WHERE a = ? AND b IN (?, ?)"); got != "SELECT 1 WHERE a = $1 AND b IN ($2, $3)" {
		t.Fatalf("rebind = %q", got)
	}
	lite := &Store{dialect: SQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
	if _, err := ParseDialect("mysql"); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
}

func TestStore_ConceptRoundTrip(t *testing.T) {
	s := requireSQLite(t)
	ctx := context.Background()
	c := concept("x", 5, "enthalpy", "entropy")
	if err := s.PutConcept(ctx, &c); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.GetConcept(ctx, "x")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) || !slices.Equal(got.Keywords, c.Keywords) || got.DifficultyDNA != c.DifficultyDNA {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	c.Name = "Renamed"
	if err := s.PutConcept(ctx, &c); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetConcept(ctx, "x")
	if got.Name != "Renamed" {
		t.Fatalf("upsert did not update name: %+v", got)
	}

	missing, err := s.GetConcept(ctx, "nope")
	if missing != nil || err != nil {
		t.Fatalf("expected nil, nil for missing concept, got %v %v", missing, err)
	}
}

func TestStore_Traversals(t *testing.T) {
	s := requireSQLite(t)
	ctx := context.Background()
	seed(t, s)

	path, err := s.FindPath(ctx, "a", "c", entity.OrderingTypes())
	if err != nil || !slices.Equal(path, []string{"a", "b", "c"}) {
		t.Fatalf("path = %v, %v", path, err)
	}
	path, _ = s.FindPath(ctx, "c", "b", entity.OrderingTypes())
	if path != nil {
		t.Fatalf("applies-to edge must not count for ordering paths, got %v", path)
	}
	path, _ = s.FindPath(ctx, "c", "b", nil)
	if !slices.Equal(path, []string{"c", "a", "b"}) {
		t.Fatalf("untyped path = %v", path)
	}

	closure, err := s.PredecessorsClosure(ctx, "c", entity.OrderingTypes())
	if err != nil || !slices.Equal(closure, []string{"a", "b"}) {
		t.Fatalf("closure = %v, %v", closure, err)
	}
	// The applies-to loop brings every node back around but never the start node.
	closure, _ = s.PredecessorsClosure(ctx, "c", nil)
	if !slices.Equal(closure, []string{"a", "b"}) {
		t.Fatalf("untyped closure = %v", closure)
	}

	succ, _ := s.Successors(ctx, "b", nil)
	pred, _ := s.Predecessors(ctx, "a", nil)
	if !slices.Equal(succ, []string{"c"}) || !slices.Equal(pred, []string{"c"}) {
		t.Fatalf("succ = %v pred = %v", succ, pred)
	}
}

func TestStore_QueryAndLookup(t *testing.T) {
	s := requireSQLite(t)
	ctx := context.Background()
	seed(t, s)

	kw := "ion"
	found, err := s.QueryConcepts(ctx, repository.ConceptFilter{Keyword: &kw})
	if err != nil || len(found) != 1 || found[0].ID != "b" {
		t.Fatalf("keyword query = %+v, %v", found, err)
	}
	minBloom := 3
	all, _ := s.QueryConcepts(ctx, repository.ConceptFilter{MinBloom: &minBloom})
	if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
		t.Fatalf("expected creation order, got %+v", all)
	}
	maxBloom := 2
	none, _ := s.QueryConcepts(ctx, repository.ConceptFilter{MaxBloom: &maxBloom})
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %d", len(none))
	}

	got, err := s.GetConcepts(ctx, []string{"c", "zz", "a", "c"})
	if err != nil || len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("get concepts = %+v, %v", got, err)
	}
}

func TestStore_RelationshipsDeduplicateAndCheckEndpoints(t *testing.T) {
	s := requireSQLite(t)
	ctx := context.Background()
	seed(t, s)

	dup := edge("a", "b", entity.RelationshipPrerequisite, 9)
	if err := s.PutRelationship(ctx, &dup); err != nil {
		t.Fatalf("duplicate edge: %v", err)
	}
	if err := s.BulkUpsert(ctx, nil, []entity.Relationship{dup}); err != nil {
		t.Fatalf("duplicate bulk edge: %v", err)
	}
	_, rels, err := s.Dump(ctx)
	if err != nil || len(rels) != 3 {
		t.Fatalf("dump = %d rels, %v", len(rels), err)
	}
	if !rels[0].CreatedAt.Equal(epoch) {
		t.Fatalf("duplicate must keep the original timestamp, got %v", rels[0].CreatedAt)
	}

	dangling := edge("a", "ghost", entity.RelationshipAppliesTo, 3)
	err = s.PutRelationship(ctx, &dangling)
	var nf *entity.NotFoundError
	if !errors.As(err, &nf) || !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected endpoint not found, got %v", err)
	}
	if err := s.BulkUpsert(ctx, []entity.Concept{concept("d", 7)}, []entity.Relationship{dangling}); err == nil {
		t.Fatalf("expected bulk upsert to fail")
	}
	if d, _ := s.GetConcept(ctx, "d"); d != nil {
		t.Fatalf("failed bulk upsert must roll back, found %+v", d)
	}
}

func TestStore_PerformanceHistory(t *testing.T) {
	s := requireSQLite(t)
	ctx := context.Background()
	dna := concept("q", 0).DifficultyDNA
	records := []entity.PerformanceRecord{
		{ID: "r1", StudentID: "s1", ConceptID: "b", IsCorrect: true, TimeTakenSeconds: 20, Timestamp: epoch},
		{ID: "r2", StudentID: "s1", ConceptID: "b", IsCorrect: false, TimeTakenSeconds: 35.5, Timestamp: epoch.Add(time.Minute)},
		{ID: "r3", StudentID: "s1", ConceptID: "a", IsCorrect: true, TimeTakenSeconds: 10, Timestamp: epoch.Add(time.Minute)},
		{ID: "r4", StudentID: "s1", ConceptID: "b", IsCorrect: true, TimeTakenSeconds: 12, Timestamp: epoch.Add(time.Minute)},
	}
	for i := range records {
		records[i].QuestionDifficulty = dna
		if err := s.Append(ctx, &records[i]); err != nil {
			t.Fatalf("append %s: %v", records[i].ID, err)
		}
	}

	recent, err := s.Recent(ctx, "s1", "b", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	var ids []string
	for _, r := range recent {
		ids = append(ids, r.ID)
	}
	if !slices.Equal(ids, []string{"r4", "r2", "r1"}) {
		t.Fatalf("recent order = %v", ids)
	}
	if recent[1].TimeTakenSeconds != 35.5 || recent[1].IsCorrect || recent[1].QuestionDifficulty != dna {
		t.Fatalf("record fields lost: %+v", recent[1])
	}
	limited, _ := s.Recent(ctx, "s1", "b", 2)
	if len(limited) != 2 {
		t.Fatalf("limit ignored: %d", len(limited))
	}

	attempted, _ := s.AttemptedConcepts(ctx, "s1")
	if !slices.Equal(attempted, []string{"b", "a"}) {
		t.Fatalf("attempted = %v", attempted)
	}
}

func TestStore_HonoursCancellation(t *testing.T) {
	s := requireSQLite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.QueryConcepts(ctx, repository.ConceptFilter{}); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}
