package usecase

import (
	"context"
	"reflect"
	"testing"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

func TestCheckReadiness(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	p1 := f.concept(t, "P1", 8, easyDNA())
	p2 := f.concept(t, "P2", 8, easyDNA())
	mid := f.concept(t, "Mid", 9, easyDNA())
	c := f.concept(t, "C", 9, easyDNA())
	f.link(t, p1, mid, entity.RelationshipPrerequisite)
	f.link(t, mid, c, entity.RelationshipPrerequisite)
	f.link(t, p2, c, entity.RelationshipBuildsUpon)

	validator := NewPrerequisiteValidator(f.manager)

	res, err := validator.CheckReadiness(ctx, "s1", c.ID, map[string]bool{p1.ID: true, mid.ID: true})
	if err != nil {
		t.Fatalf("CheckReadiness: %v", err)
	}
	if res.IsReady {
		t.Fatalf("student should not be ready: %+v", res)
	}
	if got := conceptNames(res.UnmetPrerequisites); !reflect.DeepEqual(got, []string{"P2"}) {
		t.Fatalf("unmet = %v, want [P2]", got)
	}
	if res.Message != "Student s1 is not ready for 'C'. Unmet prerequisites: P2" {
		t.Fatalf("unexpected message %q", res.Message)
	}

	res, err = validator.CheckReadiness(ctx, "s1", c.ID, map[string]bool{p1.ID: true, p2.ID: true, mid.ID: true})
	if err != nil {
		t.Fatalf("CheckReadiness: %v", err)
	}
	if !res.IsReady || len(res.UnmetPrerequisites) != 0 {
		t.Fatalf("student should be ready: %+v", res)
	}

	res, err = validator.CheckReadiness(ctx, "s1", "missing", nil)
	if err != nil {
		t.Fatalf("CheckReadiness missing: %v", err)
	}
	if res.IsReady || res.Message != "Concept not found: missing" {
		t.Fatalf("unexpected result for missing concept: %+v", res)
	}
}

func TestValidateRelationship(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	a := f.concept(t, "A", 8, easyDNA())
	b := f.concept(t, "B", 9, easyDNA())
	f.link(t, a, b, entity.RelationshipPrerequisite)
	validator := NewPrerequisiteValidator(f.manager)

	ok, err := validator.ValidateRelationship(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("ValidateRelationship: %v", err)
	}
	if !ok.IsValid || ok.Message != "Relationship is valid and will not create a cycle" {
		t.Fatalf("unexpected result %+v", ok)
	}

	cyclic, err := validator.ValidateRelationship(ctx, b.ID, a.ID)
	if err != nil {
		t.Fatalf("ValidateRelationship: %v", err)
	}
	if cyclic.IsValid || cyclic.Details["source_name"] != "B" || cyclic.Details["target_name"] != "A" {
		t.Fatalf("unexpected cyclic result %+v", cyclic)
	}

	missing, err := validator.ValidateRelationship(ctx, a.ID, "nope")
	if err != nil {
		t.Fatalf("ValidateRelationship: %v", err)
	}
	if missing.IsValid || missing.Message != "Target concept not found: nope" {
		t.Fatalf("unexpected missing result %+v", missing)
	}

	// validation never writes
	_, rels, _ := f.store.Dump(ctx)
	if len(rels) != 1 {
		t.Fatalf("validation mutated the graph: %d relationships", len(rels))
	}
}
