package usecase

import (
	"math"
	"testing"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

func sampleVectors() []entity.DifficultyVector {
	return []entity.DifficultyVector{
		dna(1, 1, 1, entity.IntegrationSingle, 1, entity.ApproachDirect),
		dna(3, 2, 7, entity.IntegrationMultiConcept, 3, entity.ApproachMultiStep),
		dna(4, 4, 25, entity.IntegrationCrossSubject, 2, entity.ApproachProof),
		dna(6, 5, 120, entity.IntegrationCrossSubject, 5, entity.ApproachExploratory),
		dna(2, 5, 51, entity.IntegrationSingle, 4, entity.ApproachExploratory),
	}
}

func TestDistance_SymmetryIdentityBounds(t *testing.T) {
	scorer := NewDifficultyScorer()
	vectors := sampleVectors()
	for i, a := range vectors {
		if d := scorer.Distance(a, a); d != 0 {
			t.Errorf("distance(v%d, v%d) = %v, want 0", i, i, d)
		}
		for j, b := range vectors {
			ab, ba := scorer.Distance(a, b), scorer.Distance(b, a)
			if math.Abs(ab-ba) > 1e-12 {
				t.Errorf("distance not symmetric for v%d, v%d: %v vs %v", i, j, ab, ba)
			}
			if ab < 0 || ab > 1+1e-9 {
				t.Errorf("distance(v%d, v%d) = %v outside [0,1]", i, j, ab)
			}
		}
	}
}

func TestDistance_ExtremesAndComplexityCap(t *testing.T) {
	scorer := NewDifficultyScorer()
	low := dna(1, 1, 1, entity.IntegrationSingle, 1, entity.ApproachDirect)
	high := dna(6, 5, 500, entity.IntegrationCrossSubject, 5, entity.ApproachExploratory)
	if d := scorer.Distance(low, high); math.Abs(d-1) > 1e-9 {
		t.Fatalf("distance between extremes = %v, want 1", d)
	}

	a := dna(3, 3, 1, entity.IntegrationSingle, 3, entity.ApproachDirect)
	b := a
	b.ComputationalComplexity = 26
	if d := scorer.Distance(a, b); math.Abs(d-0.1) > 1e-9 {
		t.Fatalf("complexity diff 25 distance = %v, want 0.1", d)
	}
	b.ComputationalComplexity = 51
	c := a
	c.ComputationalComplexity = 1000
	if d1, d2 := scorer.Distance(a, b), scorer.Distance(a, c); math.Abs(d1-0.2) > 1e-9 || math.Abs(d2-0.2) > 1e-9 {
		t.Fatalf("capped complexity distances = %v, %v, want 0.2", d1, d2)
	}
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	scorer := NewDifficultyScorer()
	res := scorer.Validate(dna(0, 6, 0, "bogus", 9, "guessing"))
	if res.IsValid {
		t.Fatalf("expected invalid vector")
	}
	if len(res.Errors) != 6 {
		t.Fatalf("expected 6 errors, got %d: %v", len(res.Errors), res.Errors)
	}

	ok := scorer.Validate(easyDNA())
	if !ok.IsValid || len(ok.Errors) != 0 {
		t.Fatalf("expected valid vector, got %+v", ok)
	}
}

func TestFitsPersona_EveryDimensionIsConjunctive(t *testing.T) {
	scorer := NewDifficultyScorer()
	persona := DefaultPersonas()[2] // class 10
	base := dna(4, 3, 8, entity.IntegrationMultiConcept, 4, entity.ApproachProof)
	if !scorer.FitsPersona(base, &persona) {
		t.Fatalf("vector at the envelope boundary should fit")
	}

	cases := map[string]func(v *entity.DifficultyVector){
		"bloom":       func(v *entity.DifficultyVector) { v.BloomLevel = 5 },
		"abstraction": func(v *entity.DifficultyVector) { v.AbstractionLevel = 4 },
		"complexity":  func(v *entity.DifficultyVector) { v.ComputationalComplexity = 9 },
		"integration": func(v *entity.DifficultyVector) { v.ConceptIntegration = entity.IntegrationCrossSubject },
		"real world":  func(v *entity.DifficultyVector) { v.RealWorldContext = 5 },
		"approach":    func(v *entity.DifficultyVector) { v.ProblemSolvingApproach = entity.ApproachExploratory },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := base
			mutate(&v)
			if scorer.FitsPersona(v, &persona) {
				t.Fatalf("vector exceeding %s should not fit", name)
			}
		})
	}

	if scorer.FitsPersona(base, nil) {
		t.Fatalf("nil persona must not fit")
	}
}

func TestAdjust(t *testing.T) {
	scorer := NewDifficultyScorer()
	v := dna(3, 3, 10, entity.IntegrationMultiConcept, 3, entity.ApproachMultiStep)

	cases := []struct {
		name   string
		factor float64
		want   entity.DifficultyVector
	}{
		{"full raise", 1, dna(5, 5, 13, entity.IntegrationCrossSubject, 4, entity.ApproachProof)},
		{"full lower", -1, dna(1, 1, 7, entity.IntegrationSingle, 2, entity.ApproachDirect)},
		{"quarter raise rounds half to even", 0.25, dna(3, 3, 11, entity.IntegrationMultiConcept, 3, entity.ApproachMultiStep)},
		{"half keeps enums", 0.5, dna(4, 4, 12, entity.IntegrationMultiConcept, 3, entity.ApproachMultiStep)},
		{"clamped above one", 7, dna(5, 5, 13, entity.IntegrationCrossSubject, 4, entity.ApproachProof)},
		{"nan is neutral", math.NaN(), v},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scorer.Adjust(v, tc.factor)
			if got != tc.want {
				t.Fatalf("Adjust(%v) = %+v, want %+v", tc.factor, got, tc.want)
			}
		})
	}
	if v != dna(3, 3, 10, entity.IntegrationMultiConcept, 3, entity.ApproachMultiStep) {
		t.Fatalf("input vector was mutated: %+v", v)
	}
}

func TestAdjust_MonotonicAndClamped(t *testing.T) {
	scorer := NewDifficultyScorer()
	for _, v := range sampleVectors() {
		up := scorer.Adjust(v, 1)
		down := scorer.Adjust(v, -1)
		if up.BloomLevel < v.BloomLevel || down.BloomLevel > v.BloomLevel {
			t.Errorf("bloom not monotonic for %+v: up %d down %d", v, up.BloomLevel, down.BloomLevel)
		}
		for _, adj := range []entity.DifficultyVector{up, down} {
			if res := scorer.Validate(adj); !res.IsValid {
				t.Errorf("adjusted vector invalid: %v", res.Errors)
			}
		}
	}

	top := dna(6, 5, 1, entity.IntegrationCrossSubject, 5, entity.ApproachExploratory)
	if got := scorer.Adjust(top, 1); got != top {
		t.Fatalf("ceiling vector moved: %+v", got)
	}
	bottom := dna(1, 1, 1, entity.IntegrationSingle, 1, entity.ApproachDirect)
	if got := scorer.Adjust(bottom, -1); got != bottom {
		t.Fatalf("floor vector moved: %+v", got)
	}
}

func TestScore_OrdersByDifficulty(t *testing.T) {
	scorer := NewDifficultyScorer()
	easy := scorer.Score(dna(1, 1, 1, entity.IntegrationSingle, 1, entity.ApproachDirect))
	mid := scorer.Score(dna(3, 3, 10, entity.IntegrationMultiConcept, 3, entity.ApproachMultiStep))
	hard := scorer.Score(dna(6, 5, 40, entity.IntegrationCrossSubject, 5, entity.ApproachExploratory))
	if !(easy < mid && mid < hard) {
		t.Fatalf("scores not increasing: %v %v %v", easy, mid, hard)
	}
	if math.Abs(hard-1) > 1e-9 {
		t.Fatalf("hardest vector score = %v, want 1", hard)
	}
}
