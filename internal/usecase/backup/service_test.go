package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/conceptgraph/internal/adapter/repository/memory"
	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/usecase"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newGraph() (usecase.GraphManager, *memory.GraphStore) {
	store := memory.NewGraphStore()
	return usecase.NewGraphManager(store, quietLogger()), store
}

func seedGraph(t *testing.T, ctx context.Context, gm usecase.GraphManager) {
	t.Helper()
	dna := entity.DifficultyVector{
		BloomLevel:              2,
		AbstractionLevel:        2,
		ComputationalComplexity: 3,
		ConceptIntegration:      entity.IntegrationSingle,
		RealWorldContext:        2,
		ProblemSolvingApproach:  entity.ApproachDirect,
	}
	var ids []string
	for i, name := range []string{"Integers", "Fractions", "Ratios"} {
		c, err := gm.CreateConcept(ctx, &entity.Concept{
			Name:          name,
			Subject:       entity.SubjectMathematics,
			ClassLevel:    8 + i,
			Keywords:      []string{strings.ToLower(name)},
			Description:   name + " basics",
			DifficultyDNA: dna,
		})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, c.ID)
	}
	if _, err := gm.CreateRelationship(ctx, ids[0], ids[1], entity.RelationshipPrerequisite); err != nil {
		t.Fatalf("link: %v", err)
	}
	if _, err := gm.CreateRelationship(ctx, ids[1], ids[2], entity.RelationshipBuildsUpon); err != nil {
		t.Fatalf("link: %v", err)
	}
}

type recordingProgress struct {
	mu     sync.Mutex
	totals map[string]int
	counts map[string]int
	done   []string
}

func newRecordingProgress() *recordingProgress {
	return &recordingProgress{totals: map[string]int{}, counts: map[string]int{}}
}

func (p *recordingProgress) StartPhase(phase string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totals[phase] = total
}

func (p *recordingProgress) Increment(phase string, delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[phase] += delta
}

func (p *recordingProgress) FinishPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = append(p.done, phase)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	for _, indent := range []bool{false, true} {
		ctx := context.Background()
		src, _ := newGraph()
		seedGraph(t, ctx, src)

		exporter, err := NewService(src, WithIndent(indent), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("new exporter: %v", err)
		}
		progress := newRecordingProgress()
		var buf bytes.Buffer
		if err := exporter.Export(ctx, &buf, WithProgressReporter(progress)); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if progress.counts[PhaseConcepts] != 3 || progress.totals[PhaseRelationships] != 2 {
			t.Fatalf("unexpected progress %+v", progress)
		}

		var decoded usecase.GraphExport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("export is not a valid document (indent=%v): %v\n%s", indent, err, buf.String())
		}
		if decoded.Metadata.ConceptCount != 3 || decoded.Metadata.RelationshipCount != 2 {
			t.Fatalf("unexpected metadata %+v", decoded.Metadata)
		}

		dst, _ := newGraph()
		importer, err := NewService(dst, WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("new importer: %v", err)
		}
		result, err := importer.Import(ctx, bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !result.Success || result.ConceptsImported != 3 || result.RelationshipsImported != 2 {
			t.Fatalf("unexpected result %+v", result)
		}

		want, _ := src.ExportGraph(ctx)
		got, _ := dst.ExportGraph(ctx)
		if mustJSON(t, got.Concepts) != mustJSON(t, want.Concepts) {
			t.Fatalf("concepts mismatch after import:\nwant %s\ngot  %s", mustJSON(t, want.Concepts), mustJSON(t, got.Concepts))
		}
		if mustJSON(t, got.Relationships) != mustJSON(t, want.Relationships) {
			t.Fatalf("relationships mismatch after import")
		}
	}
}

func TestServiceEmptyGraphExport(t *testing.T) {
	ctx := context.Background()
	gm, _ := newGraph()
	svc, _ := NewService(gm, WithLogger(quietLogger()))
	var buf bytes.Buffer
	if err := svc.Export(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid document: %v\n%s", err, buf.String())
	}
	if concepts, ok := doc["concepts"].([]any); !ok || len(concepts) != 0 {
		t.Fatalf("expected empty concepts list, got %v", doc["concepts"])
	}
}

func TestServiceImportDryRun(t *testing.T) {
	ctx := context.Background()
	src, _ := newGraph()
	seedGraph(t, ctx, src)
	exporter, _ := NewService(src, WithLogger(quietLogger()))
	var buf bytes.Buffer
	if err := exporter.Export(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst, store := newGraph()
	importer, _ := NewService(dst, WithLogger(quietLogger()))
	progress := newRecordingProgress()
	result, err := importer.Import(ctx, &buf, WithDryRun(true), WithImportProgress(progress))
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !result.DryRun || result.ConceptsImported != 3 {
		t.Fatalf("unexpected dry run result %+v", result)
	}
	if progress.totals[PhaseImport] != 5 {
		t.Fatalf("import total = %d, want 5", progress.totals[PhaseImport])
	}
	concepts, _, _ := store.Dump(ctx)
	if len(concepts) != 0 {
		t.Fatalf("dry run wrote %d concepts", len(concepts))
	}
}

func TestServiceImportRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	gm, _ := newGraph()
	svc, _ := NewService(gm, WithLogger(quietLogger()))

	if _, err := svc.Import(ctx, strings.NewReader("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := svc.Import(ctx, strings.NewReader("null")); err == nil {
		t.Fatalf("expected empty document error")
	}
	result, err := svc.Import(ctx, strings.NewReader(`{"concepts": []}`))
	if !errors.Is(err, entity.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if result == nil || result.Success {
		t.Fatalf("expected unsuccessful result, got %+v", result)
	}

	if _, err := NewService(nil); err == nil {
		t.Fatalf("expected missing graph error")
	}
}
