package backup

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/conceptgraph/internal/usecase"
)

// Phase names reported to a ProgressReporter.
const (
	PhaseConcepts      = "concepts"
	PhaseRelationships = "relationships"
	PhaseImport        = "import"
)

// GraphPorter is the slice of GraphManager the backup service needs.
type GraphPorter interface {
	ExportGraph(ctx context.Context) (*usecase.GraphExport, error)
	ImportGraph(ctx context.Context, data map[string]any, opts ...usecase.ImportOption) (*usecase.ImportResult, error)
}

type ProgressReporter interface {
	StartPhase(phase string, total int)
	Increment(phase string, delta int)
	FinishPhase(phase string)
}

type noopProgress struct{}

func (noopProgress) StartPhase(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishPhase(string)     {}

// Service moves whole graphs between a GraphPorter and byte streams. The stream format is the
// graph export document, written element by element so progress can be reported.
type Service struct {
	graph  GraphPorter
	indent bool
	log    logrus.FieldLogger
}

type Option func(*Service)

// WithIndent pretty-prints exported documents.
func WithIndent(enabled bool) Option {
	return func(s *Service) {
		s.indent = enabled
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService constructs a backup service bound to graph.
func NewService(graph GraphPorter, opts ...Option) (*Service, error) {
	if graph == nil {
		return nil, errors.New("backup: graph is required")
	}
	svc := &Service{graph: graph, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(svc)
	}
	svc.log = svc.log.WithField("component", "backup")
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	reporter ProgressReporter
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	reporter ProgressReporter
	dryRun   bool
}

// WithImportProgress registers a reporter for the import phase.
func WithImportProgress(reporter ProgressReporter) ImportOption {
	return func(cfg *importConfig) {
		cfg.reporter = reporter
	}
}

// WithDryRun validates the document without committing it.
func WithDryRun(enabled bool) ImportOption {
	return func(cfg *importConfig) {
		cfg.dryRun = enabled
	}
}

func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	doc, err := s.graph.ExportGraph(ctx)
	if err != nil {
		return fmt.Errorf("export graph: %w", err)
	}

	writer := bufio.NewWriter(w)
	enc := &docWriter{w: writer, indent: s.indent}

	enc.open("{")
	enc.key("concepts", 1)
	enc.open("[")
	reporter.StartPhase(PhaseConcepts, len(doc.Concepts))
	for i := range doc.Concepts {
		if err := ctx.Err(); err != nil {
			return err
		}
		enc.element(i, doc.Concepts[i], 2)
		reporter.Increment(PhaseConcepts, 1)
	}
	enc.close("]", len(doc.Concepts) > 0, 1)
	reporter.FinishPhase(PhaseConcepts)

	enc.raw(",")
	enc.key("relationships", 1)
	enc.open("[")
	reporter.StartPhase(PhaseRelationships, len(doc.Relationships))
	for i := range doc.Relationships {
		if err := ctx.Err(); err != nil {
			return err
		}
		enc.element(i, doc.Relationships[i], 2)
		reporter.Increment(PhaseRelationships, 1)
	}
	enc.close("]", len(doc.Relationships) > 0, 1)
	reporter.FinishPhase(PhaseRelationships)

	enc.raw(",")
	enc.key("metadata", 1)
	enc.value(doc.Metadata, 1)
	enc.close("}", true, 0)
	enc.raw("\n")
	if enc.err != nil {
		return fmt.Errorf("write export: %w", enc.err)
	}

	s.log.WithFields(logrus.Fields{
		"concepts":      doc.Metadata.ConceptCount,
		"relationships": doc.Metadata.RelationshipCount,
	}).Info("graph exported")
	return writer.Flush()
}

// Import decodes a graph export document from r and hands it to the import pipeline. The
// returned result is non-nil whenever the document could be decoded.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) (*usecase.ImportResult, error) {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	var doc map[string]any
	dec := json.NewDecoder(bufio.NewReader(r))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	if doc == nil {
		return nil, errors.New("backup: document is empty")
	}

	total := itemCount(doc["concepts"]) + itemCount(doc["relationships"])
	reporter.StartPhase(PhaseImport, total)
	result, err := s.graph.ImportGraph(ctx, doc, usecase.DryRun(cfg.dryRun))
	if err != nil {
		return result, err
	}
	reporter.Increment(PhaseImport, result.ConceptsImported+result.RelationshipsImported)
	reporter.FinishPhase(PhaseImport)

	s.log.WithFields(logrus.Fields{
		"concepts":      result.ConceptsImported,
		"relationships": result.RelationshipsImported,
		"dry_run":       result.DryRun,
	}).Info("graph imported")
	return result, nil
}

func itemCount(v any) int {
	items, ok := v.([]any)
	if !ok {
		return 0
	}
	return len(items)
}

// docWriter emits a JSON document piecewise; the first write error sticks.
type docWriter struct {
	w      *bufio.Writer
	indent bool
	err    error
}

func (d *docWriter) raw(s string) {
	if d.err != nil {
		return
	}
	_, d.err = d.w.WriteString(s)
}

func (d *docWriter) newline(depth int) {
	if !d.indent {
		return
	}
	d.raw("\n")
	for range depth {
		d.raw("  ")
	}
}

func (d *docWriter) open(delim string) { d.raw(delim) }

func (d *docWriter) close(delim string, nonEmpty bool, depth int) {
	if nonEmpty {
		d.newline(depth)
	}
	d.raw(delim)
}

func (d *docWriter) key(name string, depth int) {
	d.newline(depth)
	d.raw(`"` + name + `":`)
	if d.indent {
		d.raw(" ")
	}
}

func (d *docWriter) element(i int, v any, depth int) {
	if i > 0 {
		d.raw(",")
	}
	d.newline(depth)
	d.value(v, depth)
}

func (d *docWriter) value(v any, depth int) {
	if d.err != nil {
		return
	}
	var (
		data []byte
		err  error
	)
	if d.indent {
		prefix := ""
		for range depth {
			prefix += "  "
		}
		data, err = json.MarshalIndent(v, prefix, "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		d.err = err
		return
	}
	_, d.err = d.w.Write(data)
}
