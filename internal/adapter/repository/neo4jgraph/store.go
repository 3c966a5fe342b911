// Package neo4jgraph stores the concept graph natively in Neo4j. Concepts are :Concept nodes and
// every edge is a :RELATES relationship carrying its type as a property, so traversals can filter
// by a parameterised list of types.
package neo4jgraph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// timeLayout is fixed width so string order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements repository.GraphStore and repository.PerformanceRepository on Neo4j.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

func New(driver neo4j.DriverWithContext, database string) (*Store, error) {
	if driver == nil {
		return nil, errors.New("neo4jgraph: driver is required")
	}
	return &Store{driver: driver, database: database}, nil
}

// EnsureSchema creates the uniqueness constraints and indexes the queries rely on.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT concept_id IF NOT EXISTS FOR (c:Concept) REQUIRE c.id IS UNIQUE",
		"CREATE CONSTRAINT performance_record_id IF NOT EXISTS FOR (p:PerformanceRecord) REQUIRE p.id IS UNIQUE",
		"CREATE CONSTRAINT sequence_name IF NOT EXISTS FOR (s:Sequence) REQUIRE s.name IS UNIQUE",
		"CREATE INDEX performance_student_concept IF NOT EXISTS FOR (p:PerformanceRecord) ON (p.student_id, p.concept_id)",
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	for _, stmt := range statements {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("neo4jgraph: ensure schema: %w", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("neo4jgraph: ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Store) read(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (s *Store) write(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

// nextSeq reserves n consecutive values of the named counter and returns the first.
func nextSeq(ctx context.Context, tx neo4j.ManagedTransaction, name string, n int) (int64, error) {
	result, err := tx.Run(ctx,
		"MERGE (s:Sequence {name: $name}) SET s.value = coalesce(s.value, 0) + $n RETURN s.value AS value",
		map[string]any{"name": name, "n": n})
	if err != nil {
		return 0, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	end, _ := record.Get("value")
	return asInt64(end) - int64(n) + 1, nil
}

// collectStrings gathers a single string column from every record of a result.
func collectStrings(ctx context.Context, result neo4j.ResultWithContext, key string) ([]string, error) {
	var out []string
	for result.Next(ctx) {
		v, _ := result.Record().Get(key)
		out = append(out, asString(v))
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func typeParams[T ~string](types []T) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v any) (time.Time, error) {
	raw := asString(v)
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func asStrings(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, asString(item))
	}
	return out
}
