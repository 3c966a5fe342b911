// Package sqlgraph stores the concept graph as an adjacency table in SQLite or PostgreSQL.
// Queries are written with `?` placeholders and rebound for PostgreSQL.
package sqlgraph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

// Dialect selects the SQL flavour.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name onto a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("sqlgraph: unsupported driver %q", driver)
	}
}

// timeLayout is fixed width so textual order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// maxBindVars bounds IN lists below SQLite's host parameter limit.
const maxBindVars = 500

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Store implements repository.GraphStore and repository.PerformanceRepository. The schema is
// created by the goose migrations in infrastructure/database.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, driver string) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlgraph: db is required")
	}
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: dialect}, nil
}

// rebind rewrites `?` placeholders to `$n` for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func chunks(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

func anyArgs[T ~string](values []T) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = string(v)
	}
	return args
}

// typeClause restricts column to types; no types means no restriction.
func typeClause(column string, types []entity.RelationshipType) (string, []any) {
	if len(types) == 0 {
		return "", nil
	}
	return fmt.Sprintf(" AND %s IN (%s)", column, placeholders(len(types))), anyArgs(types)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func encodeKeywords(keywords []string) (string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	raw, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("encode keywords: %w", err)
	}
	return string(raw), nil
}

// isForeignKeyViolation recognises dangling-reference failures from either driver.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

func translateRelationshipError(err error, rel *entity.Relationship) error {
	if isForeignKeyViolation(err) {
		return &entity.NotFoundError{Kind: "Relationship endpoint", ID: rel.SourceID + " -> " + rel.TargetID}
	}
	return fmt.Errorf("insert relationship: %w", err)
}
