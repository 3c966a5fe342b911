package config

import (
	"strings"
	"testing"
)

func TestDatabaseDriver(t *testing.T) {
	cases := map[string]string{"sqlite": StoreSQLite, "SQLite3": StoreSQLite, "postgresql": StorePostgres, " postgres ": StorePostgres}
	for in, want := range cases {
		cfg := &Config{Store: StoreConfig{Driver: in}}
		got, err := cfg.DatabaseDriver()
		if err != nil || got != want {
			t.Fatalf("DatabaseDriver(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{StoreMemory, StoreNeo4j, ""} {
		cfg := &Config{Store: StoreConfig{Driver: in}}
		if _, err := cfg.DatabaseDriver(); err == nil {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{
		Store: StoreConfig{Driver: StorePostgres},
		Database: DatabaseConfig{
			Host: "db", Port: 5433, Name: "graph", User: "svc", Password: "p@ss", SSLMode: "require",
		},
	}
	url, err := cfg.DatabaseURL()
	if err != nil {
		t.Fatalf("postgres url: %v", err)
	}
	if url != "postgres://svc:p%40ss@db:5433/graph?sslmode=require" {
		t.Fatalf("postgres url = %q", url)
	}

	cfg.Store.Driver = StoreSQLite
	cfg.Database.Path = "data/graph.db"
	url, err = cfg.DatabaseURL()
	if err != nil || !strings.HasPrefix(url, "file:data/graph.db?") || !strings.Contains(url, "_foreign_keys=on") {
		t.Fatalf("sqlite url = %q, %v", url, err)
	}

	cfg.Database.Path = " "
	if _, err := cfg.DatabaseURL(); err == nil {
		t.Fatalf("expected error for empty sqlite path")
	}
}
