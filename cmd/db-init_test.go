package cmd

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrepareCachePath(t *testing.T) {
	dir := t.TempDir()
	url := "https://example.com/seeds/math.json.gz"

	base, p, cached, err := prepareCachePath(url, dir, false)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if base != dir || cached {
		t.Fatalf("unexpected base=%s cached=%v", base, cached)
	}
	if !strings.HasSuffix(p, ".json.gz") {
		t.Fatalf("cache path %s lost extension", p)
	}

	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, again, cached, _ := prepareCachePath(url, dir, false); again != p || !cached {
		t.Fatalf("expected cache hit at %s", p)
	}
	if _, _, cached, _ := prepareCachePath(url, dir, true); cached {
		t.Fatalf("no-cache must bypass the cached file")
	}
}

func TestUnzipSingle(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "seed.zip")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{"README.txt": "hi", "data/graph.json": `{"concepts":[]}`} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out, err := unzipSingle(isExportDocument, archive, dir)
	if err != nil {
		t.Fatalf("unzip: %v", err)
	}
	if filepath.Base(out) != "graph.json" {
		t.Fatalf("extracted %s", out)
	}
	if _, err := unzipSingle(func(string) bool { return false }, archive, dir); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
}
