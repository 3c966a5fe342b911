package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressStep(t *testing.T) {
	cases := map[int]int{0: 1000, 5: 1, 100: 5, 1_000_000: 1000}
	for total, want := range cases {
		if got := progressStep(total); got != want {
			t.Errorf("progressStep(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestCLIProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newCLIProgress(&buf, "exporting")
	p.StartPhase("concepts", 3)
	for i := 0; i < 3; i++ {
		p.Increment("concepts", 1)
	}
	p.FinishPhase("concepts")

	out := buf.String()
	for _, want := range []string{"exporting concepts (3 items)", "concepts: 1/3", "concepts: 3/3", "finished concepts: 3/3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
	if len(p.counts) != 0 {
		t.Fatalf("phase state not cleared")
	}
}
