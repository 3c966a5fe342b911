package usecase

import (
	"math"
	"strings"
	"testing"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

func TestCountSyllables(t *testing.T) {
	cases := map[string]int{
		"the":     1,
		"ate":     1,
		"make":    1,
		"queue":   1,
		"rhythm":  1,
		"bananas": 3,
		"Banana,": 3,
		"42":      0,
		"x":       1,
	}
	for word, want := range cases {
		if got := countSyllables(word); got != want {
			t.Errorf("countSyllables(%q) = %d, want %d", word, got, want)
		}
	}
}

func TestReadingLevel(t *testing.T) {
	checker := NewQuestionTextChecker()
	if got := checker.ReadingLevel("   "); got != 0 {
		t.Fatalf("blank text level = %v", got)
	}
	if got := checker.ReadingLevel("The cat sat."); got != 0 {
		t.Fatalf("simple text should clamp to 0, got %v", got)
	}
	// 4 words, 1 sentence, 6 syllables
	if got := checker.ReadingLevel("The cat ate bananas."); math.Abs(got-3.67) > 1e-9 {
		t.Fatalf("reading level = %v, want 3.67", got)
	}
}

func mustPersona(t *testing.T, level int) entity.Persona {
	t.Helper()
	catalog := newDefaultCatalog(t)
	p, err := catalog.Get(level)
	if err != nil {
		t.Fatalf("Get(%d): %v", level, err)
	}
	return p
}

func TestCheck_ReadingLevelFailureAlsoFailsVocabulary(t *testing.T) {
	checker := NewQuestionTextChecker()
	res := checker.Check("Internationalization necessitates extraordinary organizational responsibility.", mustPersona(t, 8))
	if res.Valid || res.ReadingLevelOK || res.VocabularyOK {
		t.Fatalf("expected reading and vocabulary failure, got %+v", res)
	}
	if len(res.Errors) != 2 || !strings.HasPrefix(res.Errors[0], "Reading level ") || res.Errors[1] != "Vocabulary complexity exceeds basic level" {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
}

func TestCheck_VocabularyDependsOnPersona(t *testing.T) {
	checker := NewQuestionTextChecker()
	text := "The cat ate bananas."

	basic := checker.Check(text, mustPersona(t, 8))
	if basic.Valid || !basic.ReadingLevelOK || basic.VocabularyOK {
		t.Fatalf("one three-syllable word in four should fail basic vocabulary: %+v", basic)
	}
	intermediate := checker.Check(text, mustPersona(t, 9))
	if !intermediate.Valid || len(intermediate.Errors) != 0 {
		t.Fatalf("intermediate persona should accept the text: %+v", intermediate)
	}
}

func TestCheck_LengthAndEmpty(t *testing.T) {
	checker := NewQuestionTextChecker()
	exam := mustPersona(t, entity.ExamPrepLevel)

	long := strings.Repeat("The cat sat. ", 51)
	res := checker.Check(long, exam)
	if res.Valid || !res.ReadingLevelOK || !res.VocabularyOK {
		t.Fatalf("expected length-only failure, got %+v", res)
	}
	want := "Question length (153 words) exceeds recommended maximum (150 words)"
	if len(res.Errors) != 1 || res.Errors[0] != want {
		t.Fatalf("errors = %v, want [%s]", res.Errors, want)
	}

	empty := checker.Check(" \n", exam)
	if empty.Valid || len(empty.Errors) != 1 || empty.Errors[0] != "Question text is empty" {
		t.Fatalf("unexpected empty result %+v", empty)
	}
}
