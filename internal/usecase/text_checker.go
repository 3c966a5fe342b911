package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/eslsoft/conceptgraph/internal/entity"
)

const wordsPerMinute = 50

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// TextCheck is the readability verdict for a piece of question text.
type TextCheck struct {
	Valid          bool     `json:"valid"`
	ReadingLevel   float64  `json:"reading_level"`
	ReadingLevelOK bool     `json:"reading_level_ok"`
	VocabularyOK   bool     `json:"vocabulary_ok"`
	Errors         []string `json:"errors"`
}

// QuestionTextChecker measures readability against a persona.
type QuestionTextChecker interface {
	ReadingLevel(text string) float64
	Check(text string, persona entity.Persona) TextCheck
}

func NewQuestionTextChecker() QuestionTextChecker {
	return textChecker{}
}

type textChecker struct{}

// ReadingLevel returns the Flesch-Kincaid grade of text, never negative.
func (textChecker) ReadingLevel(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	sentences := 0
	for _, s := range sentenceBreak.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	sentences = max(sentences, 1)

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	grade := 0.39*(float64(len(words))/float64(sentences)) +
		11.8*(float64(syllables)/float64(len(words))) - 15.59
	return max(0, grade)
}

func (c textChecker) Check(text string, persona entity.Persona) TextCheck {
	result := TextCheck{Valid: true, ReadingLevelOK: true, VocabularyOK: true, Errors: []string{}}
	if strings.TrimSpace(text) == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "Question text is empty")
		return result
	}

	limit := persona.ReadingLevel + 1
	result.ReadingLevel = c.ReadingLevel(text)
	if result.ReadingLevel > float64(limit) {
		result.Valid = false
		result.ReadingLevelOK = false
		result.Errors = append(result.Errors, fmt.Sprintf("Reading level %.1f exceeds persona limit %d", result.ReadingLevel, limit))
	}

	// vocabulary also fails whenever the reading level does
	if !result.ReadingLevelOK || !vocabularyFits(text, persona.VocabularyComplexity) {
		result.Valid = false
		result.VocabularyOK = false
		result.Errors = append(result.Errors, fmt.Sprintf("Vocabulary complexity exceeds %s level", persona.VocabularyComplexity))
	}

	words := len(strings.Fields(text))
	maxWords := persona.MaxTimeMinutes * wordsPerMinute
	if words > maxWords {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Question length (%d words) exceeds recommended maximum (%d words)", words, maxWords))
	}
	return result
}

func vocabularyFits(text string, level entity.VocabularyLevel) bool {
	threshold, ratio := complexWordRule(level)
	words := strings.Fields(text)
	if len(words) == 0 {
		return true
	}
	hard := 0
	for _, w := range words {
		if letters(w) != "" && countSyllables(w) >= threshold {
			hard++
		}
	}
	return float64(hard)/float64(len(words)) <= ratio
}

// complexWordRule returns the syllable count from which a word is complex and the share of
// complex words tolerated.
func complexWordRule(level entity.VocabularyLevel) (int, float64) {
	switch level {
	case entity.VocabularyBasic:
		return 3, 0.20
	case entity.VocabularyAdvanced:
		return 5, 0.40
	default:
		return 4, 0.30
	}
}

func letters(word string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, word)
}

// countSyllables counts vowel groups, discounting a silent trailing e. Words without letters
// count as zero, every other word as at least one.
func countSyllables(word string) int {
	w := letters(word)
	if w == "" {
		return 0
	}
	count := 0
	prevVowel := false
	for _, r := range w {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(w, "e") && count > 1 {
		count--
	}
	return max(1, count)
}
