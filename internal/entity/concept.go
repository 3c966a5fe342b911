package entity

import (
	"fmt"
	"strings"
	"time"
)

// Class levels covered by the concept graph.
const (
	MinClassLevel = 8
	MaxClassLevel = 12
)

// Subject is an academic subject a concept belongs to.
type Subject string

const (
	SubjectMathematics      Subject = "mathematics"
	SubjectPhysics          Subject = "physics"
	SubjectChemistry        Subject = "chemistry"
	SubjectBiology          Subject = "biology"
	SubjectHistory          Subject = "history"
	SubjectGeography        Subject = "geography"
	SubjectEconomics        Subject = "economics"
	SubjectPoliticalScience Subject = "political-science"
	SubjectEnglish          Subject = "english"
	SubjectHindi            Subject = "hindi"
	SubjectSanskrit         Subject = "sanskrit"
	SubjectComputerScience  Subject = "computer-science"
	SubjectAccountancy      Subject = "accountancy"
	SubjectBusinessStudies  Subject = "business-studies"
)

var subjects = []Subject{
	SubjectMathematics, SubjectPhysics, SubjectChemistry, SubjectBiology, SubjectHistory,
	SubjectGeography, SubjectEconomics, SubjectPoliticalScience, SubjectEnglish, SubjectHindi,
	SubjectSanskrit, SubjectComputerScience, SubjectAccountancy, SubjectBusinessStudies,
}

// Subjects returns every supported subject.
func Subjects() []Subject { return append([]Subject(nil), subjects...) }

func (s Subject) Valid() bool {
	for _, known := range subjects {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSubject converts user input into a Subject, reporting unknown values.
func ParseSubject(raw string) (Subject, error) {
	s := Subject(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", &ValidationError{Field: "subject", Problems: []string{fmt.Sprintf("unknown subject %q", raw)}}
	}
	return s, nil
}

// Concept is a node of the concept graph.
type Concept struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Subject       Subject          `json:"subject"`
	ClassLevel    int              `json:"class_level"`
	Keywords      []string         `json:"keywords"`
	Description   string           `json:"description"`
	DifficultyDNA DifficultyVector `json:"difficulty_dna"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Normalize trims text fields and stamps timestamps before persistence.
func (c *Concept) Normalize(now time.Time) {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	keywords := make([]string, 0, len(c.Keywords))
	for _, kw := range c.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	c.Keywords = keywords
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() || c.UpdatedAt.Before(c.CreatedAt) {
		c.UpdatedAt = c.CreatedAt
	}
}

// Validate reports every problem with the concept's attributes at once.
func (c *Concept) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "name must not be empty")
	}
	if !c.Subject.Valid() {
		problems = append(problems, fmt.Sprintf("unknown subject %q", string(c.Subject)))
	}
	if c.ClassLevel < MinClassLevel || c.ClassLevel > MaxClassLevel {
		problems = append(problems, fmt.Sprintf("class_level must be between %d and %d, got %d", MinClassLevel, MaxClassLevel, c.ClassLevel))
	}
	if len(c.Keywords) == 0 {
		problems = append(problems, "keywords must not be empty")
	}
	if strings.TrimSpace(c.Description) == "" {
		problems = append(problems, "description must not be empty")
	}
	for _, p := range c.DifficultyDNA.Violations() {
		problems = append(problems, "difficulty_dna."+p)
	}
	if len(problems) > 0 {
		return &ValidationError{Field: "concept", Problems: problems}
	}
	return nil
}

// HasKeywordContaining reports whether any keyword contains sub (case-sensitive).
func (c *Concept) HasKeywordContaining(sub string) bool {
	for _, kw := range c.Keywords {
		if strings.Contains(kw, sub) {
			return true
		}
	}
	return false
}
