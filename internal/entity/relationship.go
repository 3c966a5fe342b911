package entity

import (
	"fmt"
	"strings"
	"time"
)

// RelationshipType classifies a directed edge between two concepts.
type RelationshipType string

const (
	RelationshipPrerequisite RelationshipType = "prerequisite"
	RelationshipBuildsUpon   RelationshipType = "builds-upon"
	RelationshipAppliesTo    RelationshipType = "applies-to"
)

// OrderingTypes are the edge types that impose a learning order and must stay acyclic.
func OrderingTypes() []RelationshipType {
	return []RelationshipType{RelationshipPrerequisite, RelationshipBuildsUpon}
}

func (t RelationshipType) Valid() bool {
	switch t {
	case RelationshipPrerequisite, RelationshipBuildsUpon, RelationshipAppliesTo:
		return true
	}
	return false
}

// Ordering reports whether edges of this type take part in cycle detection.
func (t RelationshipType) Ordering() bool {
	return t == RelationshipPrerequisite || t == RelationshipBuildsUpon
}

// ParseRelationshipType converts user input into a RelationshipType.
func ParseRelationshipType(raw string) (RelationshipType, error) {
	t := RelationshipType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", &ValidationError{Field: "relationship_type", Problems: []string{fmt.Sprintf("unknown relationship type %q", raw)}}
	}
	return t, nil
}

// Relationship is a directed edge: for ordering types the source precedes the target.
type Relationship struct {
	SourceID  string           `json:"source_id"`
	TargetID  string           `json:"target_id"`
	Type      RelationshipType `json:"relationship_type"`
	CreatedAt time.Time        `json:"created_at"`
}

// Key identifies an edge independent of its timestamp.
func (r Relationship) Key() string {
	return r.SourceID + "|" + string(r.Type) + "|" + r.TargetID
}
