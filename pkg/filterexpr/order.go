package filterexpr

import (
	"errors"
	"fmt"
	"strings"
)

// OrderKey is one "field [asc|desc]" segment of an order_by string.
type OrderKey struct {
	Field string
	Desc  bool
}

// OrderSchema whitelists orderable fields and the order used when none is given.
type OrderSchema struct {
	Fields  []string
	Default []OrderKey
}

// ParseOrderBy parses "class_level desc, name" into keys. Unknown or duplicate fields are
// rejected; an empty string yields the schema default.
func ParseOrderBy(raw string, schema OrderSchema) ([]OrderKey, error) {
	allowed := make(map[string]struct{}, len(schema.Fields))
	for _, f := range schema.Fields {
		allowed[f] = struct{}{}
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]OrderKey(nil), schema.Default...), nil
	}

	var (
		keys []OrderKey
		seen = make(map[string]struct{})
	)
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		key := OrderKey{Field: parts[0]}
		if _, ok := allowed[key.Field]; !ok {
			return nil, fmt.Errorf("field %q cannot be used for ordering", key.Field)
		}
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				key.Desc = true
			default:
				return nil, fmt.Errorf("invalid direction %q for field %q", parts[1], key.Field)
			}
		default:
			return nil, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}
		if _, dup := seen[key.Field]; dup {
			return nil, fmt.Errorf("duplicate order key %q", key.Field)
		}
		seen[key.Field] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, errors.New("order_by has no keys")
	}
	return keys, nil
}
