package filterexpr

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

type listTopicsParams struct {
	Subject    *string
	LevelMin   *int
	LevelMax   *int
	NamePrefix *string
	Keyword    *string
	Weight     *float64
}

var topicsSchema = Schema{
	Fields: map[string]FieldRule{
		"subject": {
			Kind: KindString,
			Ops:  map[Op]string{OpEQ: "Subject"},
		},
		"level": {
			Kind: KindInt,
			Ops: map[Op]string{
				OpGTE: "LevelMin",
				OpLTE: "LevelMax",
			},
		},
		"name": {
			Kind: KindString,
			Ops:  map[Op]string{OpSW: "NamePrefix"},
		},
		"keyword": {
			Kind: KindString,
			Ops:  map[Op]string{OpContains: "Keyword"},
		},
		"weight": {
			Kind: KindFloat,
			Ops:  map[Op]string{OpEQ: "Weight"},
		},
	},
}

func TestBindCELTo_Topics(t *testing.T) {
	var params listTopicsParams
	filter := "subject == 'physics' && level <= 10 && name.startsWith('Ohm') && keyword.contains('current')"

	if err := BindCELTo(filter, &params, topicsSchema); err != nil {
		t.Fatalf("BindCELTo returned error: %v", err)
	}

	if params.Subject == nil || *params.Subject != "physics" {
		t.Fatalf("expected Subject to be 'physics', got %v", params.Subject)
	}
	if params.LevelMax == nil || *params.LevelMax != 10 {
		t.Fatalf("expected LevelMax to be 10, got %v", params.LevelMax)
	}
	if params.LevelMin != nil {
		t.Fatalf("expected LevelMin to be nil, got %v", params.LevelMin)
	}
	if params.NamePrefix == nil || *params.NamePrefix != "Ohm" {
		t.Fatalf("expected NamePrefix to be 'Ohm', got %v", params.NamePrefix)
	}
	if params.Keyword == nil || *params.Keyword != "current" {
		t.Fatalf("expected Keyword to be 'current', got %v", params.Keyword)
	}
}

func TestBindCELTo_NumberBounds(t *testing.T) {
	var params listTopicsParams
	if err := BindCELTo("level >= 8 && level <= 9 && weight == 0.5", &params, topicsSchema); err != nil {
		t.Fatalf("BindCELTo returned error: %v", err)
	}

	if params.LevelMin == nil || *params.LevelMin != 8 {
		t.Fatalf("expected LevelMin 8, got %v", params.LevelMin)
	}
	if params.LevelMax == nil || *params.LevelMax != 9 {
		t.Fatalf("expected LevelMax 9, got %v", params.LevelMax)
	}
	if params.Weight == nil || *params.Weight != 0.5 {
		t.Fatalf("expected Weight 0.5, got %v", params.Weight)
	}
}

func TestBindCELTo_StrictAndReversedComparisons(t *testing.T) {
	var params listTopicsParams
	if err := BindCELTo("level > 8 && 12 > level", &params, topicsSchema); err != nil {
		t.Fatalf("BindCELTo returned error: %v", err)
	}
	if params.LevelMin == nil || *params.LevelMin != 9 {
		t.Fatalf("expected LevelMin 9, got %v", params.LevelMin)
	}
	if params.LevelMax == nil || *params.LevelMax != 11 {
		t.Fatalf("expected LevelMax 11, got %v", params.LevelMax)
	}
}

func TestBindCELTo_RejectsConflictingBounds(t *testing.T) {
	var params listTopicsParams
	err := BindCELTo("level >= 8 && level > 9", &params, topicsSchema)
	if err == nil || !strings.Contains(err.Error(), "conflicts") {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestBindCELTo_EmptyFilterLeavesParams(t *testing.T) {
	var params listTopicsParams
	if err := BindCELTo("  ", &params, topicsSchema); err != nil {
		t.Fatalf("BindCELTo returned error: %v", err)
	}
	if !reflect.DeepEqual(params, listTopicsParams{}) {
		t.Fatalf("expected untouched params, got %+v", params)
	}
}

func TestBindCELTo_CustomSetter(t *testing.T) {
	type withPG struct {
		Subject pgtype.Text
	}

	schema := Schema{
		Fields: map[string]FieldRule{
			"subject": {
				Kind: KindString,
				Ops:  map[Op]string{OpEQ: "Subject"},
				Setter: func(field reflect.Value, v any) error {
					text, ok := v.(string)
					if !ok {
						return fmt.Errorf("expected string, got %T", v)
					}
					field.Set(reflect.ValueOf(pgtype.Text{String: text, Valid: true}))
					return nil
				},
			},
		},
	}

	var params withPG
	if err := BindCELTo("subject == 'biology'", &params, schema); err != nil {
		t.Fatalf("BindCELTo returned error: %v", err)
	}
	if !params.Subject.Valid || params.Subject.String != "biology" {
		t.Fatalf("expected subject biology, got %+v", params.Subject)
	}
}

func TestBindCELTo_InOperatorNamedStringSlice(t *testing.T) {
	type subject string
	type params struct {
		Subjects []subject
	}

	schema := Schema{
		Fields: map[string]FieldRule{
			"subject": {
				Kind: KindString,
				Ops:  map[Op]string{OpIN: "Subjects"},
			},
		},
	}

	var p params
	if err := BindCELTo("subject in ['physics', 'chemistry']", &p, schema); err != nil {
		t.Fatalf("BindCELTo returned error: %v", err)
	}

	want := []subject{"physics", "chemistry"}
	if !reflect.DeepEqual(p.Subjects, want) {
		t.Fatalf("expected Subjects %v, got %v", want, p.Subjects)
	}
}

func TestBindCELTo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{"unsupported field", "unknown == 'x'", "not allowed"},
		{"unsupported operator", "subject <= 'A'", "operator"},
		{"bad literal type", "subject == 1", "expected string"},
		{"bad logical op", "subject == 'A' || level <= 10", "only AND"},
		{"non literal", "level <= foo", "right-hand side"},
		{"fractional integer", "level >= 8.5", "non-integer"},
		{"strict float", "weight > 0.5", "operator"},
		{"negation", "!(subject == 'A')", "only AND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var params listTopicsParams
			err := BindCELTo(tc.filter, &params, topicsSchema)
			if err == nil {
				t.Fatalf("expected error for %q", tc.filter)
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.want)) {
				t.Fatalf("expected error to contain %q, got %v", tc.want, err)
			}
		})
	}
}

func TestBindCELTo_ListWrongType(t *testing.T) {
	schema := Schema{
		Fields: map[string]FieldRule{
			"subject": {
				Kind: KindString,
				Ops:  map[Op]string{OpIN: "Subjects"},
			},
		},
	}

	type params struct {
		Subjects []string
	}

	var p params
	err := BindCELTo("subject in [1]", &p, schema)
	if err == nil || !strings.Contains(err.Error(), "list literal elements must be strings") {
		t.Fatalf("expected list literal error, got %v", err)
	}
}

func TestBindCELTo_InvalidParams(t *testing.T) {
	var params *listTopicsParams
	if err := BindCELTo("subject == 'physics'", params, topicsSchema); err == nil {
		t.Fatalf("expected error when params is nil pointer")
	}
}

func TestParseOrderBy(t *testing.T) {
	schema := OrderSchema{
		Fields:  []string{"class_level", "name", "created_at"},
		Default: []OrderKey{{Field: "created_at"}},
	}

	keys, err := ParseOrderBy("class_level desc, name", schema)
	if err != nil {
		t.Fatalf("ParseOrderBy returned error: %v", err)
	}
	want := []OrderKey{{Field: "class_level", Desc: true}, {Field: "name"}}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}

	keys, err = ParseOrderBy("", schema)
	if err != nil {
		t.Fatalf("ParseOrderBy default returned error: %v", err)
	}
	if !reflect.DeepEqual(keys, schema.Default) {
		t.Fatalf("expected default order, got %v", keys)
	}

	for _, bad := range []string{"bloom", "name sideways", "name, name", "name asc extra"} {
		if _, err := ParseOrderBy(bad, schema); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
