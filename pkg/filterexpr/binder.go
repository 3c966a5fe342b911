// Package filterexpr binds restricted CEL filter strings onto typed parameter structs.
//
// A filter is a conjunction of atomic predicates, each comparing one whitelisted identifier
// with a literal: `subject == "physics" && class_level > 9 && keyword.contains("force")`.
// The schema names, per identifier and operator, the struct field that receives the literal.
package filterexpr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ValueKind is the literal type an identifier accepts.
type ValueKind string

const (
	KindString ValueKind = "string"
	// KindInt accepts whole numbers only. Strict comparisons on it are rewritten to inclusive
	// bounds, so `x > 3` binds like `x >= 4`.
	KindInt ValueKind = "int"
	KindFloat ValueKind = "float"
)

// Op is a predicate operator.
type Op string

const (
	OpEQ       Op = "=="
	OpGT       Op = ">"
	OpGTE      Op = ">="
	OpLT       Op = "<"
	OpLTE      Op = "<="
	OpSW       Op = "startsWith"
	OpContains Op = "contains"
	OpIN       Op = "in"
)

// flipped gives the operator that keeps a comparison true when its operands swap sides.
var flipped = map[Op]Op{OpEQ: OpEQ, OpGT: OpLT, OpGTE: OpLTE, OpLT: OpGT, OpLTE: OpGTE}

var celOps = map[string]Op{
	"_==_": OpEQ, "_>_": OpGT, "_>=_": OpGTE, "_<_": OpLT, "_<=_": OpLTE,
	"_in_": OpIN, "@in": OpIN, "startsWith": OpSW, "contains": OpContains,
}

// SetterFunc assigns a literal to a destination field itself. Pointer fields are allocated
// before the setter runs.
type SetterFunc func(field reflect.Value, value any) error

// FieldRule describes one filterable identifier. Ops maps each allowed operator to the name
// of the destination struct field.
type FieldRule struct {
	Kind   ValueKind
	Ops    map[Op]string
	Setter SetterFunc
}

// Schema whitelists the filterable identifiers of a resource.
type Schema struct {
	Fields map[string]FieldRule
}

type predicate struct {
	field string
	op    Op
	value any
}

type binder struct {
	schema Schema
	dest   reflect.Value
	// bound records which predicate filled each destination field
	bound map[string]string
}

// BindCELTo parses filter and assigns each predicate's literal to params, a pointer to a
// struct. An empty filter leaves params untouched. Binding two predicates to the same
// destination field is an error.
func BindCELTo(filter string, params any, schema Schema) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(schema.Fields) == 0 {
		return errors.New("filter schema has no fields defined")
	}
	rv := reflect.ValueOf(params)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.New("params must be a non-nil pointer to a struct")
	}

	root, err := parse(filter, schema)
	if err != nil {
		return err
	}
	b := &binder{schema: schema, dest: rv.Elem(), bound: make(map[string]string)}
	var conjuncts []*exprpb.Expr
	if err := flatten(root, &conjuncts); err != nil {
		return err
	}
	for _, expr := range conjuncts {
		pred, err := toPredicate(expr)
		if err != nil {
			return err
		}
		if err := b.bind(pred); err != nil {
			return err
		}
	}
	return nil
}

func parse(filter string, schema Schema) (*exprpb.Expr, error) {
	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for name, rule := range schema.Fields {
		switch rule.Kind {
		case KindString:
			opts = append(opts, cel.Variable(name, cel.StringType))
		case KindInt:
			opts = append(opts, cel.Variable(name, cel.IntType))
		case KindFloat:
			opts = append(opts, cel.Variable(name, cel.DoubleType))
		default:
			return nil, fmt.Errorf("field %q: unsupported field kind %s", name, rule.Kind)
		}
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("build filter environment: %w", err)
	}
	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("convert filter AST: %w", err)
	}
	if parsed.GetExpr() == nil {
		return nil, errors.New("empty expression")
	}
	return parsed.GetExpr(), nil
}

// flatten appends the operands of nested && chains to out. Any other logical operator is
// rejected.
func flatten(expr *exprpb.Expr, out *[]*exprpb.Expr) error {
	call := expr.GetCallExpr()
	if call == nil {
		*out = append(*out, expr)
		return nil
	}
	switch call.Function {
	case "_&&_":
		for _, arg := range call.Args {
			if err := flatten(arg, out); err != nil {
				return err
			}
		}
		return nil
	case "_||_", "_?_:_", "!_":
		return fmt.Errorf("logical operator %q is not supported; only AND is allowed", call.Function)
	}
	*out = append(*out, expr)
	return nil
}

func toPredicate(expr *exprpb.Expr) (predicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return predicate{}, errors.New("unsupported expression; expected a comparison or string method")
	}
	op, ok := celOps[call.Function]
	if !ok {
		return predicate{}, fmt.Errorf("function %q is not supported", call.Function)
	}

	var lhs, rhs *exprpb.Expr
	switch {
	case call.Target != nil && len(call.Args) == 1 && (op == OpSW || op == OpContains):
		lhs, rhs = call.Target, call.Args[0]
	case call.Target == nil && len(call.Args) == 2:
		lhs, rhs = call.Args[0], call.Args[1]
	default:
		return predicate{}, fmt.Errorf("operator %q expects two operands", string(op))
	}

	// `3 <= x` reads as `x >= 3`
	if lhs.GetIdentExpr() == nil && rhs.GetIdentExpr() != nil {
		rev, ok := flipped[op]
		if !ok {
			return predicate{}, errors.New("left-hand side must be an identifier")
		}
		lhs, rhs, op = rhs, lhs, rev
	}
	ident := lhs.GetIdentExpr()
	if ident == nil {
		return predicate{}, errors.New("left-hand side must be an identifier")
	}
	value, err := literal(rhs)
	if err != nil {
		return predicate{}, err
	}
	if (op == OpSW || op == OpContains) && reflect.TypeOf(value).Kind() != reflect.String {
		return predicate{}, fmt.Errorf("%s requires a string literal argument", string(op))
	}
	return predicate{field: ident.GetName(), op: op, value: value}, nil
}

// literal decodes a constant or a list of string constants. Numbers come back as float64.
func literal(expr *exprpb.Expr) (any, error) {
	if c := expr.GetConstExpr(); c != nil {
		switch c.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return c.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(c.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(c.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return c.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", c.ConstantKind)
		}
	}
	// negative numbers parse as a unary minus call
	if call := expr.GetCallExpr(); call != nil && call.Function == "-_" && len(call.Args) == 1 {
		v, err := literal(call.Args[0])
		if err != nil {
			return nil, err
		}
		if n, ok := v.(float64); ok {
			return -n, nil
		}
		return nil, errors.New("unary minus requires a numeric literal")
	}
	if list := expr.GetListExpr(); list != nil {
		values := make([]string, 0, len(list.GetElements()))
		for i, elem := range list.GetElements() {
			v, err := literal(elem)
			if err != nil {
				return nil, fmt.Errorf("list literal element %d: %w", i, err)
			}
			s, ok := v.(string)
			if !ok {
				return nil, errors.New("list literal elements must be strings")
			}
			values = append(values, s)
		}
		return values, nil
	}
	return nil, errors.New("right-hand side must be a literal or list literal")
}

func (b *binder) bind(pred predicate) error {
	rule, ok := b.schema.Fields[pred.field]
	if !ok {
		return fmt.Errorf("field %q is not allowed", pred.field)
	}
	if err := checkKind(rule.Kind, pred); err != nil {
		return fmt.Errorf("field %q: %w", pred.field, err)
	}
	if rule.Kind == KindInt {
		pred = inclusive(pred, rule)
	}
	target, ok := rule.Ops[pred.op]
	if !ok {
		return fmt.Errorf("operator %q is not allowed for field %q", string(pred.op), pred.field)
	}
	if prev, dup := b.bound[target]; dup {
		return fmt.Errorf("%s %s conflicts with an earlier %s", pred.field, pred.op, prev)
	}

	field := b.dest.FieldByName(target)
	if !field.IsValid() || !field.CanSet() {
		return fmt.Errorf("params struct %s has no settable field %q", b.dest.Type(), target)
	}
	if rule.Setter != nil {
		if field.Kind() == reflect.Pointer && field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		if err := rule.Setter(field, pred.value); err != nil {
			return fmt.Errorf("field %q: %w", pred.field, err)
		}
	} else if err := assign(field, pred.value); err != nil {
		return fmt.Errorf("field %q: %w", pred.field, err)
	}
	b.bound[target] = pred.field + " " + string(pred.op)
	return nil
}

// inclusive rewrites strict integer comparisons the schema has no direct slot for.
func inclusive(pred predicate, rule FieldRule) predicate {
	if _, direct := rule.Ops[pred.op]; direct {
		return pred
	}
	n := pred.value.(float64)
	switch pred.op {
	case OpGT:
		return predicate{field: pred.field, op: OpGTE, value: n + 1}
	case OpLT:
		return predicate{field: pred.field, op: OpLTE, value: n - 1}
	}
	return pred
}

func checkKind(kind ValueKind, pred predicate) error {
	switch kind {
	case KindString:
		if pred.op == OpIN {
			list, ok := pred.value.([]string)
			if !ok {
				return errors.New("expected list of string literals")
			}
			if len(list) == 0 {
				return errors.New("list literal must not be empty")
			}
			return nil
		}
		if _, ok := pred.value.(string); !ok {
			return errors.New("expected string literal")
		}
	case KindInt:
		n, ok := pred.value.(float64)
		if !ok {
			return errors.New("expected int literal")
		}
		if math.Trunc(n) != n {
			return fmt.Errorf("non-integer value %v", n)
		}
	case KindFloat:
		if _, ok := pred.value.(float64); !ok {
			return errors.New("expected float literal")
		}
	default:
		return fmt.Errorf("unsupported field kind %s", kind)
	}
	return nil
}

func assign(field reflect.Value, value any) error {
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		field = field.Elem()
	}
	switch v := value.(type) {
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("cannot store a string in %s", field.Type())
		}
		field.SetString(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("cannot store a string list in %s", field.Type())
		}
		out := reflect.MakeSlice(field.Type(), len(v), len(v))
		for i, s := range v {
			out.Index(i).SetString(s)
		}
		field.Set(out)
	case float64:
		switch field.Kind() {
		case reflect.Float32, reflect.Float64:
			field.SetFloat(v)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if math.Trunc(v) != v {
				return fmt.Errorf("non-integer value %v", v)
			}
			if field.OverflowInt(int64(v)) {
				return fmt.Errorf("value %v overflows %s", v, field.Type())
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("cannot store a number in %s", field.Type())
		}
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}
