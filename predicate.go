package undertow

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/undertow-orm/undertow/criteria"
	"github.com/undertow-orm/undertow/schema"
)

// argList accumulates bound parameters. Placeholder numbers are the 1-based
// running count at the moment of emission, so parameter position always
// matches compiled reference order.
type argList struct {
	params []any
}

// add appends a parameter and returns its placeholder.
func (a *argList) add(v any) string {
	a.params = append(a.params, v)
	return fmt.Sprintf("$%d", len(a.params))
}

// comparison operators accepted in nested operator objects.
var comparisonOps = map[string]string{
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
	"!=": "<>",
}

// compileWhere compiles a predicate into a boolean expression. Predicate keys
// compile in sorted order; Go maps carry no insertion order, and sorting
// keeps placeholder numbering deterministic. An empty predicate compiles to
// empty text with no parameters.
func (r *Repository) compileWhere(p criteria.Predicate, args *argList) (string, error) {
	frags, err := r.predicateFragments(p, args)
	if err != nil {
		return "", err
	}
	return strings.Join(frags, " AND "), nil
}

// predicateFragments returns the AND-ed fragments of one predicate level.
func (r *Repository) predicateFragments(p criteria.Predicate, args *argList) ([]string, error) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var frags []string
	for _, key := range keys {
		if key == criteria.Or {
			frag, err := r.orFragment(p[key], args)
			if err != nil {
				return nil, err
			}
			frags = append(frags, frag)
			continue
		}
		col, ok := r.column(key)
		if !ok {
			return nil, criteria.NewValidationError("unknown property %q on model %q", key, r.model.Name)
		}
		if col.Kind == schema.KindCollection {
			return nil, criteria.NewValidationError("cannot filter on collection %q of model %q", key, r.model.Name)
		}
		fieldFrags, err := r.fieldFragments(col, p[key], args)
		if err != nil {
			return nil, err
		}
		frags = append(frags, fieldFrags...)
	}
	return frags, nil
}

// orFragment compiles an OR group: each element is a predicate whose terms
// are AND-ed, and the branches join with OR inside one set of parentheses.
// Branches nest arbitrarily; a nested "or" key inside a branch recurses.
func (r *Repository) orFragment(v any, args *argList) (string, error) {
	subs, err := predicateSlice(v)
	if err != nil {
		return "", err
	}
	if len(subs) == 0 {
		return "", criteria.NewValidationError("or group must hold at least one predicate")
	}
	parts := make([]string, 0, len(subs))
	for _, sub := range subs {
		frags, err := r.predicateFragments(sub, args)
		if err != nil {
			return "", err
		}
		part := strings.Join(frags, " AND ")
		if len(frags) > 1 {
			part = "(" + part + ")"
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

// fieldFragments compiles one predicate entry for a resolved column.
func (r *Repository) fieldFragments(col *schema.Column, v any, args *argList) ([]string, error) {
	ident := quote(col.StorageName())
	switch {
	case v == nil:
		return []string{ident + " IS NULL"}, nil
	case isPredicateMap(v):
		m := toPredicate(v)
		if col.Kind == schema.KindBelongsTo {
			if fk, ok := r.collapseForeign(col, m); ok {
				return []string{ident + " = " + args.add(fk)}, nil
			}
		}
		return r.operatorFragments(col, ident, m, args)
	case isSlice(v):
		cast := col.Type.ArrayCast()
		return []string{fmt.Sprintf("%s=ANY(%s::%s[])", ident, args.add(pq.Array(anySlice(v))), cast)}, nil
	default:
		return []string{ident + " = " + args.add(v)}, nil
	}
}

// operatorFragments compiles a nested operator object. Multiple operators on
// one column AND together, in sorted operator order.
func (r *Repository) operatorFragments(col *schema.Column, ident string, m criteria.Predicate, args *argList) ([]string, error) {
	ops := make([]string, 0, len(m))
	for op := range m {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	frags := make([]string, 0, len(ops))
	for _, op := range ops {
		v := m[op]
		switch {
		case op == "startsWith":
			s, ok := v.(string)
			if !ok {
				return nil, criteria.NewValidationError("startsWith on %q requires a string, got %T", col.Property, v)
			}
			frags = append(frags, ident+" ILIKE "+args.add(s+"%"))
		case op == "!=" && v == nil:
			frags = append(frags, ident+" IS NOT NULL")
		case comparisonOps[op] != "":
			frags = append(frags, fmt.Sprintf("%s %s %s", ident, comparisonOps[op], args.add(v)))
		default:
			return nil, criteria.NewValidationError("unsupported operator %q on property %q", op, col.Property)
		}
	}
	return frags, nil
}

// collapseForeign collapses a belongs-to value given as a nested object with
// only the target's id-shaped key into the underlying foreign-key value. No
// join is ever performed for belongs-to filters.
func (r *Repository) collapseForeign(col *schema.Column, m criteria.Predicate) (any, bool) {
	if len(m) != 1 {
		return nil, false
	}
	rel := r.relations[col.Property]
	if rel == nil {
		return nil, false
	}
	for key, v := range m {
		if key == rel.target.pk.Property || key == "id" {
			return v, true
		}
	}
	return nil, false
}

func isPredicateMap(v any) bool {
	switch v.(type) {
	case criteria.Predicate, map[string]any, Record:
		return true
	}
	return false
}

func toPredicate(v any) criteria.Predicate {
	switch v := v.(type) {
	case criteria.Predicate:
		return v
	case map[string]any:
		return criteria.Predicate(v)
	case Record:
		return criteria.Predicate(v)
	}
	return nil
}

func predicateSlice(v any) ([]criteria.Predicate, error) {
	switch v := v.(type) {
	case []criteria.Predicate:
		return v, nil
	case []map[string]any:
		out := make([]criteria.Predicate, len(v))
		for i := range v {
			out[i] = criteria.Predicate(v[i])
		}
		return out, nil
	case []any:
		out := make([]criteria.Predicate, 0, len(v))
		for _, item := range v {
			if !isPredicateMap(item) {
				return nil, criteria.NewValidationError("or group element must be an object, got %T", item)
			}
			out = append(out, toPredicate(item))
		}
		return out, nil
	default:
		return nil, criteria.NewValidationError("or group must be a list of predicates, got %T", v)
	}
}

// isSlice reports whether the value is a slice other than []byte.
func isSlice(v any) bool {
	if _, ok := v.([]byte); ok {
		return false
	}
	return reflect.ValueOf(v).Kind() == reflect.Slice
}

// anySlice converts any slice value into []any for array binding.
func anySlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// quote wraps an identifier in double quotes.
func quote(ident string) string {
	return `"` + ident + `"`
}
