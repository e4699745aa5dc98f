// Package criteria defines the caller-facing query criteria and their
// normalization.
//
// A query is described either by structured arguments (select, where, sort,
// skip, limit) or by a bare predicate treated entirely as the where clause.
// Both forms normalize into a Criteria value; Normalize implements the
// polymorphic boundary while FromArgs and FromWhere are the explicit typed
// entry points.
package criteria

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Or is the predicate key grouping sub-predicates with SQL OR. Each element
// of its value is itself a predicate whose terms are AND-ed.
const Or = "or"

// Predicate is the structured where tree: property names (or the Or key)
// mapped to a scalar (equality), a slice (set membership), or a nested
// operator object.
type Predicate map[string]any

// Sort is a single normalized sort term.
type Sort struct {
	Property   string
	Descending bool
}

// Criteria is the normalized form of a query description.
type Criteria struct {
	// Select lists the requested properties. Empty means all columns.
	Select []string

	// Where is the predicate tree. May be nil.
	Where Predicate

	// Sorts holds the ordered sort terms.
	Sorts []Sort

	// Skip and Limit are emitted only when greater than zero.
	Skip  int
	Limit int
}

// New returns an empty criteria.
func New() *Criteria {
	return &Criteria{}
}

// Clone returns a copy sharing no mutable state with the receiver at the top
// level. Nested predicate values are shared.
func (c *Criteria) Clone() *Criteria {
	if c == nil {
		return New()
	}
	out := &Criteria{Skip: c.Skip, Limit: c.Limit}
	if c.Select != nil {
		out.Select = append([]string(nil), c.Select...)
	}
	if c.Sorts != nil {
		out.Sorts = append([]Sort(nil), c.Sorts...)
	}
	if c.Where != nil {
		out.Where = make(Predicate, len(c.Where))
		for k, v := range c.Where {
			out.Where[k] = v
		}
	}
	return out
}

// structuredKeys are the keys that identify a structured args object.
var structuredKeys = map[string]bool{
	"select": true,
	"where":  true,
	"sort":   true,
	"skip":   true,
	"limit":  true,
}

// Normalize converts any supported criteria input into a Criteria. A map
// whose keys are all structured-argument keys is treated as structured args;
// any other map is treated entirely as a where predicate.
func Normalize(input any) (*Criteria, error) {
	switch v := input.(type) {
	case nil:
		return New(), nil
	case *Criteria:
		return v.Clone(), nil
	case Criteria:
		return v.Clone(), nil
	case Predicate:
		return FromWhere(v)
	case map[string]any:
		return fromMap(v)
	case string:
		return nil, NewValidationError("criteria must be an object, got string %q", v)
	default:
		if m, ok := stringKeyed(input); ok {
			return fromMap(m)
		}
		return nil, NewValidationError("unsupported criteria type %T", input)
	}
}

func fromMap(m map[string]any) (*Criteria, error) {
	for k := range m {
		if !structuredKeys[k] {
			return FromWhere(Predicate(m))
		}
	}
	return FromArgs(m)
}

// stringKeyed converts any map value with string keys into a plain map, so
// named map types such as row records are accepted as criteria.
func stringKeyed(v any) (map[string]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	for it := rv.MapRange(); it.Next(); {
		m[it.Key().String()] = it.Value().Interface()
	}
	return m, true
}

// FromWhere builds a criteria whose entire input is the where predicate.
func FromWhere(p Predicate) (*Criteria, error) {
	c := New()
	if len(p) > 0 {
		c.Where = make(Predicate, len(p))
		for k, v := range p {
			c.Where[k] = v
		}
	}
	return c, nil
}

// FromArgs builds a criteria from a structured args object.
func FromArgs(args map[string]any) (*Criteria, error) {
	c := New()
	if sel, ok := args["select"]; ok && sel != nil {
		list, err := stringList(sel)
		if err != nil {
			return nil, NewValidationError("select must be a list of property names: %v", err)
		}
		c.Select = list
	}
	if w, ok := args["where"]; ok && w != nil {
		switch w := w.(type) {
		case Predicate:
			c.Where = w
		case map[string]any:
			c.Where = Predicate(w)
		case string:
			return nil, NewValidationError("where clause must be an object, got string %q", w)
		default:
			m, ok := stringKeyed(w)
			if !ok {
				return nil, NewValidationError("where clause must be an object, got %T", w)
			}
			c.Where = Predicate(m)
		}
	}
	if s, ok := args["sort"]; ok && s != nil {
		sorts, err := NormalizeSort(s)
		if err != nil {
			return nil, err
		}
		c.Sorts = sorts
	}
	if v, ok := args["skip"]; ok && v != nil {
		n, err := toInt(v)
		if err != nil {
			return nil, NewValidationError("skip must be a number: %v", err)
		}
		c.Skip = n
	}
	if v, ok := args["limit"]; ok && v != nil {
		n, err := toInt(v)
		if err != nil {
			return nil, NewValidationError("limit must be a number: %v", err)
		}
		c.Limit = n
	}
	return c, nil
}

// NormalizeSort converts a sort value into an ordered list of sort terms. A
// single term may be a string ("name" or "name DESC"), a direction map, or a
// Sort value; a list of terms normalizes each element in order.
func NormalizeSort(v any) ([]Sort, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case Sort:
		return []Sort{v}, nil
	case []Sort:
		return append([]Sort(nil), v...), nil
	case string:
		s, err := parseSortString(v)
		if err != nil {
			return nil, err
		}
		return []Sort{s}, nil
	case map[string]any:
		return parseSortMap(v)
	case []any:
		var out []Sort
		for _, item := range v {
			terms, err := NormalizeSort(item)
			if err != nil {
				return nil, err
			}
			out = append(out, terms...)
		}
		return out, nil
	case []string:
		var out []Sort
		for _, item := range v {
			s, err := parseSortString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, NewValidationError("unsupported sort value of type %T", v)
	}
}

func parseSortString(s string) (Sort, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return Sort{Property: fields[0]}, nil
	case 2:
		switch strings.ToUpper(fields[1]) {
		case "ASC":
			return Sort{Property: fields[0]}, nil
		case "DESC":
			return Sort{Property: fields[0], Descending: true}, nil
		}
	}
	return Sort{}, NewValidationError("invalid sort term %q", s)
}

// parseSortMap normalizes a {property: direction} map. Map iteration order is
// unspecified, so multi-key maps sort by property name to stay deterministic.
func parseSortMap(m map[string]any) ([]Sort, error) {
	props := make([]string, 0, len(m))
	for k := range m {
		props = append(props, k)
	}
	sort.Strings(props)
	out := make([]Sort, 0, len(props))
	for _, prop := range props {
		desc, err := sortDirection(m[prop])
		if err != nil {
			return nil, NewValidationError("invalid sort direction for %q: %v", prop, err)
		}
		out = append(out, Sort{Property: prop, Descending: desc})
	}
	return out, nil
}

func sortDirection(v any) (bool, error) {
	switch v := v.(type) {
	case string:
		switch strings.ToUpper(v) {
		case "ASC":
			return false, nil
		case "DESC":
			return true, nil
		}
		return false, fmt.Errorf("unknown direction %q", v)
	case int:
		return v < 0, nil
	case int64:
		return v < 0, nil
	case float64:
		return v < 0, nil
	default:
		return false, fmt.Errorf("unsupported direction type %T", v)
	}
}

func stringList(v any) ([]string, error) {
	switch v := v.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %v is %T, want string", item, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value is %T, want list", v)
	}
}

func toInt(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("value is %T", v)
	}
}
