package undertow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/undertow-orm/undertow/criteria"
	"github.com/undertow-orm/undertow/schema"
)

// Statement is the sole output of every builder: parameterized SQL text with
// positionally ordered parameters matching the $n placeholders.
type Statement struct {
	Text   string
	Params []any
}

// projection resolves a select list into a SQL projection. An empty list
// projects every scalar and belongs-to column in declaration order. With
// appendPK, the primary key joins the projection even when the list omits
// it: population and correlation depend on it always being present.
// Belongs-to columns are always aliased back to their property name.
func (r *Repository) projection(selects []string, appendPK bool) (string, error) {
	var cols []*schema.Column
	if len(selects) == 0 {
		for _, c := range r.model.Columns {
			if c.Kind != schema.KindCollection {
				cols = append(cols, c)
			}
		}
	} else {
		seenPK := false
		for _, prop := range selects {
			c, ok := r.column(prop)
			if !ok {
				return "", criteria.NewValidationError("unknown property %q on model %q", prop, r.model.Name)
			}
			if c.Kind == schema.KindCollection {
				return "", criteria.NewValidationError("cannot select collection %q of model %q", prop, r.model.Name)
			}
			if c == r.pk {
				seenPK = true
			}
			cols = append(cols, c)
		}
		if appendPK && !seenPK {
			cols = append(cols, r.pk)
		}
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		if c.Kind == schema.KindBelongsTo {
			parts[i] = quote(c.StorageName()) + " AS " + quote(c.Property)
		} else {
			parts[i] = quote(c.StorageName())
		}
	}
	return strings.Join(parts, ","), nil
}

// compileSelect builds a SELECT statement from the given criteria.
func (r *Repository) compileSelect(c *criteria.Criteria) (*Statement, error) {
	return r.compileSelectProj(c, true)
}

// compileSelectProj is compileSelect with control over the primary-key
// projection invariant. Join-table lookups project only the counterpart
// foreign key.
func (r *Repository) compileSelectProj(c *criteria.Criteria, appendPK bool) (*Statement, error) {
	proj, err := r.projection(c.Select, appendPK)
	if err != nil {
		return nil, err
	}
	args := &argList{}
	var b strings.Builder
	b.WriteString("SELECT " + proj + " FROM " + quote(r.table))
	if err := r.writeWhere(&b, c.Where, args); err != nil {
		return nil, err
	}
	if err := r.writeOrderBy(&b, c.Sorts); err != nil {
		return nil, err
	}
	if c.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", c.Limit)
	}
	if c.Skip > 0 {
		fmt.Fprintf(&b, " OFFSET %d", c.Skip)
	}
	return &Statement{Text: b.String(), Params: args.params}, nil
}

// compileCount builds the COUNT statement for the given criteria.
func (r *Repository) compileCount(c *criteria.Criteria) (*Statement, error) {
	args := &argList{}
	var b strings.Builder
	b.WriteString(`SELECT count(*) AS "count" FROM ` + quote(r.table))
	if err := r.writeWhere(&b, c.Where, args); err != nil {
		return nil, err
	}
	return &Statement{Text: b.String(), Params: args.params}, nil
}

// compileInsert builds a (possibly multi-row) INSERT. Parameters order
// column-major: all row values for the first column, then all for the
// second, so N rows over C columns bind as VALUES ($1,$N+1,...),($2,...).
// The column set is the union of properties referenced across all rows;
// rows missing a property bind NULL for it.
func (r *Repository) compileInsert(rows []Record, fetch bool, returning []string) (*Statement, error) {
	cols, err := r.valueColumns(rows)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, criteria.NewValidationError("create on model %q requires at least one value", r.model.Name)
	}
	n := len(rows)
	args := &argList{}
	names := make([]string, len(cols))
	for ci, col := range cols {
		names[ci] = quote(col.StorageName())
		for _, row := range rows {
			v, err := r.bindValue(col, row[col.Property])
			if err != nil {
				return nil, err
			}
			args.add(v)
		}
	}
	tuples := make([]string, n)
	for ri := range rows {
		refs := make([]string, len(cols))
		for ci := range cols {
			refs[ci] = fmt.Sprintf("$%d", ci*n+ri+1)
		}
		tuples[ri] = "(" + strings.Join(refs, ",") + ")"
	}
	var b strings.Builder
	b.WriteString("INSERT INTO " + quote(r.table) + " (" + strings.Join(names, ",") + ") VALUES " + strings.Join(tuples, ","))
	if err := r.writeReturning(&b, fetch, returning); err != nil {
		return nil, err
	}
	return &Statement{Text: b.String(), Params: args.params}, nil
}

// compileUpdate builds an UPDATE statement. SET parameters number before the
// WHERE parameters, matching their emission order in the text.
func (r *Repository) compileUpdate(c *criteria.Criteria, values Record, fetch bool, returning []string) (*Statement, error) {
	cols, err := r.valueColumns([]Record{values})
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, criteria.NewValidationError("update on model %q requires at least one value", r.model.Name)
	}
	args := &argList{}
	sets := make([]string, len(cols))
	for i, col := range cols {
		v, err := r.bindValue(col, values[col.Property])
		if err != nil {
			return nil, err
		}
		sets[i] = quote(col.StorageName()) + "=" + args.add(v)
	}
	var b strings.Builder
	b.WriteString("UPDATE " + quote(r.table) + " SET " + strings.Join(sets, ", "))
	if err := r.writeWhere(&b, c.Where, args); err != nil {
		return nil, err
	}
	if err := r.writeReturning(&b, fetch, returning); err != nil {
		return nil, err
	}
	return &Statement{Text: b.String(), Params: args.params}, nil
}

// compileDelete builds a DELETE statement. An absent predicate omits the
// WHERE keyword entirely; deleting all rows is a valid, intentional
// operation.
func (r *Repository) compileDelete(c *criteria.Criteria, fetch bool, returning []string) (*Statement, error) {
	args := &argList{}
	var b strings.Builder
	b.WriteString("DELETE FROM " + quote(r.table))
	if err := r.writeWhere(&b, c.Where, args); err != nil {
		return nil, err
	}
	if err := r.writeReturning(&b, fetch, returning); err != nil {
		return nil, err
	}
	return &Statement{Text: b.String(), Params: args.params}, nil
}

func (r *Repository) writeWhere(b *strings.Builder, p criteria.Predicate, args *argList) error {
	if len(p) == 0 {
		return nil
	}
	where, err := r.compileWhere(p, args)
	if err != nil {
		return err
	}
	b.WriteString(" WHERE " + where)
	return nil
}

func (r *Repository) writeOrderBy(b *strings.Builder, sorts []criteria.Sort) error {
	if len(sorts) == 0 {
		return nil
	}
	terms := make([]string, len(sorts))
	for i, s := range sorts {
		col, ok := r.column(s.Property)
		if !ok {
			return criteria.NewValidationError("unknown sort property %q on model %q", s.Property, r.model.Name)
		}
		if col.Kind == schema.KindCollection {
			return criteria.NewValidationError("cannot sort by collection %q of model %q", s.Property, r.model.Name)
		}
		terms[i] = quote(col.StorageName())
		if s.Descending {
			terms[i] += " DESC"
		}
	}
	b.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	return nil
}

func (r *Repository) writeReturning(b *strings.Builder, fetch bool, returning []string) error {
	if !fetch {
		return nil
	}
	proj, err := r.projection(returning, true)
	if err != nil {
		return err
	}
	b.WriteString(" RETURNING " + proj)
	return nil
}

// valueColumns resolves the union of properties referenced across the given
// values objects. Columns order by storage name so placeholder numbering
// stays deterministic.
func (r *Repository) valueColumns(rows []Record) ([]*schema.Column, error) {
	set := make(map[string]*schema.Column)
	for _, row := range rows {
		for prop := range row {
			if _, ok := set[prop]; ok {
				continue
			}
			col, ok := r.column(prop)
			if !ok {
				return nil, criteria.NewValidationError("unknown property %q on model %q", prop, r.model.Name)
			}
			if col.Kind == schema.KindCollection {
				return nil, criteria.NewValidationError("cannot write collection %q of model %q", prop, r.model.Name)
			}
			set[prop] = col
		}
	}
	cols := make([]*schema.Column, 0, len(set))
	for _, col := range set {
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].StorageName() < cols[j].StorageName() })
	return cols, nil
}

// bindValue converts a values-object entry into its bound form. Belongs-to
// values given as a nested object collapse to the foreign-key value.
func (r *Repository) bindValue(col *schema.Column, v any) (any, error) {
	if col.Kind == schema.KindBelongsTo && isPredicateMap(v) {
		if fk, ok := r.collapseForeign(col, toPredicate(v)); ok {
			return fk, nil
		}
		return nil, criteria.NewValidationError("value for %q must be a foreign key or an id object", col.Property)
	}
	return v, nil
}
