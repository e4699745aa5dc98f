package undertow

import (
	"math"
	"strconv"

	sqldialect "github.com/undertow-orm/undertow/dialect/sql"
	"github.com/undertow-orm/undertow/schema"
)

// maxSafeInteger is the largest integer a 64-bit float represents exactly.
// Textual integers beyond it stay textual rather than lose precision.
const maxSafeInteger = 1<<53 - 1

// scanRows materializes raw result rows into records: result columns map
// back to property names and numeric text coerces where that is lossless.
func (r *Repository) scanRows(rows *sqldialect.Rows) ([]Record, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	cols := make([]*schema.Column, len(names))
	for i, name := range names {
		cols[i] = r.resultColumn(name)
	}
	var recs []Record
	for rows.Next() {
		raw := make([]any, len(names))
		dest := make([]any, len(names))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec := make(Record, len(names))
		for i, name := range names {
			v := raw[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			key := name
			if col := cols[i]; col != nil {
				key = col.Property
				v = coerceNumeric(col.Type, v)
			}
			rec[key] = v
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// resultColumn maps a result column name back to its column declaration.
// Belongs-to columns come back aliased to their property name; scalars come
// back under their storage name.
func (r *Repository) resultColumn(name string) *schema.Column {
	if c, ok := r.byProp[name]; ok && c.Kind != schema.KindCollection {
		return c
	}
	for _, c := range r.model.Columns {
		if c.Kind == schema.KindScalar && c.StorageName() == name {
			return c
		}
	}
	return nil
}

// coerceNumeric converts a textual value of a numeric column into a number,
// but only when the conversion is lossless: the parsed value must be finite
// and its canonical string form must round-trip to the original text.
// Integer columns additionally truncate and require the result to stay
// within exact float precision. A rejected conversion leaves the original
// text untouched; it never fails the row.
func coerceNumeric(t schema.Type, v any) any {
	if t != schema.TypeInteger && t != schema.TypeFloat {
		return v
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return v
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != s {
		return v
	}
	if t == schema.TypeInteger {
		trunc := math.Trunc(f)
		if math.Abs(trunc) > maxSafeInteger {
			return v
		}
		return int64(trunc)
	}
	return f
}
