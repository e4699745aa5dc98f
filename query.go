package undertow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/undertow-orm/undertow/criteria"
)

// Query is the deferred builder returned by Find and FindOne. Chained calls
// mutate the accumulated criteria and return the same builder; nothing
// executes until a terminal method runs, and it runs the compiled statement
// exactly once. A Query is single-use: terminal calls after the first return
// ErrQueryConsumed.
type Query struct {
	repo      *Repository
	findOne   bool
	crit      *criteria.Criteria
	populates []populateReq
	err       error
	done      bool
}

// Find returns a deferred query over all matching records. The input may be
// nil, structured args, or a bare predicate.
func (r *Repository) Find(input any) *Query {
	crit, err := criteria.Normalize(input)
	return &Query{repo: r, crit: crit, err: err}
}

// FindOne returns a deferred query resolving to the first matching record,
// or nil when nothing matches.
func (r *Repository) FindOne(input any) *Query {
	crit, err := criteria.Normalize(input)
	return &Query{repo: r, findOne: true, crit: crit, err: err}
}

// Select restricts the projection to the given properties. The primary key
// is always projected regardless.
func (q *Query) Select(properties ...string) *Query {
	if q.err != nil {
		return q
	}
	q.crit.Select = append(q.crit.Select, properties...)
	return q
}

// Where merges the given predicate into the accumulated criteria,
// overwriting previously set properties.
func (q *Query) Where(p any) *Query {
	if q.err != nil || p == nil {
		return q
	}
	if !isPredicateMap(p) {
		q.err = criteria.NewValidationError("where clause must be an object, got %T", p)
		return q
	}
	if q.crit.Where == nil {
		q.crit.Where = criteria.Predicate{}
	}
	for k, v := range toPredicate(p) {
		q.crit.Where[k] = v
	}
	return q
}

// Sort appends sort terms after any already accumulated.
func (q *Query) Sort(v any) *Query {
	if q.err != nil {
		return q
	}
	terms, err := criteria.NormalizeSort(v)
	if err != nil {
		q.err = err
		return q
	}
	q.crit.Sorts = append(q.crit.Sorts, terms...)
	return q
}

// Skip sets the row offset.
func (q *Query) Skip(n int) *Query {
	if q.err == nil {
		q.crit.Skip = n
	}
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	if q.err == nil {
		q.crit.Limit = n
	}
	return q
}

// Paginate sets limit and skip from a 1-based page number. Pages below one
// clamp to the first page.
func (q *Query) Paginate(page, limit int) *Query {
	if q.err != nil {
		return q
	}
	if page < 1 {
		page = 1
	}
	q.crit.Limit = limit
	q.crit.Skip = page*limit - limit
	return q
}

// Populate requests resolution of the named relation onto each result. The
// optional sub-criteria constrain the related records. Sibling populate
// requests execute concurrently.
func (q *Query) Populate(property string, sub ...any) *Query {
	if q.err != nil {
		return q
	}
	var input any
	if len(sub) > 0 {
		input = sub[0]
	}
	crit, err := criteria.Normalize(input)
	if err != nil {
		q.err = err
		return q
	}
	q.populates = append(q.populates, populateReq{property: property, crit: crit})
	return q
}

// All compiles and executes the query, returning every matching record.
func (q *Query) All(ctx context.Context) ([]Record, error) {
	if err := q.consume(); err != nil {
		return nil, err
	}
	if q.findOne {
		rec, err := q.repo.findOne(ctx, q.crit, q.populates)
		if err != nil || rec == nil {
			return nil, err
		}
		return []Record{rec}, nil
	}
	return q.repo.findAll(ctx, q.crit, q.populates)
}

// One compiles and executes the query, returning the first matching record
// or nil.
func (q *Query) One(ctx context.Context) (Record, error) {
	if err := q.consume(); err != nil {
		return nil, err
	}
	return q.repo.findOne(ctx, q.crit, q.populates)
}

func (q *Query) consume() error {
	if q.err != nil {
		return q.err
	}
	if q.done {
		return ErrQueryConsumed
	}
	q.done = true
	return nil
}

// Count is the result of a count query. The database value stays exact: it
// is a plain integer when it fits, and the original textual value otherwise.
type Count struct {
	value int64
	raw   string
}

// Int64 returns the numeric count. Zero when the value did not fit; check
// Exact.
func (c Count) Int64() int64 { return c.value }

// Exact reports whether the count fit an int64.
func (c Count) Exact() bool { return c.raw == "" }

// String returns the textual count, exactly as the database sent it when the
// value did not fit an int64.
func (c Count) String() string {
	if c.raw != "" {
		return c.raw
	}
	return strconv.FormatInt(c.value, 10)
}

func newCount(v any) Count {
	switch v := v.(type) {
	case int64:
		return Count{value: v}
	case int:
		return Count{value: int64(v)}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return Count{value: n}
		}
		return Count{raw: v}
	default:
		// Values of unrecognized driver types are never exact.
		return Count{raw: fmt.Sprintf("%v", v)}
	}
}

// CountQuery is the deferred builder returned by Repository.Count.
type CountQuery struct {
	repo *Repository
	crit *criteria.Criteria
	err  error
	done bool
}

// Count returns a deferred query counting the matching rows.
func (r *Repository) Count(input any) *CountQuery {
	crit, err := criteria.Normalize(input)
	return &CountQuery{repo: r, crit: crit, err: err}
}

// Where merges the given predicate into the accumulated criteria.
func (q *CountQuery) Where(p any) *CountQuery {
	if q.err != nil || p == nil {
		return q
	}
	if !isPredicateMap(p) {
		q.err = criteria.NewValidationError("where clause must be an object, got %T", p)
		return q
	}
	if q.crit.Where == nil {
		q.crit.Where = criteria.Predicate{}
	}
	for k, v := range toPredicate(p) {
		q.crit.Where[k] = v
	}
	return q
}

// Exec compiles and executes the count on the primary driver.
func (q *CountQuery) Exec(ctx context.Context) (Count, error) {
	if q.err != nil {
		return Count{}, q.err
	}
	if q.done {
		return Count{}, ErrQueryConsumed
	}
	q.done = true
	stmt, err := q.repo.compileCount(q.crit)
	if err != nil {
		return Count{}, err
	}
	key := q.repo.cacheKey("count", stmt)
	recs, ok := q.repo.cachedRecords(ctx, key)
	if !ok {
		recs, err = q.repo.queryRecords(ctx, q.repo.orm.drv, "count", stmt)
		if err != nil {
			return Count{}, err
		}
		q.repo.storeRecords(ctx, key, recs)
	}
	if len(recs) == 0 {
		return Count{}, nil
	}
	return newCount(recs[0]["count"]), nil
}
