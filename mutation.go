package undertow

import (
	"context"

	"github.com/undertow-orm/undertow/criteria"
	"github.com/undertow-orm/undertow/schema"
)

// CreateQuery is the deferred builder returned by Repository.Create.
type CreateQuery struct {
	repo      *Repository
	rows      []Record
	fetch     bool
	returning []string
	err       error
	done      bool
}

// Create returns a builder inserting the given values objects in one
// multi-row statement. An empty call short-circuits to an empty result
// without issuing a statement. Created records are returned by default;
// disable with Fetch(false).
func (r *Repository) Create(values ...Record) *CreateQuery {
	return &CreateQuery{repo: r, rows: values, fetch: true}
}

// Fetch controls whether the created records are returned. Without fetch no
// RETURNING clause is emitted and success reports as the absence of an
// error.
func (q *CreateQuery) Fetch(fetch bool) *CreateQuery {
	q.fetch = fetch
	return q
}

// Returning restricts the returned projection to the given properties. The
// primary key is always included.
func (q *CreateQuery) Returning(properties ...string) *CreateQuery {
	q.returning = append(q.returning, properties...)
	return q
}

// Exec compiles and executes the insert. With Fetch(false) it returns
// (nil, nil) on success.
func (q *CreateQuery) Exec(ctx context.Context) ([]Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.done {
		return nil, ErrQueryConsumed
	}
	q.done = true
	if len(q.rows) == 0 {
		return []Record{}, nil
	}
	rows := make([]Record, len(q.rows))
	for i, row := range q.rows {
		prepared, err := q.repo.prepareValues(ctx, row, q.repo.model.BeforeCreate, true)
		if err != nil {
			return nil, err
		}
		rows[i] = prepared
	}
	stmt, err := q.repo.compileInsert(rows, q.fetch, q.returning)
	if err != nil {
		return nil, err
	}
	defer q.repo.invalidateCache(ctx)
	if !q.fetch {
		return nil, q.repo.execStatement(ctx, "create", stmt)
	}
	return q.repo.queryRecords(ctx, q.repo.orm.drv, "create", stmt)
}

// UpdateQuery is the deferred builder returned by Repository.Update.
type UpdateQuery struct {
	repo      *Repository
	crit      *criteria.Criteria
	values    Record
	fetch     bool
	returning []string
	err       error
	done      bool
}

// Update returns a builder updating the records matching the given criteria.
// Chain Set with the new values before executing.
func (r *Repository) Update(input any) *UpdateQuery {
	crit, err := criteria.Normalize(input)
	return &UpdateQuery{repo: r, crit: crit, fetch: true, err: err}
}

// Set provides the values object compiled into the SET clause.
func (q *UpdateQuery) Set(values Record) *UpdateQuery {
	q.values = values
	return q
}

// Fetch controls whether the updated records are returned.
func (q *UpdateQuery) Fetch(fetch bool) *UpdateQuery {
	q.fetch = fetch
	return q
}

// Returning restricts the returned projection to the given properties.
func (q *UpdateQuery) Returning(properties ...string) *UpdateQuery {
	q.returning = append(q.returning, properties...)
	return q
}

// Exec compiles and executes the update. With Fetch(false) it returns
// (nil, nil) on success.
func (q *UpdateQuery) Exec(ctx context.Context) ([]Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.done {
		return nil, ErrQueryConsumed
	}
	q.done = true
	values, err := q.repo.prepareValues(ctx, q.values, q.repo.model.BeforeUpdate, false)
	if err != nil {
		return nil, err
	}
	stmt, err := q.repo.compileUpdate(q.crit, values, q.fetch, q.returning)
	if err != nil {
		return nil, err
	}
	defer q.repo.invalidateCache(ctx)
	if !q.fetch {
		return nil, q.repo.execStatement(ctx, "update", stmt)
	}
	return q.repo.queryRecords(ctx, q.repo.orm.drv, "update", stmt)
}

// DestroyQuery is the deferred builder returned by Repository.Destroy.
type DestroyQuery struct {
	repo      *Repository
	crit      *criteria.Criteria
	fetch     bool
	returning []string
	err       error
	done      bool
}

// Destroy returns a builder deleting the records matching the given
// criteria. A nil input deletes every row: the statement compiles without a
// WHERE clause.
func (r *Repository) Destroy(input any) *DestroyQuery {
	crit, err := criteria.Normalize(input)
	return &DestroyQuery{repo: r, crit: crit, fetch: true, err: err}
}

// Where merges the given predicate into the accumulated criteria.
func (q *DestroyQuery) Where(p any) *DestroyQuery {
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

// Fetch controls whether the deleted records are returned.
func (q *DestroyQuery) Fetch(fetch bool) *DestroyQuery {
	q.fetch = fetch
	return q
}

// Returning restricts the returned projection to the given properties.
func (q *DestroyQuery) Returning(properties ...string) *DestroyQuery {
	q.returning = append(q.returning, properties...)
	return q
}

// Exec compiles and executes the delete. With Fetch(false) it returns
// (nil, nil); success is the absence of an error.
func (q *DestroyQuery) Exec(ctx context.Context) ([]Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.done {
		return nil, ErrQueryConsumed
	}
	q.done = true
	stmt, err := q.repo.compileDelete(q.crit, q.fetch, q.returning)
	if err != nil {
		return nil, err
	}
	defer q.repo.invalidateCache(ctx)
	if !q.fetch {
		return nil, q.repo.execStatement(ctx, "destroy", stmt)
	}
	return q.repo.queryRecords(ctx, q.repo.orm.drv, "destroy", stmt)
}

// prepareValues runs the lifecycle hook and, on create, fills declared
// defaults for absent properties. The caller's map is never mutated.
func (r *Repository) prepareValues(ctx context.Context, values Record, hook schema.Hook, applyDefaults bool) (Record, error) {
	out := make(Record, len(values))
	for k, v := range values {
		out[k] = v
	}
	if hook != nil {
		transformed, err := hook(ctx, out)
		if err != nil {
			return nil, queryError(r.model.Name, "hook", err)
		}
		if transformed != nil {
			out = transformed
		}
	}
	if applyDefaults {
		for _, col := range r.model.Columns {
			if col.DefaultValue == nil {
				continue
			}
			if _, ok := out[col.Property]; !ok {
				out[col.Property] = col.DefaultValue()
			}
		}
	}
	return out, nil
}
