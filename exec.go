package undertow

import (
	"context"

	"github.com/undertow-orm/undertow/criteria"
	"github.com/undertow-orm/undertow/dialect"
	sqldialect "github.com/undertow-orm/undertow/dialect/sql"
)

// queryRecords runs a row-returning statement on the given driver and
// materializes the result. Driver failures propagate unchanged, wrapped with
// the model and logical operation for the diagnostic trail.
func (r *Repository) queryRecords(ctx context.Context, drv dialect.Driver, op string, stmt *Statement) ([]Record, error) {
	if drv == nil {
		return nil, ErrNoDriver
	}
	r.orm.logger.Debug("executing statement",
		"model", r.model.Name, "op", op, "query", stmt.Text, "params", stmt.Params)
	ctx = dialect.WithOpLabel(ctx, r.model.Name+"."+op)
	rows := &sqldialect.Rows{}
	if err := drv.Query(ctx, stmt.Text, stmt.Params, rows); err != nil {
		return nil, queryError(r.model.Name, op, err)
	}
	defer rows.Close()
	recs, err := r.scanRows(rows)
	if err != nil {
		return nil, queryError(r.model.Name, op, err)
	}
	return recs, nil
}

// execStatement runs a statement that returns no rows on the primary driver.
func (r *Repository) execStatement(ctx context.Context, op string, stmt *Statement) error {
	drv := r.orm.drv
	if drv == nil {
		return ErrNoDriver
	}
	r.orm.logger.Debug("executing statement",
		"model", r.model.Name, "op", op, "query", stmt.Text, "params", stmt.Params)
	ctx = dialect.WithOpLabel(ctx, r.model.Name+"."+op)
	if err := drv.Exec(ctx, stmt.Text, stmt.Params, nil); err != nil {
		return queryError(r.model.Name, op, err)
	}
	return nil
}

// findAll compiles and executes a find, then resolves the requested
// relations.
func (r *Repository) findAll(ctx context.Context, c *criteria.Criteria, pops []populateReq) ([]Record, error) {
	stmt, err := r.compileSelect(c)
	if err != nil {
		return nil, err
	}
	key := r.cacheKey("find", stmt)
	if recs, ok := r.cachedRecords(ctx, key); ok {
		if err := r.populate(ctx, recs, pops); err != nil {
			return nil, err
		}
		return recs, nil
	}
	recs, err := r.queryRecords(ctx, r.orm.readDriver(), "find", stmt)
	if err != nil {
		return nil, err
	}
	r.storeRecords(ctx, key, recs)
	if err := r.populate(ctx, recs, pops); err != nil {
		return nil, err
	}
	return recs, nil
}

// findOne compiles and executes a findOne. With no matching row, population
// is skipped entirely and a nil record returns with no error.
func (r *Repository) findOne(ctx context.Context, c *criteria.Criteria, pops []populateReq) (Record, error) {
	stmt, err := r.compileSelect(c)
	if err != nil {
		return nil, err
	}
	recs, err := r.queryRecords(ctx, r.orm.readDriver(), "findOne", stmt)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	rec := recs[0]
	if err := r.populate(ctx, []Record{rec}, pops); err != nil {
		return nil, err
	}
	return rec, nil
}

// findJoin runs the join-table lookup of a many-to-many populate: only the
// counterpart foreign key is projected, with no primary-key append.
func (r *Repository) findJoin(ctx context.Context, c *criteria.Criteria) ([]Record, error) {
	stmt, err := r.compileSelectProj(c, false)
	if err != nil {
		return nil, err
	}
	return r.queryRecords(ctx, r.orm.readDriver(), "find", stmt)
}
