package undertow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/undertow-orm/undertow/criteria"
	"github.com/undertow-orm/undertow/schema"
)

// populateReq is one requested relation resolution, with optional
// sub-criteria constraining the related records.
type populateReq struct {
	property string
	crit     *criteria.Criteria
}

// populate resolves the requested relations onto the given records. Sibling
// requests dispatch concurrently; the first failure cancels the rest and
// fails the whole call. Resolved values assign only after every branch
// settles, so no partial result is ever observed.
func (r *Repository) populate(ctx context.Context, recs []Record, reqs []populateReq) error {
	if len(recs) == 0 || len(reqs) == 0 {
		return nil
	}
	for _, req := range reqs {
		if _, ok := r.relations[req.property]; !ok {
			return newConfigError(r.model.Name, req.property, "", "unknown populate property")
		}
	}
	values := make([]any, len(recs)*len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for ri, rec := range recs {
		for pi, req := range reqs {
			i := ri*len(reqs) + pi
			rec, req := rec, req
			g.Go(func() error {
				v, err := r.resolveRelation(gctx, rec, req)
				if err != nil {
					return err
				}
				values[i] = v
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for ri, rec := range recs {
		for pi, req := range reqs {
			rec[req.property] = values[ri*len(reqs)+pi]
		}
	}
	return nil
}

// resolveRelation issues the follow-up queries for one relation on one
// record and returns the value to merge back.
func (r *Repository) resolveRelation(ctx context.Context, rec Record, req populateReq) (any, error) {
	rel := r.relations[req.property]
	switch {
	case rel.col.Kind == schema.KindBelongsTo:
		return r.resolveBelongsTo(ctx, rec, rel, req.crit)
	case rel.through == nil:
		return r.resolveHasMany(ctx, rec, rel, req.crit)
	default:
		return r.resolveManyToMany(ctx, rec, rel, req.crit)
	}
}

// resolveBelongsTo looks up the target by primary key using the record's
// foreign-key value. The key filter overrides any caller-supplied predicate
// on the same property. A nil foreign key resolves to nil with no query.
func (r *Repository) resolveBelongsTo(ctx context.Context, rec Record, rel *relation, sub *criteria.Criteria) (any, error) {
	fk := rec[rel.col.Property]
	if fk == nil {
		return nil, nil
	}
	crit := sub.Clone()
	if crit.Where == nil {
		crit.Where = criteria.Predicate{}
	}
	crit.Where[rel.target.pk.Property] = fk
	found, err := rel.target.findOne(ctx, crit, nil)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, nil
	}
	return found, nil
}

// resolveHasMany fetches the target records whose via foreign key equals
// this record's primary key, honoring caller-supplied constraints.
func (r *Repository) resolveHasMany(ctx context.Context, rec Record, rel *relation, sub *criteria.Criteria) (any, error) {
	crit := sub.Clone()
	if crit.Where == nil {
		crit.Where = criteria.Predicate{}
	}
	crit.Where[rel.via.Property] = rec[r.pk.Property]
	recs, err := rel.target.findAll(ctx, crit, nil)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// resolveManyToMany resolves a through relation in two steps: fetch the join
// rows for this record projecting only the counterpart foreign key, then
// fetch the targets whose primary key is any of the collected ids.
func (r *Repository) resolveManyToMany(ctx context.Context, rec Record, rel *relation, sub *criteria.Criteria) (any, error) {
	joinCrit := criteria.New()
	joinCrit.Select = []string{rel.counterpart.Property}
	joinCrit.Where = criteria.Predicate{rel.via.Property: rec[r.pk.Property]}
	joinRows, err := rel.through.findJoin(ctx, joinCrit)
	if err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(joinRows))
	for _, row := range joinRows {
		if id := row[rel.counterpart.Property]; id != nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}
	crit := sub.Clone()
	if crit.Where == nil {
		crit.Where = criteria.Predicate{}
	}
	crit.Where[rel.target.pk.Property] = ids
	recs, err := rel.target.findAll(ctx, crit, nil)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}
