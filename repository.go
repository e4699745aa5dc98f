package undertow

import (
	"strings"

	"github.com/undertow-orm/undertow/schema"
)

// Repository exposes the query operations of one registered model.
type Repository struct {
	orm    *ORM
	model  *schema.Model
	table  string
	pk     *schema.Column
	byProp map[string]*schema.Column

	// relations is populated by the link pass: every belongs-to and
	// collection column resolved to direct references.
	relations map[string]*relation
}

// relation is a linked relation column. All by-name references (target, via,
// through) are resolved once at registration.
type relation struct {
	col     *schema.Column
	target  *Repository
	through *Repository // many-to-many only

	// via is the correlating foreign-key column: on the target model for
	// has-many, on the join model for many-to-many.
	via *schema.Column

	// counterpart is the join model's foreign-key column referencing the
	// target model. Many-to-many only.
	counterpart *schema.Column
}

// Name returns the model name.
func (r *Repository) Name() string { return r.model.Name }

// Model returns the registered model descriptor. Callers must not mutate it.
func (r *Repository) Model() *schema.Model { return r.model }

// PrimaryKey returns the model's primary key column.
func (r *Repository) PrimaryKey() *schema.Column { return r.pk }

// Methods returns the model's shared instance-method set. Every record of
// this model resolves behavior through this one map; records themselves hold
// data only, so two records with equal data compare equal.
func (r *Repository) Methods() map[string]schema.Method { return r.model.Methods }

// Call invokes a declared instance method on the given record.
func (r *Repository) Call(rec Record, name string) (any, error) {
	m, ok := r.model.Methods[name]
	if !ok {
		return nil, newConfigError(r.model.Name, name, "", "model declares no method %q", name)
	}
	return m(rec), nil
}

// column resolves a property name to its column.
func (r *Repository) column(property string) (*schema.Column, bool) {
	c, ok := r.byProp[property]
	return c, ok
}

// link resolves the model's relation references against the registry. Called
// once by Register after every model is known, tolerating any registration
// order.
func (r *Repository) link() error {
	r.relations = make(map[string]*relation)
	for _, c := range r.model.Columns {
		switch c.Kind {
		case schema.KindBelongsTo:
			target, err := r.lookupTarget(c, c.TargetModel)
			if err != nil {
				return err
			}
			// The foreign key holds the target's primary key value.
			if c.Type == schema.TypeOther {
				c.Type = target.pk.Type
			}
			r.relations[c.Property] = &relation{col: c, target: target}
		case schema.KindCollection:
			if c.ViaProperty == "" {
				return newConfigError(r.model.Name, c.Property, c.TargetModel, "collection column missing via")
			}
			target, err := r.lookupTarget(c, c.TargetModel)
			if err != nil {
				return err
			}
			rel := &relation{col: c, target: target}
			if c.ThroughModel == "" {
				via, ok := target.column(c.ViaProperty)
				if !ok {
					return newConfigError(r.model.Name, c.Property, c.TargetModel,
						"via property %q does not exist on target model", c.ViaProperty)
				}
				rel.via = via
			} else {
				through, err := r.lookupTarget(c, c.ThroughModel)
				if err != nil {
					return err
				}
				via, ok := through.column(c.ViaProperty)
				if !ok {
					return newConfigError(r.model.Name, c.Property, c.ThroughModel,
						"via property %q does not exist on through model", c.ViaProperty)
				}
				counterpart, err := r.counterpartColumn(c, target, through)
				if err != nil {
					return err
				}
				rel.through = through
				rel.via = via
				rel.counterpart = counterpart
			}
			r.relations[c.Property] = rel
		}
	}
	return nil
}

func (r *Repository) lookupTarget(c *schema.Column, name string) (*Repository, error) {
	target, ok := r.orm.repos[strings.ToLower(name)]
	if !ok {
		return nil, newConfigError(r.model.Name, c.Property, name, "target model is not registered")
	}
	return target, nil
}

// counterpartColumn locates, on the target model, the sibling collection
// column going through the same join model, and resolves its via property on
// the join model. That column carries the target-side ids of the relation.
func (r *Repository) counterpartColumn(c *schema.Column, target, through *Repository) (*schema.Column, error) {
	for _, tc := range target.model.Columns {
		if tc.Kind != schema.KindCollection || !strings.EqualFold(tc.ThroughModel, through.model.Name) {
			continue
		}
		counterpart, ok := through.column(tc.ViaProperty)
		if !ok {
			return nil, newConfigError(target.model.Name, tc.Property, through.model.Name,
				"via property %q does not exist on through model", tc.ViaProperty)
		}
		return counterpart, nil
	}
	return nil, newConfigError(r.model.Name, c.Property, through.model.Name,
		"target model %q declares no collection through the join model", target.model.Name)
}
