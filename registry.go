package undertow

import (
	"log/slog"
	"strings"
	"time"

	"github.com/undertow-orm/undertow/dialect"
	"github.com/undertow-orm/undertow/schema"
)

// Record is a materialized row, keyed by property name.
type Record = schema.Record

// ORM holds the registered repositories and the drivers statements execute
// against. It is fully constructed before the first query and immutable
// afterwards, so it is safe for concurrent use without locking.
type ORM struct {
	drv      dialect.Driver
	readDrv  dialect.Driver
	logger   *slog.Logger
	cache    Cache
	cacheTTL time.Duration
	repos    map[string]*Repository
}

// Option configures the ORM.
type Option func(*ORM)

// WithDriver sets the primary driver. Writes and counts always run here.
func WithDriver(drv dialect.Driver) Option {
	return func(o *ORM) { o.drv = drv }
}

// WithReadDriver sets a read-oriented driver for find and findOne. Without
// one, the primary driver serves both roles.
func WithReadDriver(drv dialect.Driver) Option {
	return func(o *ORM) { o.readDrv = drv }
}

// WithLogger sets the logger used for query-level diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *ORM) { o.logger = l }
}

// WithCache enables result caching for find and count with the given TTL.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(o *ORM) {
		o.cache = c
		o.cacheTTL = ttl
	}
}

// New creates an ORM. Models must be registered with Register before any
// repository is used.
func New(opts ...Option) *ORM {
	o := &ORM{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register builds one repository per model and links every relation reference
// in a single pass, so that target, via and through names resolve to direct
// references before the first query. Register may be called once; models are
// immutable afterwards.
func (o *ORM) Register(models ...*schema.Model) error {
	if o.repos != nil {
		return ErrRegistered
	}
	repos := make(map[string]*Repository, len(models))
	for _, m := range models {
		if m.Name == "" {
			return newConfigError("", "", "", "model missing name")
		}
		key := strings.ToLower(m.Name)
		if _, ok := repos[key]; ok {
			return newConfigError(m.Name, "", "", "duplicate model name")
		}
		repo, err := o.buildRepository(m)
		if err != nil {
			return err
		}
		repos[key] = repo
	}
	o.repos = repos
	for _, repo := range repos {
		if err := repo.link(); err != nil {
			o.repos = nil
			return err
		}
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (o *ORM) MustRegister(models ...*schema.Model) {
	if err := o.Register(models...); err != nil {
		panic(err)
	}
}

// Repository returns the repository registered under the given model name.
// Lookups are case-insensitive.
func (o *ORM) Repository(name string) (*Repository, error) {
	repo, ok := o.repos[strings.ToLower(name)]
	if !ok {
		return nil, newConfigError(name, "", "", "model is not registered")
	}
	return repo, nil
}

// MustRepository is like Repository but panics when the model is unknown.
func (o *ORM) MustRepository(name string) *Repository {
	repo, err := o.Repository(name)
	if err != nil {
		panic(err)
	}
	return repo
}

// Close closes the underlying drivers.
func (o *ORM) Close() error {
	var err error
	if o.drv != nil {
		err = o.drv.Close()
	}
	if o.readDrv != nil {
		if cerr := o.readDrv.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// readDriver returns the driver serving find and findOne.
func (o *ORM) readDriver() dialect.Driver {
	if o.readDrv != nil {
		return o.readDrv
	}
	return o.drv
}

func (o *ORM) buildRepository(m *schema.Model) (*Repository, error) {
	pk := m.PrimaryKey()
	if pk == nil {
		// Default primary key per the metadata contract.
		pk = schema.Integer("id").Primary()
		m.Columns = append([]*schema.Column{pk}, m.Columns...)
	}
	byProp := make(map[string]*schema.Column, len(m.Columns))
	primaries := 0
	for _, c := range m.Columns {
		if c.Property == "" {
			return nil, newConfigError(m.Name, "", "", "column missing property name")
		}
		if _, ok := byProp[c.Property]; ok {
			return nil, newConfigError(m.Name, c.Property, "", "duplicate property")
		}
		byProp[c.Property] = c
		if c.IsPrimary {
			primaries++
			if c.Kind != schema.KindScalar {
				return nil, newConfigError(m.Name, c.Property, "", "primary key must be a scalar column")
			}
		}
	}
	if primaries > 1 {
		return nil, newConfigError(m.Name, "", "", "model declares %d primary keys", primaries)
	}
	return &Repository{
		orm:    o,
		model:  m,
		table:  m.TableName(),
		pk:     pk,
		byProp: byProp,
	}, nil
}
