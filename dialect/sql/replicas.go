package sql

import (
	"context"
	"errors"

	"github.com/undertow-orm/undertow/dialect"
)

// ReplicaSet routes read statements at a read-oriented driver and everything
// else at the primary. With no read driver configured the primary serves both
// roles. Transactions always run on the primary.
type ReplicaSet struct {
	primary dialect.Driver
	read    dialect.Driver
}

// NewReplicaSet creates a ReplicaSet over the given primary and read drivers.
// The read driver may be nil.
func NewReplicaSet(primary, read dialect.Driver) *ReplicaSet {
	return &ReplicaSet{primary: primary, read: read}
}

// Primary returns the primary driver.
func (r *ReplicaSet) Primary() dialect.Driver { return r.primary }

// Read returns the driver serving read statements.
func (r *ReplicaSet) Read() dialect.Driver {
	if r.read != nil {
		return r.read
	}
	return r.primary
}

// Query routes the statement to the read driver.
func (r *ReplicaSet) Query(ctx context.Context, query string, args, v any) error {
	return r.Read().Query(ctx, query, args, v)
}

// Exec routes the statement to the primary driver.
func (r *ReplicaSet) Exec(ctx context.Context, query string, args, v any) error {
	return r.primary.Exec(ctx, query, args, v)
}

// Tx starts a transaction on the primary driver.
func (r *ReplicaSet) Tx(ctx context.Context) (dialect.Tx, error) {
	return r.primary.Tx(ctx)
}

// Dialect returns the primary driver's dialect.
func (r *ReplicaSet) Dialect() string { return r.primary.Dialect() }

// Close closes both drivers.
func (r *ReplicaSet) Close() error {
	err := r.primary.Close()
	if r.read != nil {
		err = errors.Join(err, r.read.Close())
	}
	return err
}

var _ dialect.Driver = (*ReplicaSet)(nil)
