package dialect

import "context"

// Supported dialect names. The compiled statement grammar targets Postgres;
// the driver layer itself is dialect-agnostic.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the two database operations the repositories use.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. The args argument
	// is expected to be a []any, and v an optional pointer for the result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows, typically a SELECT or a
	// statement with a RETURNING clause.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the database abstraction the ORM executes statements against.
// Connection management, timeouts and retries all live behind this interface.
type Driver interface {
	ExecQuerier

	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)

	// Close closes the underlying connection.
	Close() error

	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps transaction commit and rollback on top of ExecQuerier.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

type opLabelKey struct{}

// WithOpLabel annotates ctx with the repository operation issuing the
// statement, in the form "model.operation". The repositories set it on every
// statement they execute; driver wrappers read it for per-operation
// accounting and logging.
func WithOpLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, opLabelKey{}, label)
}

// OpLabel returns the operation label carried by ctx, or the empty string
// when the statement was issued outside a repository.
func OpLabel(ctx context.Context) string {
	label, _ := ctx.Value(opLabelKey{}).(string)
	return label
}
