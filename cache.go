package undertow

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the interface for caching query results. Users implement it with
// their preferred caching solution (e.g. Redis, Memcached, in-memory).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey generates a cache key for a compiled statement.
type CacheKey struct {
	Table     string
	Operation string
	Statement string
	Params    string
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return k.Table + ":" + k.Operation + ":" + k.Statement + ":" + k.Params
}

// cacheKey builds the key for a find or count statement. Empty when caching
// is disabled.
func (r *Repository) cacheKey(op string, stmt *Statement) string {
	if r.orm.cache == nil {
		return ""
	}
	return CacheKey{
		Table:     r.table,
		Operation: op,
		Statement: stmt.Text,
		// %#v keeps parameter types in the key, so identical statement
		// text with differently typed parameters never shares an entry.
		Params: fmt.Sprintf("%#v", stmt.Params),
	}.String()
}

// cachedRecords loads and decodes a cached result. Any cache failure is a
// miss; the cache never fails a query.
func (r *Repository) cachedRecords(ctx context.Context, key string) ([]Record, bool) {
	if key == "" {
		return nil, false
	}
	data, err := r.orm.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil, false
	}
	var recs []Record
	if err := msgpack.Unmarshal(data, &recs); err != nil {
		r.orm.logger.Debug("cache decode failed", "model", r.model.Name, "err", err)
		return nil, false
	}
	return recs, true
}

// storeRecords encodes and stores a result. Storage happens before relation
// population, so cached rows never carry populated values.
func (r *Repository) storeRecords(ctx context.Context, key string, recs []Record) {
	if key == "" {
		return
	}
	data, err := msgpack.Marshal(recs)
	if err != nil {
		r.orm.logger.Debug("cache encode failed", "model", r.model.Name, "err", err)
		return
	}
	if err := r.orm.cache.Set(ctx, key, data, r.orm.cacheTTL); err != nil {
		r.orm.logger.Debug("cache store failed", "model", r.model.Name, "err", err)
	}
}

// invalidateCache drops every cached result of this repository's table.
// Called after create, update and destroy.
func (r *Repository) invalidateCache(ctx context.Context) {
	if r.orm.cache == nil {
		return
	}
	if err := r.orm.cache.DeletePrefix(ctx, r.table+":"); err != nil {
		r.orm.logger.Debug("cache invalidate failed", "model", r.model.Name, "err", err)
	}
}
