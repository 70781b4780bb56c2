package cache

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// Observer is told about every lookup, e.g. to feed hit/miss metrics.
type Observer func(table string, hit bool)

// TableCache memoises whole-table reads for a fixed TTL. Keys carry the
// table name as prefix ("Deals:load()") so a write to one table can drop
// everything derived from it. Safe for concurrent use.
type TableCache struct {
	store    *gocache.Cache
	ttl      time.Duration
	observer Observer
}

var _ Cache[any] = (*TableCache)(nil)

type Option func(*TableCache)

// WithObserver registers a lookup observer.
func WithObserver(o Observer) Option {
	return func(c *TableCache) { c.observer = o }
}

// NewTableCache returns a cache whose entries live for ttl. A ttl <= 0
// disables caching: every Get misses and Set is a no-op.
func NewTableCache(ttl time.Duration, opts ...Option) *TableCache {
	cleanup := 2 * ttl
	if ttl <= 0 {
		cleanup = 0
	}
	c := &TableCache{
		store: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Key builds "<table>:<operation>(<args>)".
func Key(table, operation string, args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return fmt.Sprintf("%s:%s(%s)", table, operation, strings.Join(parts, ","))
}

func (c *TableCache) Get(key string) (any, bool) {
	var (
		v  any
		ok bool
	)
	if c.ttl > 0 {
		v, ok = c.store.Get(key)
	}
	if c.observer != nil {
		c.observer(tableOf(key), ok)
	}
	return v, ok
}

func (c *TableCache) Set(key string, data any) {
	if c.ttl <= 0 {
		return
	}
	c.store.Set(key, data, gocache.DefaultExpiration)
}

func (c *TableCache) Delete(key string) {
	c.store.Delete(key)
}

func (c *TableCache) Size() int {
	return c.store.ItemCount()
}

// Invalidate drops every entry derived from table and reports how many
// were removed.
func (c *TableCache) Invalidate(table string) int {
	prefix := table + ":"
	n := 0
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix) {
			c.store.Delete(k)
			n++
		}
	}
	return n
}

// Flush empties the cache.
func (c *TableCache) Flush() {
	c.store.Flush()
}

// Lookup is a typed Get. A value of the wrong type counts as a miss.
func Lookup[T any](c *TableCache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

func tableOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
