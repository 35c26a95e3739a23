// Package resource keeps in-memory mirrors of server collections. Every
// mutation is followed by a full reload so the local items always equal what
// the server would return.
package resource

import (
	"context"
	"log"
	"sync"

	"edis-portal/internal/apiclient"
)

// Config wires a Collection to one entity kind.
type Config[T, D any] struct {
	// Singular and Plural name the entity in failure messages ("project", "projects").
	Singular string
	Plural   string

	Fetch  func(ctx context.Context) ([]T, error)
	Create func(ctx context.Context, data D) error
	Update func(ctx context.Context, id int64, data D) error
	Delete func(ctx context.Context, id int64) error
}

type Collection[T, D any] struct {
	cfg Config[T, D]

	mu      sync.Mutex
	items   []T
	loading bool
}

// NewCollection starts in the loading state until the first fetch finishes.
func NewCollection[T, D any](cfg Config[T, D]) *Collection[T, D] {
	return &Collection[T, D]{cfg: cfg, items: []T{}, loading: true}
}

func (c *Collection[T, D]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T, D]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Collection[T, D]) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *Collection[T, D]) replace(items []T) {
	if items == nil {
		items = []T{}
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

// FetchAll reloads the whole collection.
func (c *Collection[T, D]) FetchAll(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	items, err := c.cfg.Fetch(ctx)
	if err != nil {
		return fail(OpLoad, err, "Failed to load "+c.cfg.Plural)
	}
	c.replace(items)
	return nil
}

// Mount performs the initial load. Its failure is logged, not returned.
func (c *Collection[T, D]) Mount(ctx context.Context) {
	if err := c.FetchAll(ctx); err != nil {
		log.Printf("[resource] initial %s fetch failed: %v", c.cfg.Plural, err)
	}
}

func (c *Collection[T, D]) Create(ctx context.Context, data D) error {
	return c.mutate(ctx, OpCreate, func() error { return c.cfg.Create(ctx, data) })
}

func (c *Collection[T, D]) Update(ctx context.Context, id int64, data D) error {
	return c.mutate(ctx, OpUpdate, func() error { return c.cfg.Update(ctx, id, data) })
}

func (c *Collection[T, D]) Delete(ctx context.Context, id int64) error {
	return c.mutate(ctx, OpDelete, func() error { return c.cfg.Delete(ctx, id) })
}

// mutate runs call and then reloads. A failing reload is reported under the
// mutation's op.
func (c *Collection[T, D]) mutate(ctx context.Context, op Op, call func() error) error {
	fallback := "Failed to " + string(op) + " " + c.cfg.Singular
	if err := call(); err != nil {
		return fail(op, err, fallback)
	}
	if err := c.FetchAll(ctx); err != nil {
		return fail(op, err, fallback)
	}
	return nil
}

func fail(op Op, err error, fallback string) *Failure {
	return &Failure{Op: op, Message: apiclient.ErrorMessage(err, fallback), Err: err}
}
