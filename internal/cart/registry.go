package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nikolayk812/tourcart/internal/port"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Registry hands out exactly one Aggregator per namespace so two in-memory copies
// of the same profile never overwrite each other's snapshot. Aggregators are never
// evicted: the registry holds one entry per profile that was resolved with Get,
// so reads should go through Find.
type Registry struct {
	store  port.CartStore
	logger zerolog.Logger
	opts   []Option

	mu    sync.RWMutex
	carts map[string]*Aggregator
	sfg   singleflight.Group // collapses concurrent first loads of one namespace
}

func NewRegistry(store port.CartStore, logger zerolog.Logger, opts ...Option) *Registry {
	return &Registry{
		store:  store,
		logger: logger,
		opts:   opts,
		carts:  make(map[string]*Aggregator),
	}
}

func (r *Registry) Get(ctx context.Context, namespace string) (*Aggregator, error) {
	r.mu.RLock()
	agg, ok := r.carts[namespace]
	r.mu.RUnlock()
	if ok {
		return agg, nil
	}

	v, err, _ := r.sfg.Do(namespace, func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.carts[namespace]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		created, err := NewAggregator(context.WithoutCancel(ctx), r.store, namespace, r.logger, r.opts...)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.carts[namespace] = created
		r.mu.Unlock()

		return created, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Aggregator), nil
}

// Find returns the aggregator for namespace without registering profiles the
// store has never seen. A nil aggregator means the cart is empty.
func (r *Registry) Find(ctx context.Context, namespace string) (*Aggregator, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is empty")
	}

	r.mu.RLock()
	agg, ok := r.carts[namespace]
	r.mu.RUnlock()
	if ok {
		return agg, nil
	}

	if _, err := r.store.Get(ctx, namespace); errors.Is(err, port.ErrNotFound) {
		return nil, nil
	}

	return r.Get(ctx, namespace)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.carts)
}
