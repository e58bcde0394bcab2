package repository

import (
	"context"
	"time"
)

// WithTimeout bounds every transaction of store by d.
func WithTimeout(store Store, d time.Duration) Store {
	if d <= 0 {
		return store
	}
	return &timeoutStore{store: store, d: d}
}

type timeoutStore struct {
	store Store
	d     time.Duration
}

func (s *timeoutStore) View(ctx context.Context, fn TxFunc) error {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.store.View(ctx, fn)
}

func (s *timeoutStore) Update(ctx context.Context, fn TxFunc) error {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.store.Update(ctx, fn)
}
