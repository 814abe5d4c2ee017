package store

import (
	"context"
	"errors"
	"slices"

	"github.com/sadopc/tally/internal/watch"
)

// WatchCounter streams the counter with the given id. It yields nil while no
// such counter exists, which callers treat as "no counter selected".
func (s *Store) WatchCounter(ctx context.Context, id int64) *watch.Subscription[*Counter] {
	return watch.Watch(ctx, s.changes, func(ctx context.Context) (*Counter, error) {
		c, err := s.GetCounter(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil && ctx.Err() == nil {
			s.logger.Printf("watch counter %d: %v", id, err)
		}
		return c, err
	}, sameCounter)
}

// WatchCounters streams the full counter list in insertion order.
func (s *Store) WatchCounters(ctx context.Context) *watch.Subscription[[]Counter] {
	return watch.Watch(ctx, s.changes, func(ctx context.Context) ([]Counter, error) {
		counters, err := s.ListCounters(ctx)
		if err != nil && ctx.Err() == nil {
			s.logger.Printf("watch counters: %v", err)
		}
		return counters, err
	}, func(a, b []Counter) bool {
		return slices.EqualFunc(a, b, Counter.Equal)
	})
}

func sameCounter(a, b *Counter) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
