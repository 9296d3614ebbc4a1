package cache

import (
	"context"
	"time"

	"clothbill/internal/domain"
)

// StockCache holds the rendered stock snapshot. The snapshot is the hottest
// read in the system (the console reloads it after every mutation), so the
// service keeps it behind a short TTL and drops it whenever stock changes.
type StockCache interface {
	Get(ctx context.Context) ([]domain.StockItem, bool, error)
	Set(ctx context.Context, items []domain.StockItem, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopStockCache struct{}

func (NoopStockCache) Get(_ context.Context) ([]domain.StockItem, bool, error) {
	return nil, false, nil
}

func (NoopStockCache) Set(_ context.Context, _ []domain.StockItem, _ time.Duration) error {
	return nil
}

func (NoopStockCache) Invalidate(_ context.Context) error {
	return nil
}
