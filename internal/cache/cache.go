package cache

import (
	"context"
	"time"
)

// Rate is a cached exchange-rate quote.
type Rate struct {
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Value     float64   `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// RateCache is the capability contract for exchange-rate caching: a miss or
// expired entry returns (nil, nil). Implementations are injected so handlers
// never touch process-wide shared state directly.
type RateCache interface {
	Get(ctx context.Context, key string) (*Rate, error)
	Put(ctx context.Context, key string, rate *Rate, ttl time.Duration) error
}
