package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss returns nil without error", func(t *testing.T) {
		c := NewMemoryCache()
		rate, err := c.Get(ctx, "rate:BRL-USD")
		assert.NoError(t, err)
		assert.Nil(t, rate)
	})

	t.Run("put then get", func(t *testing.T) {
		c := NewMemoryCache()
		want := &Rate{Base: "BRL", Quote: "USD", Value: 0.19, FetchedAt: time.Now()}

		err := c.Put(ctx, "rate:BRL-USD", want, time.Minute)
		assert.NoError(t, err)

		got, err := c.Get(ctx, "rate:BRL-USD")
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("expired entry behaves as a miss", func(t *testing.T) {
		c := NewMemoryCache()
		err := c.Put(ctx, "rate:BRL-USD", &Rate{Base: "BRL", Quote: "USD", Value: 0.19}, -time.Second)
		assert.NoError(t, err)

		got, err := c.Get(ctx, "rate:BRL-USD")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss returns nil without error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := NewRedisCache(client)

		mock.ExpectGet("rate:BRL-USD").RedisNil()

		rate, err := c.Get(ctx, "rate:BRL-USD")
		assert.NoError(t, err)
		assert.Nil(t, rate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("put then get round trip", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := NewRedisCache(client)
		rate := &Rate{Base: "BRL", Quote: "USD", Value: 0.19}

		mock.ExpectSet("rate:BRL-USD", []byte(`{"base":"BRL","quote":"USD","value":0.19,"fetched_at":"0001-01-01T00:00:00Z"}`), time.Minute).
			SetVal("OK")
		err := c.Put(ctx, "rate:BRL-USD", rate, time.Minute)
		assert.NoError(t, err)

		mock.ExpectGet("rate:BRL-USD").
			SetVal(`{"base":"BRL","quote":"USD","value":0.19,"fetched_at":"0001-01-01T00:00:00Z"}`)
		got, err := c.Get(ctx, "rate:BRL-USD")
		assert.NoError(t, err)
		assert.Equal(t, "USD", got.Quote)
		assert.Equal(t, 0.19, got.Value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
