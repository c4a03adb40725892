package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(customerID string) string
}

// Store persists carts in Redis as JSON documents keyed by customer.
type Store struct {
	kv  kvStore
	ttl time.Duration
	now func() time.Time
}

// NewStore builds a cart store. Every save refreshes the key's TTL.
func NewStore(kv kvStore, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &Store{kv: kv, ttl: ttl, now: time.Now}, nil
}

// Load returns the stored cart, or an empty one when none exists.
func (s *Store) Load(ctx context.Context, customerID uuid.UUID) (*Cart, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(customerID.String()))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(customerID), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	c.CustomerID = customerID
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return &c, nil
}

// Save writes the cart. An empty cart deletes the key.
func (s *Store) Save(ctx context.Context, c *Cart) error {
	if c.IsEmpty() {
		return s.Delete(ctx, c.CustomerID)
	}
	c.UpdatedAt = s.now().UTC()
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(c.CustomerID.String()), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, customerID uuid.UUID) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(customerID.String())); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
