package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"storefront/internal/cart"
	applog "storefront/internal/log"
)

// CartStore keeps session carts in Redis. When a backing store is set the
// cache is write-through: saves go to the backing store first and loads fall
// back to it on a miss.
type CartStore struct {
	client  *redis.Client
	ttl     time.Duration
	backing cart.Store
	misses  singleflight.Group
}

var _ cart.Store = (*CartStore)(nil)

func NewCartStore(client *redis.Client, ttl time.Duration, backing cart.Store) *CartStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &CartStore{client: client, ttl: ttl, backing: backing}
}

func (s *CartStore) Load(ctx context.Context, sessionID string) (cart.Cart, error) {
	c, err := s.get(ctx, sessionID)
	if err == nil {
		return c, nil
	}
	if s.backing == nil {
		if errors.Is(err, ErrCacheMiss) {
			return cart.New(), nil
		}
		return cart.Cart{}, err
	}
	if !errors.Is(err, ErrCacheMiss) {
		applog.Event("cache.cart.get.fail", err, map[string]any{"sid": sessionID})
	}

	// concurrent misses for one session share a single backing load, which
	// must outlive the caller that happened to start it
	v, err, _ := s.misses.Do(sessionID, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		c, err := s.backing.Load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if err := s.set(ctx, sessionID, c); err != nil {
			applog.Event("cache.cart.set.fail", err, map[string]any{"sid": sessionID})
		}
		return c, nil
	})
	if err != nil {
		return cart.Cart{}, err
	}
	return v.(cart.Cart), nil
}

func (s *CartStore) Save(ctx context.Context, sessionID string, c cart.Cart) error {
	if s.backing != nil {
		if err := s.backing.Save(ctx, sessionID, c); err != nil {
			return err
		}
	}
	if err := s.set(ctx, sessionID, c); err != nil {
		if s.backing == nil {
			return err
		}
		// stale entry would shadow the saved cart
		_ = s.client.Del(ctx, cacheKey(sessionID)).Err()
		applog.Event("cache.cart.set.fail", err, map[string]any{"sid": sessionID})
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if s.backing != nil {
		if err := s.backing.Delete(ctx, sessionID); err != nil {
			return err
		}
	}
	if err := s.client.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (s *CartStore) get(ctx context.Context, sessionID string) (cart.Cart, error) {
	data, err := s.client.Get(ctx, cacheKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.Cart{}, ErrCacheMiss
	}
	if err != nil {
		return cart.Cart{}, fmt.Errorf("redis get failed: %w", err)
	}
	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return cart.Cart{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return c, nil
}

func (s *CartStore) set(ctx context.Context, sessionID string, c cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.client.Set(ctx, cacheKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
