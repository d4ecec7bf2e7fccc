package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/domain/model"
	"ai-assistant-backend/internal/domain/ports/repository"
	"ai-assistant-backend/internal/infra/metrics"
	red "ai-assistant-backend/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches single-user lookups. The auth middleware
// resolves the user on every request, so these are the hot reads.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	l := logger.With().Str("component", "userRepoCache").Logger()
	return &userRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func userIDKey(id string) string         { return fmt.Sprintf("user:id:%s", id) }
func userNameKey(username string) string { return fmt.Sprintf("user:name:%s", username) }

// For write operations, we must invalidate all possible keys for that user.
func (d *userRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	d.invalidate(ctx, u.ID)
	_ = d.cache.Del(ctx, userNameKey(u.Username))
	return d.inner.Save(ctx, tx, u)
}

func (d *userRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	d.invalidate(ctx, id)
	return d.inner.Delete(ctx, tx, id)
}

// invalidate drops the id key and, if the user is cached, its username key.
func (d *userRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	if u, ok := d.get(ctx, userIDKey(id)); ok {
		_ = d.cache.Del(ctx, userNameKey(u.Username))
	}
	_ = d.cache.Del(ctx, userIDKey(id))
}

func (d *userRepoCacheDecorator) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	if tx != nil {
		return d.inner.FindByUsername(ctx, tx, username)
	}
	if u, ok := d.get(ctx, userNameKey(username)); ok {
		metrics.IncCacheRequest("user", "hit")
		return u, nil
	}
	metrics.IncCacheRequest("user", "miss")
	u, err := d.inner.FindByUsername(ctx, tx, username)
	if err != nil {
		return nil, err
	}
	d.put(ctx, u)
	return u, nil
}

func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	if u, ok := d.get(ctx, userIDKey(id)); ok {
		metrics.IncCacheRequest("user", "hit")
		return u, nil
	}
	metrics.IncCacheRequest("user", "miss")
	u, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.put(ctx, u)
	return u, nil
}

func (d *userRepoCacheDecorator) get(ctx context.Context, key string) (*model.User, bool) {
	val, err := d.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, red.ErrNil) {
			d.log.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		return nil, false
	}
	var u model.User
	if json.Unmarshal([]byte(val), &u) != nil {
		return nil, false
	}
	return &u, true
}

func (d *userRepoCacheDecorator) put(ctx context.Context, u *model.User) {
	b, err := json.Marshal(u)
	if err != nil {
		return
	}
	// Set both keys to warm the cache for either lookup
	_ = d.cache.Set(ctx, userIDKey(u.ID), string(b), d.ttl)
	_ = d.cache.Set(ctx, userNameKey(u.Username), string(b), d.ttl)
}

// Pass-through methods that don't need caching
func (d *userRepoCacheDecorator) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return d.inner.FindByEmail(ctx, tx, email)
}

func (d *userRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	return d.inner.List(ctx, tx, offset, limit)
}

func (d *userRepoCacheDecorator) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return d.inner.CountUsers(ctx, tx)
}
