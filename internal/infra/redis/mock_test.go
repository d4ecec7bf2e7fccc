//go:build !integration

package redis

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// fakeRedis is a small in-memory stand-in for the commands the stores use.
type fakeRedis struct {
	mu      sync.Mutex
	strings map[string]string
	counts  map[string]int64
	hashes  map[string]map[string]string
	ttls    map[string]time.Duration
}

var _ RedisClient = (*fakeRedis)(nil)

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: map[string]string{},
		counts:  map[string]int64{},
		hashes:  map[string]map[string]string{},
		ttls:    map[string]time.Duration{},
	}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strings[key] = value.(string)
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.strings[key]; ok {
		return false, nil
	}
	f.strings[key] = value.(string)
	f.ttls[key] = expiration
	return true, nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.strings[key]
	if !ok {
		return "", ErrNil
	}
	return v, nil
}

func (f *fakeRedis) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.strings, k)
		delete(f.counts, k)
		delete(f.hashes, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		h = map[string]string{}
		f.hashes[key] = h
	}
	for k, v := range values {
		switch vv := v.(type) {
		case string:
			h[k] = vv
		case int:
			h[k] = strconv.Itoa(vv)
		}
	}
	return nil
}

func (f *fakeRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRedis) CompareAndDelete(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.strings[key] == value {
		delete(f.strings, key)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }
