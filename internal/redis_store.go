package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyNamespace = "dialog-search:"
	redisOpTimeout    = 3 * time.Second
)

// RedisStore is a KVStore backed by a Redis database, so several machines can
// share one history.
type RedisStore struct {
	client *redis.Client
	addr   string
}

// NewRedisStore connects using a redis:// URL and verifies the connection
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, &StorageError{Op: "open", Key: url, Err: err}
	}
	return newRedisStore(redis.NewClient(opts))
}

func newRedisStore(client *redis.Client) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &StorageError{Op: "open", Key: client.Options().Addr, Err: err}
	}
	return &RedisStore{client: client, addr: client.Options().Addr}, nil
}

// Addr returns the server address
func (r *RedisStore) Addr() string {
	return r.addr
}

func (r *RedisStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	v, err := r.client.Get(ctx, redisKeyNamespace+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Op: "get", Key: key, Err: err}
	}
	return v, true, nil
}

func (r *RedisStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, redisKeyNamespace+key, value, 0).Err(); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (r *RedisStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, redisKeyNamespace+key).Err(); err != nil {
		return &StorageError{Op: "remove", Key: key, Err: err}
	}
	return nil
}

// WriteBatch applies the writes inside MULTI/EXEC
func (r *RedisStore) WriteBatch(sets []KeyValuePair, removes []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range sets {
			pipe.Set(ctx, redisKeyNamespace+p.Key, p.Value, 0)
		}
		for _, key := range removes {
			pipe.Del(ctx, redisKeyNamespace+key)
		}
		return nil
	})
	if err != nil {
		return &StorageError{Op: "batch", Err: err}
	}
	return nil
}

func (r *RedisStore) Keys(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, fmt.Sprintf("%s%s*", redisKeyNamespace, prefix), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), redisKeyNamespace))
	}
	if err := iter.Err(); err != nil {
		return nil, &StorageError{Op: "keys", Key: prefix, Err: err}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
