package session

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/notebookctl/internal/errors"
)

// RedisPersister keeps the record in Redis under prefix + StorageKey.
// Lets several machines (or containers) share one login.
type RedisPersister struct {
	client redis.Cmdable
	key    string
}

// NewRedisPersister creates a Redis-backed persister. An empty prefix
// defaults to "notebookctl:".
func NewRedisPersister(client redis.Cmdable, prefix string) *RedisPersister {
	if prefix == "" {
		prefix = "notebookctl:"
	}
	return &RedisPersister{client: client, key: prefix + StorageKey}
}

// Key returns the Redis key in use.
func (r *RedisPersister) Key() string {
	return r.key
}

func (r *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to read session from redis", err)
	}
	return val, nil
}

func (r *RedisPersister) Save(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write session to redis", err)
	}
	return nil
}
