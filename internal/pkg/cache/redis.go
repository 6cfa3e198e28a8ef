package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store shared by every replica. keepFor is the redis expiry and
// only bounds memory; freshness is still judged by the caller.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	keepFor time.Duration
}

func NewRedis(client redis.UniversalClient, prefix string, keepFor time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, keepFor: keepFor}
}

func (r *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, err
	}

	return e, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.prefix+key, raw, r.keepFor).Err()
}
