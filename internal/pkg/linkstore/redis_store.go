package linkstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisHashKey = "checkout:paymentlinks"

// RedisStore keeps records as JSON values in a single redis hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, hashKey string) *RedisStore {
	if hashKey == "" {
		hashKey = DefaultRedisHashKey
	}
	return &RedisStore{client: client, key: hashKey}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Record, error) {
	raw, err := s.client.HGet(ctx, s.key, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Warnf("[LinkStore] Ignoring corrupt redis mapping %s: %v", key, err)
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, rec Record) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("link mapping key is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key, key, data).Err()
}

func (s *RedisStore) All(ctx context.Context) (map[string]Record, error) {
	data, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Record, len(data))
	for k, v := range data {
		var rec Record
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			log.Warnf("[LinkStore] Skipping corrupt redis mapping %s: %v", k, err)
			continue
		}
		out[k] = rec
	}
	return out, nil
}
