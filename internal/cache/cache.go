// Package cache wraps the Redis client used for read-through caching, token
// revocation marks and change notifications.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	client *redis.Client
}

func New(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get decodes the JSON value at key into dest. A miss or a decode failure
// reports false.
func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[cache] get %s: %v", key, err)
		}
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
}

// DelPattern deletes keys matching pattern in pipelined batches.
func (r *Redis) DelPattern(ctx context.Context, pattern string) {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	const batchSize = 100

	pipe := r.client.Pipeline()
	count := 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++

		if count >= batchSize {
			pipe.Exec(ctx)
			count = 0
		}
	}

	if count > 0 {
		pipe.Exec(ctx)
	}
	if err := iter.Err(); err != nil {
		log.Printf("[cache] scan %s: %v", pattern, err)
	}
}

// Mark stores a flag key that expires after ttl.
func (r *Redis) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, key, "1", ttl).Err()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Publish sends v as JSON on channel.
func (r *Redis) Publish(ctx context.Context, channel string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return r.client.Publish(ctx, channel, data).Err()
}
