package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheClientName  = "edis-cache"
	pubsubClientName = "edis-changes"
)

// RedisClients splits key/value traffic (list caches, token blacklist) from
// the connection that holds the change-event subscription.
type RedisClients struct {
	Cache  *redis.Client
	PubSub *redis.Client
}

// redisOptions derives both client configurations from one URL. The pub/sub
// client only ever carries the hub's subscription and its publishes, so it
// keeps a small pool.
func redisOptions(redisURL string) (cache, pubsub *redis.Options, err error) {
	cache, err = redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	cache.ClientName = cacheClientName

	copied := *cache
	pubsub = &copied
	pubsub.ClientName = pubsubClientName
	pubsub.PoolSize = 4
	pubsub.MinIdleConns = 1
	return cache, pubsub, nil
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	cacheOpt, pubsubOpt, err := redisOptions(redisURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cacheClient, err := connectRedis(ctx, cacheOpt)
	if err != nil {
		return nil, err
	}
	pubsubClient, err := connectRedis(ctx, pubsubOpt)
	if err != nil {
		cacheClient.Close()
		return nil, err
	}

	return &RedisClients{Cache: cacheClient, PubSub: pubsubClient}, nil
}

func connectRedis(ctx context.Context, opt *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis (%s): %w", opt.ClientName, err)
	}
	return client, nil
}

func (r *RedisClients) Close() {
	r.Cache.Close()
	r.PubSub.Close()
}
