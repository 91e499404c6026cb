package models

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	redisdb "github.com/relaypay/billing-reconciler/config/redis"
	"github.com/relaypay/billing-reconciler/utils"
)

type Cacher interface {
	GetKey(key string) utils.Result[string]
	SetKey(key string, value string, expiry time.Duration) utils.Result[bool]
	ExpireKey(key string) utils.Result[bool]
	Close() error
}

type CacheStore struct {
	context context.Context
	db      *redisdb.RedisDB
}

func NewCacheStore(ctx context.Context, redis *redisdb.RedisDB) *CacheStore {
	return &CacheStore{
		context: ctx,
		db:      redis,
	}
}

func (store *CacheStore) GetKey(key string) utils.Result[string] {
	value, err := store.db.Client.Get(store.context, key).Result()
	if err == redis.Nil {
		return utils.FailedResult[string](err).NonCapturable().NonRetryable()
	}
	if err != nil {
		return utils.FailedResult[string](err)
	}

	return utils.SuccessResult(value)
}

func (store *CacheStore) SetKey(key string, value string, expiry time.Duration) utils.Result[bool] {
	if err := store.db.Client.Set(store.context, key, value, expiry).Err(); err != nil {
		return utils.FailedBoolResult(err)
	}

	return utils.SuccessResult(true)
}

func (store *CacheStore) ExpireKey(key string) utils.Result[bool] {
	if err := store.db.Client.Del(store.context, key).Err(); err != nil {
		return utils.FailedBoolResult(err)
	}

	return utils.SuccessResult(true)
}

func (store *CacheStore) Close() error {
	return store.db.Client.Close()
}
