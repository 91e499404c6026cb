package tests

import (
	"errors"
	"time"

	"github.com/relaypay/billing-reconciler/utils"
)

var ErrCacheMiss = errors.New("cache miss")

// MockCacheStore is an in-memory Cacher with optional failure injection.
type MockCacheStore struct {
	Values         map[string]string
	LastExpiredKey string
	ExecutionCount int
	ReturnedError  error
}

func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		Values: make(map[string]string),
	}
}

func (mcs *MockCacheStore) GetKey(key string) utils.Result[string] {
	mcs.ExecutionCount++

	if mcs.ReturnedError != nil {
		return utils.FailedResult[string](mcs.ReturnedError)
	}

	value, ok := mcs.Values[key]
	if !ok {
		return utils.FailedResult[string](ErrCacheMiss).NonCapturable().NonRetryable()
	}

	return utils.SuccessResult(value)
}

func (mcs *MockCacheStore) SetKey(key string, value string, expiry time.Duration) utils.Result[bool] {
	mcs.ExecutionCount++

	if mcs.ReturnedError != nil {
		return utils.FailedBoolResult(mcs.ReturnedError)
	}

	mcs.Values[key] = value
	return utils.SuccessResult(true)
}

func (mcs *MockCacheStore) ExpireKey(key string) utils.Result[bool] {
	mcs.ExecutionCount++
	mcs.LastExpiredKey = key

	if mcs.ReturnedError != nil {
		return utils.FailedBoolResult(mcs.ReturnedError)
	}

	delete(mcs.Values, key)
	return utils.SuccessResult(true)
}

func (mcs *MockCacheStore) Close() error {
	return nil
}
