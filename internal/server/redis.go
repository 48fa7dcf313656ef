package server

import (
	"fmt"

	"github.com/gofiber/storage/redis/v3"
)

// OpenRedis connects to the Redis at url. The storage driver panics when the
// first ping fails, so that is turned into an error here.
func OpenRedis(url string) (store *redis.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			store = nil
			err = fmt.Errorf("connect to redis: %v", r)
		}
	}()
	return redis.New(redis.Config{URL: url}), nil
}
