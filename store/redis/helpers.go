package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// isNil reports whether err is the Redis key-missing sentinel.
func isNil(err error) bool { return errors.Is(err, redis.Nil) }
