package storage

import (
	"fmt"

	"github.com/tally-app/tally/pkg/config"

	"github.com/go-redis/redis"
)

func NewRedis(c config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Address(),
		Password: "",
		DB:       0,
	})

	if _, err := client.Ping().Result(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %v", err)
	}

	return client, nil
}
