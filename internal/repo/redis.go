package repo

import (
	"context"
	"fmt"
	"time"

	"truco-service/internal/config"
	"truco-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPingTimeout = 5 * time.Second

var RDB *redis.Client

// OpenRedis connects to the leaderboard store and checks it answers.
func OpenRedis(ctx context.Context, conf config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", conf.Addr, err)
	}
	return client, nil
}

// InitRedis sets RDB from the global config. The leaderboard stays off without an address.
func InitRedis() {
	conf := config.GlobalConfig.Redis
	if conf.Addr == "" {
		logger.Log.Info("redis addr empty, leaderboard disabled")
		return
	}
	client, err := OpenRedis(context.Background(), conf)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	RDB = client
}
