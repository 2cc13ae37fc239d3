// Package redis はレポートキャッシュ用のRedisクライアントを提供します。
package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"analyst_backend/internal/platform/config"
)

// NewRedisClient は設定に従ってRedisに接続し、疎通を確認したクライアントを返します。
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := cfg.Addr()
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       0,
	})

	// 接続確認
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
