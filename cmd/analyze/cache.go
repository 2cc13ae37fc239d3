package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"analyst_backend/internal/platform/cache"
	"analyst_backend/internal/platform/config"
	platformredis "analyst_backend/internal/platform/redis"
)

// newCacheCmd はレポートキャッシュを操作するコマンドを生成します。
func newCacheCmd(loadConfig func() config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redis report cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every cached report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig().Redis
			if !cfg.Enabled() {
				return errors.New("REDIS_HOST is not set")
			}
			rdb, err := platformredis.NewRedisClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = rdb.Close() }()

			n, err := cache.NewCachingReportGenerator(rdb, cfg.CacheTTL, nil, cache.DefaultNamespace).Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d cached report(s)\n", n)
			return nil
		},
	})
	return cmd
}
