// Package cache はReportGeneratorにRedisキャッシュを追加するデコレーターを提供します。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"analyst_backend/internal/feature/analysis/domain/entity"
	"analyst_backend/internal/feature/analysis/usecase"
)

const (
	// DefaultTTL はttl未指定時のキャッシュ保持期間です。
	DefaultTTL = 24 * time.Hour
	// DefaultNamespace はnamespace未指定時のキープレフィックスです。
	DefaultNamespace = "reports"
)

// CachingReportGenerator はReportGeneratorをRedisキャッシュでデコレートします。
// 同じ本文のドキュメントに対しては、モデルを呼び出さずにキャッシュ済みのレポートを返します。
type CachingReportGenerator struct {
	inner     usecase.ReportGenerator
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.ReportGenerator = (*CachingReportGenerator)(nil)

// NewCachingReportGenerator はReportGeneratorをRedisキャッシュでデコレートします。
// ttlが0以下の場合はDefaultTTL、namespaceが空の場合はDefaultNamespaceを使用します。
func NewCachingReportGenerator(rdb *redis.Client, ttl time.Duration, inner usecase.ReportGenerator, namespace string) *CachingReportGenerator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingReportGenerator{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Generate はキャッシュを確認し、無ければ内部のGeneratorでレポートを生成してキャッシュします。
func (c *CachingReportGenerator) Generate(ctx context.Context, in entity.AnalysisInput) (*entity.Report, error) {
	// Redis未設定の場合はキャッシュをバイパス
	if c.rdb == nil {
		return c.inner.Generate(ctx, in)
	}

	key := c.cacheKey(in.Text)

	// 1) キャッシュを確認
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.Report
		if err := json.Unmarshal(b, &out); err == nil {
			slog.Info("キャッシュ済みのレポートを使用", "company", in.CompanyName, "key", key)
			return &out, nil
		}
		// 壊れたキャッシュエントリを削除
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) パイプラインで生成
	out, err := c.inner.Generate(ctx, in)
	if err != nil {
		return nil, err
	}

	// 3) キャッシュに保存（ベストエフォート）
	// 最終推奨がセンチネルの場合は再実行で改善する可能性があるため保存しない
	if isDegraded(out) {
		return out, nil
	}
	if b, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			slog.Warn("レポートのキャッシュ保存に失敗", "key", key, "error", err)
		}
	}
	return out, nil
}

// Purge はこのnamespaceのキャッシュエントリをすべて削除し、削除件数を返します。
func (c *CachingReportGenerator) Purge(ctx context.Context) (int, error) {
	if c.rdb == nil {
		return 0, nil
	}
	return c.deleteByPattern(ctx, c.namespace+":*")
}

// cacheKey はドキュメント本文からキャッシュキーを生成します。
func (c *CachingReportGenerator) cacheKey(text string) string {
	return fmt.Sprintf("%s:%s", c.namespace, usecase.DocumentHash(text))
}

// deleteByPattern はSCANを使用してパターンに一致するキーをすべて削除します。
func (c *CachingReportGenerator) deleteByPattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

func isDegraded(r *entity.Report) bool {
	return r.Degraded()
}
