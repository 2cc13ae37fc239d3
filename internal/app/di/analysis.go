// Package di は設定からアプリケーションのコンポーネントを組み立てるファクトリーを提供します。
package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"analyst_backend/internal/feature/analysis/adapters"
	"analyst_backend/internal/feature/analysis/adapters/gemini"
	"analyst_backend/internal/feature/analysis/domain/entity"
	analysishandler "analyst_backend/internal/feature/analysis/transport/handler"
	"analyst_backend/internal/feature/analysis/usecase"
	"analyst_backend/internal/feature/document/adapters/vision"
	docusecase "analyst_backend/internal/feature/document/usecase"
	"analyst_backend/internal/platform/cache"
	"analyst_backend/internal/platform/config"
	platformdb "analyst_backend/internal/platform/db"
	"analyst_backend/internal/platform/http/handler"
	platformhttp "analyst_backend/internal/platform/http"
	platformredis "analyst_backend/internal/platform/redis"
	"analyst_backend/internal/platform/retry"
	"analyst_backend/internal/shared/ratelimiter"
)

// AnalysisService はCLIとHTTPの両方から使われる分析ユースケースです。
type AnalysisService interface {
	analysishandler.AnalysisUsecase
	AnalyzeFile(ctx context.Context, path string) (*entity.Report, error)
}

// Options は組み立てる依存の範囲を指定します。
type Options struct {
	// History がtrueの場合、レポート履歴ストア（DB）に接続します。
	History bool
}

// Container は組み立て済みのコンポーネントと、その解放処理を保持します。
type Container struct {
	Analysis     AnalysisService
	Cache        *cache.CachingReportGenerator
	HealthChecks []handler.Check

	closers []func() error
}

// Close は保持しているクライアントをすべて解放します。
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// NewModel はGeminiクライアントにリトライとレート制限を重ねたModelを生成します。
func NewModel(ctx context.Context, cfg config.Config) (usecase.Model, error) {
	gm, err := gemini.NewGeminiModel(ctx, cfg.Gemini, platformhttp.NewHTTPClient(cfg.Gemini.Timeout))
	if err != nil {
		return nil, err
	}

	var opts []retry.Option
	if cfg.Retry.RequestsPerMinute > 0 {
		opts = append(opts, retry.WithLimiter(ratelimiter.NewRateLimiter(cfg.Retry.RequestsPerMinute, time.Minute)))
	}
	return retry.NewRetryingModel(gm, cfg.Retry.MaxRetries, cfg.Retry.BackoffBase, opts...), nil
}

// NewContainer は設定から分析ユースケースとその依存を組み立てます。
// Redisが設定されていても接続できない場合は、キャッシュなしで動作します。
func NewContainer(ctx context.Context, cfg config.Config, opts Options) (*Container, error) {
	c := &Container{}

	model, err := NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ocr := vision.NewLazyPDFExtractor(cfg.Gemini.Project)
	c.closers = append(c.closers, ocr.Close)

	runner := usecase.NewStructuredExtractor(model)
	var generator usecase.ReportGenerator = usecase.NewPipeline(runner, cfg.Pipeline.Concurrency)

	// Redisキャッシュでラップ
	rdb := connectRedis(ctx, cfg.Redis)
	if rdb != nil {
		c.closers = append(c.closers, rdb.Close)
		c.HealthChecks = append(c.HealthChecks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	c.Cache = cache.NewCachingReportGenerator(rdb, cfg.Redis.CacheTTL, generator, cache.DefaultNamespace)
	generator = c.Cache

	var reports usecase.ReportRepository
	if opts.History {
		db, err := platformdb.OpenDB(cfg.Database)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("open report history: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.closers = append(c.closers, sqlDB.Close)
		c.HealthChecks = append(c.HealthChecks, handler.Check{Name: "db", Ping: sqlDB.PingContext})
		reports = adapters.NewReportRepository(db)
	}

	c.Analysis = usecase.NewAnalysisUsecase(docusecase.NewParser(ocr), generator, runner, reports)
	return c, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) *redisv9.Client {
	if !cfg.Enabled() {
		return nil
	}
	rdb, err := platformredis.NewRedisClient(ctx, cfg)
	if err != nil {
		slog.Warn("Redisに接続できないため、キャッシュなしで動作します", "error", err)
		return nil
	}
	return rdb
}
