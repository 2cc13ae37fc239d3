// Package db はレポート履歴ストア用のGORM接続を提供します。
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	analysisadapters "analyst_backend/internal/feature/analysis/adapters"
	"analyst_backend/internal/platform/config"
)

const (
	// DefaultConnectTimeout は接続リトライを打ち切るまでの時間です。
	DefaultConnectTimeout = 60 * time.Second
	retryInterval         = 3 * time.Second
)

// Opener はDSNからGORM接続を開く関数です。テストで差し替えられます。
type Opener func(dsn string) (*gorm.DB, error)

// Dialect は設定から使用するドライバーとDSNを決定します。
// DATABASE_URLが設定されていればPostgreSQL、そうでなければSQLiteファイルを使用します。
func Dialect(cfg config.DatabaseConfig) (name, dsn string, opener Opener) {
	if cfg.URL != "" {
		return "postgres", cfg.URL, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormConfig())
		}
	}
	return "sqlite", cfg.SQLitePath, func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), gormConfig())
	}
}

// OpenDB は設定に従ってDBへ接続し、レポート履歴のテーブルをマイグレーションします。
func OpenDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	name, dsn, opener := Dialect(cfg)
	if dsn == "" {
		return nil, errors.New("database is not configured")
	}

	timeout := DefaultConnectTimeout
	if name == "postgres" {
		// 書式の誤りはリトライしても直らない
		if _, err := pgx.ParseConfig(dsn); err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
	}
	if name == "sqlite" {
		// ローカルファイルは待っても開けるようにならない
		timeout = 0
	}

	db, err := ConnectWithRetry(dsn, timeout, opener)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	slog.Info("DB接続に成功", "driver", name)
	return db, nil
}

// Migrate はレポート履歴のテーブルを作成・更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&analysisadapters.ReportModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// ConnectWithRetry はtimeoutに達するまで一定間隔で接続を試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if !time.Now().Add(retryInterval).Before(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB接続に失敗、リトライします", "error", err)
		time.Sleep(retryInterval)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
}
