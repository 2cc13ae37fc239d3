// Package config はアプリケーション設定を環境変数から一度だけ読み込み、明示的に各コンポーネントへ渡します。
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingCredentials はモデル呼び出しに必要な認証設定が見つからないことを示します。
var ErrMissingCredentials = errors.New("GOOGLE_CLOUD_PROJECT and GOOGLE_CLOUD_LOCATION (Vertex AI) or GOOGLE_API_KEY (Gemini API) must be set")

// GeminiConfig は生成AIモデル呼び出しの設定です。
type GeminiConfig struct {
	Project  string        // GOOGLE_CLOUD_PROJECT
	Location string        // GOOGLE_CLOUD_LOCATION
	APIKey   string        // GOOGLE_API_KEY（Vertex AIを使わない場合）
	Model    string        // GEMINI_MODEL
	Timeout  time.Duration // 1リクエストあたりのHTTPタイムアウト
}

// UsesVertexAI はVertex AIバックエンドを使用するかを返します。
func (g GeminiConfig) UsesVertexAI() bool {
	return g.Project != ""
}

// Validate はモデル呼び出しが実際に使用する認証設定が揃っているかを検証します。
func (g GeminiConfig) Validate() error {
	if g.Project != "" && g.Location != "" {
		return nil
	}
	if g.Project == "" && g.APIKey != "" {
		return nil
	}
	return ErrMissingCredentials
}

// RetryConfig はモデル呼び出しのリトライとレート制限の設定です。
type RetryConfig struct {
	MaxRetries        int     // MODEL_MAX_RETRIES
	BackoffBase       float64 // MODEL_BACKOFF_BASE（秒）
	RequestsPerMinute int     // MODEL_REQUESTS_PER_MINUTE（0なら無制限）
}

// PipelineConfig はパイプライン実行の設定です。
type PipelineConfig struct {
	Concurrency int // PIPELINE_CONCURRENCY（1なら逐次実行）
}

// RedisConfig はレポートキャッシュ用Redisの設定です。
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	CacheTTL time.Duration
}

// Enabled はRedisが設定されているかを返します。
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr はhost:port形式のアドレスを返します。
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// DatabaseConfig はレポート履歴ストアの設定です。
// URLが設定されていればPostgreSQL、そうでなければSQLiteを使用します。
type DatabaseConfig struct {
	URL        string // DATABASE_URL
	SQLitePath string // SQLITE_PATH
}

// ServerConfig はHTTPサーバーの設定です。
type ServerConfig struct {
	Port           string
	JWTSecret      string
	AllowedOrigins []string
}

// Config はアプリケーション全体の設定です。
type Config struct {
	Gemini   GeminiConfig
	Retry    RetryConfig
	Pipeline PipelineConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// LoadDotEnv は.envファイルを読み込みます。ファイルが無い場合はシステムの環境変数をそのまま使います。
// 既に設定されている環境変数は上書きしません。
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		slog.Info(".envが見つからないため、システム環境変数を使用します")
	}
}

// Load は環境変数から設定を読み込みます。
func Load() Config {
	return Config{
		Gemini: GeminiConfig{
			Project:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
			Location: os.Getenv("GOOGLE_CLOUD_LOCATION"),
			APIKey:   os.Getenv("GOOGLE_API_KEY"),
			Model:    os.Getenv("GEMINI_MODEL"),
			Timeout:  durationEnv("GEMINI_TIMEOUT", 2*time.Minute),
		},
		Retry: RetryConfig{
			MaxRetries:        intEnv("MODEL_MAX_RETRIES", 5),
			BackoffBase:       floatEnv("MODEL_BACKOFF_BASE", 2),
			RequestsPerMinute: intEnv("MODEL_REQUESTS_PER_MINUTE", 0),
		},
		Pipeline: PipelineConfig{
			Concurrency: intEnv("PIPELINE_CONCURRENCY", 4),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     stringEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			CacheTTL: durationEnv("REPORT_CACHE_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			URL:        os.Getenv("DATABASE_URL"),
			SQLitePath: stringEnv("SQLITE_PATH", "./reports.db"),
		},
		Server: ServerConfig{
			Port:           stringEnv("PORT", "8001"),
			JWTSecret:      os.Getenv("JWT_SECRET"),
			AllowedOrigins: listEnv("CORS_ALLOWED_ORIGINS"),
		},
	}
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("環境変数の値が不正なためデフォルト値を使用", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func floatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 1 {
		slog.Warn("環境変数の値が不正なためデフォルト値を使用", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("環境変数の値が不正なためデフォルト値を使用", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func listEnv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
