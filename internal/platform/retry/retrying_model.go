// Package retry はモデル呼び出しにレート制限時の指数バックオフ・リトライを追加します。
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"analyst_backend/internal/feature/analysis/domain/entity"
	"analyst_backend/internal/feature/analysis/usecase"
	"analyst_backend/internal/shared/ratelimiter"
)

const (
	// DefaultMaxRetries はモデル呼び出しの最大試行回数のデフォルト値です。
	DefaultMaxRetries = 5
	// DefaultBackoffBase は指数バックオフの底（秒）のデフォルト値です。
	DefaultBackoffBase = 2.0
)

// ErrRetriesExhausted は試行ループが結果もエラーも返さずに終了した場合のエラーです。
var ErrRetriesExhausted = errors.New("exhausted all retry attempts")

// RetryingModel はModelをデコレートし、レート制限エラーのみを指数バックオフで再試行します。
//
// 待機時間は backoffBase^attempt + U(0,1) 秒（attemptは0始まり）です。
// レート制限以外のエラーは即座に返し、最終試行でのレート制限エラーは元のエラーをそのまま返します。
// 呼び出しごとに試行回数はリセットされます。
type RetryingModel struct {
	inner       usecase.Model
	maxRetries  int
	backoffBase float64
	limiter     ratelimiter.Limiter
	sleep       func(ctx context.Context, d time.Duration) error
	jitter      func() float64
}

var _ usecase.Model = (*RetryingModel)(nil)

// Option はRetryingModelの設定を変更します。
type Option func(*RetryingModel)

// WithLimiter は各試行の前に待機するレートリミッターを設定します。
func WithLimiter(l ratelimiter.Limiter) Option {
	return func(m *RetryingModel) { m.limiter = l }
}

// WithSleep は待機関数を差し替えます（テスト用）。
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *RetryingModel) { m.sleep = sleep }
}

// WithJitter は[0,1)のジッターを返す関数を差し替えます（テスト用）。
func WithJitter(jitter func() float64) Option {
	return func(m *RetryingModel) { m.jitter = jitter }
}

// NewRetryingModel はRetryingModelの新しいインスタンスを生成します。
func NewRetryingModel(inner usecase.Model, maxRetries int, backoffBase float64, opts ...Option) *RetryingModel {
	m := &RetryingModel{
		inner:       inner,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		sleep:       sleepContext,
		jitter:      rand.Float64,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate は内部のModelを呼び出し、レート制限時は待機して再試行します。
func (m *RetryingModel) Generate(ctx context.Context, prompt string) (usecase.Completion, error) {
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				return usecase.Completion{}, err
			}
		}

		slog.Debug("AIモデルを呼び出し", "attempt", attempt+1, "max_retries", m.maxRetries)
		c, err := m.inner.Generate(ctx, prompt)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, entity.ErrRateLimited) {
			return usecase.Completion{}, err
		}
		if attempt == m.maxRetries-1 {
			slog.Error("最大リトライ回数に到達", "attempts", m.maxRetries, "error", err)
			return usecase.Completion{}, err
		}

		wait := m.Delay(attempt)
		slog.Warn("レート制限を検知、待機後に再試行", "attempt", attempt+1, "wait", wait)
		if err := m.sleep(ctx, wait); err != nil {
			return usecase.Completion{}, err
		}
	}
	return usecase.Completion{}, ErrRetriesExhausted
}

// Delay はattempt（0始まり）回目の失敗後の待機時間をジッター込みで返します。
func (m *RetryingModel) Delay(attempt int) time.Duration {
	return m.BaseDelay(attempt) + time.Duration(m.jitter()*float64(time.Second))
}

// BaseDelay はジッターを含まない待機時間を返します。
func (m *RetryingModel) BaseDelay(attempt int) time.Duration {
	return time.Duration(math.Pow(m.backoffBase, float64(attempt)) * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
