package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Limiter は、モデル呼び出しなどの操作の頻度を制限するインターフェースです。
type Limiter interface {
	Wait(ctx context.Context) error
}

// RateLimiterは、一定間隔あたりの呼び出し回数を制限します。
// 複数のgoroutineから同時に利用できます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // interval あたりの上限（0以下なら無制限）
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Waitはレートリミットの上限に達しているかを確認し、必要であれば次の区間まで待機します。
// 枠はロック中に予約し、待機はロックを解放してから行います。
// 待機中にctxがキャンセルされた場合は予約を取り消してctx.Err()を返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limit <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rl.mu.Lock()
	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count > rl.limit {
		// 次の区間の枠を予約
		rl.lastReset = rl.lastReset.Add(rl.interval)
		rl.count = 1
	}
	window := rl.lastReset
	wait := window.Sub(now)
	rl.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	slog.Info("レートリミットに到達、待機します", "limit", rl.limit, "wait", wait)
	if err := rl.sleep(ctx, wait); err != nil {
		rl.mu.Lock()
		if rl.lastReset.Equal(window) && rl.count > 0 {
			rl.count--
		}
		rl.mu.Unlock()
		return err
	}
	return nil
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
