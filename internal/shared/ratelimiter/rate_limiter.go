package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded(ctx context.Context) error
}

// RateLimiterは、ゲートウェイへの送信などの操作の頻度を制限します。
// 複数のゴルーチンから同時に呼び出しても安全です。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // interval あたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time // 現在のウィンドウの開始時刻（予約済みの未来のウィンドウを指すこともある）

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
// limit が0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
		wait:      sleepContext,
	}
}

// WaitIfNeededはレートリミットの上限に達しているかを確認し、必要であれば待機します。
// 枠の予約だけをロック内で行い、待機はロックの外で行います。
// ctx がキャンセルされると予約した枠を返却し、ctx.Err() を返します。
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	if rl.limit <= 0 {
		return nil
	}

	wait, window := rl.reserve()
	if wait <= 0 {
		return nil
	}

	slog.Warn("rate limit hit, waiting", "limit", rl.limit, "wait", wait)
	if err := rl.wait(ctx, wait); err != nil {
		rl.release(window)
		return err
	}
	return nil
}

// reserve は1回分の枠を確保し、待機時間と確保したウィンドウの開始時刻を返します。
func (rl *RateLimiter) reserve() (time.Duration, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count <= rl.limit {
		return 0, rl.lastReset
	}

	// 現在のウィンドウは満杯なので次のウィンドウの枠を予約する
	rl.lastReset = rl.lastReset.Add(rl.interval)
	rl.count = 1
	return rl.lastReset.Sub(now), rl.lastReset
}

// release はキャンセルされた呼び出しの枠を返却します。ウィンドウが変わっていれば何もしません。
func (rl *RateLimiter) release(window time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lastReset.Equal(window) && rl.count > 0 {
		rl.count--
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
