package adapters

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const defaultRateBurst = 2

// NewLimiter はバックエンド呼び出し間隔の制限を生成します。interval が 0 以下なら制限しません。
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(interval), defaultRateBurst)
}

// wait は limiter が設定されていれば枠が空くまで待機します。
func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
