// Package retry provides exponential backoff for participant turns.
// This package is internal and should not be imported by external projects.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/types"
)

// Policy 定义重试策略配置
type Policy struct {
	MaxRetries   int                                               // 最大重试次数（0 表示不重试）
	InitialDelay time.Duration                                     // 初始延迟时间
	MaxDelay     time.Duration                                     // 最大延迟时间
	Multiplier   float64                                           // 延迟时间倍增因子（指数退避）
	Jitter       bool                                              // 是否添加随机抖动
	Retryable    func(error) bool                                  // 为空时使用 types.IsRetryable
	OnRetry      func(attempt int, err error, delay time.Duration) // 重试回调
}

// DefaultPolicy 返回默认的重试策略，适用于模型调用类参与者
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Retryer 基于指数退避的重试器
type Retryer struct {
	policy Policy
	logger *zap.Logger
}

// New 创建指数退避重试器，并对参数做校验
func New(policy Policy, logger *zap.Logger) *Retryer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 1 * time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	if policy.MaxDelay < policy.InitialDelay {
		policy.MaxDelay = policy.InitialDelay
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if policy.Retryable == nil {
		policy.Retryable = types.IsRetryable
	}
	return &Retryer{
		policy: policy,
		logger: logger.With(zap.String("component", "retry")),
	}
}

// Policy returns the normalised policy.
func (r *Retryer) Policy() Policy {
	return r.policy
}

// Do 执行函数，失败且可重试时按策略退避重试
func Do[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		// 第一次执行不延迟
		if attempt > 0 {
			delay := r.delay(attempt)

			r.logger.Debug("retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", r.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, delay)
			}

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-timer.C:
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("retry succeeded", zap.Int("attempt", attempt))
			}
			return result, nil
		}
		lastErr = err

		if !r.policy.Retryable(err) {
			r.logger.Debug("error is not retryable", zap.Error(err))
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, err
		}
	}

	r.logger.Warn("retries exhausted",
		zap.Int("attempts", r.policy.MaxRetries+1),
		zap.Error(lastErr),
	)
	return zero, fmt.Errorf("failed after %d retries: %w", r.policy.MaxRetries, lastErr)
}

// delay 计算延迟时间：指数退避 + 可选的 ±25% 随机抖动
func (r *Retryer) delay(attempt int) time.Duration {
	d := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))

	if d > float64(r.policy.MaxDelay) {
		d = float64(r.policy.MaxDelay)
	}

	if r.policy.Jitter {
		jitter := d * 0.25
		d = d + (rand.Float64()*2-1)*jitter
	}

	// 确保延迟不小于初始延迟
	if d < float64(r.policy.InitialDelay) {
		d = float64(r.policy.InitialDelay)
	}

	return time.Duration(d)
}
