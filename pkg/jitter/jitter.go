// Package jitter: экспоненциальные задержки со случайной добавкой и повтор операций,
// чтобы конкурирующие клиенты не повторяли запросы синхронно.
package jitter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	jitter := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(jitter)
}

// ExponentialBackoff вычисляет задержку перед попыткой attempt (с нуля): base*2^attempt, но не больше max,
// плюс джиттер.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	return Duration(backoff, jitterFactor)
}

// Policy описывает, сколько раз и с какой задержкой повторять операцию.
type Policy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// Retry выполняет fn до policy.Attempts раз, пока retryable(err) возвращает true.
// Возвращает последнюю ошибку fn либо ошибку контекста, если он отменён во время ожидания.
func Retry(ctx context.Context, policy Policy, retryable func(error) bool, fn func(ctx context.Context, attempt int) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil || !retryable(err) || attempt == attempts-1 {
			return err
		}

		select {
		case <-time.After(ExponentialBackoff(policy.Base, policy.Max, attempt, DefaultJitter)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
