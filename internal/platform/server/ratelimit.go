package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/adapters/grpc/handler"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// anonymousKey は会社 ID を持たない呼び出しをまとめて制限するためのキーです。
const anonymousKey = "-"

// RateLimitObserver はレート制限による拒否を記録します。
type RateLimitObserver interface {
	ObserveRateLimited()
}

type companyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter は会社単位で gRPC リクエストを制限します。
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	logger   *slog.Logger
	observer RateLimitObserver
	now      func() time.Time

	mu       sync.Mutex
	limiters map[string]*companyLimiter
}

// NewRateLimiter は RateLimiter を生成します。observer は nil でも構いません。
func NewRateLimiter(perSecond float64, burst int, logger *slog.Logger, observer RateLimitObserver) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		ttl:      10 * time.Minute,
		logger:   logger,
		observer: observer,
		now:      time.Now,
		limiters: make(map[string]*companyLimiter),
	}
}

// Allow は会社のトークンを一つ消費できれば true を返します。
func (rl *RateLimiter) Allow(companyID string) bool {
	if companyID == "" {
		companyID = anonymousKey
	}
	return rl.limiterFor(companyID).Allow()
}

// UnaryInterceptor はメタデータの会社 ID ごとにリクエストを制限するインターセプターを返します。
func (rl *RateLimiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		companyID := handler.CompanyIDFromIncoming(ctx)
		if !rl.Allow(companyID) {
			rl.logger.WarnContext(ctx, "rate limit exceeded",
				slog.String("company_id", companyID),
				slog.String("method", info.FullMethod))
			if rl.observer != nil {
				rl.observer.ObserveRateLimited()
			}
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return next(ctx, req)
	}
}

// Len は保持しているリミッターの数を返します。
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if cl, ok := rl.limiters[key]; ok {
		cl.lastAccess = now
		return cl.limiter
	}

	rl.evict(now)
	cl := &companyLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst), lastAccess: now}
	rl.limiters[key] = cl
	return cl.limiter
}

// evict は ttl を超えて使われていないリミッターを取り除きます。mu を保持して呼び出します。
func (rl *RateLimiter) evict(now time.Time) {
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > rl.ttl {
			delete(rl.limiters, key)
		}
	}
}
