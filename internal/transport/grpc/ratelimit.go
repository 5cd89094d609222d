package grpc

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const staleLimiterAfter = 3 * time.Minute

type peerLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter keeps one token bucket per peer address.
type RateLimiter struct {
	mu    sync.Mutex
	peers map[string]*peerLimiter
	r     rate.Limit
	burst int
	now   func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		peers: make(map[string]*peerLimiter),
		r:     rate.Limit(rps),
		burst: burst,
		now:   time.Now,
	}
}

// Run evicts idle peers every minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictStale()
		}
	}
}

func (rl *RateLimiter) evictStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for addr, p := range rl.peers {
		if now.Sub(p.seen) > staleLimiterAfter {
			delete(rl.peers, addr)
		}
	}
}

func (rl *RateLimiter) allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	p, ok := rl.peers[addr]
	if !ok {
		p = &peerLimiter{lim: rate.NewLimiter(rl.r, rl.burst)}
		rl.peers[addr] = p
	}
	p.seen = now
	return p.lim.AllowN(now, 1)
}

// limitedMethods are the write RPCs subject to rate limiting.
var limitedMethods = map[string]bool{
	MethodCreateAppointment: true,
	MethodUpdateAppointment: true,
	MethodCancelAppointment: true,
	MethodCreateUser:        true,
}

// RateLimit rejects write RPCs from peers over their budget. onLimited,
// if non-nil, is called with the method of each rejected call.
func RateLimit(rl *RateLimiter, onLimited func(method string)) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if rl == nil || !limitedMethods[info.FullMethod] {
			return next(ctx, req)
		}
		addr := "unknown"
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			addr = peerHost(p.Addr.String())
		}
		if !rl.allow(addr) {
			if onLimited != nil {
				onLimited(info.FullMethod)
			}
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}
