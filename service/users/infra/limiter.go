package infra

import (
	"context"
	"sync"
	"time"

	"user-service/service/users/domain"

	"golang.org/x/time/rate"
)

// LimiterStore mantém um token bucket (x/time/rate) por cliente,
// com limpeza periódica das chaves inativas.
type LimiterStore struct {
	mu           sync.Mutex
	clients      map[domain.ClientKey]*clientLimiter
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration

	now func() time.Time
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type LimiterOption func(*LimiterStore)

func WithIdleTTL(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.cleanupEvery = d }
}

func NewLimiterStore(rps float64, burst int, opts ...LimiterOption) *LimiterStore {
	s := &LimiterStore{
		clients:      make(map[domain.ClientKey]*clientLimiter),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LimiterStore) RPS() float64 {
	return float64(s.rps)
}

func (s *LimiterStore) Burst() int {
	return s.burst
}

// Get implementa domain.LimiterStore.
func (s *LimiterStore) Get(key domain.ClientKey) domain.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[key]; ok {
		c.lastSeen = now
		return c.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.clients[key] = &clientLimiter{lim: lim, lastSeen: now}
	return lim
}

// Cleanup remove clientes sem acesso há mais de idleTTL.
func (s *LimiterStore) Cleanup() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, c := range s.clients {
		if c.lastSeen.Before(cutoff) {
			delete(s.clients, k)
			removed++
		}
	}
	return removed
}

// StartJanitor limpa chaves inativas periodicamente até o ctx encerrar.
func (s *LimiterStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
