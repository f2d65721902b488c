package infra

import (
	"context"
	"sync"

	"user-service/service/users/domain"
)

// MemoryEventSink conta mutações em memória.
// Útil para testes e desenvolvimento; não faz expiração.
type MemoryEventSink struct {
	mu     sync.Mutex
	byOp   map[domain.Operation]int64
	byUser map[int64]int64
	last   []domain.Event
	keep   int
}

type MemoryEventOption func(*MemoryEventSink)

// WithKeepLast guarda os n últimos eventos (0 desliga).
func WithKeepLast(n int) MemoryEventOption {
	return func(s *MemoryEventSink) { s.keep = n }
}

func NewMemoryEventSink(opts ...MemoryEventOption) *MemoryEventSink {
	s := &MemoryEventSink{
		byOp:   make(map[domain.Operation]int64),
		byUser: make(map[int64]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryEventSink) Record(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOp[ev.Op]++
	if ev.UserID > 0 {
		s.byUser[ev.UserID]++
	}
	if s.keep > 0 {
		s.last = append(s.last, ev)
		if len(s.last) > s.keep {
			s.last = s.last[len(s.last)-s.keep:]
		}
	}
	return nil
}

func (s *MemoryEventSink) Count(op domain.Operation) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byOp[op]
}

// Totals implementa domain.EventTotals.
func (s *MemoryEventSink) Totals(context.Context) (map[domain.Operation]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Operation]int64, len(s.byOp))
	for k, v := range s.byOp {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryEventSink) ByUser() map[int64]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]int64, len(s.byUser))
	for k, v := range s.byUser {
		out[k] = v
	}
	return out
}

func (s *MemoryEventSink) Last() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.last))
	copy(out, s.last)
	return out
}
