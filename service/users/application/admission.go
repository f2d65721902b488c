package application

import (
	"context"
	"log"
	"time"

	"user-service/service/users/domain"
)

// Admission decide se um pedido à API de usuários entra: rate limit por
// cliente para todos, vaga de escrita só para mutações. Rejeições viram
// eventos (OpRateLimited / OpOverloaded) no mesmo sink das mutações.
type Admission struct {
	Limiters   domain.LimiterStore
	RetryAfter time.Duration

	Writes         domain.SlotPool
	AcquireTimeout time.Duration

	Events domain.EventSink
	Logger *log.Logger
}

// Admit retorna a decisão e, quando admitido, a função que libera a vaga
// de escrita (no-op para leituras).
func (a Admission) Admit(ctx context.Context, req domain.AdmissionRequest) (func(), domain.Decision) {
	if a.Limiters != nil {
		if lim := a.Limiters.Get(req.Client); lim != nil && !lim.Allow() {
			retry := a.RetryAfter
			if retry <= 0 {
				retry = time.Second
			}
			a.reject(ctx, domain.OpRateLimited, req)
			return nil, domain.Decision{Rejected: domain.OpRateLimited, RetryAfter: retry}
		}
	}

	if !req.Mutating || a.Writes == nil {
		return func() {}, domain.Decision{Allowed: true}
	}

	acqCtx := ctx
	if a.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, a.AcquireTimeout)
		defer cancel()
	}
	release, ok := a.Writes.Acquire(acqCtx)
	if !ok {
		a.reject(ctx, domain.OpOverloaded, req)
		return nil, domain.Decision{Rejected: domain.OpOverloaded}
	}
	return release, domain.Decision{Allowed: true}
}

func (a Admission) reject(ctx context.Context, op domain.Operation, req domain.AdmissionRequest) {
	if a.Events == nil {
		return
	}
	ev := domain.Event{
		Op:     op,
		Client: req.Client,
		Method: req.Method,
		Path:   req.Path,
		At:     time.Now(),
	}
	if err := a.Events.Record(ctx, ev); err != nil {
		logger := a.Logger
		if logger == nil {
			logger = log.Default()
		}
		logger.Printf("event %s for client %s not recorded: %v", op, req.Client, err)
	}
}
