package domain

import (
	"context"
	"time"
)

// Contratos de admissão de requisições (rate limit por cliente e vagas
// para escrita). Nenhum deles conhece net/http.

// ClientKey identifica o cliente (IP, API key...).
type ClientKey string

// Limiter decide se uma ação é permitida agora (ex: token bucket).
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por cliente.
type LimiterStore interface {
	Get(ClientKey) Limiter
}

// SlotPool limita quantas mutações (create/update/delete) rodam ao mesmo tempo.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar. A função de
// release deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}

// AdmissionRequest descreve o pedido sem depender de HTTP.
type AdmissionRequest struct {
	Client ClientKey
	// Mutating indica create/update/delete; só esses disputam vagas de escrita.
	Mutating bool

	Method string
	Path   string
}

type Decision struct {
	Allowed bool
	// Rejected é OpRateLimited ou OpOverloaded quando Allowed=false.
	Rejected Operation
	// RetryAfter é o valor sugerido em Retry-After quando limitado por taxa.
	RetryAfter time.Duration
}
