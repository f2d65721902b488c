package domain

import (
	"context"
	"time"
)

type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"

	// Rejeições na admissão HTTP: o pedido nunca chegou ao UserService.
	OpRateLimited Operation = "rate_limited"
	OpOverloaded  Operation = "overloaded"
)

// Event representa uma mutação concluída no store ou uma requisição
// rejeitada na admissão. UserID é 0 para rejeições.
type Event struct {
	Op     Operation
	UserID int64
	Email  string
	Client ClientKey

	Method string
	Path   string

	At time.Time
}

// EventSink registra eventos (contadores, auditoria).
//
// É best-effort: quem chama loga o erro e não falha a operação.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
}

// EventTotals expõe os contadores cumulativos por operação.
type EventTotals interface {
	Totals(ctx context.Context) (map[Operation]int64, error)
}
