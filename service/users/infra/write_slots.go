package infra

import (
	"context"
	"sync"
	"sync/atomic"

	"user-service/service/users/domain"
)

// WriteSlots limita quantas mutações de usuário (create/update/delete) rodam
// ao mesmo tempo. Leituras não passam por aqui.
type WriteSlots struct {
	sem   chan struct{}
	inUse atomic.Int64
}

var _ domain.SlotPool = (*WriteSlots)(nil)

func NewWriteSlots(max int) *WriteSlots {
	return &WriteSlots{sem: make(chan struct{}, max)}
}

// Acquire espera por uma vaga até o ctx encerrar. Chamar o release mais de
// uma vez não libera vagas extras.
func (w *WriteSlots) Acquire(ctx context.Context) (func(), bool) {
	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, false
	}
	w.inUse.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			w.inUse.Add(-1)
			<-w.sem
		})
	}, true
}

func (w *WriteSlots) InUse() int { return int(w.inUse.Load()) }

func (w *WriteSlots) Cap() int { return cap(w.sem) }
