package domain

import (
	"errors"
	"fmt"
)

// Tipos de erro do serviço. Use errors.Is para classificar.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrEmailConflict   = errors.New("email conflict")
)

// Error carrega a mensagem para o cliente e o tipo (Kind) para classificação.
//
// Error() retorna só a mensagem: é o texto que vai no corpo da resposta.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func InvalidArgument(msg string) error {
	return &Error{Kind: ErrInvalidArgument, Msg: msg}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func EmailConflict(email string) error {
	return &Error{Kind: ErrEmailConflict, Msg: fmt.Sprintf("a user with email %s already exists", email)}
}
