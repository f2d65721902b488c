package domain

import (
	"fmt"
	"strings"
)

// User é o registro armazenado pelo serviço.
//
// ID é atribuído pelo store no Save e nunca muda depois disso.
// Phone vazio significa "não informado".
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
	Phone string `json:"phone,omitempty"`
}

// Normalize aplica a normalização antes de persistir: nome trim+upper,
// email trim+lower. Idempotente.
func (u *User) Normalize() {
	u.Name = strings.ToUpper(strings.TrimSpace(u.Name))
	u.Email = NormalizeEmail(u.Email)
	u.Phone = strings.TrimSpace(u.Phone)
}

// NormalizeEmail devolve o email na forma usada como chave do índice.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail é a regra de igualdade do domínio: dois registros com o mesmo
// email (normalizado) são o mesmo usuário lógico, independente dos outros campos.
func SameEmail(a, b User) bool {
	return NormalizeEmail(a.Email) == NormalizeEmail(b.Email)
}

func (u User) String() string {
	return fmt.Sprintf("User{id=%d, name=%q, email=%q, age=%d}", u.ID, u.Name, u.Email, u.Age)
}
