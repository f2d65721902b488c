package application

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"user-service/service/users/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
)

const (
	minNameLen = 2
	maxNameLen = 100
	maxAge     = 120
)

// Validator valida campos e unicidade de email antes de qualquer escrita.
// Não tem efeito colateral além de retornar erro.
type Validator struct {
	Store domain.UserStore
}

func (v Validator) ValidateForCreation(u domain.User) error {
	if err := v.ValidateBasicFields(u); err != nil {
		return err
	}
	return v.ensureEmailFree(u.Email)
}

// ValidateForUpdate só checa unicidade quando o email muda, para o usuário
// poder manter o próprio email.
func (v Validator) ValidateForUpdate(u, existing domain.User) error {
	if err := v.ValidateBasicFields(u); err != nil {
		return err
	}
	if domain.SameEmail(u, existing) {
		return nil
	}
	return v.ensureEmailFree(u.Email)
}

// ValidateBasicFields aplica as regras em ordem; a primeira falha vence.
func (v Validator) ValidateBasicFields(u domain.User) error {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return domain.InvalidArgument("name required")
	}
	if n := utf8.RuneCountInString(name); n < minNameLen {
		return domain.InvalidArgument("name too short")
	} else if n > maxNameLen {
		return domain.InvalidArgument("name too long")
	}

	email := strings.TrimSpace(u.Email)
	if email == "" {
		return domain.InvalidArgument("email required")
	}
	if !emailPattern.MatchString(email) {
		return domain.InvalidArgument("invalid email format")
	}

	if u.Age <= 0 {
		return domain.InvalidArgument("age must be positive")
	}
	if u.Age > maxAge {
		return domain.InvalidArgument("age must be under 120")
	}

	if phone := strings.TrimSpace(u.Phone); phone != "" && !phonePattern.MatchString(phone) {
		return domain.InvalidArgument("invalid phone format")
	}
	return nil
}

func (v Validator) ensureEmailFree(email string) error {
	key := domain.NormalizeEmail(email)
	if v.Store.ExistsByEmail(key) {
		return domain.EmailConflict(key)
	}
	return nil
}
