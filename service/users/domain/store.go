package domain

// UserStore é o repositório de usuários: mapa de identidade (id -> user),
// índice secundário (email -> id) e sequência de ids.
//
// Implementações trabalham com valores: quem chama nunca recebe referência
// para a estrutura interna. Emails passados a ExistsByEmail/FindByEmail
// devem estar normalizados (ver NormalizeEmail).
type UserStore interface {
	// Save atribui o próximo id e insere o usuário. Falha com EmailConflict
	// apenas se outro usuário já possui o email (corrida entre criações).
	Save(u User) (User, error)
	FindAll() []User
	FindByID(id int64) (User, bool)
	// Update substitui o registro de u.ID. Falha com NotFound se o id não
	// existe e com EmailConflict se o novo email pertence a outro id.
	Update(u User) (User, error)
	// Delete é no-op para id inexistente.
	Delete(id int64)
	ExistsByEmail(email string) bool
	FindByEmail(email string) (User, bool)
}
