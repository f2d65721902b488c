package infra

import (
	"cmp"
	"slices"
	"sync"

	"user-service/service/users/domain"
)

// MemoryStore implementa domain.UserStore em memória.
//
// Um único RWMutex protege os dois mapas e a sequência, então nenhum leitor
// enxerga um id presente em um mapa e ausente (ou desatualizado) no outro.
// Dentro do lock só há operações de mapa.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[int64]domain.User
	byEmail map[string]int64
	lastID  int64
}

var _ domain.UserStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]domain.User),
		byEmail: make(map[string]int64),
	}
}

func (s *MemoryStore) Save(u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[u.Email]; taken {
		return domain.User{}, domain.EmailConflict(u.Email)
	}

	// ids nunca são reutilizados, mesmo após Delete
	s.lastID++
	u.ID = s.lastID
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

// FindAll devolve um snapshot ordenado por id.
func (s *MemoryStore) FindAll() []domain.User {
	s.mu.RLock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *MemoryStore) FindByID(id int64) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *MemoryStore) Update(u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[u.ID]
	if !ok {
		return domain.User{}, domain.NotFound("user with id %d not found", u.ID)
	}

	if current.Email != u.Email {
		if owner, taken := s.byEmail[u.Email]; taken && owner != u.ID {
			return domain.User{}, domain.EmailConflict(u.Email)
		}
		delete(s.byEmail, current.Email)
		s.byEmail[u.Email] = u.ID
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return
	}
	delete(s.users, id)
	delete(s.byEmail, u.Email)
}

func (s *MemoryStore) ExistsByEmail(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[email]
	return ok
}

func (s *MemoryStore) FindByEmail(email string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, false
	}
	u, ok := s.users[id]
	return u, ok
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
