package application

import (
	"context"
	"log"
	"time"

	"user-service/service/users/domain"
)

// UserService orquestra o CRUD: valida, normaliza, chama o store e traduz
// ausência/conflito em erros do domínio. Nenhum erro é engolido.
type UserService struct {
	Store     domain.UserStore
	Validator Validator
	// Events é opcional; falhas são apenas logadas.
	Events domain.EventSink
	Logger *log.Logger
}

func NewUserService(store domain.UserStore, events domain.EventSink, logger *log.Logger) *UserService {
	return &UserService{
		Store:     store,
		Validator: Validator{Store: store},
		Events:    events,
		Logger:    logger,
	}
}

func (s *UserService) Create(ctx context.Context, u domain.User) (domain.User, error) {
	s.logf("creating user with email %s", u.Email)

	if err := s.Validator.ValidateForCreation(u); err != nil {
		return domain.User{}, err
	}
	u.Normalize()

	saved, err := s.Store.Save(u)
	if err != nil {
		return domain.User{}, err
	}
	s.record(ctx, domain.OpCreated, saved)
	s.logf("user created: %s", saved)
	return saved, nil
}

func (s *UserService) List(_ context.Context) []domain.User {
	return s.Store.FindAll()
}

func (s *UserService) Get(_ context.Context, id int64) (domain.User, error) {
	u, ok := s.Store.FindByID(id)
	if !ok {
		return domain.User{}, domain.NotFound("user with id %d not found", id)
	}
	return u, nil
}

func (s *UserService) GetByEmail(_ context.Context, email string) (domain.User, error) {
	key := domain.NormalizeEmail(email)
	u, ok := s.Store.FindByEmail(key)
	if !ok {
		return domain.User{}, domain.NotFound("user with email %s not found", key)
	}
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id int64, u domain.User) (domain.User, error) {
	s.logf("updating user %d", id)

	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Validator.ValidateForUpdate(u, existing); err != nil {
		return domain.User{}, err
	}

	u.ID = id
	u.Normalize()

	updated, err := s.Store.Update(u)
	if err != nil {
		return domain.User{}, err
	}
	s.record(ctx, domain.OpUpdated, updated)
	s.logf("user %d updated", id)
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	s.logf("deleting user %d", id)

	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	s.Store.Delete(id)
	s.record(ctx, domain.OpDeleted, existing)
	s.logf("user %d deleted", id)
	return nil
}

func (s *UserService) record(ctx context.Context, op domain.Operation, u domain.User) {
	if s.Events == nil {
		return
	}
	ev := domain.Event{Op: op, UserID: u.ID, Email: u.Email, At: time.Now()}
	if err := s.Events.Record(ctx, ev); err != nil {
		s.logf("event %s for user %d not recorded: %v", op, u.ID, err)
	}
}

func (s *UserService) logf(format string, args ...any) {
	if s.Logger == nil {
		log.Printf(format, args...)
		return
	}
	s.Logger.Printf(format, args...)
}
