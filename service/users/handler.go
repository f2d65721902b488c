package users

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"user-service/service/users/domain"

	"github.com/julienschmidt/httprouter"
)

const (
	basePath     = "/api/v2/users"
	statsPath    = "/api/v2/user-stats"
	maxBodyBytes = 1 << 20
)

// UserUseCases é o que o handler precisa do serviço (application.UserService).
type UserUseCases interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	List(ctx context.Context) []domain.User
	Get(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Update(ctx context.Context, id int64, u domain.User) (domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	svc    UserUseCases
	stats  domain.EventTotals
	logger *log.Logger
	now    func() time.Time
}

func NewHandler(svc UserUseCases, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// WithStats expõe os totais de eventos em GET /api/v2/user-stats.
func (h *Handler) WithStats(stats domain.EventTotals) *Handler {
	h.stats = stats
	return h
}

// userPayload é o corpo aceito em POST/PUT. O id nunca vem do cliente.
type userPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
	Phone string `json:"phone"`
}

func (p userPayload) user() domain.User {
	return domain.User{Name: p.Name, Email: p.Email, Age: p.Age, Phone: p.Phone}
}

type errorBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

// Routes monta o router com todas as rotas da API.
func (h *Handler) Routes() http.Handler {
	r := httprouter.New()
	r.POST(basePath, h.create)
	r.GET(basePath, h.list)
	r.GET(basePath+"/:id", h.get)
	r.PUT(basePath+"/:id", h.update)
	r.DELETE(basePath+"/:id", h.delete)
	r.GET(basePath+"-by-email", h.getByEmail)
	if h.stats != nil {
		r.GET(statsPath, h.statsTotals)
	}
	r.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p userPayload
	if !h.decode(w, r, &p) {
		return
	}
	h.logger.Printf("create user request email=%q", p.Email)

	u, err := h.svc.Create(r.Context(), p.user())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeJSON(w, http.StatusOK, h.svc.List(r.Context()))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := h.pathID(w, ps)
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) getByEmail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.writeError(w, domain.InvalidArgument("email query parameter required"))
		return
	}
	u, err := h.svc.GetByEmail(r.Context(), email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := h.pathID(w, ps)
	if !ok {
		return
	}
	var p userPayload
	if !h.decode(w, r, &p) {
		return
	}
	h.logger.Printf("update user request id=%d", id)

	u, err := h.svc.Update(r.Context(), id, p.user())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := h.pathID(w, ps)
	if !ok {
		return
	}
	h.logger.Printf("delete user request id=%d", id)

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) statsTotals(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	totals, err := h.stats.Totals(r.Context())
	if err != nil {
		h.logger.Printf("event totals: %v", err)
		h.writeStatus(w, http.StatusServiceUnavailable, "event totals unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, totals)
}

// pathID: texto que não é número é 400; ids <= 0 nunca são atribuídos, logo 404.
func (h *Handler) pathID(w http.ResponseWriter, ps httprouter.Params) (int64, bool) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		h.writeError(w, domain.InvalidArgument("invalid user id"))
		return 0, false
	}
	if id <= 0 {
		h.writeError(w, domain.NotFound("user with id %d not found", id))
		return 0, false
	}
	return id, true
}

// decode aceita exatamente um objeto JSON de até maxBodyBytes.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeStatus(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.writeError(w, domain.InvalidArgument("malformed request body"))
		return false
	}
	if dec.More() {
		h.writeError(w, domain.InvalidArgument("malformed request body"))
		return false
	}
	return true
}

// statusFor traduz o tipo do erro do domínio em status HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Printf("unexpected error: %v", err)
		msg = "internal error"
	}
	h.writeStatus(w, status, msg)
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorBody{
		Timestamp: h.now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   msg,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Printf("encode response: %v", err)
	}
}
