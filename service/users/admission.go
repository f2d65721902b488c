package users

import (
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"user-service/service/users/application"
	"user-service/service/users/domain"

	"github.com/tomasen/realip"
)

type KeyFunc func(r *http.Request) domain.ClientKey

type AdmissionOptions struct {
	// Limiters nil desliga o rate limit.
	Limiters   domain.LimiterStore
	RetryAfter time.Duration
	KeyFn      KeyFunc
	KeyHeader  string
	TrustProxy bool
	AddHeaders bool

	// Writes nil desliga o limite de mutações simultâneas.
	Writes         domain.SlotPool
	AcquireTimeout time.Duration

	Events domain.EventSink
	Logger *log.Logger
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// DefaultKeyFunc usa o header configurado; senão o IP real do cliente
// (X-Forwarded-For / X-Real-Ip só quando trustProxy); senão o host de RemoteAddr.
func DefaultKeyFunc(keyHeader string, trustProxy bool) KeyFunc {
	return func(r *http.Request) domain.ClientKey {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return domain.ClientKey(v)
			}
		}

		if trustProxy {
			if ip := realip.FromRequest(r); ip != "" {
				return domain.ClientKey(ip)
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return domain.ClientKey(host)
		}
		if r.RemoteAddr != "" {
			return domain.ClientKey(r.RemoteAddr)
		}
		return "unknown"
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Admit aplica a admissão antes das rotas de usuário: 429 + Retry-After
// quando o cliente estoura o bucket, 503 quando não há vaga para a mutação.
func Admit(opts AdmissionOptions) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustProxy)
	}

	adm := application.Admission{
		Limiters:       opts.Limiters,
		RetryAfter:     opts.RetryAfter,
		Writes:         opts.Writes,
		AcquireTimeout: opts.AcquireTimeout,
		Events:         opts.Events,
		Logger:         opts.Logger,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddHeaders && opts.Limiters != nil {
				w.Header().Set("X-RateLimit-Key", string(key))
				if ri, ok := opts.Limiters.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", strconv.FormatFloat(ri.RPS(), 'f', -1, 64))
					w.Header().Set("X-RateLimit-Burst", strconv.Itoa(ri.Burst()))
				}
			}

			release, dec := adm.Admit(r.Context(), domain.AdmissionRequest{
				Client:   key,
				Mutating: isMutation(r.Method),
				Method:   r.Method,
				Path:     r.URL.Path,
			})
			switch dec.Rejected {
			case domain.OpRateLimited:
				w.Header().Set("Retry-After", retryAfterSeconds(dec.RetryAfter))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			case domain.OpOverloaded:
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds arredonda para cima: 500ms vira "1", nunca "0".
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
