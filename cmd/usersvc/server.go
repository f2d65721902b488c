package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"user-service/service/users"
	"user-service/service/users/application"
	"user-service/service/users/domain"
	"user-service/service/users/infra"

	"github.com/redis/go-redis/v9"
)

// app é o serviço montado: handler com middlewares, totais de eventos e
// o cleanup do que foi aberto.
type app struct {
	handler http.Handler
	totals  domain.EventTotals
	cleanup func()
}

type eventStore interface {
	domain.EventSink
	domain.EventTotals
}

func buildApp(ctx context.Context, cfg config, logger *log.Logger) (*app, error) {
	a := &app{cleanup: func() {}}

	var events eventStore = infra.NewMemoryEventSink()
	if cfg.EventsRedisEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.EventsRedisAddr,
			Password: cfg.EventsRedisPassword,
			DB:       cfg.EventsRedisDB,
		})
		a.cleanup = func() { _ = rdb.Close() }

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("redis events ping: %w", err)
		}

		events = infra.NewRedisEventSink(
			rdb,
			infra.WithEventsPrefix(cfg.EventsPrefix),
			infra.WithEventsTTL(cfg.EventsTTL),
			infra.WithEventsTrackUsers(cfg.EventsTrackUsers),
		)
	}
	a.totals = events

	svc := application.NewUserService(infra.NewMemoryStore(), events, logger)

	opts := users.AdmissionOptions{
		RetryAfter:     cfg.RetryAfter,
		KeyHeader:      cfg.KeyHeader,
		TrustProxy:     cfg.TrustProxy,
		AddHeaders:     cfg.AddHeaders,
		AcquireTimeout: cfg.WriteConcurrencyTimeout,
		Events:         events,
		Logger:         logger,
	}
	// interfaces nil explícitas: um *LimiterStore nil dentro da interface não seria nil
	if cfg.RateEnabled {
		limiters := infra.NewLimiterStore(cfg.RateRPS, cfg.RateBurst)
		limiters.StartJanitor(ctx)
		opts.Limiters = limiters
	}
	if cfg.WriteConcurrencyMax > 0 {
		opts.Writes = infra.NewWriteSlots(cfg.WriteConcurrencyMax)
	}

	routes := users.NewHandler(svc, logger).WithStats(events).Routes()
	a.handler = users.Admit(opts)(routes)
	return a, nil
}

// logTotals registra os contadores acumulados; usado no shutdown.
func (a *app) logTotals(ctx context.Context, logger *log.Logger) {
	totals, err := a.totals.Totals(ctx)
	if err != nil {
		logger.Printf("event totals unavailable: %v", err)
		return
	}
	ops := make([]string, 0, len(totals))
	for op := range totals {
		ops = append(ops, string(op))
	}
	sort.Strings(ops)
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		parts = append(parts, fmt.Sprintf("%s=%d", op, totals[domain.Operation(op)]))
	}
	logger.Printf("event totals: %s", strings.Join(parts, " "))
}

func serve(ctx context.Context, cfg config, logger *log.Logger) error {
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.cleanup()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("usersvc listening on %s", cfg.ListenAddr)
	logger.Printf("rate: enabled=%v rps=%.3f burst=%d keyHeader=%q trustXFF=%v", cfg.RateEnabled, cfg.RateRPS, cfg.RateBurst, cfg.KeyHeader, cfg.TrustProxy)
	logger.Printf("writes: maxConcurrent=%d acquireTimeout=%s", cfg.WriteConcurrencyMax, cfg.WriteConcurrencyTimeout)
	logger.Printf("events: redis=%v addr=%q prefix=%q ttl=%s trackUsers=%v", cfg.EventsRedisEnabled, cfg.EventsRedisAddr, cfg.EventsPrefix, cfg.EventsTTL, cfg.EventsTrackUsers)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	totalsCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	a.logTotals(totalsCtx, logger)
	return nil
}
