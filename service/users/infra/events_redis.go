package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"user-service/service/users/domain"

	"github.com/redis/go-redis/v9"
)

// RedisEventSink grava contadores de mutação em hashes do Redis:
//
//	<prefix>:total            campo = operação (cumulativo, não expira)
//	<prefix>:minute:<yyyymmddhhmm>  campo = operação (expira em ttl)
//	<prefix>:user:<id>        campo = operação (expira em ttl)
type RedisEventSink struct {
	rdb redis.Cmdable

	prefix string
	ttl    time.Duration

	trackUsers bool
}

var (
	_ domain.EventSink   = (*RedisEventSink)(nil)
	_ domain.EventTotals = (*RedisEventSink)(nil)
)

type RedisEventOption func(*RedisEventSink)

func WithEventsPrefix(prefix string) RedisEventOption {
	return func(s *RedisEventSink) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithEventsTTL(d time.Duration) RedisEventOption {
	return func(s *RedisEventSink) { s.ttl = d }
}

func WithEventsTrackUsers(track bool) RedisEventOption {
	return func(s *RedisEventSink) { s.trackUsers = track }
}

func NewRedisEventSink(rdb redis.Cmdable, opts ...RedisEventOption) *RedisEventSink {
	s := &RedisEventSink{
		rdb:        rdb,
		prefix:     "users:events",
		ttl:        24 * time.Hour,
		trackUsers: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisEventSink) Record(ctx context.Context, ev domain.Event) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Op)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)

	bucketKey := s.minuteKey(at)
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	if s.trackUsers && ev.UserID > 0 {
		userKey := s.prefix + ":user:" + strconv.FormatInt(ev.UserID, 10)
		pipe.HIncrBy(ctx, userKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, userKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record %s event for user %d: %w", ev.Op, ev.UserID, err)
	}
	return nil
}

// Totals implementa domain.EventTotals lendo <prefix>:total.
func (s *RedisEventSink) Totals(ctx context.Context) (map[domain.Operation]int64, error) {
	raw, err := s.rdb.HGetAll(ctx, s.totalKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("read event totals: %w", err)
	}
	out := make(map[domain.Operation]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse total %q: %w", k, err)
		}
		out[domain.Operation(k)] = n
	}
	return out, nil
}

func (s *RedisEventSink) totalKey() string { return s.prefix + ":total" }

func (s *RedisEventSink) minuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}
