package infra

import (
	"context"
	"strconv"
	"testing"
	"time"

	"user-service/service/users/domain"

	"github.com/redis/go-redis/v9"
)

// fakeRedis guarda hashes e TTLs em memória; só implementa o que o
// RedisEventSink usa (Pipeline, HIncrBy, Expire, Exec, HGetAll).
type fakeRedis struct {
	redis.Cmdable
	hashes map[string]map[string]int64
	ttls   map[string]time.Duration
	execs  int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		hashes: make(map[string]map[string]int64),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeRedis) Pipeline() redis.Pipeliner { return &fakePipe{rdb: f} }

func (f *fakeRedis) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	out := make(map[string]string)
	for field, n := range f.hashes[key] {
		out[field] = strconv.FormatInt(n, 10)
	}
	return redis.NewMapStringStringResult(out, nil)
}

type fakePipe struct {
	redis.Pipeliner
	rdb     *fakeRedis
	pending []func()
}

func (p *fakePipe) HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd {
	p.pending = append(p.pending, func() {
		h, ok := p.rdb.hashes[key]
		if !ok {
			h = make(map[string]int64)
			p.rdb.hashes[key] = h
		}
		h[field] += incr
	})
	return redis.NewIntCmd(ctx, "hincrby", key, field, incr)
}

func (p *fakePipe) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	p.pending = append(p.pending, func() { p.rdb.ttls[key] = ttl })
	return redis.NewBoolCmd(ctx, "expire", key, ttl)
}

func (p *fakePipe) Exec(context.Context) ([]redis.Cmder, error) {
	for _, fn := range p.pending {
		fn()
	}
	p.pending = nil
	p.rdb.execs++
	return nil, nil
}

func TestMemoryEventSink_CountsByOperationAndUser(t *testing.T) {
	s := NewMemoryEventSink(WithKeepLast(2))
	ctx := context.Background()

	_ = s.Record(ctx, domain.Event{Op: domain.OpCreated, UserID: 1})
	_ = s.Record(ctx, domain.Event{Op: domain.OpUpdated, UserID: 1})
	_ = s.Record(ctx, domain.Event{Op: domain.OpCreated, UserID: 2})
	_ = s.Record(ctx, domain.Event{Op: domain.OpRateLimited, Client: "10.0.0.1"})

	if got := s.Count(domain.OpCreated); got != 2 {
		t.Fatalf("expected 2 created, got %d", got)
	}
	byUser := s.ByUser()
	if byUser[1] != 2 || len(byUser) != 2 {
		t.Fatalf("expected rejections to stay out of per-user counts, got %v", byUser)
	}
	last := s.Last()
	if len(last) != 2 || last[0].UserID != 2 || last[1].Op != domain.OpRateLimited {
		t.Fatalf("unexpected last events: %+v", last)
	}

	totals, err := s.Totals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals[domain.OpCreated] != 2 || totals[domain.OpUpdated] != 1 || totals[domain.OpRateLimited] != 1 {
		t.Fatalf("unexpected totals: %v", totals)
	}
}

func TestRedisEventSink_RecordThenTotals(t *testing.T) {
	rdb := newFakeRedis()
	s := NewRedisEventSink(rdb, WithEventsPrefix("svc:events:"), WithEventsTTL(time.Hour), WithEventsTrackUsers(true))
	ctx := context.Background()
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("PET", -5*3600))

	for _, ev := range []domain.Event{
		{Op: domain.OpCreated, UserID: 7, At: at},
		{Op: domain.OpUpdated, UserID: 7, At: at},
		{Op: domain.OpOverloaded, Client: "10.0.0.1", At: at},
	} {
		if err := s.Record(ctx, ev); err != nil {
			t.Fatalf("record %s: %v", ev.Op, err)
		}
	}
	if rdb.execs != 3 {
		t.Fatalf("expected one pipeline exec per event, got %d", rdb.execs)
	}

	minute := "svc:events:minute:202603041006"
	if got := rdb.hashes[minute]; got["created"] != 1 || got["overloaded"] != 1 {
		t.Fatalf("unexpected minute bucket %v", got)
	}
	if rdb.ttls[minute] != time.Hour {
		t.Fatalf("expected minute bucket ttl 1h, got %s", rdb.ttls[minute])
	}
	if got := rdb.hashes["svc:events:user:7"]; got["created"] != 1 || got["updated"] != 1 {
		t.Fatalf("unexpected user hash %v", got)
	}
	if _, ok := rdb.ttls["svc:events:total"]; ok {
		t.Fatalf("total hash must not expire")
	}
	if _, ok := rdb.hashes["svc:events:user:0"]; ok {
		t.Fatalf("rejections must not create a user hash")
	}

	totals, err := s.Totals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals[domain.OpCreated] != 1 || totals[domain.OpUpdated] != 1 || totals[domain.OpOverloaded] != 1 {
		t.Fatalf("unexpected totals %v", totals)
	}
}

func TestRedisEventSink_TrackUsersOff(t *testing.T) {
	rdb := newFakeRedis()
	s := NewRedisEventSink(rdb, WithEventsTrackUsers(false), WithEventsTTL(0))

	if err := s.Record(context.Background(), domain.Event{Op: domain.OpDeleted, UserID: 3}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, ok := rdb.hashes["users:events:user:3"]; ok {
		t.Fatalf("expected no per-user hash when tracking is off")
	}
	if len(rdb.ttls) != 0 {
		t.Fatalf("expected no expirations with ttl=0, got %v", rdb.ttls)
	}
}

func TestRedisEventSink_NilClientIsNoop(t *testing.T) {
	var s *RedisEventSink
	if err := s.Record(context.Background(), domain.Event{Op: domain.OpCreated}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRedisEventSink_ReportsUnreachableRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	s := NewRedisEventSink(rdb)
	if err := s.Record(context.Background(), domain.Event{Op: domain.OpDeleted, UserID: 3}); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
	if _, err := s.Totals(context.Background()); err == nil {
		t.Fatalf("expected totals error from unreachable redis")
	}
}
