package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"flowmate/domain"
)

type stubGateway struct {
	Gateway
	loadAllFn    func(ctx context.Context) (domain.Snapshot, error)
	replaceColFn func(ctx context.Context, columns []domain.Column) error
}

func (s *stubGateway) LoadAll(ctx context.Context) (domain.Snapshot, error) {
	if s.loadAllFn == nil {
		return domain.Snapshot{}, errors.New("unexpected LoadAll call")
	}
	return s.loadAllFn(ctx)
}

func (s *stubGateway) ReplaceAllTasksAndColumns(ctx context.Context, columns []domain.Column) error {
	if s.replaceColFn == nil {
		return errors.New("unexpected ReplaceAllTasksAndColumns call")
	}
	return s.replaceColFn(ctx, columns)
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCacheLoadAllMissThenHit(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	expected := seedSnapshot()

	var calls int
	cache := NewCache(&stubGateway{
		loadAllFn: func(context.Context) (domain.Snapshot, error) {
			calls++
			return expected.Clone(), nil
		},
	}, client, time.Minute)

	snap, err := cache.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if !reflect.DeepEqual(snap, expected) {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call to base gateway, got %d", calls)
	}

	cached, err := cache.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load cached: %v", err)
	}
	if len(cached.Tasks) != len(expected.Tasks) {
		t.Fatalf("unexpected cached snapshot: %#v", cached)
	}
	if calls != 1 {
		t.Fatalf("expected cached load to avoid the base gateway, calls=%d", calls)
	}
}

func TestCacheWriteEvictsSnapshot(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	var loads int
	cache := NewCache(&stubGateway{
		loadAllFn: func(context.Context) (domain.Snapshot, error) {
			loads++
			return seedSnapshot(), nil
		},
		replaceColFn: func(context.Context, []domain.Column) error { return nil },
	}, client, time.Minute)

	if _, err := cache.LoadAll(ctx); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := cache.ReplaceAllTasksAndColumns(ctx, nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := cache.LoadAll(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected eviction to force a second base load, got %d", loads)
	}
}

func TestCacheWriteFailureSkipsEviction(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	boom := errors.New("table unavailable")

	var loads int
	cache := NewCache(&stubGateway{
		loadAllFn: func(context.Context) (domain.Snapshot, error) {
			loads++
			return seedSnapshot(), nil
		},
		replaceColFn: func(context.Context, []domain.Column) error { return boom },
	}, client, time.Minute)

	if _, err := cache.LoadAll(ctx); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := cache.ReplaceAllTasksAndColumns(ctx, nil); !errors.Is(err, boom) {
		t.Fatalf("expected write error to propagate, got %v", err)
	}
	if _, err := cache.LoadAll(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loads != 1 {
		t.Fatalf("failed write must not evict the cached snapshot, loads=%d", loads)
	}
}

func TestCacheWithoutRedisFallsThrough(t *testing.T) {
	ctx := context.Background()
	var calls int
	cache := NewCache(&stubGateway{
		loadAllFn: func(context.Context) (domain.Snapshot, error) {
			calls++
			return seedSnapshot(), nil
		},
	}, nil, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.LoadAll(ctx); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("nil redis client must always hit the base gateway, calls=%d", calls)
	}
}
