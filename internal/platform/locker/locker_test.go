package locker

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

func TestLocalLockerSerializesSameUser(t *testing.T) {
	l := NewLocal(Config{Timeout: 5 * time.Second})
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithUserLock(context.Background(), "u1", func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(2 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithUserLock: %v", err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("concurrent holders: want=1 got=%d", maxSeen)
	}
	if n := len(l.(*localLocker).entries); n != 0 {
		t.Fatalf("entries should be released: got=%d", n)
	}
}

func TestLocalLockerTimeoutIsConflict(t *testing.T) {
	l := NewLocal(Config{Timeout: 30 * time.Millisecond})
	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = l.WithUserLock(context.Background(), "u1", func(ctx context.Context) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held
	defer close(hold)

	err := l.WithUserLock(context.Background(), "u1", func(ctx context.Context) error { return nil })
	if !errors.Is(err, domainerrs.ErrConflict) {
		t.Fatalf("want ErrConflict got=%v", err)
	}
}

func TestLocalLockerOtherUserNotBlocked(t *testing.T) {
	l := NewLocal(Config{Timeout: 50 * time.Millisecond})
	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = l.WithUserLock(context.Background(), "u1", func(ctx context.Context) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held
	defer close(hold)

	if err := l.WithUserLock(context.Background(), "u2", func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("u2 should not block: %v", err)
	}
}

func TestLocalLockerCanceledContext(t *testing.T) {
	l := NewLocal(Config{Timeout: time.Second})
	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = l.WithUserLock(context.Background(), "u1", func(ctx context.Context) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held
	defer close(hold)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.WithUserLock(ctx, "u1", func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got=%v", err)
	}
}

func TestLocalLockerPropagatesFnError(t *testing.T) {
	l := NewLocal(Config{})
	want := errors.New("boom")
	if err := l.WithUserLock(context.Background(), "u1", func(ctx context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("want=%v got=%v", want, err)
	}
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis lock tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer rdb.Close()

	l := New(logger.Nop(), rdb, Config{Timeout: 100 * time.Millisecond, Lease: 5 * time.Second})
	userID := "lock-test-" + time.Now().Format("150405.000000")

	hold := make(chan struct{})
	held := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- l.WithUserLock(context.Background(), userID, func(ctx context.Context) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held
	err := l.WithUserLock(context.Background(), userID, func(ctx context.Context) error { return nil })
	if !errors.Is(err, domainerrs.ErrConflict) {
		t.Fatalf("want ErrConflict got=%v", err)
	}
	close(hold)
	if err := <-done; err != nil {
		t.Fatalf("holder: %v", err)
	}
	if n, _ := rdb.Exists(context.Background(), lockKey(userID)).Result(); n != 0 {
		t.Fatalf("lock key should be released")
	}
}
