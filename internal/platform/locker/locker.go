package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/httpx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

// Locker serializes mutations per user across handlers and processes.
type Locker interface {
	// WithUserLock runs fn while holding the user's lock. Failing to acquire
	// within the configured timeout returns ErrConflict.
	WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error
}

type Config struct {
	Timeout time.Duration
	// Lease bounds how long a crashed holder can keep a Redis lock.
	Lease time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Lease <= 0 {
		c.Lease = 2 * time.Minute
	}
	return c
}

// New returns a Redis lock when rdb is non-nil, else an in-process keyed mutex.
func New(log *logger.Logger, rdb *goredis.Client, cfg Config) Locker {
	cfg = cfg.withDefaults()
	if rdb != nil {
		return &redisLocker{rdb: rdb, cfg: cfg, log: log.With("service", "RedisLocker")}
	}
	return NewLocal(cfg)
}

func errLockTimeout(userID string) error {
	return fmt.Errorf("%w: another request for user %s is in progress", domainerrs.ErrConflict, userID)
}

// acquireContext ends at the earlier of the parent deadline and now+timeout.
func acquireContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func observe(backend string, start time.Time, err error) {
	outcome := "acquired"
	switch {
	case err == nil:
	case errors.Is(err, domainerrs.ErrConflict):
		outcome = "timeout"
	default:
		outcome = "canceled"
	}
	observability.Current().ObserveLockWait(backend, outcome, time.Since(start))
}

// --- in-process ---

type localEntry struct {
	sem  chan struct{}
	refs int
}

type localLocker struct {
	cfg     Config
	mu      sync.Mutex
	entries map[string]*localEntry
}

func NewLocal(cfg Config) Locker {
	return &localLocker{cfg: cfg.withDefaults(), entries: make(map[string]*localEntry)}
}

func (l *localLocker) ref(userID string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[userID]
	if e == nil {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[userID] = e
	}
	e.refs++
	return e
}

func (l *localLocker) unref(userID string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, userID)
	}
}

func (l *localLocker) WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	e := l.ref(userID)
	defer l.unref(userID, e)

	actx, cancel := acquireContext(ctx, l.cfg.Timeout)
	defer cancel()
	select {
	case e.sem <- struct{}{}:
	case <-actx.Done():
		if ctx.Err() != nil {
			err = ctx.Err()
		} else {
			err = errLockTimeout(userID)
		}
		observe("local", start, err)
		return err
	}
	observe("local", start, nil)
	defer func() { <-e.sem }()
	return fn(ctx)
}

// --- redis ---

// releaseScript deletes the key only when it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb *goredis.Client
	cfg Config
	log *logger.Logger
}

func lockKey(userID string) string { return "lock:user:" + userID }

func (l *redisLocker) WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	key := lockKey(userID)
	token := uuid.NewString()

	actx, cancel := acquireContext(ctx, l.cfg.Timeout)
	defer cancel()

	backoff := 20 * time.Millisecond
	for {
		ok, serr := l.rdb.SetNX(actx, key, token, l.cfg.Lease).Result()
		if serr == nil && ok {
			break
		}
		if serr != nil && actx.Err() == nil {
			l.log.Warn("lock attempt failed", "user_id", userID, "error", serr)
		}
		if werr := httpx.Sleep(actx, httpx.JitterSleep(backoff)); werr != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			} else {
				err = errLockTimeout(userID)
			}
			observe("redis", start, err)
			return err
		}
		if backoff < 250*time.Millisecond {
			backoff *= 2
		}
	}
	observe("redis", start, nil)

	defer func() {
		rctx, rcancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer rcancel()
		if rerr := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); rerr != nil {
			l.log.Warn("lock release failed", "user_id", userID, "error", rerr)
		}
	}()
	return fn(ctx)
}
