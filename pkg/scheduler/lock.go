package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

var ErrLeaseLost = errors.New("range lock lease lost")

// RangeLock leases every service date of a run so overlapping runs cannot clear or
// write the same dates concurrently. A cleanup lease excludes every run.
type RangeLock interface {
	Acquire(ctx context.Context, dates []time.Time) (*Lease, error)
	AcquireCleanup(ctx context.Context) (*Lease, error)
}

type Lease struct {
	Token string
	Keys  []string

	extend  func(ctx context.Context) error
	release func(ctx context.Context) error
}

// Extend pushes the expiry of every key the lease still holds out by the lock TTL
func (l *Lease) Extend(ctx context.Context) error {
	if l == nil || l.extend == nil {
		return nil
	}
	return l.extend(ctx)
}

func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.release == nil {
		return nil
	}
	return l.release(ctx)
}

// The braces keep every lock key in one cluster slot so the scripts stay atomic
const (
	cleanupLockKey = "tripscheduler:{lock}:cleanup"
	runsLockKey    = "tripscheduler:{lock}:runs"
)

func lockKeys(dates []time.Time) []string {
	keys := make([]string, 0, len(dates))
	for _, date := range dates {
		keys = append(keys, fmt.Sprintf("tripscheduler:{lock}:%s", date.Format("2006-01-02")))
	}
	return keys
}

// Running leases are also scored in the runs set by expiry so a cleanup can see them
var acquireRangeScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
for i = 3, #KEYS do
	if redis.call("EXISTS", KEYS[i]) == 1 then
		return 0
	end
end
for i = 3, #KEYS do
	redis.call("SET", KEYS[i], ARGV[1], "PX", ARGV[2])
end
redis.call("ZADD", KEYS[2], tonumber(ARGV[3]) + tonumber(ARGV[2]), ARGV[1])
return 1
`)

var acquireCleanupScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[2], "-inf", ARGV[3])
if redis.call("ZCARD", KEYS[2]) > 0 then
	return 0
end
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

var extendLeaseScript = redis.NewScript(`
local held = 0
for i = 2, #KEYS do
	if redis.call("GET", KEYS[i]) == ARGV[1] then
		redis.call("PEXPIRE", KEYS[i], ARGV[2])
		held = held + 1
	end
end
if held > 0 then
	redis.call("ZADD", KEYS[1], "XX", tonumber(ARGV[3]) + tonumber(ARGV[2]), ARGV[1])
end
return held
`)

var releaseLeaseScript = redis.NewScript(`
redis.call("ZREM", KEYS[1], ARGV[1])
local released = 0
for i = 2, #KEYS do
	if redis.call("GET", KEYS[i]) == ARGV[1] then
		redis.call("DEL", KEYS[i])
		released = released + 1
	end
end
return released
`)

type RedisRangeLock struct {
	Client redis.Scripter
	TTL    time.Duration
	Now    func() time.Time
}

func (r *RedisRangeLock) now() int64 {
	if r.Now == nil {
		return time.Now().UnixMilli()
	}
	return r.Now().UnixMilli()
}

func (r *RedisRangeLock) Acquire(ctx context.Context, dates []time.Time) (*Lease, error) {
	keys := lockKeys(dates)
	token := uuid.NewString()

	scriptKeys := append([]string{cleanupLockKey, runsLockKey}, keys...)
	acquired, err := acquireRangeScript.Run(ctx, r.Client, scriptKeys, token, r.TTL.Milliseconds(), r.now()).Int()
	if err != nil {
		return nil, fmt.Errorf("acquiring range lock: %w", err)
	}
	if acquired != 1 {
		return nil, ErrRunInProgress
	}

	log.Debug().Str("token", token).Int("dates", len(keys)).Msg("Acquired range lock")

	return r.lease(token, keys), nil
}

func (r *RedisRangeLock) AcquireCleanup(ctx context.Context) (*Lease, error) {
	token := uuid.NewString()

	acquired, err := acquireCleanupScript.Run(ctx, r.Client, []string{cleanupLockKey, runsLockKey}, token, r.TTL.Milliseconds(), r.now()).Int()
	if err != nil {
		return nil, fmt.Errorf("acquiring cleanup lock: %w", err)
	}
	if acquired != 1 {
		return nil, ErrRunInProgress
	}

	return r.lease(token, []string{cleanupLockKey}), nil
}

func (r *RedisRangeLock) lease(token string, keys []string) *Lease {
	scriptKeys := append([]string{runsLockKey}, keys...)

	return &Lease{
		Token: token,
		Keys:  keys,
		extend: func(ctx context.Context) error {
			held, err := extendLeaseScript.Run(ctx, r.Client, scriptKeys, token, r.TTL.Milliseconds(), r.now()).Int()
			if err != nil {
				return fmt.Errorf("extending range lock: %w", err)
			}
			if held == 0 {
				return ErrLeaseLost
			}
			return nil
		},
		release: func(ctx context.Context) error {
			return releaseLeaseScript.Run(ctx, r.Client, scriptKeys, token).Err()
		},
	}
}

// LocalRangeLock serialises runs within one process when Redis is not configured
type LocalRangeLock struct {
	TTL time.Duration
	Now func() time.Time

	mutex  sync.Mutex
	leases map[string]localLease
}

type localLease struct {
	token   string
	expires time.Time
	run     bool
}

func (l *LocalRangeLock) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func (l *LocalRangeLock) held(key string, now time.Time) (localLease, bool) {
	lease, exists := l.leases[key]
	return lease, exists && now.Before(lease.expires)
}

func (l *LocalRangeLock) Acquire(ctx context.Context, dates []time.Time) (*Lease, error) {
	return l.acquire(lockKeys(dates), true)
}

func (l *LocalRangeLock) AcquireCleanup(ctx context.Context) (*Lease, error) {
	return l.acquire([]string{cleanupLockKey}, false)
}

func (l *LocalRangeLock) acquire(keys []string, run bool) (*Lease, error) {
	token := uuid.NewString()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.leases == nil {
		l.leases = map[string]localLease{}
	}

	now := l.now()
	if _, busy := l.held(cleanupLockKey, now); busy {
		return nil, ErrRunInProgress
	}
	for key := range l.leases {
		lease, busy := l.held(key, now)
		if !busy {
			continue
		}
		// Runs clash on shared dates, a cleanup clashes with any run
		if (run && slices.Contains(keys, key)) || (!run && lease.run) {
			return nil, ErrRunInProgress
		}
	}

	for _, key := range keys {
		l.leases[key] = localLease{token: token, expires: now.Add(l.TTL), run: run}
	}

	return &Lease{
		Token: token,
		Keys:  keys,
		extend: func(ctx context.Context) error {
			l.mutex.Lock()
			defer l.mutex.Unlock()

			now := l.now()
			held := 0
			for _, key := range keys {
				if lease, ok := l.held(key, now); ok && lease.token == token {
					lease.expires = now.Add(l.TTL)
					l.leases[key] = lease
					held++
				}
			}
			if held == 0 {
				return ErrLeaseLost
			}
			return nil
		},
		release: func(ctx context.Context) error {
			l.mutex.Lock()
			defer l.mutex.Unlock()

			for _, key := range keys {
				if l.leases[key].token == token {
					delete(l.leases, key)
				}
			}
			return nil
		},
	}, nil
}
