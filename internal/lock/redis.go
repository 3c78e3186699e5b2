package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"invoicetools/internal/logger"
)

// DefaultLeaseTTL expires a Redis lease whose holder died without releasing.
const DefaultLeaseTTL = 30 * time.Second

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only while the key still carries our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker implements the lease as SET key token NX PX ttl.
type RedisLocker struct {
	client   redis.UniversalClient
	key      string
	ttl      time.Duration
	timeout  time.Duration
	interval time.Duration
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithLeaseTTL sets how long a lease survives without release.
func WithLeaseTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithTimeout sets the acquisition timeout.
func WithTimeout(timeout time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// NewRedisLocker returns a locker on key.
func NewRedisLocker(client redis.UniversalClient, key string, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:   client,
		key:      key,
		ttl:      DefaultLeaseTTL,
		timeout:  DefaultTimeout,
		interval: defaultPollInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// KeyForRoot derives the lease key for a storage root.
func KeyForRoot(root string) string {
	return "invoicetools:lock:" + root
}

// Acquire polls SET NX until it wins, the timeout elapses or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context) (Lease, error) {
	token := uuid.NewString()
	err := poll(ctx, l.key, l.timeout, l.interval, func() (bool, error) {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis lock %s: %w", l.key, err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}

	lease := &redisLease{
		client: l.client,
		key:    l.key,
		token:  token,
		ttl:    l.ttl,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go lease.keepAlive()
	return lease, nil
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
	ttl    time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// keepAlive extends the key every third of the TTL until Release. It stops
// once the key no longer carries our token.
func (l *redisLease) keepAlive() {
	defer close(l.done)

	log := logger.WithComponent("lock").With().Str("key", l.key).Logger()
	interval := l.ttl / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to extend lock lease, retrying")
			continue
		}
		if n == 0 {
			log.Error().Msg("Lock lease lost before release")
			return
		}
	}
}

// Release stops the keep-alive and deletes the key if the lease still
// belongs to this holder.
func (l *redisLease) Release() error {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release redis lock %s: %w", l.key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.key)
	}
	return nil
}
