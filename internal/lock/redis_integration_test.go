//go:build integration

package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisLockerSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
}

func TestRedisLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockerSuite))
}

func (s *RedisLockerSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	addr, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(addr)
	s.Require().NoError(err)

	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(ctx).Err())
}

func (s *RedisLockerSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisLockerSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisLockerSuite) TestExclusiveLease() {
	key := KeyForRoot("/srv/invoices")
	first := NewRedisLocker(s.client, key)
	second := NewRedisLocker(s.client, key, WithTimeout(100*time.Millisecond))

	lease, err := first.Acquire(context.Background())
	s.Require().NoError(err)

	_, err = second.Acquire(context.Background())
	s.ErrorIs(err, ErrLockTimeout)

	s.Require().NoError(lease.Release())

	next, err := second.Acquire(context.Background())
	s.Require().NoError(err)
	s.Require().NoError(next.Release())
}

func (s *RedisLockerSuite) TestLeaseOutlivesTTLWhileHeld() {
	key := KeyForRoot("/srv/slow")
	holder := NewRedisLocker(s.client, key, WithLeaseTTL(100*time.Millisecond))
	rival := NewRedisLocker(s.client, key, WithTimeout(50*time.Millisecond))

	lease, err := holder.Acquire(context.Background())
	s.Require().NoError(err)

	// Hold for several TTLs, checking that nobody else gets in meanwhile.
	for i := 0; i < 4; i++ {
		time.Sleep(100 * time.Millisecond)
		_, err = rival.Acquire(context.Background())
		s.ErrorIs(err, ErrLockTimeout)
	}

	s.Require().NoError(lease.Release())

	next, err := rival.Acquire(context.Background())
	s.Require().NoError(err)
	s.Require().NoError(next.Release())
}

func (s *RedisLockerSuite) TestReleaseIsIdempotentOnKeepAlive() {
	lease, err := NewRedisLocker(s.client, KeyForRoot("/srv/twice")).Acquire(context.Background())
	s.Require().NoError(err)

	s.Require().NoError(lease.Release())
	s.ErrorIs(lease.Release(), ErrNotHeld)
}

func (s *RedisLockerSuite) TestLostLeaseCannotReleaseNewHolder() {
	key := KeyForRoot("/srv/expiring")
	short := NewRedisLocker(s.client, key, WithLeaseTTL(50*time.Millisecond))

	stale, err := short.Acquire(context.Background())
	s.Require().NoError(err)

	// Simulate the key vanishing underneath the holder, e.g. a failover.
	s.Require().NoError(s.client.Del(context.Background(), key).Err())

	fresh, err := NewRedisLocker(s.client, key).Acquire(context.Background())
	s.Require().NoError(err)

	s.ErrorIs(stale.Release(), ErrNotHeld)
	s.Require().NoError(fresh.Release())
}
