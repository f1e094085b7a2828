// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCandidates are tried in order when REDIS_ADDR is unset.
var redisCandidates = []string{"redis:6379", "localhost:6379", "localhost:56379"}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock reading start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FixedTimeFunc returns a clock func stuck at t.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestTime is the reference instant used by deterministic tests.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func redisRequired() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TEST_REQUIRE_REDIS"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func pingRedis(addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// GetTestRedisAddr finds a reachable Redis: REDIS_ADDR when set, else the
// compose and local defaults.
func GetTestRedisAddr(t testing.TB) (string, bool) {
	t.Helper()
	candidates := redisCandidates
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}
	for _, addr := range candidates {
		client, err := pingRedis(addr, 0)
		if err != nil {
			t.Logf("redis unavailable at %s: %v", addr, err)
			continue
		}
		_ = client.Close()
		return addr, true
	}
	return "", false
}

// SetupTestRedis returns a client on an emptied test database (TEST_REDIS_DB,
// default 1). The test is skipped without Redis unless TEST_REQUIRE_REDIS is set.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()
	addr, ok := GetTestRedisAddr(t)
	if !ok {
		if redisRequired() {
			t.Fatal("redis required but not reachable")
		}
		t.Skip("redis not reachable")
	}

	db := 1
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			t.Fatalf("invalid TEST_REDIS_DB %q", v)
		}
		db = n
	}

	client, err := pingRedis(addr, db)
	if err != nil {
		t.Fatalf("select redis db %d at %s: %v", db, addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush redis db %d: %v", db, err)
	}
	return client
}
