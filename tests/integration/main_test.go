//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
)

var (
	testDB    *TestDB
	testRedis *TestRedis
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	testRedis, err = SetupTestRedis(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = testDB.Teardown(ctx)
		os.Exit(1)
	}

	code := m.Run()

	_ = testRedis.Teardown(ctx)
	_ = testDB.Teardown(ctx)
	os.Exit(code)
}

// newServer returns a server over freshly truncated tables.
func newServer(t *testing.T, redis *goredis.Client) *TestServer {
	t.Helper()
	ctx := context.Background()
	if err := testDB.CleanupTables(ctx); err != nil {
		t.Fatalf("cleanup tables: %v", err)
	}
	if redis != nil {
		if err := redis.FlushDB(ctx).Err(); err != nil {
			t.Fatalf("flush redis: %v", err)
		}
	}

	ts := NewTestServer(testDB.DB, redis)
	t.Cleanup(ts.Close)
	return ts
}
