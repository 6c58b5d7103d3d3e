// Package dbtest provisions throwaway Postgres schemas for integration tests.
package dbtest

import (
	"context"
	_ "embed"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"agrotalent/matching-service/internal/db"
)

// EnvDatabaseURL names the variable that enables Postgres integration tests.
const EnvDatabaseURL = "TEST_DATABASE_URL"

//go:embed marketplace.sql
var marketplaceSchema string

// Postgres returns a pool whose search_path points at a fresh schema holding
// the marketplace tables. The schema is dropped when the test ends. The test
// is skipped in short mode or when TEST_DATABASE_URL is unset.
func Postgres(t testing.TB) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skipf("%s not set", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := db.NewPostgresPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	schema := "matching_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if _, err := admin.Exec(ctx, `CREATE SCHEMA `+schema); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), `DROP SCHEMA `+schema+` CASCADE`)
		admin.Close()
	})

	scoped, err := withSearchPath(dsn, schema)
	if err != nil {
		t.Fatalf("%s: %v", EnvDatabaseURL, err)
	}
	pool, err := db.NewPostgresPool(ctx, scoped)
	if err != nil {
		t.Fatalf("connect to %s: %v", schema, err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, marketplaceSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}

// withSearchPath adds search_path to a postgres:// URL. pgx forwards unknown
// query parameters to the server as runtime parameters.
func withSearchPath(dsn, schema string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
