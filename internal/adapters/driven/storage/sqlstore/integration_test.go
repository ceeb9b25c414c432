//go:build database

package sqlstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage/graph"
	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// startContainer starts a database container that is terminated with the test.
func startContainer(t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	return c
}

func runStoreAgainst(t *testing.T, cfg domain.DatabaseConfig) {
	t.Helper()
	ctx := context.Background()

	backend, err := Open(ctx, cfg)
	require.NoError(t, err)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := graph.NewStore(backend, graph.WithClock(func() time.Time { return now }))
	defer store.Close()

	exerciseStore(t, ctx, store, backend, now)

	// A second open finds the schema current.
	again, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

// TestStoreWithPostgres runs the graph store against a PostgreSQL container.
func TestStoreWithPostgres(t *testing.T) {
	ctx := context.Background()
	c := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})
	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	runStoreAgainst(t, domain.DatabaseConfig{
		Engine:  domain.EnginePostgres,
		URL:     fmt.Sprintf("postgres://postgres@%s:%s/postgres?sslmode=disable", host, port.Port()),
		Options: map[string]string{"application_name": "ghminer-test"},
	})
}

// TestStoreWithMySQL runs the graph store against a MySQL container.
func TestStoreWithMySQL(t *testing.T) {
	ctx := context.Background()
	c := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "ghminer",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	})
	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "3306")
	require.NoError(t, err)

	runStoreAgainst(t, domain.DatabaseConfig{
		Engine:  domain.EngineMySQL,
		URL:     fmt.Sprintf("root:secret123@tcp(%s:%s)/ghminer", host, port.Port()),
		Options: map[string]string{"charset": "utf8mb4"},
	})
}
