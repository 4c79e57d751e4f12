//go:build database

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts a container and terminates it when the test ends.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (host, mapped string) {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err = c.Host(ctx)
	require.NoError(t, err)
	p, err := c.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return host, p.Port()
}

// exerciseBackends runs a triage against the configured backends and checks the cache and history commands.
func exerciseBackends(t *testing.T, env []string, withHistory bool) {
	t.Helper()
	data := writeDataset(t)

	_, err := runCareai(t, env, "cache", "clear")
	require.NoError(t, err)
	if withHistory {
		_, err = runCareai(t, env, "history", "clear")
		require.NoError(t, err)
	}

	// Twice, so the second run reads cached scores
	for range 2 {
		out, err := runCareai(t, env, "triage", "--data", data, "--color", "no")
		require.NoError(t, err)
		assert.Contains(t, out, "Total High-Risk Patients: 1")
		assert.Contains(t, out, "P002")
	}

	out, err := runCareai(t, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 2")

	if !withHistory {
		return
	}

	out, err = runCareai(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")

	exportBase := filepath.Join(t.TempDir(), "history")
	_, err = runCareai(t, env, "history", "export", "--output-file", exportBase)
	require.NoError(t, err)
	assert.FileExists(t, exportBase+".triage_runs.parquet")
	assert.FileExists(t, exportBase+".patient_assessments.parquet")
}

// TestCareaiWithMySQL tests the careai CLI with a MySQL backend.
func TestCareaiWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "careai",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/careai?parseTime=true", host, port)
	exerciseBackends(t, []string{
		"CAREAI_CACHE_BACKEND=mysql",
		"CAREAI_CACHE_DB_CONNECT=" + connStr,
		"CAREAI_STORE_BACKEND=mysql",
		"CAREAI_STORE_DB_CONNECT=" + connStr,
	}, true)
}

// TestCareaiWithPostgres tests the careai CLI with a PostgreSQL backend.
func TestCareaiWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port)
	exerciseBackends(t, []string{
		"CAREAI_CACHE_BACKEND=postgresql",
		"CAREAI_CACHE_DB_CONNECT=" + connStr,
		"CAREAI_STORE_BACKEND=postgresql",
		"CAREAI_STORE_DB_CONNECT=" + connStr,
	}, true)
}

// TestCareaiWithRedis tests the careai CLI with a Redis score cache.
func TestCareaiWithRedis(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	exerciseBackends(t, []string{
		"CAREAI_CACHE_BACKEND=redis",
		"CAREAI_CACHE_DB_CONNECT=" + fmt.Sprintf("redis://%s:%s/0", host, port),
		"CAREAI_STORE_BACKEND=none",
	}, false)
}
