package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/smarthouse-core/internal/infrastructure/database"
)

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// clearEnv keeps the caller's environment from leaking into run.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "SMARTHOUSE_DATABASE_PATH", "SMARTHOUSE_MQTT_ENABLED", "SMARTHOUSE_API_PORT"} {
		t.Setenv(key, "")
	}
}

// TestRun_InvalidConfig verifies run fails on unparseable YAML.
func TestRun_InvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMARTHOUSE_CONFIG", writeConfig(t, "database: [unclosed"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid YAML")
	}
}

// TestRun_MissingDatabasePath verifies run fails validation with an empty path.
func TestRun_MissingDatabasePath(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMARTHOUSE_CONFIG", writeConfig(t, `
database:
  path: ""
logging:
  level: error
  format: text
`))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestRun_StartupAndShutdown serves the API until the context is cancelled.
func TestRun_StartupAndShutdown(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	port := freePort(t)
	t.Setenv("SMARTHOUSE_CONFIG", writeConfig(t, fmt.Sprintf(`
database:
  path: %q
  max_open_conns: 2
mqtt:
  enabled: false
influxdb:
  enabled: false
logging:
  level: error
  format: text
api:
  host: "127.0.0.1"
  port: %d
`, filepath.Join(dir, "test.db"), port)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	healthURL := "http://127.0.0.1:" + strconv.Itoa(port) + "/api/v1/health"
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(healthURL) //nolint:gosec,noctx // Test URL
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server never became healthy: %v", err)
		}
		select {
		case err := <-done:
			t.Fatalf("run() exited early: %v", err)
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() = %v, want nil", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

// TestRun_MissingConfigUsesDefaults verifies a missing file falls back to
// defaults plus environment overrides.
func TestRun_MissingConfigUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMARTHOUSE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("SMARTHOUSE_DATABASE_PATH", filepath.Join(t.TempDir(), "env.db"))
	t.Setenv("SMARTHOUSE_API_PORT", strconv.Itoa(freePort(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Errorf("run() = %v, want nil", err)
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("SMARTHOUSE_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("SMARTHOUSE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestHealthCheck_OptionalClients verifies nil MQTT and InfluxDB clients are skipped.
func TestHealthCheck_OptionalClients(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "hc.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := healthCheck(context.Background(), db, nil, nil); err != nil {
		t.Errorf("healthCheck() = %v", err)
	}

	db.Close()
	if err := healthCheck(context.Background(), db, nil, nil); err == nil {
		t.Error("healthCheck() on a closed database should fail")
	}
}

// ─── Migrate Command Tests ───

func TestRootCommand_MigrateTree(t *testing.T) {
	root := newRootCommand()
	if root.Run == nil {
		t.Fatal("root command must serve when no subcommand is given")
	}
	if len(root.Commands) != 1 || root.Commands[0].Name != "migrate" {
		t.Fatalf("root subcommands = %+v, want [migrate]", root.Commands)
	}

	var names []string
	for _, sub := range root.Commands[0].Commands {
		names = append(names, sub.Name)
	}
	if got := strings.Join(names, ","); got != "status,up,down" {
		t.Errorf("migrate subcommands = %s, want status,up,down", got)
	}
}

func TestMigrateCommands(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMARTHOUSE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("SMARTHOUSE_DATABASE_PATH", filepath.Join(t.TempDir(), "migrate.db"))
	ctx := context.Background()
	var out bytes.Buffer

	if err := migrateStatus(ctx, &out); err != nil {
		t.Fatalf("migrateStatus: %v", err)
	}
	if !strings.Contains(out.String(), "20260101_000000") || !strings.Contains(out.String(), "pending") {
		t.Errorf("fresh status = %q, want the initial schema pending", out.String())
	}

	out.Reset()
	if err := migrateUp(ctx, &out); err != nil {
		t.Fatalf("migrateUp: %v", err)
	}

	out.Reset()
	if err := migrateStatus(ctx, &out); err != nil {
		t.Fatalf("migrateStatus: %v", err)
	}
	if !strings.Contains(out.String(), "applied") || strings.Contains(out.String(), "pending") {
		t.Errorf("status after up = %q", out.String())
	}

	out.Reset()
	if err := migrateDown(ctx, &out); err != nil {
		t.Fatalf("migrateDown: %v", err)
	}
	if got := out.String(); got != "rolled back 20260101_000000\n" {
		t.Errorf("migrateDown output = %q", got)
	}

	out.Reset()
	if err := migrateDown(ctx, &out); err != nil {
		t.Fatalf("second migrateDown: %v", err)
	}
	if got := out.String(); got != "nothing to roll back\n" {
		t.Errorf("second migrateDown output = %q", got)
	}
}
