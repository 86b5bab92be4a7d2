package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iotinator/iotinator-master/internal/infrastructure/logging"
)

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("IOTINATOR_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("IOTINATOR_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), logging.Discard())
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.API.Port != 8080 || cfg.MQTT.Enabled || cfg.Database.Enabled {
		t.Errorf("unexpected defaults: api.port=%d mqtt=%v db=%v", cfg.API.Port, cfg.MQTT.Enabled, cfg.Database.Enabled)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("probe:\n  port: 0\n"), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := loadConfig(path, logging.Discard()); err == nil {
		t.Fatal("loadConfig() should reject probe.port 0")
	}
}

func TestHealthCheck_DisabledComponents(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil, nil); err != nil {
		t.Errorf("healthCheck() with nothing enabled = %v, want nil", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("master: [unclosed"), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("IOTINATOR_CONFIG", path)

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail with unparsable config")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// TestRun_ServesAgents starts the daemon with the audit trail enabled and
// MQTT and InfluxDB disabled, registers an agent over HTTP, then shuts down.
func TestRun_ServesAgents(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	port := freePort(t)

	configContent := fmt.Sprintf(`
master:
  id: test-master

supervisor:
  ping_interval: 0s
  rename_interval: 0s

database:
  enabled: true
  path: %q
  wal_mode: true
  busy_timeout: 5

logging:
  level: error
  format: text
  output: stderr

api:
  host: "127.0.0.1"
  port: %d
`, filepath.Join(tmpDir, "iotinator.db"), port)
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("IOTINATOR_CONFIG", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d/api", port)
	waitForHealth(t, base+"/health", errCh)

	resp, err := http.Post(base+"/register", "application/json",
		strings.NewReader(`{"name":"kitchen","MAC":"AA:BB:CC:DD:EE:01","ip":"10.0.0.2"}`))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	var list map[string]map[string]any
	getJSON(t, base+"/list", &list)
	if list["AA:BB:CC:DD:EE:01"]["name"] != "kitchen" {
		t.Errorf("list = %v", list)
	}

	var auditPage struct {
		Total int `json:"total"`
	}
	getJSON(t, base+"/audit?action=register", &auditPage)
	if auditPage.Total != 1 {
		t.Errorf("audit register entries = %d, want 1", auditPage.Total)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func waitForHealth(t *testing.T, url string, errCh <-chan error) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case err := <-errCh:
			t.Fatalf("run() exited early: %v", err)
		default:
		}
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server did not become healthy")
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("GET %s: decoding %q: %v", url, body, err)
	}
}
