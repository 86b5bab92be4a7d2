package cli

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeMaster serves canned answers for the master API.
func fakeMaster(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, body := range routes {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func run(t *testing.T, master string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand("test", &out)
	cmd.SetArgs(append([]string{"--master", master, "--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const listBody = `{"AA:BB:CC:DD:EE:01":{"name":"kitchen","ip":"10.0.0.2","canSleep":false,"pong":true,"uiClassName":"lamp","heap":21000},` +
	`"AA:BB:CC:DD:EE:02":{"name":"porch","ip":"10.0.0.3","canSleep":true,"pong":false,"uiClassName":"","heap":9000,"custom":"on"}}`

func TestList(t *testing.T) {
	ts := fakeMaster(t, map[string]string{"GET /api/list": listBody})

	out, err := run(t, ts.URL, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}

	for _, want := range []string{"AA:BB:CC:DD:EE:01", "kitchen", "21000", "asleep", "on", "2 agent(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "AA:BB:CC:DD:EE:01") > strings.Index(out, "AA:BB:CC:DD:EE:02") {
		t.Errorf("agents not ordered by MAC:\n%s", out)
	}
}

func TestList_Empty(t *testing.T) {
	ts := fakeMaster(t, map[string]string{"GET /api/list": `{}`})

	out, err := run(t, ts.URL, "ls")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "No agents registered.") {
		t.Errorf("output = %q", out)
	}
}

func TestGet(t *testing.T) {
	ts := fakeMaster(t, map[string]string{
		"GET /api/agents/{mac}": `{"mac":"AA:BB:CC:DD:EE:01","name":"kitchen","ip":"10.0.0.2","pingPeriod":30,` +
			`"pong":true,"toRename":true,"registeredAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"}`,
	})

	out, err := run(t, ts.URL, "get", "AA:BB:CC:DD:EE:01")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	for _, want := range []string{"kitchen", "10.0.0.2", "30", "To rename:", "true", "2026-01-01T00:00:00Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, ts.URL, "get"); err == nil {
		t.Error("get without a MAC should fail")
	}
}

func TestPing(t *testing.T) {
	ts := fakeMaster(t, map[string]string{
		"POST /api/ping": `{"probed":["A","B"],"skipped":["C"],"failed":["B"]}`,
	})

	out, err := run(t, ts.URL, "ping")
	if err != nil {
		t.Fatalf("ping error = %v", err)
	}
	for _, want := range []string{"Probed:", "2", "Skipped:", "Failed:", "B"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReset(t *testing.T) {
	ts := fakeMaster(t, map[string]string{
		"POST /api/reset": `{"reset":["A"],"failed":[]}`,
	})

	if _, err := run(t, ts.URL, "reset"); !errors.Is(err, errResetNotConfirmed) {
		t.Errorf("reset without --yes error = %v, want errResetNotConfirmed", err)
	}

	out, err := run(t, ts.URL, "reset", "--yes")
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(out, "Reset sweep") || !strings.Contains(out, "none") {
		t.Errorf("output = %q", out)
	}
}

func TestHealth(t *testing.T) {
	ts := fakeMaster(t, map[string]string{
		"GET /api/health": `{"status":"ok","version":"1.2.3","agents":4}`,
		"GET /api/metrics": `{"uptime_seconds":90,"mqtt":{"enabled":true,"connected":false},` +
			`"agents":{"total":4,"pong":3,"sleeping":1,"to_rename":0,"list_size_hint":512,"parse_tree_size":800}}`,
	})

	out, err := run(t, ts.URL, "health")
	if err != nil {
		t.Fatalf("health error = %v", err)
	}
	for _, want := range []string{"ok", "1.2.3", "1m30s", "disconnected", "3/4", "512 bytes (parse 800)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHealth_WithoutMetrics(t *testing.T) {
	ts := fakeMaster(t, map[string]string{
		"GET /api/health": `{"status":"ok","version":"1.2.3","agents":0}`,
	})

	out, err := run(t, ts.URL, "health")
	if err != nil {
		t.Fatalf("health error = %v", err)
	}
	if strings.Contains(out, "Uptime") {
		t.Errorf("metrics printed without metrics endpoint:\n%s", out)
	}
}

func TestClient_UnexpectedStatus(t *testing.T) {
	ts := fakeMaster(t, map[string]string{})

	_, err := run(t, ts.URL, "list")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("error = %v, want ErrUnexpectedStatus", err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	if _, err := run(t, "http://127.0.0.1:1", "--timeout", "1s", "list"); err == nil {
		t.Error("list against unreachable master should fail")
	}
}
