package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/samvad-apiclient/internal/app"
)

func setupEnv(t *testing.T, base string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	endpointsFile := filepath.Join(dir, "endpoints.yaml")
	content := "endpoints:\n" +
		"  - id: todo\n    base_url: " + base + "\n    path: /todos/1\n" +
		"  - id: gone\n    base_url: " + base + "\n    path: /gone\n"
	if err := os.WriteFile(endpointsFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write endpoints file: %v", err)
	}
	t.Setenv("ENDPOINTS_FILE", endpointsFile)
	t.Setenv("JOURNAL_PATH", filepath.Join(dir, "journal.db"))
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	var runner *app.Runner
	cmd := newRootCmd(&out, &runner)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if runner != nil {
		err = errors.Join(err, runner.Close())
	}
	return out.String(), err
}

func TestCallListAndHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/todos/1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()
	setupEnv(t, srv.URL)

	out, err := execute(t, "call", "todo")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	var line callLine
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("decode call output %q: %v", out, err)
	}
	if !line.OK || line.StatusCode != http.StatusOK || line.Endpoint != "todo" {
		t.Fatalf("unexpected call line %+v", line)
	}

	out, err = execute(t, "call", "gone")
	if !errors.Is(err, errCallsFailed) {
		t.Fatalf("expected failed calls error, got %v", err)
	}
	if !strings.Contains(out, `"kind":"bad_status"`) || !strings.Contains(out, `"status_code":404`) {
		t.Fatalf("unexpected failure output %q", out)
	}

	out, err = execute(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "todo\tGET\t"+srv.URL+"/todos/1\tjson") {
		t.Fatalf("unexpected list output %q", out)
	}

	out, err = execute(t, "history", "--limit", "1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], `"endpoint_id":"gone"`) {
		t.Fatalf("unexpected history output %q", out)
	}
}
