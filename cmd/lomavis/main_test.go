package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/lomavis/n8n-lomavis-go/internal/config"
	"github.com/lomavis/n8n-lomavis-go/internal/runner"
)

func testConfig(baseURL string) *config.Configuration {
	return &config.Configuration{
		APIKey:            "k",
		BaseURL:           baseURL,
		CredentialTestURL: baseURL + "/users/me/",
		HTTPTimeout:       5 * time.Second,
	}
}

func testLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

// ===================== decodeItems =====================

func TestDecodeItems(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty input", "", []string{`{}`}},
		{"single object", `{"limit": 5}`, []string{`{"limit": 5}`}},
		{"bare objects", `[{"a":1},{"b":2}]`, []string{`{"a":1}`, `{"b":2}`}},
		{"host items", `[{"json":{"uuid":"p1"}}]`, []string{`{"uuid":"p1"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeItems([]byte(tt.input))
			if err != nil {
				t.Fatalf("decodeItems(%q) error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("decodeItems(%q) = %d items, want %d", tt.input, len(got), len(tt.want))
			}
			for i, it := range got {
				if string(it.JSON) != tt.want[i] {
					t.Errorf("item %d = %s, want %s", i, it.JSON, tt.want[i])
				}
			}
		})
	}
}

func TestDecodeItems_Binary(t *testing.T) {
	got, err := decodeItems([]byte(`[{"json":{},"binary":{"data":{"path":"logo.png","mimeType":"image/png"}}}]`))
	if err != nil {
		t.Fatal(err)
	}
	spec, ok := got[0].Binary["data"]
	if !ok || spec.Path != "logo.png" || spec.MimeType != "image/png" {
		t.Errorf("binary spec = %+v", got[0].Binary)
	}
}

func TestDecodeItems_Invalid(t *testing.T) {
	for _, in := range []string{`[1, 2]`, `not json`, `["x"]`} {
		if _, err := decodeItems([]byte(in)); err == nil {
			t.Errorf("decodeItems(%q) expected error", in)
		}
	}
}

// ===================== run =====================

func TestRun_ProfileGroupList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profile_groups/" || r.URL.Query().Get("limit") != "3" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if got := r.Header.Get("Authorization"); got != "Token k" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`[{"uuid":"g1"},{"uuid":"g2"}]`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run(context.Background(), testConfig(srv.URL), testLog(),
		[]string{"run", "-resource", "profileGroup", "-operation", "list"},
		strings.NewReader(`{"limit": 3}`), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var got []runner.Output
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(got) != 2 || got[1].JSON["uuid"] != "g2" || got[1].PairedItem.Item != 0 {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestRun_ContinueOnFailFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not found."}`))
	}))
	defer srv.Close()

	in := filepath.Join(t.TempDir(), "items.json")
	os.WriteFile(in, []byte(`[{"uuid":"a"},{"uuid":"b"}]`), 0644)

	var out bytes.Buffer
	err := run(context.Background(), testConfig(srv.URL), testLog(),
		[]string{"run", "-resource", "post", "-operation", "delete", "-in", in, "-continue-on-fail"},
		nil, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := strings.Count(out.String(), `"error"`); n != 2 {
		t.Errorf("expected 2 error records, got %d: %s", n, out.String())
	}

	out.Reset()
	err = run(context.Background(), testConfig(srv.URL), testLog(),
		[]string{"run", "-resource", "post", "-operation", "delete", "-in", in},
		nil, &out)
	if err == nil || !strings.Contains(err.Error(), "item 0") {
		t.Errorf("expected item 0 failure, got %v", err)
	}
}

func TestRun_DryRun(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.APIKey = ""
	cfg.DryRun = true

	var out bytes.Buffer
	err := run(context.Background(), cfg, testLog(),
		[]string{"run", "-resource", "post", "-operation", "create"},
		strings.NewReader(`[{},{}]`), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Will run post_create over 2 item(s)") {
		t.Errorf("unexpected dry run output: %s", out.String())
	}

	err = run(context.Background(), cfg, testLog(),
		[]string{"run", "-resource", "media", "-operation", "delete"},
		strings.NewReader(`{}`), &out)
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Errorf("expected unsupported error, got %v", err)
	}
}

func TestRun_Usage(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	if err := run(context.Background(), cfg, testLog(), nil, nil, &bytes.Buffer{}); err == nil {
		t.Error("expected usage error")
	}
	if err := run(context.Background(), cfg, testLog(), []string{"publish"}, nil, &bytes.Buffer{}); err == nil {
		t.Error("expected unknown command error")
	}
	if err := run(context.Background(), cfg, testLog(), []string{"run", "-resource", "post"}, nil, &bytes.Buffer{}); err == nil {
		t.Error("expected missing operation error")
	}
}

// ===================== check =====================

func TestCheck(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"detail":"Invalid token."}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	if err := run(context.Background(), testConfig(srv.URL), testLog(), []string{"check"}, nil, &out); err != nil {
		t.Fatalf("check: %v", err)
	}
	if strings.TrimSpace(out.String()) != "credentials OK" {
		t.Errorf("output = %q", out.String())
	}

	status = http.StatusUnauthorized
	err := run(context.Background(), testConfig(srv.URL), testLog(), []string{"check"}, nil, &out)
	if err == nil || !strings.Contains(err.Error(), "Invalid token.") {
		t.Errorf("expected credential failure, got %v", err)
	}

	cfg := testConfig(srv.URL)
	cfg.APIKey = ""
	if err := run(context.Background(), cfg, testLog(), []string{"check"}, nil, &out); err != config.ErrMissingAPIKey {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
