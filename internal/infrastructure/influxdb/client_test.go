package influxdb_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/influxdb"
)

// fakeInflux answers /ping and captures line protocol from /api/v2/write.
type fakeInflux struct {
	mu     sync.Mutex
	lines  []string
	query  string
	writes chan struct{}
}

func newFakeInflux(t *testing.T) (*fakeInflux, *httptest.Server) {
	t.Helper()
	f := &fakeInflux{writes: make(chan struct{}, 8)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading write body: %v", err)
		}
		f.mu.Lock()
		f.lines = append(f.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
		f.query = r.URL.RawQuery
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		f.writes <- struct{}{}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "companion",
		Bucket:        "checkins",
		BatchSize:     10,
		FlushInterval: 60,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	if _, err := influxdb.Connect(t.Context(), cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := influxdb.Connect(t.Context(), testConfig(url)); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteCheckinOutcome(t *testing.T) {
	f, srv := newFakeInflux(t)

	client, err := influxdb.Connect(t.Context(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	at := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	client.WriteCheckinOutcome("42", "warning", 250*time.Millisecond, at)
	client.Flush()

	select {
	case <-f.writes:
	case <-time.After(5 * time.Second):
		t.Fatal("no write reached the server")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lines) != 1 {
		t.Fatalf("lines = %q, want one point", f.lines)
	}
	line := f.lines[0]
	for _, want := range []string{
		"checkin_outcome,company_id=42,outcome=warning ",
		"count=1i",
		"latency_ms=250i",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if !strings.Contains(f.query, "bucket=checkins") || !strings.Contains(f.query, "org=companion") {
		t.Errorf("write query = %q", f.query)
	}
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
	client.WriteCheckinOutcome("1", "success", 0, time.Now())
	if client.IsConnected() {
		t.Error("nil client reports connected")
	}
}

func TestWriteAfterClose(t *testing.T) {
	f, srv := newFakeInflux(t)

	client, err := influxdb.Connect(t.Context(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	client.WriteCheckinOutcome("42", "success", 0, time.Now())
	client.Flush()
	if err := client.HealthCheck(t.Context()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lines) != 0 {
		t.Errorf("write after Close reached the server: %q", f.lines)
	}
}

func TestWithDefaultTag(t *testing.T) {
	f, srv := newFakeInflux(t)

	client, err := influxdb.Connect(t.Context(), testConfig(srv.URL), influxdb.WithDefaultTag("install_id", "kiosk-1"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WriteCheckinOutcome("42", "success", 0, time.Now())
	client.Flush()

	select {
	case <-f.writes:
	case <-time.After(5 * time.Second):
		t.Fatal("no write reached the server")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lines) != 1 || !strings.Contains(f.lines[0], "install_id=kiosk-1") {
		t.Errorf("lines = %q, want install_id tag", f.lines)
	}
}
