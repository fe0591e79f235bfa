package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/pesquisa/internal/logging"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(logging.NewHandler(&buf, "debug", "json")))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{name: "ok", status: http.StatusOK, body: "hello", wantLevel: "INFO"},
		{name: "client error", status: http.StatusBadRequest, body: "bad", wantLevel: "WARN"},
		{name: "server error", status: http.StatusServiceUnavailable, body: "", wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/search?q=cimento", nil)
			req.RemoteAddr = "203.0.113.7:5000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log entry %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["path"] != "/api/search" || entry["query"] != "q=cimento" {
				t.Errorf("path/query = %v / %v", entry["path"], entry["query"])
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("status field = %v, want %d", entry["status"], tt.status)
			}
			if entry["bytes"] != float64(len(tt.body)) {
				t.Errorf("bytes = %v, want %d", entry["bytes"], len(tt.body))
			}
			if entry["ip"] != "203.0.113.7" {
				t.Errorf("ip = %v", entry["ip"])
			}
		})
	}
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	ww.Write([]byte("x"))
	ww.WriteHeader(http.StatusTeapot)

	if ww.status != http.StatusOK {
		t.Errorf("status = %d, want 200 (first write wins)", ww.status)
	}
}
