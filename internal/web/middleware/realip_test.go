package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "no trusted proxies ignores headers",
			remoteAddr: "203.0.113.7:5000",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "203.0.113.7:5000",
		},
		{
			name:       "trusted proxy with X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "trusted proxy with X-Forwarded-For chain",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.5"},
			want:       "198.51.100.9",
		},
		{
			name:       "single address entry",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:8080",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "untrusted source keeps remote addr",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "203.0.113.7:5000",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "203.0.113.7:5000",
		},
		{
			name:       "invalid header value is ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.1.2.3:443",
		},
		{
			name:       "invalid trusted entry is skipped",
			trusted:    []string{"bogus", "10.0.0.0/8"},
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "ipv6 proxy",
			trusted:    []string{"fd00::/8"},
			remoteAddr: "[fd00::1]:443",
			headers:    map[string]string{"X-Real-IP": "2001:db8::1"},
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.7:5000", "203.0.113.7"},
		{"198.51.100.9", "198.51.100.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"[::ffff:192.0.2.1]:80", "192.0.2.1"},
		{"pipe", "pipe"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := ClientIP(req); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}
