package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-materiel/i18n"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrefs(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		cookie     string
		accept     string
		want       string
		wantCookie bool
	}{
		{"default", "/", "", "", "fr", false},
		{"accept-language", "/", "", "en-US,en;q=0.8", "en", false},
		{"cookie wins over header", "/", "fr", "en", "fr", false},
		{"query wins and is remembered", "/?lang=en", "fr", "", "en", true},
		{"unsupported query ignored", "/?lang=de", "", "en", "en", false},
		{"unsupported cookie ignored", "/", "xx", "", "fr", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Prefs(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = i18n.LangFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "lang", Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got != tt.want {
				t.Fatalf("lang = %q, want %q", got, tt.want)
			}
			if set := rec.Header().Get("Set-Cookie") != ""; set != tt.wantCookie {
				t.Fatalf("cookie set = %v, want %v", set, tt.wantCookie)
			}
		})
	}
}

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	for _, tc := range []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	} {
		buf.Reset()
		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte("body"))
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/materiels/", nil))
		out := buf.String()
		if !strings.Contains(out, tc.level) || !strings.Contains(out, "path=/materiels/") || !strings.Contains(out, "bytes=4") {
			t.Fatalf("status %d logged as: %s", tc.status, out)
		}
	}
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/materiels/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/materiels/{id}", "418"))
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/materiels/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/materiels/{id}", "418"))
	if after-before != 3 {
		t.Fatalf("counter grew by %v, want 3", after-before)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/42", nil))
	if n := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); n < 1 {
		t.Fatalf("unmatched route not counted")
	}
}
