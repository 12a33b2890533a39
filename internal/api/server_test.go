package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/mars/marsclock/internal/auth"
	"github.com/mars/marsclock/internal/site"
	"github.com/mars/marsclock/internal/snapshot"
	"github.com/mars/marsclock/internal/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testServer(t *testing.T, authCfg auth.Config) http.Handler {
	t.Helper()
	logger := testLogger()
	store := snapshot.NewStore()
	streamHandler := stream.NewHandler(store, stream.Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
	}, logger)
	webContent := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html></html>")},
	}
	srv := NewServer(":0", logger, authCfg, site.Defaults(), store, streamHandler, webContent)
	return srv.httpServer.Handler
}

func TestConvertPost(t *testing.T) {
	handler := testServer(t, auth.Config{})

	body := `{"earth_time":"2025-10-25T00:10:25Z","lon":137.4}`
	req := httptest.NewRequest("POST", "/api/v1/marstime", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp convertResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	if resp.LTST != "06:25:29" {
		t.Errorf("ltst = %q, want 06:25:29", resp.LTST)
	}
	if resp.Reading.SolNumber != 53972 {
		t.Errorf("sol = %d, want 53972", resp.Reading.SolNumber)
	}
	if resp.Lon != 137.4 {
		t.Errorf("lon = %v, want 137.4", resp.Lon)
	}
	if resp.EarthTime != "2025-10-25T00:10:25Z" {
		t.Errorf("earth_time = %q, want 2025-10-25T00:10:25Z", resp.EarthTime)
	}
}

func TestConvertPostErrors(t *testing.T) {
	handler := testServer(t, auth.Config{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing timestamp", `{"lon":137.4}`},
		{"naive timestamp", `{"earth_time":"2025-10-25T00:10:25","lon":137.4}`},
		{"garbage timestamp", `{"earth_time":"not-a-time","lon":137.4}`},
		{"missing lon", `{"earth_time":"2025-10-25T00:10:25Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/marstime", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var resp map[string]any
			json.NewDecoder(w.Body).Decode(&resp)
			if resp["error"] == nil {
				t.Error("expected error field in response")
			}
		})
	}
}

func TestConvertGet(t *testing.T) {
	handler := testServer(t, auth.Config{})

	// Out-of-range longitude folds into [0, 360).
	req := httptest.NewRequest("GET", "/api/v1/marstime?t=2025-10-25T00:10:25Z&lon=-222.6", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp convertResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.LTST != "06:25:29" {
		t.Errorf("ltst = %q, want 06:25:29", resp.LTST)
	}
	if resp.Lon != 137.4 {
		t.Errorf("lon = %v, want folded 137.4", resp.Lon)
	}
}

func TestConvertGetDefaults(t *testing.T) {
	handler := testServer(t, auth.Config{})

	// No params: t defaults to now, lon to the Airy-0 meridian.
	req := httptest.NewRequest("GET", "/api/v1/marstime", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp convertResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Lon != 0 {
		t.Errorf("lon = %v, want 0", resp.Lon)
	}
	if resp.Reading.MTCHours != resp.Reading.LMSTHours {
		t.Error("at lon 0, LMST should equal MTC")
	}
}

func TestConvertGetBadParams(t *testing.T) {
	handler := testServer(t, auth.Config{})

	tests := []struct {
		name  string
		query string
	}{
		{"bad timestamp", "?t=yesterday"},
		{"naive timestamp", "?t=2025-10-25T00:10:25"},
		{"bad lon", "?lon=east"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/marstime"+tt.query, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestSites(t *testing.T) {
	handler := testServer(t, auth.Config{})

	req := httptest.NewRequest("GET", "/api/v1/sites", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp sitesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Sites) != len(site.Defaults()) {
		t.Fatalf("site count = %d, want %d", len(resp.Sites), len(site.Defaults()))
	}
	for _, sr := range resp.Sites {
		if len(sr.LTST) != 8 || len(sr.MTC) != 8 {
			t.Errorf("site %q: LTST %q MTC %q, want HH:MM:SS", sr.Site.Name, sr.LTST, sr.MTC)
		}
	}
}

func TestAlmanac(t *testing.T) {
	handler := testServer(t, auth.Config{})

	req := httptest.NewRequest("GET", "/api/v1/almanac?lon=137.4&start=2025-10-25T00:00:00Z&hours=1&step=600", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Site    site.Site `json:"site"`
		Samples []struct {
			EarthTime time.Time `json:"earth_time"`
			LTST      string    `json:"ltst"`
		} `json:"samples"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Samples) != 7 {
		t.Fatalf("samples = %d, want 7", len(resp.Samples))
	}
	if resp.Site.LongitudeE != 137.4 {
		t.Errorf("site lon = %v, want 137.4", resp.Site.LongitudeE)
	}
}

func TestAlmanacBySiteName(t *testing.T) {
	handler := testServer(t, auth.Config{})

	req := httptest.NewRequest("GET", "/api/v1/almanac?site=gale+crater&hours=1&step=600", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Site site.Site `json:"site"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Site.Name != "Gale Crater" {
		t.Errorf("site = %q, want Gale Crater (case-insensitive match)", resp.Site.Name)
	}
}

// TestAlmanacSampleBudget verifies that oversized series requests are
// rejected with 400 instead of consuming unbounded CPU.
func TestAlmanacSampleBudget(t *testing.T) {
	handler := testServer(t, auth.Config{})

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{
			name:       "budget exceeded: hours=8760 step=1",
			query:      "?lon=0&hours=8760&step=1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "within budget: defaults",
			query:      "?lon=0",
			wantStatus: http.StatusOK,
		},
		{
			name:       "within budget: hours=24 step=60",
			query:      "?lon=0&hours=24&step=60",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/almanac"+tt.query, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusBadRequest {
				var resp map[string]any
				json.NewDecoder(w.Body).Decode(&resp)
				if resp["error"] == nil {
					t.Error("expected error field in response")
				}
			}
		})
	}
}

func TestAlmanacBadParams(t *testing.T) {
	handler := testServer(t, auth.Config{})

	tests := []struct {
		name  string
		query string
	}{
		{"no site or lon", ""},
		{"unknown site", "?site=Atlantis"},
		{"bad lon", "?lon=west"},
		{"bad start", "?lon=0&start=tomorrow"},
		{"zero hours", "?lon=0&hours=0"},
		{"negative step", "?lon=0&step=-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/almanac"+tt.query, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	handler := testServer(t, auth.Config{})

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
	}
}

func TestAuthProtection(t *testing.T) {
	handler := testServer(t, auth.Config{Enabled: true, Token: "secret"})

	// API routes require the token.
	req := httptest.NewRequest("GET", "/api/v1/marstime?lon=0", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/marstime?lon=0", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", w.Code)
	}

	// Probes stay public.
	req = httptest.NewRequest("GET", "/healthz", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", w.Code)
	}
}
