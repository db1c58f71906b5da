// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/gamedex/gamedex/internal/auth"
	"github.com/gamedex/gamedex/internal/config"
	"github.com/gamedex/gamedex/internal/database"
	"github.com/gamedex/gamedex/internal/ingest"
	"github.com/gamedex/gamedex/internal/models"
)

// fakeCatalogStore serves canned data and records the filters it was
// queried with.
type fakeCatalogStore struct {
	games          []models.Game
	aggregates     map[string]float64
	queriedFilters []database.GameFilter
	aggregateKinds []string
}

func (s *fakeCatalogStore) QueryGames(_ context.Context, filter database.GameFilter) ([]models.Game, error) {
	s.queriedFilters = append(s.queriedFilters, filter)
	return s.games, nil
}

func (s *fakeCatalogStore) PriceAggregate(_ context.Context, kind string) (*float64, error) {
	s.aggregateKinds = append(s.aggregateKinds, kind)
	if v, ok := s.aggregates[kind]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *fakeCatalogStore) Stats(_ context.Context) (*models.CatalogStats, error) {
	return &models.CatalogStats{TotalGames: int64(len(s.games))}, nil
}

func (s *fakeCatalogStore) Ping(_ context.Context) error { return nil }

// fakeIngester returns canned results for upload tests.
type fakeIngester struct {
	stats   *ingest.Stats
	err     error
	lastURL string
}

func (f *fakeIngester) Run(_ context.Context, csvURL string) (*ingest.Stats, error) {
	f.lastURL = csvURL
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Security.AuthMode = "jwt"
	cfg.Security.JWTSecret = "test-secret-that-is-at-least-32-chars!!"
	cfg.Security.SessionTimeout = time.Hour
	cfg.Security.AdminUsername = "admin"
	cfg.Security.AdminPassword = "password123"
	cfg.Security.RateLimitDisabled = true
	cfg.Security.CORSOrigins = []string{"*"}
	cfg.Server.Timeout = 30 * time.Second
	return cfg
}

func testHandler(t *testing.T, store CatalogStore, ingester Ingester) (*Handler, *auth.JWTManager) {
	t.Helper()
	cfg := testConfig()
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	return New(store, ingester, cfg, jwtManager), jwtManager
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

func TestUploadCSV_Success(t *testing.T) {
	ingester := &fakeIngester{stats: &ingest.Stats{Created: 2, Updated: 1}}
	h, _ := testHandler(t, &fakeCatalogStore{}, ingester)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/upload", strings.NewReader(`{"csv_url":"http://example.com/games.csv"}`))
	rec := httptest.NewRecorder()

	h.UploadCSV(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := decodeMessage(t, rec); msg != "CSV uploaded and processed successfully" {
		t.Errorf("Unexpected message: %q", msg)
	}
	if ingester.lastURL != "http://example.com/games.csv" {
		t.Errorf("Ingester got URL %q", ingester.lastURL)
	}
}

func TestUploadCSV_MissingURL(t *testing.T) {
	h, _ := testHandler(t, &fakeCatalogStore{}, &fakeIngester{})

	for _, body := range []string{`{}`, `{"csv_url":""}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/upload", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.UploadCSV(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %q: expected 400, got %d", body, rec.Code)
			continue
		}
		if msg := decodeMessage(t, rec); msg != "CSV URL is required" {
			t.Errorf("Body %q: unexpected message %q", body, msg)
		}
	}
}

func TestUploadCSV_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"invalid url", ingest.ErrInvalidURL, "Invalid CSV URL format"},
		{"schema", &ingest.SchemaError{Missing: []string{"AppID"}}, "CSV file must contain 'AppID', 'Name', and 'Release date' columns."},
		{"date", &ingest.DateFormatError{Value: "bad"}, "Date format for 'bad' is not recognized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := testHandler(t, &fakeCatalogStore{}, &fakeIngester{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/upload", strings.NewReader(`{"csv_url":"http://example.com/games.csv"}`))
			rec := httptest.NewRecorder()

			h.UploadCSV(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rec.Code)
			}
			if msg := decodeMessage(t, rec); msg != tt.message {
				t.Errorf("Expected %q, got %q", tt.message, msg)
			}
		})
	}
}

func TestQueryGames_NoAggregates(t *testing.T) {
	store := &fakeCatalogStore{games: []models.Game{{AppID: 1, Name: "A"}}}
	h, _ := testHandler(t, store, &fakeIngester{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/query", nil)
	rec := httptest.NewRecorder()

	h.QueryGames(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Aggregates must be the JSON null, not {}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if string(raw["aggregates"]) != "null" {
		t.Errorf("Expected aggregates null, got %s", raw["aggregates"])
	}

	var body models.QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].AppID != 1 {
		t.Errorf("Unexpected results: %+v", body.Results)
	}
}

func TestQueryGames_AggregatesIgnoreFilters(t *testing.T) {
	store := &fakeCatalogStore{
		aggregates: map[string]float64{"max": 59.99, "mean": 12.345},
	}
	h, _ := testHandler(t, store, &fakeIngester{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/query?aggregate_max_price=1&aggregate_mean_price=1&price=9.99", nil)
	rec := httptest.NewRecorder()

	h.QueryGames(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The aggregate calls carry no filter at all; the row query does
	if len(store.aggregateKinds) != 2 {
		t.Fatalf("Expected 2 aggregate calls, got %v", store.aggregateKinds)
	}
	if len(store.queriedFilters) != 1 || len(store.queriedFilters[0].Prices) != 1 {
		t.Errorf("Expected one filtered row query, got %+v", store.queriedFilters)
	}

	var body models.QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Aggregates == nil {
		t.Fatal("Expected aggregates in response")
	}
	if v := body.Aggregates["max_price"]; v == nil || *v != 59.99 {
		t.Errorf("Unexpected max_price: %v", v)
	}
	if v := body.Aggregates["mean_price"]; v == nil || *v != 12.345 {
		t.Errorf("Unexpected mean_price: %v", v)
	}
}

func TestQueryGames_NullAggregateValueOnEmptyCatalog(t *testing.T) {
	// Store returns nil for every aggregate: empty table
	store := &fakeCatalogStore{}
	h, _ := testHandler(t, store, &fakeIngester{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/query?aggregate_min_price=1", nil)
	rec := httptest.NewRecorder()

	h.QueryGames(rec, req)

	var body models.QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Aggregates == nil {
		t.Fatal("Expected aggregates object")
	}
	value, present := body.Aggregates["min_price"]
	if !present {
		t.Fatal("Expected min_price key")
	}
	if value != nil {
		t.Errorf("Expected null min_price, got %v", *value)
	}
}

func TestQueryGames_UnknownField(t *testing.T) {
	h, _ := testHandler(t, &fakeCatalogStore{}, &fakeIngester{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/query?score_rank=90", nil)
	rec := httptest.NewRecorder()

	h.QueryGames(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "Field score_rank does not exist or is not a valid field for filtering." {
		t.Errorf("Unexpected message: %q", msg)
	}
}

func TestLogin(t *testing.T) {
	h, _ := testHandler(t, &fakeCatalogStore{}, &fakeIngester{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"password123"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("Expected success status, got %q", resp.Status)
	}

	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == "token" && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("Expected HTTP-only token cookie")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	h, _ := testHandler(t, &fakeCatalogStore{}, &fakeIngester{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestRouter_DataEndpointsRequireAuth(t *testing.T) {
	cfg := testConfig()
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	authMW := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode, 5, time.Minute)

	store := &fakeCatalogStore{}
	h := New(store, &fakeIngester{stats: &ingest.Stats{}}, cfg, jwtManager)
	router := NewRouter(h, authMW, cfg)
	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/catalog/query"},
		{http.MethodPost, "/api/v1/catalog/upload"},
		{http.MethodGet, "/api/v1/stats"},
	}

	for _, p := range paths {
		req, err := http.NewRequest(p.method, server.URL+p.path, nil)
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		_ = resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", p.method, p.path, resp.StatusCode)
		}
	}

	// With a valid token the same endpoints answer
	token, err := jwtManager.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/catalog/query", nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestRouter_HealthAndMetricsAreOpen(t *testing.T) {
	cfg := testConfig()
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	authMW := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode, 5, time.Minute)

	h := New(&fakeCatalogStore{}, &fakeIngester{}, cfg, jwtManager)
	router := NewRouter(h, authMW, cfg)
	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	for _, path := range []string{"/api/v1/health/", "/api/v1/health/live", "/api/v1/health/ready", "/metrics"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}
