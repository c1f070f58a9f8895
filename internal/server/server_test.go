package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/generator"
	"github.com/mohammad-safakhou/onboarder/internal/onboarding"
	"github.com/mohammad-safakhou/onboarder/internal/store"
)

const knownID = "0f8fad5b-d9cb-469f-a165-70867728950e"

type memStore struct {
	mu      sync.Mutex
	records map[string]store.ConfigRecord
}

func (m *memStore) CreateConfig(_ context.Context, cfg *dashboard.Configuration, history json.RawMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[knownID] = store.ConfigRecord{ID: knownID, Config: cfg.Clone(), PlatformTabs: dashboard.PlatformTabs, ConversationHistory: history}
	return knownID, nil
}

func (m *memStore) GetConfig(_ context.Context, id string) (store.ConfigRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return store.ConfigRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) UpdateConfig(_ context.Context, id string, upd store.ConfigUpdate) (store.ConfigRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return store.ConfigRecord{}, store.ErrNotFound
	}
	if upd.BusinessName != nil {
		rec.Config.BusinessName = *upd.BusinessName
	}
	if upd.Tabs != nil {
		rec.Config.Tabs = upd.Tabs
	}
	m.records[id] = rec
	return rec, nil
}

const generatedReply = "```json\n" + `{"business_name": "Crumbs", "business_type": "bakery",
  "colors": {"buttons": "#DC2626"},
  "tabs": [{"id": "tab_1", "label": "Dashboard", "components": [{"id": "calendar"}]},
           {"id": "tab_2", "label": "Orders", "components": [{"id": "orders"}, {"id": "calendar", "view": "calendar"}]}]}` + "\n```"

func newTestServer(t *testing.T, gen generator.Generator, secret string) (*echo.Echo, *memStore) {
	t.Helper()
	st := &memStore{records: map[string]store.ConfigRecord{}}
	svc := onboarding.NewService(onboarding.Options{Generator: gen, Store: st, DashboardURL: "http://dash"})
	return New(Options{Service: svc, JWTSecret: []byte(secret), RequestTimeout: time.Second}), st
}

func do(e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestConfigureRoute(t *testing.T) {
	gen := generator.Func(func(context.Context, string) (string, error) { return generatedReply, nil })
	e, st := newTestServer(t, gen, "")

	rec := do(e, http.MethodPost, "/api/configure", `{"description": "A small bakery downtown", "conversation_history": [{"role": "user"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true || body["config_id"] != knownID || body["path"] != onboarding.PathScratch {
		t.Fatalf("unexpected body %v", body)
	}
	if !strings.HasPrefix(body["redirect_url"].(string), "http://dash/preview?config_id="+knownID) {
		t.Fatalf("unexpected redirect %v", body["redirect_url"])
	}
	cfg := body["config"].(map[string]any)
	if cfg["colors"].(map[string]any)["buttons"] == "#DC2626" {
		t.Fatalf("forbidden buttons color survived")
	}
	if _, ok := st.records[knownID]; !ok {
		t.Fatalf("configuration not persisted")
	}

	metrics := do(e, http.MethodGet, "/metrics", "")
	for _, want := range []string{
		`onboarder_configure_requests_total{outcome="ok",path="scratch"} 1`,
		`onboarder_normalize_corrections_total{kind="palette_replaced"} 1`,
		`onboarder_configure_duration_seconds_count 1`,
	} {
		if !strings.Contains(metrics.Body.String(), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestConfigureErrors(t *testing.T) {
	failing := generator.Func(func(context.Context, string) (string, error) { return "", errors.New("boom") })
	e, _ := newTestServer(t, failing, "")

	if rec := do(e, http.MethodPost, "/api/configure", `{"description": ""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/configure", `{"description": `); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
	rec := do(e, http.MethodPost, "/api/configure", `{"description": "my barbershop"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["success"] != false || body["error"] == "" {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestNormalizeRoute(t *testing.T) {
	e, _ := newTestServer(t, nil, "")
	rec := do(e, http.MethodPost, "/api/normalize", `{"config": {"tabs": [{"id": "tab_1", "label": "Dashboard", "components": [{"id": "x"}]}]}, "business_type": "florist"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	cfg := body["config"].(map[string]any)
	if cfg["business_type"] != "florist" {
		t.Fatalf("expected business type to be filled, got %v", cfg["business_type"])
	}
	if len(body["report"].(map[string]any)["corrections"].([]any)) == 0 {
		t.Fatalf("expected corrections in report")
	}

	rec = do(e, http.MethodPost, "/api/normalize", `{"config": {}, "template": {"business_type": "spa", "family": "beauty_body"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("template normalize failed %d: %s", rec.Code, rec.Body.String())
	}

	for name, body := range map[string]string{
		"missing config":   `{}`,
		"array config":     `{"config": []}`,
		"unknown template": `{"config": {}, "template": {"business_type": "bakery", "family": "beauty_body"}}`,
	} {
		if rec := do(e, http.MethodPost, "/api/normalize", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestDetectRoute(t *testing.T) {
	e, _ := newTestServer(t, nil, "")
	body := decodeBody(t, do(e, http.MethodGet, "/api/templates/detect?q=Tattoo+and+piercing+parlor", ""))
	if body["matched"] != true || body["business_type"] != "tattoo" || body["family"] != "beauty_body" {
		t.Fatalf("unexpected detection %v", body)
	}
	body = decodeBody(t, do(e, http.MethodGet, "/api/templates/detect?q=law+firm", ""))
	if body["matched"] != false {
		t.Fatalf("expected no match, got %v", body)
	}
	if rec := do(e, http.MethodGet, "/api/templates/detect", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without q, got %d", rec.Code)
	}
}

func TestConfigGetAndUpdate(t *testing.T) {
	e, st := newTestServer(t, nil, "secret")
	st.records[knownID] = store.ConfigRecord{ID: knownID, Config: &dashboard.Configuration{BusinessName: "Old", Colors: dashboard.Palette{}}}

	if rec := do(e, http.MethodGet, "/api/config/"+knownID, ""); rec.Code != http.StatusOK {
		t.Fatalf("get failed %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/config/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	update := `{"business_name": "New", "tabs": [{"id": "tab_1", "label": "Home"}]}`
	if rec := do(e, http.MethodPut, "/api/config/"+knownID, update); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPut, "/api/config/"+knownID, update, "Authorization", "Bearer nope"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	tok, err := SignJWT("user-1", []byte("secret"), time.Minute)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	rec := do(e, http.MethodPut, "/api/config/"+knownID, update, "Authorization", "Bearer "+tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed %d: %s", rec.Code, rec.Body.String())
	}
	cfg := decodeBody(t, rec)["config"].(map[string]any)
	if cfg["business_name"] != "New" || len(cfg["tabs"].([]any)) != 1 {
		t.Fatalf("update not applied: %v", cfg)
	}
	if rec := do(e, http.MethodPut, "/api/config/"+knownID, `{"tabs": {"id": "x"}}`, "Authorization", "Bearer "+tok); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-array tabs, got %d", rec.Code)
	}
}

func TestHealthAndDocs(t *testing.T) {
	e, _ := newTestServer(t, nil, "")
	if rec := do(e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health %d %q", rec.Code, rec.Body.String())
	}
	rec := do(e, http.MethodGet, "/api/openapi.yaml", "")
	data, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK || !strings.Contains(string(data), "/api/configure") {
		t.Fatalf("openapi not served")
	}
	if rec := do(e, http.MethodGet, "/api/docs", ""); !strings.Contains(rec.Body.String(), "redoc") {
		t.Fatalf("docs page not served")
	}
}

type brokenStore struct{ memStore }

func (b *brokenStore) CreateConfig(context.Context, *dashboard.Configuration, json.RawMessage) (string, error) {
	return "", errors.New(`pq: relation "dashboard_configs" does not exist`)
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	gen := generator.Func(func(context.Context, string) (string, error) { return generatedReply, nil })
	svc := onboarding.NewService(onboarding.Options{Generator: gen, Store: &brokenStore{}})
	e := New(Options{Service: svc})

	rec := do(e, http.MethodPost, "/api/configure", `{"description": "A small bakery downtown"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("expected generic message, got %v", body["error"])
	}
	if strings.Contains(rec.Body.String(), "dashboard_configs") {
		t.Fatalf("store details leaked: %s", rec.Body.String())
	}
}
