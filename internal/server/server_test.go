package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/affiliateai/copilot/internal/adapter"
	"github.com/affiliateai/copilot/internal/observe"
	"github.com/affiliateai/copilot/internal/registry"
	"github.com/affiliateai/copilot/internal/store"
)

// newTestServer wires a server against an httptest vendor speaking the
// chat-completion shape, with a temp SQLite library behind it.
func newTestServer(t *testing.T, vendorReply string) (*Server, store.Storage) {
	t.Helper()

	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, vendorReply)
	}))
	t.Cleanup(vendor.Close)

	r := registry.Default()
	if err := r.Apply(&registry.Overrides{Providers: map[string]registry.Override{
		"groq": {BaseURL: vendor.URL},
	}}); err != nil {
		t.Fatalf("Apply overrides failed: %v", err)
	}

	lib, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "library.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { lib.Close() })

	obs := observe.New(io.Discard, false)
	assistant := adapter.New(adapter.WithRegistry(r), adapter.WithObserver(obs))

	s, err := New(":0", assistant, r, lib, obs)
	if err != nil {
		t.Fatalf("New server failed: %v", err)
	}
	return s, lib
}

func doJSON(t *testing.T, s *Server, method, path, key, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(CredentialHeader, key)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("Response was not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "ok")
	rec, body := doJSON(t, s, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
}

func TestProviders(t *testing.T) {
	s, _ := newTestServer(t, "ok")
	rec, body := doJSON(t, s, http.MethodGet, "/v1/providers", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	providers, ok := body["providers"].([]any)
	if !ok || len(providers) != 3 {
		t.Fatalf("Expected 3 providers, got %v", body["providers"])
	}
	first := providers[0].(map[string]any)
	if first["id"] != "groq" {
		t.Errorf("Expected groq first, got %v", first["id"])
	}
	if _, ok := first["key_prefix"]; !ok {
		t.Error("Expected key_prefix in provider info")
	}
}

func TestGenerate(t *testing.T) {
	s, _ := newTestServer(t, "generated text")
	rec, body := doJSON(t, s, http.MethodPost, "/v1/generate", "gsk_test",
		`{"prompt":"write a tagline","temperature":0.2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	if body["text"] != "generated text" {
		t.Errorf("Expected generated text, got %v", body["text"])
	}
}

func TestGenerate_MissingCredential(t *testing.T) {
	s, _ := newTestServer(t, "unused")
	rec, body := doJSON(t, s, http.MethodPost, "/v1/generate", "",
		`{"prompt":"write a tagline"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d: %v", rec.Code, body)
	}
	errObj := body["error"].(map[string]any)
	if errObj["type"] != "missing_credential" {
		t.Errorf("Expected missing_credential, got %v", errObj["type"])
	}
}

func TestGenerate_UnknownProvider(t *testing.T) {
	s, _ := newTestServer(t, "unused")
	rec, body := doJSON(t, s, http.MethodPost, "/v1/generate", "key",
		`{"prompt":"hi","provider":"mistral"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %v", rec.Code, body)
	}
}

func TestGenerate_EmptyBody(t *testing.T) {
	s, _ := newTestServer(t, "unused")
	rec, body := doJSON(t, s, http.MethodPost, "/v1/generate", "key", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %v", rec.Code, body)
	}
	errObj := body["error"].(map[string]any)
	if errObj["type"] != "invalid_request_error" {
		t.Errorf("Expected invalid_request_error, got %v", errObj["type"])
	}
}

func TestChat(t *testing.T) {
	s, _ := newTestServer(t, "hello from the assistant")
	rec, body := doJSON(t, s, http.MethodPost, "/v1/chat", "gsk_test",
		`{"message":"hi","module":"niche_discovery"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	if body["reply"] != "hello from the assistant" {
		t.Errorf("Expected reply, got %v", body["reply"])
	}
	if body["session_id"] == "" {
		t.Error("Expected a session id")
	}

	// The turn is recorded as a chat session.
	rec, body = doJSON(t, s, http.MethodGet, "/v1/sessions", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	sessions := body["sessions"].([]any)
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 recorded session, got %d", len(sessions))
	}
	sess := sessions[0].(map[string]any)
	if sess["provider"] != "groq" {
		t.Errorf("Expected groq session, got %v", sess["provider"])
	}
	if sess["turns"] != float64(1) {
		t.Errorf("Expected 1 turn, got %v", sess["turns"])
	}
}

func TestChat_SessionIsolation(t *testing.T) {
	var mu sync.Mutex
	var vendorBodies []string
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		vendorBodies = append(vendorBodies, string(raw))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"vendor reply"}}]}`)
	}))
	defer vendor.Close()

	r := registry.Default()
	if err := r.Apply(&registry.Overrides{Providers: map[string]registry.Override{
		"groq": {BaseURL: vendor.URL},
	}}); err != nil {
		t.Fatalf("Apply overrides failed: %v", err)
	}
	obs := observe.New(io.Discard, false)
	s, err := New(":0", adapter.New(adapter.WithRegistry(r), adapter.WithObserver(obs)), r, nil, obs)
	if err != nil {
		t.Fatalf("New server failed: %v", err)
	}

	rec, body := doJSON(t, s, http.MethodPost, "/v1/chat", "gsk_test",
		`{"message":"tell me about yoga mats"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	first, _ := body["session_id"].(string)
	if first == "" {
		t.Fatal("Expected a session id")
	}

	// The second turn on the same session carries the earlier exchange.
	rec, body = doJSON(t, s, http.MethodPost, "/v1/chat", "gsk_test",
		fmt.Sprintf(`{"session_id":%q,"message":"what about running shoes"}`, first))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	if body["session_id"] != first {
		t.Errorf("Expected session %q to continue, got %v", first, body["session_id"])
	}
	mu.Lock()
	second := vendorBodies[len(vendorBodies)-1]
	mu.Unlock()
	if !strings.Contains(second, "tell me about yoga mats") || !strings.Contains(second, "vendor reply") {
		t.Errorf("Expected prior exchange in outgoing request, got %s", second)
	}

	// A request without a session id opens a fresh conversation.
	rec, body = doJSON(t, s, http.MethodPost, "/v1/chat", "gsk_test",
		`{"message":"something new"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	if body["session_id"] == first {
		t.Error("Expected a new session id for a fresh conversation")
	}
	mu.Lock()
	third := vendorBodies[len(vendorBodies)-1]
	mu.Unlock()
	if strings.Contains(third, "tell me about yoga mats") {
		t.Errorf("Fresh session leaked another session's history: %s", third)
	}
}

func TestChat_UnknownSession(t *testing.T) {
	s, _ := newTestServer(t, "unused")
	rec, body := doJSON(t, s, http.MethodPost, "/v1/chat", "gsk_test",
		`{"session_id":"no-such-session","message":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %v", rec.Code, body)
	}
	errObj := body["error"].(map[string]any)
	if errObj["type"] != "not_found" {
		t.Errorf("Expected not_found, got %v", errObj["type"])
	}
}

func TestChat_MessageRequired(t *testing.T) {
	s, _ := newTestServer(t, "unused")
	rec, _ := doJSON(t, s, http.MethodPost, "/v1/chat", "key", `{"module":"seo"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestNicheAnalysis(t *testing.T) {
	reply := `{"profitability_score":8,"competition_level":"medium","recommendation":"go"}`
	s, _ := newTestServer(t, reply)
	rec, body := doJSON(t, s, http.MethodPost, "/v1/niches/analyze", "gsk_test",
		`{"niche":"fitness"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	if body["profitability_score"] != float64(8) {
		t.Errorf("Expected score 8, got %v", body["profitability_score"])
	}
}

func TestNicheAnalysis_UnparseableReply(t *testing.T) {
	s, _ := newTestServer(t, "I cannot answer that.")
	rec, body := doJSON(t, s, http.MethodPost, "/v1/niches/analyze", "gsk_test",
		`{"niche":"fitness"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d: %v", rec.Code, body)
	}
	errObj := body["error"].(map[string]any)
	if errObj["type"] != "generation_error" {
		t.Errorf("Expected generation_error, got %v", errObj["type"])
	}
}

func TestContent_SaveToLibrary(t *testing.T) {
	reply := `{"title":"Top Picks","content":"body text","hook":"listen up"}`
	s, lib := newTestServer(t, reply)
	rec, body := doJSON(t, s, http.MethodPost, "/v1/content", "gsk_test",
		`{"type":"blog_article","topic":"yoga mats","save":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}

	savedID, _ := body["saved_id"].(string)
	if savedID == "" {
		t.Fatal("Expected a saved_id")
	}

	got, err := lib.GetContent(savedID)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if got.Title != "Top Picks" || got.Kind != "blog_article" {
		t.Errorf("Unexpected stored record: %+v", got)
	}
}

func TestLibraryEndpoints(t *testing.T) {
	s, lib := newTestServer(t, "unused")
	rec1 := &store.ContentRecord{ID: "c1", Kind: "blog_article", Topic: "Yoga Mats", Title: "Picks", Body: "text"}
	rec2 := &store.ContentRecord{ID: "c2", Kind: "social_post", Topic: "Running Shoes", Title: "Post"}
	if err := lib.SaveContent(rec1); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	if err := lib.SaveContent(rec2); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	rec, body := doJSON(t, s, http.MethodGet, "/v1/library?pattern=blog_article/*", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	contents := body["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("Expected 1 filtered record, got %d", len(contents))
	}
	entry := contents[0].(map[string]any)
	if entry["id"] != "c1" {
		t.Errorf("Expected c1, got %v", entry["id"])
	}
	if _, hasBody := entry["body"]; hasBody {
		t.Error("List entries should omit the body")
	}

	rec, body = doJSON(t, s, http.MethodGet, "/v1/library/c1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["body"] != "text" {
		t.Errorf("Expected body text, got %v", body["body"])
	}

	rec, _ = doJSON(t, s, http.MethodDelete, "/v1/library/c2", "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	rec, _ = doJSON(t, s, http.MethodGet, "/v1/library/c2", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestVendorFailureMapsToBadGateway(t *testing.T) {
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit exceeded"}}`)
	}))
	defer vendor.Close()

	r := registry.Default()
	if err := r.Apply(&registry.Overrides{Providers: map[string]registry.Override{
		"groq": {BaseURL: vendor.URL},
	}}); err != nil {
		t.Fatalf("Apply overrides failed: %v", err)
	}
	obs := observe.New(io.Discard, false)
	s, err := New(":0", adapter.New(adapter.WithRegistry(r), adapter.WithObserver(obs)), r, nil, obs)
	if err != nil {
		t.Fatalf("New server failed: %v", err)
	}

	rec, body := doJSON(t, s, http.MethodPost, "/v1/generate", "gsk_test", `{"prompt":"hi"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d: %v", rec.Code, body)
	}
	errObj := body["error"].(map[string]any)
	if errObj["type"] != "provider_error" {
		t.Errorf("Expected provider_error, got %v", errObj["type"])
	}
	if msg, _ := errObj["message"].(string); !strings.Contains(msg, "rate limit exceeded") {
		t.Errorf("Expected vendor message preserved, got %q", msg)
	}
}

func TestLibraryUnavailable(t *testing.T) {
	r := registry.Default()
	obs := observe.New(io.Discard, false)
	s, err := New(":0", adapter.New(adapter.WithRegistry(r), adapter.WithObserver(obs)), r, nil, obs)
	if err != nil {
		t.Fatalf("New server failed: %v", err)
	}
	rec, _ := doJSON(t, s, http.MethodGet, "/v1/library", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}
}
