package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/affiliateai/copilot/internal/registry"
	"github.com/affiliateai/copilot/internal/translator"
)

// fakeGroq is an httptest vendor speaking the chat-completion shape. It
// records every request body it sees.
type fakeGroq struct {
	mu       sync.Mutex
	requests []map[string]any
	replies  []string
	calls    int
}

func (f *fakeGroq) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.requests = append(f.requests, body)
		reply := "ok"
		if f.calls < len(f.replies) {
			reply = f.replies[f.calls]
		}
		f.calls++
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, reply)
	}
}

func (f *fakeGroq) lastMessages(t *testing.T) []any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no requests recorded")
	}
	msgs, ok := f.requests[len(f.requests)-1]["messages"].([]any)
	if !ok {
		t.Fatal("last request had no message array")
	}
	return msgs
}

func newTestAssistant(t *testing.T, baseURL string) *Assistant {
	t.Helper()
	r := registry.Default()
	if err := r.Apply(&registry.Overrides{Providers: map[string]registry.Override{
		"groq":   {BaseURL: baseURL},
		"google": {BaseURL: baseURL},
	}}); err != nil {
		t.Fatalf("Apply overrides failed: %v", err)
	}
	return New(WithRegistry(r))
}

func TestGenerateText(t *testing.T) {
	fake := &fakeGroq{replies: []string{"hello there"}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	a := newTestAssistant(t, server.URL)
	text, err := a.GenerateText(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, Options{}, "gsk_test", "groq")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "hello there" {
		t.Errorf("Expected reply, got %q", text)
	}
}

func TestGenerateText_DefaultProvider(t *testing.T) {
	fake := &fakeGroq{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	a := newTestAssistant(t, server.URL)
	// Empty provider id routes to the default text provider.
	if _, err := a.GenerateText(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, Options{}, "gsk_test", ""); err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("Expected 1 call to the default provider, got %d", fake.calls)
	}
}

func TestGenerateText_UnknownProvider(t *testing.T) {
	a := New()
	_, err := a.GenerateText(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, Options{}, "key", "mistral")
	if !errors.Is(err, registry.ErrUnsupportedProvider) {
		t.Fatalf("Expected ErrUnsupportedProvider, got %v", err)
	}
}

// countingTransport fails every call and counts attempts, to prove a
// precondition failure never reaches the network.
type countingTransport struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil, errors.New("unexpected network call")
}

func TestGenerateText_MissingCredentialBeforeNetwork(t *testing.T) {
	transport := &countingTransport{}
	a := New(WithHTTPClient(&http.Client{Transport: transport}))

	for _, id := range []string{"groq", "anthropic", "google"} {
		t.Run(id, func(t *testing.T) {
			_, err := a.GenerateText(context.Background(),
				[]Message{{Role: "user", Content: "hi"}}, Options{}, "", id)
			var mce *translator.MissingCredentialError
			if !errors.As(err, &mce) {
				t.Fatalf("Expected MissingCredentialError, got %v", err)
			}
		})
	}
	if transport.calls != 0 {
		t.Errorf("Expected zero transport invocations, got %d", transport.calls)
	}
}

func TestGenerateText_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close() // connection refused from here on

	a := newTestAssistant(t, url)
	_, err := a.GenerateText(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, Options{}, "gsk_test", "groq")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if te.Unwrap() == nil {
		t.Error("TransportError must carry the original cause")
	}
}

func TestGenerateText_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Invalid API Key"}}`)
	}))
	defer server.Close()

	a := newTestAssistant(t, server.URL)
	_, err := a.GenerateText(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, Options{}, "gsk_bad", "groq")
	var pre *translator.ProviderResponseError
	if !errors.As(err, &pre) {
		t.Fatalf("Expected ProviderResponseError, got %v", err)
	}
	if pre.Message != "Invalid API Key" {
		t.Errorf("Expected vendor message verbatim, got %q", pre.Message)
	}
}

func TestChat_RoundTrip(t *testing.T) {
	fake := &fakeGroq{replies: []string{"first reply", "second reply"}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	a := newTestAssistant(t, server.URL)
	ctx := context.Background()

	if _, err := a.Chat(ctx, "hello", ChatContext{ExperienceLevel: "beginner"}, "gsk_test", "groq"); err != nil {
		t.Fatalf("First chat failed: %v", err)
	}
	reply, err := a.Chat(ctx, "tell me more", ChatContext{ExperienceLevel: "beginner"}, "gsk_test", "groq")
	if err != nil {
		t.Fatalf("Second chat failed: %v", err)
	}
	if reply != "second reply" {
		t.Errorf("Expected second reply, got %q", reply)
	}

	history := a.History()
	if len(history) != 4 {
		t.Fatalf("Expected 4 history entries, got %d", len(history))
	}
	wantRoles := []string{"user", "assistant", "user", "assistant"}
	for i, want := range wantRoles {
		if history[i].Role != want {
			t.Errorf("history[%d]: expected role %s, got %s", i, want, history[i].Role)
		}
	}

	// The second call's outgoing list includes the first turn.
	msgs := fake.lastMessages(t)
	var sawFirstReply bool
	for _, m := range msgs {
		if m.(map[string]any)["content"] == "first reply" {
			sawFirstReply = true
		}
	}
	if !sawFirstReply {
		t.Error("Second request should carry the first turn's reply")
	}
}

func TestChat_HistoryTruncation(t *testing.T) {
	fake := &fakeGroq{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	a := newTestAssistant(t, server.URL)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := a.Chat(ctx, fmt.Sprintf("turn %d", i), ChatContext{}, "gsk_test", "groq"); err != nil {
			t.Fatalf("Chat turn %d failed: %v", i, err)
		}
	}
	if _, err := a.Chat(ctx, "turn 12", ChatContext{}, "gsk_test", "groq"); err != nil {
		t.Fatalf("Final chat failed: %v", err)
	}

	// Full history keeps everything; the outgoing request is capped at
	// the system message plus the 10 most recent entries.
	if got := len(a.History()); got != 26 {
		t.Errorf("Expected 26 stored entries, got %d", got)
	}
	msgs := fake.lastMessages(t)
	if len(msgs) != 11 {
		t.Fatalf("Expected system + 10 window entries, got %d", len(msgs))
	}
	if msgs[0].(map[string]any)["role"] != "system" {
		t.Error("First outgoing message should be the system prompt")
	}
	last := msgs[len(msgs)-1].(map[string]any)
	if last["content"] != "turn 12" {
		t.Errorf("Window should end with the newest user entry, got %v", last["content"])
	}
}

func TestChat_FailureKeepsPendingUserEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"overloaded"}}`)
	}))
	defer server.Close()

	a := newTestAssistant(t, server.URL)
	_, err := a.Chat(context.Background(), "hello", ChatContext{}, "gsk_test", "groq")
	if err == nil {
		t.Fatal("Expected chat failure")
	}

	// The user entry stays; no assistant entry is appended.
	history := a.History()
	if len(history) != 1 || history[0].Role != "user" {
		t.Errorf("Expected the single pending user entry, got %+v", history)
	}
}

func TestClearHistory_RotatesSession(t *testing.T) {
	a := New()
	first := a.SessionID()
	if first == "" {
		t.Fatal("Expected a session id")
	}

	a.ClearHistory()
	if a.SessionID() == first {
		t.Error("ClearHistory should rotate the session id")
	}
	if len(a.History()) != 0 {
		t.Error("ClearHistory should drop the conversation")
	}
}

func TestGenerateImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"predictions":[{"bytesBase64Encoded":"aW1n","mimeType":"image/png"}]}`)
	}))
	defer server.Close()

	a := newTestAssistant(t, server.URL)
	images, err := a.GenerateImage(context.Background(), "a sunrise", ImageOptions{}, "AIzaKey")
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if len(images) != 1 || images[0].MIMEType != "image/png" {
		t.Errorf("Unexpected images: %+v", images)
	}
}

func TestGenerateImage_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"predictions":[]}`)
	}))
	defer server.Close()

	a := newTestAssistant(t, server.URL)
	_, err := a.GenerateImage(context.Background(), "something rejected", ImageOptions{}, "AIzaKey")
	var ere *translator.EmptyResultError
	if !errors.As(err, &ere) {
		t.Fatalf("Expected EmptyResultError, got %v", err)
	}
}

func TestGenerateImage_MissingCredential(t *testing.T) {
	transport := &countingTransport{}
	a := New(WithHTTPClient(&http.Client{Transport: transport}))

	_, err := a.GenerateImage(context.Background(), "x", ImageOptions{}, "")
	var mce *translator.MissingCredentialError
	if !errors.As(err, &mce) {
		t.Fatalf("Expected MissingCredentialError, got %v", err)
	}
	if transport.calls != 0 {
		t.Errorf("Expected zero transport invocations, got %d", transport.calls)
	}
}
