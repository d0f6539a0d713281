// Package adapter is the unified entry point for AI generation. An
// Assistant dispatches provider-agnostic calls to the right wire
// translator, owns an in-memory conversation history for the chat task,
// and exposes the higher-level marketing task methods.
package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/affiliateai/copilot/internal/observe"
	"github.com/affiliateai/copilot/internal/prompt"
	"github.com/affiliateai/copilot/internal/registry"
	"github.com/affiliateai/copilot/internal/translator"
)

// Message and Options are re-exported so callers deal with one package.
type (
	Message = translator.Message
	Options = translator.Options
)

// historyWindow caps how many history entries accompany a chat request.
// Older entries stay in memory but are dropped from the outgoing call.
const historyWindow = 10

const defaultTimeout = 120 * time.Second

// Assistant is the unified client. Each instance exclusively owns its own
// conversation history and session id; callers needing independent
// conversation threads construct separate instances. Credentials are
// supplied on every call and never cached.
type Assistant struct {
	registry *registry.Registry
	client   *http.Client
	obs      *observe.Observer

	mu        sync.Mutex
	history   []Message
	sessionID string
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithRegistry replaces the built-in provider catalog.
func WithRegistry(r *registry.Registry) Option {
	return func(a *Assistant) { a.registry = r }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Assistant) { a.client = c }
}

// WithObserver sets the logger/tracer. The default observer is silent
// below warning level.
func WithObserver(o *observe.Observer) Option {
	return func(a *Assistant) { a.obs = o }
}

// New constructs an Assistant with an empty conversation and a fresh
// session id.
func New(opts ...Option) *Assistant {
	a := &Assistant{
		registry:  registry.Default(),
		client:    &http.Client{Timeout: defaultTimeout},
		obs:       observe.New(os.Stderr, false),
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SessionID returns the current session identifier. It rotates on every
// ClearHistory and is not otherwise meaningful.
func (a *Assistant) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

// History returns a copy of the full conversation history.
func (a *Assistant) History() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, len(a.history))
	copy(out, a.history)
	return out
}

// ClearHistory drops the conversation and rotates the session id.
func (a *Assistant) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
	a.sessionID = uuid.NewString()
}

// GenerateText sends a message list to a provider and returns the raw
// generated text. An empty providerID selects the default text provider.
// MissingCredentialError and ProviderResponseError surface unchanged;
// transport failures are wrapped as *TransportError. No retries and no
// provider fallback happen at this layer.
func (a *Assistant) GenerateText(ctx context.Context, messages []Message, opts Options, credential, providerID string) (string, error) {
	ctx, span := a.obs.StartSpan(ctx, "GenerateText")
	defer span.End()

	if providerID == "" {
		providerID = registry.DefaultTextProvider
	}

	p, err := a.registry.Lookup(providerID)
	if err != nil {
		return "", err
	}
	tr, err := translator.ForStyle(p.Style)
	if err != nil {
		return "", err
	}

	req, err := tr.BuildRequest(p, messages, opts, credential)
	if err != nil {
		return "", err
	}

	status, body, err := a.dispatch(ctx, p.ID, req)
	if err != nil {
		return "", err
	}

	text, err := tr.ExtractText(p, status, body)
	if err != nil {
		a.obs.Log().Warn().Str("provider", p.ID).Err(err).Msg("provider response rejected")
		return "", err
	}

	a.obs.Log().Info().
		Str("provider", p.ID).
		Int("messages", len(messages)).
		Int("response_bytes", len(text)).
		Msg("generation complete")
	return text, nil
}

// dispatch performs the HTTP round trip for a built request.
func (a *Assistant) dispatch(ctx context.Context, providerID string, req *translator.Request) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header = req.Header

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return 0, nil, &TransportError{Provider: providerID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Provider: providerID, Err: err}
	}
	return resp.StatusCode, body, nil
}

// ChatContext selects the persona addendum and experience level for a
// chat turn.
type ChatContext struct {
	// Module keys a context-specific persona addendum. Unknown modules
	// fall back to the bare persona.
	Module string
	// ExperienceLevel hints at how much hand-holding the reply needs.
	ExperienceLevel string
}

// Chat runs one turn of the continuous assistant conversation. The user
// entry is appended before the call; the assistant entry only after a
// successful response, so a timed-out call never speculatively mutates
// the transcript. On failure the pending user entry is left in place: a
// retry re-sends the same text without duplicating completed turns.
func (a *Assistant) Chat(ctx context.Context, userText string, chatCtx ChatContext, credential, providerID string) (string, error) {
	ctx, span := a.obs.StartSpan(ctx, "Chat")
	defer span.End()

	system := Message{
		Role:    translator.RoleSystem,
		Content: prompt.System(chatCtx.Module, chatCtx.ExperienceLevel),
	}

	a.mu.Lock()
	a.history = append(a.history, Message{Role: translator.RoleUser, Content: userText})
	window := a.history
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}
	messages := make([]Message, 0, len(window)+1)
	messages = append(messages, system)
	messages = append(messages, window...)
	a.mu.Unlock()

	reply, err := a.GenerateText(ctx, messages, Options{}, credential, providerID)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.history = append(a.history, Message{Role: translator.RoleAssistant, Content: reply})
	a.mu.Unlock()

	return reply, nil
}
