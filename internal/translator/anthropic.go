package translator

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/affiliateai/copilot/internal/registry"
)

// anthropicVersion is the fixed protocol version header the message API
// requires on every call.
const anthropicVersion = "2023-06-01"

// anthropicTranslator speaks the Anthropic message API. The system-role
// message is hoisted into the dedicated top-level system field and removed
// from the outgoing array; the credential travels in x-api-key rather than
// bearer auth.
type anthropicTranslator struct{}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Error   *anthropicError         `json:"error,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (anthropicTranslator) BuildRequest(p registry.Provider, messages []Message, opts Options, credential string) (*Request, error) {
	if credential == "" {
		return nil, &MissingCredentialError{Provider: p.ID}
	}

	var system string
	outMsgs := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = m.Content
			continue
		}
		outMsgs = append(outMsgs, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       opts.ResolveModel(p),
		MaxTokens:   opts.maxTokens(),
		System:      system,
		Messages:    outMsgs,
		Temperature: opts.temperature(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message request: %w", err)
	}

	header := http.Header{}
	header.Set("x-api-key", credential)
	header.Set("anthropic-version", anthropicVersion)
	header.Set("content-type", "application/json")

	return &Request{
		URL:    p.BaseURL + "/messages",
		Header: header,
		Body:   body,
	}, nil
}

func (anthropicTranslator) ExtractText(p registry.Provider, status int, body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ProviderResponseError{Provider: p.ID, Status: status, Message: "malformed message payload: " + snippet(body)}
	}
	if resp.Error != nil {
		return "", &ProviderResponseError{Provider: p.ID, Status: status, Message: resp.Error.Message}
	}
	if status != http.StatusOK {
		return "", &ProviderResponseError{Provider: p.ID, Status: status, Message: snippet(body)}
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == "" {
		return "", &ProviderResponseError{Provider: p.ID, Message: "message contained no text content"}
	}
	return resp.Content[0].Text, nil
}
