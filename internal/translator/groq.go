package translator

import (
	"encoding/json"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/affiliateai/copilot/internal/registry"
)

// openAIChatTranslator speaks the chat-completion wire format used by Groq
// and other OpenAI-compatible vendors. The message array goes out
// unmodified, system role included, with the credential as bearer auth.
// Wire shapes come from go-openai so they track the upstream contract.
type openAIChatTranslator struct{}

func (openAIChatTranslator) BuildRequest(p registry.Provider, messages []Message, opts Options, credential string) (*Request, error) {
	if credential == "" {
		return nil, &MissingCredentialError{Provider: p.ID}
	}

	reqMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		reqMsgs[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	body, err := json.Marshal(openai.ChatCompletionRequest{
		Model:       opts.ResolveModel(p),
		Messages:    reqMsgs,
		Temperature: float32(opts.temperature()),
		MaxTokens:   opts.maxTokens(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat completion request: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)
	header.Set("Content-Type", "application/json")

	return &Request{
		URL:    p.BaseURL + "/chat/completions",
		Header: header,
		Body:   body,
	}, nil
}

func (openAIChatTranslator) ExtractText(p registry.Provider, status int, body []byte) (string, error) {
	if status != http.StatusOK {
		var errResp openai.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil && errResp.Error.Message != "" {
			return "", &ProviderResponseError{Provider: p.ID, Status: status, Message: errResp.Error.Message}
		}
		return "", &ProviderResponseError{Provider: p.ID, Status: status, Message: snippet(body)}
	}

	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ProviderResponseError{Provider: p.ID, Message: "malformed completion payload: " + snippet(body)}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderResponseError{Provider: p.ID, Message: "completion contained no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}
