package translator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/affiliateai/copilot/internal/registry"
)

// googleTranslator speaks the generative-content wire format. The
// system-role message becomes systemInstruction, assistant maps to the
// model role, generation parameters move under generationConfig and the
// credential is a URL query parameter rather than a header.
type googleTranslator struct{}

type googleRequest struct {
	SystemInstruction *googleContent         `json:"systemInstruction,omitempty"`
	Contents          []googleContent        `json:"contents"`
	GenerationConfig  googleGenerationConfig `json:"generationConfig"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type googleResponse struct {
	Candidates []googleCandidate `json:"candidates"`
	Error      *googleError      `json:"error,omitempty"`
}

type googleCandidate struct {
	Content googleContent `json:"content"`
}

type googleError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (googleTranslator) BuildRequest(p registry.Provider, messages []Message, opts Options, credential string) (*Request, error) {
	if credential == "" {
		return nil, &MissingCredentialError{Provider: p.ID}
	}

	req := googleRequest{
		GenerationConfig: googleGenerationConfig{
			Temperature:     opts.temperature(),
			MaxOutputTokens: opts.maxTokens(),
		},
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			req.SystemInstruction = &googleContent{
				Parts: []googlePart{{Text: m.Content}},
			}
		case RoleAssistant:
			req.Contents = append(req.Contents, googleContent{
				Role:  "model",
				Parts: []googlePart{{Text: m.Content}},
			})
		default:
			req.Contents = append(req.Contents, googleContent{
				Role:  "user",
				Parts: []googlePart{{Text: m.Content}},
			})
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate-content request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.BaseURL, opts.ResolveModel(p), url.QueryEscape(credential))

	return &Request{
		URL:    endpoint,
		Header: header,
		Body:   body,
	}, nil
}

func (googleTranslator) ExtractText(p registry.Provider, status int, body []byte) (string, error) {
	var resp googleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ProviderResponseError{Provider: p.ID, Status: status, Message: "malformed generate-content payload: " + snippet(body)}
	}
	if resp.Error != nil {
		return "", &ProviderResponseError{Provider: p.ID, Status: status, Message: resp.Error.Message}
	}
	if status != http.StatusOK {
		return "", &ProviderResponseError{Provider: p.ID, Status: status, Message: snippet(body)}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &ProviderResponseError{Provider: p.ID, Message: "response contained no candidates"}
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
