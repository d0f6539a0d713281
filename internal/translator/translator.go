// Package translator converts provider-agnostic message lists into each
// vendor's wire format and extracts generated text from vendor responses.
// Translators are pure: they build requests and parse bodies but never
// perform network I/O themselves.
package translator

import (
	"fmt"
	"net/http"

	"github.com/affiliateai/copilot/internal/registry"
)

// Roles for chat messages. System instructions are translated differently
// per provider: kept in-array for chat-completion vendors, hoisted into a
// dedicated field for the others.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one ordered role/content pair of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configure a single generation call. The zero value is usable:
// defaults are the provider's default model, temperature 0.7 and 4096
// output tokens.
type Options struct {
	// Model is an explicit vendor model id. Takes precedence over Tier.
	Model string
	// Tier is a logical model tier (fast/balanced/powerful).
	Tier string
	// Temperature is the sampling temperature. Nil means 0.7.
	Temperature *float64
	// MaxTokens caps the output length. Zero means 4096.
	MaxTokens int
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
)

// ResolveModel picks the concrete model id for a provider.
func (o Options) ResolveModel(p registry.Provider) string {
	if o.Model != "" {
		return o.Model
	}
	if o.Tier != "" {
		return p.ModelForTier(o.Tier)
	}
	return p.DefaultModel
}

func (o Options) temperature() float64 {
	if o.Temperature == nil {
		return defaultTemperature
	}
	return *o.Temperature
}

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return o.MaxTokens
}

// Temp is a convenience for building a temperature pointer in Options.
func Temp(t float64) *float64 {
	return &t
}

// Request is a fully built vendor HTTP request, ready to dispatch.
type Request struct {
	URL    string
	Header http.Header
	Body   []byte
}

// Translator is the per-wire-format request builder / response extractor
// pair. BuildRequest fails with *MissingCredentialError before any network
// activity when no credential is supplied. ExtractText fails with
// *ProviderResponseError when the body does not contain the expected
// success shape, carrying the vendor's own error message when available.
type Translator interface {
	BuildRequest(p registry.Provider, messages []Message, opts Options, credential string) (*Request, error)
	ExtractText(p registry.Provider, status int, body []byte) (string, error)
}

// ForStyle returns the translator implementing a wire style.
func ForStyle(s registry.Style) (Translator, error) {
	switch s {
	case registry.StyleOpenAIChat:
		return openAIChatTranslator{}, nil
	case registry.StyleAnthropicMessages:
		return anthropicTranslator{}, nil
	case registry.StyleGoogleGenAI:
		return googleTranslator{}, nil
	default:
		return nil, fmt.Errorf("no translator for wire style %q", s)
	}
}

// snippet bounds vendor payload excerpts embedded in error messages.
func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
