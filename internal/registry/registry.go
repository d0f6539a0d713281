// Package registry holds the static catalog of supported AI vendors.
// It is a pure lookup layer: descriptors are immutable for the process
// lifetime and everything else in the adapter reads from it.
package registry

import (
	"errors"
	"fmt"
)

// ErrUnsupportedProvider is returned when a provider id is not registered.
// Dispatch never falls back to a default on an unknown id.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Capability tags what a provider can do.
type Capability string

const (
	CapTextGeneration  Capability = "text-generation"
	CapChat            Capability = "chat"
	CapImageGeneration Capability = "image-generation"
	CapDeepReasoning   Capability = "deep-reasoning"
	CapLongContext     Capability = "long-context"
	CapMultimodal      Capability = "multimodal"
)

// Style identifies the wire format a provider speaks. Translators are
// selected by style, so new models and providers sharing a format need no
// new translation code.
type Style string

const (
	StyleOpenAIChat        Style = "openai-chat"
	StyleAnthropicMessages Style = "anthropic-messages"
	StyleGoogleGenAI       Style = "google-genai"
)

// Model tiers map a logical choice to a concrete vendor model id.
const (
	TierFast     = "fast"
	TierBalanced = "balanced"
	TierPowerful = "powerful"
)

const (
	// DefaultTextProvider is used when a caller does not name a provider.
	DefaultTextProvider = "groq"
	// DefaultImageProvider is the only provider with image generation.
	DefaultImageProvider = "google"
)

// Provider describes one external AI vendor.
type Provider struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	BaseURL      string            `yaml:"base_url"`
	Models       map[string]string `yaml:"models"`
	DefaultModel string            `yaml:"default_model"`
	ImageModel   string            `yaml:"image_model,omitempty"`
	// KeyPrefix is a UI validation hint only. The adapter never rejects a
	// credential for not matching it.
	KeyPrefix    string       `yaml:"key_prefix"`
	Capabilities []Capability `yaml:"capabilities"`
	Free         bool         `yaml:"free"`
	Style        Style        `yaml:"style"`
}

// Supports reports whether the provider carries the given capability tag.
func (p Provider) Supports(c Capability) bool {
	for _, have := range p.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// ModelForTier resolves a logical tier to a concrete model id, falling
// back to the provider default for unknown tiers.
func (p Provider) ModelForTier(tier string) string {
	if m, ok := p.Models[tier]; ok {
		return m
	}
	return p.DefaultModel
}

// Registry is the provider catalog. Lookups are read-only after
// construction, so no locking is needed.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// Default returns the built-in catalog: Groq (chat-completion style),
// Anthropic (message-API style) and Google (generative-content style).
func Default() *Registry {
	return build(
		Provider{
			ID:           "groq",
			Name:         "Groq",
			BaseURL:      "https://api.groq.com/openai/v1",
			DefaultModel: "llama-3.3-70b-versatile",
			Models: map[string]string{
				TierFast:     "llama-3.1-8b-instant",
				TierBalanced: "llama-3.3-70b-versatile",
				TierPowerful: "llama-3.3-70b-versatile",
			},
			KeyPrefix:    "gsk_",
			Capabilities: []Capability{CapTextGeneration, CapChat},
			Free:         true,
			Style:        StyleOpenAIChat,
		},
		Provider{
			ID:           "anthropic",
			Name:         "Claude",
			BaseURL:      "https://api.anthropic.com/v1",
			DefaultModel: "claude-sonnet-4-20250514",
			Models: map[string]string{
				TierFast:     "claude-3-5-haiku-20241022",
				TierBalanced: "claude-sonnet-4-20250514",
				TierPowerful: "claude-opus-4-20250514",
			},
			KeyPrefix: "sk-ant-",
			Capabilities: []Capability{
				CapTextGeneration, CapChat, CapDeepReasoning, CapLongContext,
			},
			Free:  false,
			Style: StyleAnthropicMessages,
		},
		Provider{
			ID:           "google",
			Name:         "Gemini",
			BaseURL:      "https://generativelanguage.googleapis.com/v1beta",
			DefaultModel: "gemini-2.0-flash",
			Models: map[string]string{
				TierFast:     "gemini-2.0-flash-lite",
				TierBalanced: "gemini-2.0-flash",
				TierPowerful: "gemini-2.5-pro",
			},
			ImageModel: "imagen-3.0-generate-002",
			KeyPrefix:  "AIza",
			Capabilities: []Capability{
				CapTextGeneration, CapChat, CapImageGeneration,
				CapLongContext, CapMultimodal,
			},
			Free:  true,
			Style: StyleGoogleGenAI,
		},
	)
}

func build(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

// Lookup returns the descriptor for a provider id.
func (r *Registry) Lookup(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, id)
	}
	return p, nil
}

// List returns all descriptors in registration order.
func (r *Registry) List() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}
