package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/affiliateai/copilot/internal/extract"
	"github.com/affiliateai/copilot/internal/prompt"
	"github.com/affiliateai/copilot/internal/translator"
)

// ContentPrompt and EmailSequencePrompt re-export the prompt request
// shapes so callers need only this package.
type (
	ContentPrompt       = prompt.ContentRequest
	EmailSequencePrompt = prompt.EmailSequenceRequest
)

// NicheAnalysis is the structured assessment of one niche.
type NicheAnalysis struct {
	ProfitabilityScore        int      `json:"profitability_score"`
	CompetitionLevel          string   `json:"competition_level"`
	MarketSize                string   `json:"market_size"`
	Trending                  bool     `json:"trending"`
	TargetAudience            string   `json:"target_audience"`
	PainPoints                []string `json:"pain_points"`
	MonetizationOpportunities []string `json:"monetization_opportunities"`
	RecommendedProducts       []string `json:"recommended_products"`
	ContentIdeas              []string `json:"content_ideas"`
	Challenges                []string `json:"challenges"`
	Recommendation            string   `json:"recommendation"`
}

// ContentPiece is one generated marketing content item.
type ContentPiece struct {
	Title             string   `json:"title"`
	Hook              string   `json:"hook"`
	Content           string   `json:"content"`
	CallToAction      string   `json:"call_to_action"`
	MetaDescription   string   `json:"meta_description"`
	SuggestedHashtags []string `json:"suggested_hashtags"`
	SEOKeywords       []string `json:"seo_keywords"`
}

// Keyword is one researched keyword suggestion.
type Keyword struct {
	Keyword         string `json:"keyword"`
	SearchIntent    string `json:"search_intent"`
	Difficulty      string `json:"difficulty"`
	EstimatedVolume string `json:"estimated_volume"`
	IsLongTail      bool   `json:"is_long_tail"`
	ContentType     string `json:"content_type"`
}

// KeywordResearch is the structured keyword research result.
type KeywordResearch struct {
	Keywords      []Keyword `json:"keywords"`
	TopicClusters []string  `json:"topic_clusters"`
}

// SequenceEmail is one message of a drip sequence.
type SequenceEmail struct {
	Day          int    `json:"day"`
	SubjectLine  string `json:"subject_line"`
	PreviewText  string `json:"preview_text"`
	Purpose      string `json:"purpose"`
	Content      string `json:"content"`
	CallToAction string `json:"call_to_action"`
}

// EmailSequence is a generated drip campaign.
type EmailSequence struct {
	SequenceName string          `json:"sequence_name"`
	Description  string          `json:"description"`
	Emails       []SequenceEmail `json:"emails"`
}

// ProductRecommendation describes one kind of product worth promoting.
type ProductRecommendation struct {
	Platform               string   `json:"platform"`
	ProductType            string   `json:"product_type"`
	ProductCharacteristics string   `json:"product_characteristics"`
	TargetCommission       string   `json:"target_commission"`
	TargetAudience         string   `json:"target_audience"`
	PromotionStrategy      string   `json:"promotion_strategy"`
	ContentAngles          []string `json:"content_angles"`
}

// ProductRecommendations is the structured product research result.
type ProductRecommendations struct {
	Recommendations []ProductRecommendation `json:"recommendations"`
	NicheInsights   string                  `json:"niche_insights"`
	Avoid           []string                `json:"avoid"`
}

// runStructuredTask performs the shared task-method flow: fixed system
// role, task prompt, tuned temperature, then structured recovery into out.
func (a *Assistant) runStructuredTask(ctx context.Context, task, systemRole, userPrompt string, temperature float64, credential, providerID string, out any) error {
	ctx, span := a.obs.StartSpan(ctx, task)
	defer span.End()

	messages := []Message{
		{Role: translator.RoleSystem, Content: prompt.JSONOnly(systemRole)},
		{Role: translator.RoleUser, Content: userPrompt},
	}

	text, err := a.GenerateText(ctx, messages, Options{Temperature: translator.Temp(temperature)}, credential, providerID)
	if err != nil {
		return err
	}

	raw, err := extract.Object(text)
	if err != nil {
		return &GenerationError{Task: task, Err: err}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		// A field with a surprising type still fills the rest of the
		// struct; only a wholesale decode failure aborts the task.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return &GenerationError{Task: task, Err: err}
		}
		a.obs.Log().Warn().Str("task", task).Err(err).Msg("partial structured result")
	}
	return nil
}

// AnalyzeNiche assesses the affiliate potential of a niche.
func (a *Assistant) AnalyzeNiche(ctx context.Context, niche, subNiche, credential, providerID string) (*NicheAnalysis, error) {
	var out NicheAnalysis
	err := a.runStructuredTask(ctx, "niche_analysis",
		"a niche analysis expert",
		prompt.NicheAnalysis(niche, subNiche),
		0.3, credential, providerID, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateContent creates one marketing content piece.
func (a *Assistant) GenerateContent(ctx context.Context, req prompt.ContentRequest, credential, providerID string) (*ContentPiece, error) {
	var out ContentPiece
	err := a.runStructuredTask(ctx, "content_generation",
		"an expert content creator for affiliate marketing",
		prompt.Content(req),
		0.7, credential, providerID, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateKeywords researches keywords around a niche.
func (a *Assistant) GenerateKeywords(ctx context.Context, niche, seedKeyword, credential, providerID string) (*KeywordResearch, error) {
	var out KeywordResearch
	err := a.runStructuredTask(ctx, "keyword_research",
		"an SEO and keyword research expert",
		prompt.KeywordResearch(niche, seedKeyword),
		0.4, credential, providerID, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateEmailSequence creates a drip campaign.
func (a *Assistant) GenerateEmailSequence(ctx context.Context, req prompt.EmailSequenceRequest, credential, providerID string) (*EmailSequence, error) {
	var out EmailSequence
	err := a.runStructuredTask(ctx, "email_sequence",
		"an email marketing expert",
		prompt.EmailSequence(req),
		0.7, credential, providerID, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RecommendProducts suggests affiliate products for a niche.
func (a *Assistant) RecommendProducts(ctx context.Context, niche, platform, credential, providerID string) (*ProductRecommendations, error) {
	var out ProductRecommendations
	err := a.runStructuredTask(ctx, "product_recommendations",
		"an affiliate product research expert",
		prompt.ProductRecommendations(niche, platform),
		0.5, credential, providerID, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateImagePrompt asks the model to write an image generation prompt.
// Unlike the other task methods the reply is used verbatim: trimmed raw
// text, no structured recovery.
func (a *Assistant) GenerateImagePrompt(ctx context.Context, topic, style, credential, providerID string) (string, error) {
	ctx, span := a.obs.StartSpan(ctx, "image_prompt")
	defer span.End()

	messages := []Message{
		{Role: translator.RoleUser, Content: prompt.ImagePrompt(topic, style)},
	}
	text, err := a.GenerateText(ctx, messages, Options{Temperature: translator.Temp(0.8)}, credential, providerID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
