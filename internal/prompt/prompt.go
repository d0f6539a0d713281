// Package prompt builds the instruction text sent to the model for each
// assistant task. Templates embed caller parameters; the response side of
// the contract (JSON recovery) lives in the extract package.
package prompt

import (
	"fmt"
	"strings"
)

// JSONOnly is the system instruction for analytical tasks whose responses
// are parsed as structured data.
func JSONOnly(role string) string {
	return fmt.Sprintf("You are %s. Respond only with valid JSON.", role)
}

const basePersona = `You are an expert affiliate marketing AI assistant for AffiliateAI Pro.
You help users build successful affiliate marketing businesses from scratch to generating passive income.

Your expertise includes:
- Finding profitable niches with low competition and high demand
- Product research on ClickBank and Amazon Associates
- Creating high-converting content (blog posts, social media, emails, YouTube scripts)
- SEO optimization and keyword research
- Marketing strategy and campaign planning
- Conversion optimization and analytics

Guidelines:
- Be specific and actionable in your advice
- Provide real examples when possible
- Consider the user's experience level (currently: %s)
- Focus on practical, implementable strategies
- Always consider ROI and profitability
- Be encouraging but realistic about expectations`

// moduleAddendums are context-specific focus blocks keyed by the module
// the user is working in. Unknown modules simply get no addendum.
var moduleAddendums = map[string]string{
	"niche_discovery": `

Current Focus: Helping user discover their ideal niche.
Analyze niches based on: profitability, competition level, audience size, and user interests.`,
	"product_research": `

Current Focus: Finding affiliate products to promote.
Evaluate products based on: commission rates, gravity/popularity, customer reviews, and conversion potential.`,
	"content_creation": `

Current Focus: Creating marketing content.
Generate engaging, SEO-optimized content that converts.`,
	"seo": `

Current Focus: SEO and keyword optimization.
Provide keyword suggestions with search intent, difficulty estimates, and content strategies.`,
}

// System builds the chat persona prompt for a module and experience level.
func System(module, experienceLevel string) string {
	if experienceLevel == "" {
		experienceLevel = "beginner"
	}
	return fmt.Sprintf(basePersona, experienceLevel) + moduleAddendums[module]
}

// NicheAnalysis asks for a structured niche assessment.
func NicheAnalysis(niche, subNiche string) string {
	var sub string
	if subNiche != "" {
		sub = fmt.Sprintf("Sub-niche: %s\n", subNiche)
	}
	return fmt.Sprintf(`Analyze the affiliate marketing potential of this niche:

Niche: %s
%s
Provide a detailed analysis in JSON format with these fields:
{
    "profitability_score": (1-100),
    "competition_level": "low" | "medium" | "high",
    "market_size": "description of market size",
    "trending": true/false,
    "target_audience": "description",
    "pain_points": ["list of audience pain points"],
    "monetization_opportunities": ["list of ways to monetize"],
    "recommended_products": ["types of products to promote"],
    "content_ideas": ["5 content topic ideas"],
    "challenges": ["potential challenges"],
    "recommendation": "overall recommendation text"
}

Be realistic and data-informed in your analysis.`, niche, sub)
}

// lengthGuide maps the target length bucket to a word range the model can
// follow.
var lengthGuide = map[string]string{
	"short":  "200-400 words",
	"medium": "600-1000 words",
	"long":   "1500-2500 words",
}

// LengthGuide resolves a length bucket, defaulting to medium.
func LengthGuide(length string) string {
	if g, ok := lengthGuide[length]; ok {
		return g
	}
	return lengthGuide["medium"]
}

// ContentRequest carries the parameters of a content generation task.
type ContentRequest struct {
	Type                 string
	Topic                string
	Product              string
	Keywords             []string
	Tone                 string
	Length               string
	Platform             string
	IncludeAffiliateLink bool
}

func (r ContentRequest) withDefaults() ContentRequest {
	if r.Tone == "" {
		r.Tone = "professional"
	}
	if r.Platform == "" {
		r.Platform = "blog"
	}
	return r
}

// Content asks for a structured marketing content piece.
func Content(req ContentRequest) string {
	req = req.withDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "Create %s content for affiliate marketing.\n\n", req.Type)
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	if req.Product != "" {
		fmt.Fprintf(&b, "Product to Promote: %s\n", req.Product)
	}
	fmt.Fprintf(&b, "Platform: %s\n", req.Platform)
	fmt.Fprintf(&b, "Target Length: %s\n", LengthGuide(req.Length))
	fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "Target Keywords: %s\n", strings.Join(req.Keywords, ", "))
	}

	b.WriteString(`
Requirements:
1. Create engaging, valuable content that provides real value to readers
2. Naturally incorporate the product recommendation
3. Include a compelling hook/opening
`)
	if req.IncludeAffiliateLink {
		b.WriteString("4. Include [AFFILIATE_LINK] placeholder where the link should go\n")
	}
	b.WriteString(`5. End with a clear call-to-action
6. Optimize for SEO if applicable

Respond with JSON format:
{
    "title": "content title",
    "hook": "attention-grabbing opening line",
    "content": "full content body",
    "call_to_action": "CTA text",
    "meta_description": "SEO meta description (155 chars)",
    "suggested_hashtags": ["relevant hashtags"],
    "seo_keywords": ["keywords used"]
}`)
	return b.String()
}

// KeywordResearch asks for keyword suggestions around a niche.
func KeywordResearch(niche, seedKeyword string) string {
	var seed string
	if seedKeyword != "" {
		seed = fmt.Sprintf("Seed Keyword: %s\n", seedKeyword)
	}
	return fmt.Sprintf(`Generate keyword research for affiliate marketing.

Niche: %s
%s
Provide 15 keyword suggestions in JSON format:
{
    "keywords": [
        {
            "keyword": "keyword phrase",
            "search_intent": "informational" | "commercial" | "transactional",
            "difficulty": "low" | "medium" | "high",
            "estimated_volume": "low" | "medium" | "high",
            "is_long_tail": true/false,
            "content_type": "suggested content type for this keyword"
        }
    ],
    "topic_clusters": ["related topic clusters to target"]
}`, niche, seed)
}

// EmailSequenceRequest carries the parameters of an email sequence task.
type EmailSequenceRequest struct {
	Niche   string
	Product string
	Goal    string
	Length  int
}

// EmailSequence asks for a drip sequence of emails.
func EmailSequence(req EmailSequenceRequest) string {
	if req.Length <= 0 {
		req.Length = 5
	}
	if req.Goal == "" {
		req.Goal = "sale"
	}
	product := req.Product
	if product == "" {
		product = "affiliate product"
	}
	return fmt.Sprintf(`Create a %d-email sequence for affiliate marketing.

Niche: %s
Product: %s
Goal: %s

Respond in JSON format:
{
    "sequence_name": "name of the sequence",
    "description": "brief description",
    "emails": [
        {
            "day": 0,
            "subject_line": "email subject",
            "preview_text": "preview text",
            "purpose": "what this email accomplishes",
            "content": "full email body",
            "call_to_action": "CTA for this email"
        }
    ]
}`, req.Length, req.Niche, product, req.Goal)
}

// ProductRecommendations asks which affiliate products fit a niche.
func ProductRecommendations(niche, platform string) string {
	platformLabel := platform
	if platform == "" || platform == "both" {
		platformLabel = "ClickBank and Amazon"
	}
	return fmt.Sprintf(`Suggest affiliate products to promote in the %s niche.

Platform: %s

Provide recommendations in JSON format:
{
    "recommendations": [
        {
            "platform": "clickbank" | "amazon",
            "product_type": "type of product",
            "product_characteristics": "what to look for",
            "target_commission": "expected commission range",
            "target_audience": "who would buy this",
            "promotion_strategy": "how to promote",
            "content_angles": ["angles for content creation"]
        }
    ],
    "niche_insights": "insights about this niche for product selection",
    "avoid": ["types of products to avoid and why"]
}`, niche, platformLabel)
}

// ImagePrompt asks the model to write a generation prompt for a marketing
// visual. The reply is used verbatim, so no JSON contract here.
func ImagePrompt(topic, style string) string {
	if style == "" {
		style = "clean, modern, photorealistic"
	}
	return fmt.Sprintf(`Write a single detailed image generation prompt for a marketing visual.

Subject: %s
Style: %s

Describe composition, lighting, mood and color palette in one paragraph.
Reply with the prompt text only, no preamble and no quotation marks.`, topic, style)
}
