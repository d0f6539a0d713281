package prompt

import (
	"strings"
	"testing"
)

func TestSystem_ModuleAddendum(t *testing.T) {
	p := System("niche_discovery", "advanced")
	if !strings.Contains(p, "discover their ideal niche") {
		t.Error("Expected niche discovery addendum")
	}
	if !strings.Contains(p, "currently: advanced") {
		t.Error("Expected experience level in persona")
	}
}

func TestSystem_UnknownModule(t *testing.T) {
	base := System("", "beginner")
	withUnknown := System("quantum_marketing", "beginner")
	if base != withUnknown {
		t.Error("Unknown module must fall back to the bare persona")
	}
	if !strings.Contains(base, "currently: beginner") {
		t.Error("Empty experience level should default to beginner")
	}
}

func TestContent_LengthBuckets(t *testing.T) {
	cases := map[string]string{
		"short":   "200-400 words",
		"medium":  "600-1000 words",
		"long":    "1500-2500 words",
		"novella": "600-1000 words", // unknown falls back to medium
	}
	for length, want := range cases {
		p := Content(ContentRequest{Type: "blog_article", Topic: "standing desks", Length: length})
		if !strings.Contains(p, want) {
			t.Errorf("length %q: expected %q in prompt", length, want)
		}
	}
}

func TestContent_AffiliateLinkPlaceholder(t *testing.T) {
	with := Content(ContentRequest{Type: "email", Topic: "x", IncludeAffiliateLink: true})
	if !strings.Contains(with, "[AFFILIATE_LINK]") {
		t.Error("Expected affiliate link placeholder")
	}
	without := Content(ContentRequest{Type: "email", Topic: "x"})
	if strings.Contains(without, "[AFFILIATE_LINK]") {
		t.Error("Placeholder must be opt-in")
	}
}

func TestContent_Keywords(t *testing.T) {
	p := Content(ContentRequest{Type: "blog_article", Topic: "x", Keywords: []string{"ergonomic", "standing desk"}})
	if !strings.Contains(p, "ergonomic, standing desk") {
		t.Error("Keywords should be joined into the prompt")
	}
}

func TestEmailSequence_Defaults(t *testing.T) {
	p := EmailSequence(EmailSequenceRequest{Niche: "fitness"})
	if !strings.Contains(p, "5-email sequence") {
		t.Error("Default length should be 5")
	}
	if !strings.Contains(p, "Goal: sale") {
		t.Error("Default goal should be sale")
	}
}

func TestProductRecommendations_BothPlatforms(t *testing.T) {
	p := ProductRecommendations("yoga", "both")
	if !strings.Contains(p, "ClickBank and Amazon") {
		t.Error("both should expand to the two platforms")
	}
}

func TestKnownContentType(t *testing.T) {
	if !KnownContentType("blog_article") {
		t.Error("blog_article should be known")
	}
	if KnownContentType("podcast") {
		t.Error("podcast should be unknown")
	}
}
