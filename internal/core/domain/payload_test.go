package domain

import "testing"

func TestPassageFromPayloadNestedLayout(t *testing.T) {
	p := PassageFromPayload(map[string]any{
		"page_content": "Current Cohort Price: 40,000",
		"metadata": map[string]any{
			"source":       "https://nextleap.app/course/product-management",
			"section_type": "pricing",
			"title":        "Pricing and Cohort",
		},
	}, 0.83)

	if p.Content != "Current Cohort Price: 40,000" || p.Score != 0.83 {
		t.Fatalf("unexpected passage: %+v", p)
	}
	if p.Metadata[MetaHeading] != "Pricing and Cohort" || p.Metadata[MetaType] != "pricing" {
		t.Fatalf("legacy keys not mapped: %v", p.Metadata)
	}
	if p.Metadata[MetaSource] != "https://nextleap.app/course/product-management" {
		t.Fatalf("unexpected source: %v", p.Metadata)
	}
}

func TestPassageFromPayloadFlatLayout(t *testing.T) {
	p := PassageFromPayload(map[string]any{
		"text":    "Classes on weekends",
		"heading": "Schedule",
		"title":   "ignored because heading is set",
		"order":   float64(3),
	}, 0.9)

	if p.Content != "Classes on weekends" {
		t.Fatalf("unexpected content %q", p.Content)
	}
	if p.Metadata[MetaHeading] != "Schedule" {
		t.Fatalf("explicit heading must win, got %q", p.Metadata[MetaHeading])
	}
	if p.Metadata["order"] != "3" {
		t.Fatalf("expected integer formatting, got %q", p.Metadata["order"])
	}
	if _, ok := p.Metadata["text"]; ok {
		t.Fatalf("content key leaked into metadata")
	}
}
