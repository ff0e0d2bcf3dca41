package providers

import (
	"strings"
	"testing"

	"jobscout/pkg/models"
)

func TestCleanJSONResponse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"url": "x"}`, `{"url": "x"}`},
		{"json fence", "```json\n{\"url\": \"x\"}\n```", `{"url": "x"}`},
		{"bare fence", "```\n{\"url\": \"x\"}\n```", `{"url": "x"}`},
		{"surrounding whitespace", "  \n{\"url\": \"x\"}\n  ", `{"url": "x"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanJSONResponse(tc.in); got != tc.want {
				t.Errorf("cleanJSONResponse(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate kept = %q", got)
	}
	long := strings.Repeat("a", 20)
	got := truncate(long, 10)
	if len(got) != 13 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate(long, 10) = %q", got)
	}
}

func TestBuildRankLinksPromptListsCandidates(t *testing.T) {
	p := &ClaudeProvider{}
	links := []models.CandidateLink{
		{URL: "https://acme.com/careers", Text: "Careers"},
		{URL: "https://acme.com/about", Text: "About"},
	}

	prompt := p.buildRankLinksPrompt("Acme", links)

	if !strings.Contains(prompt, "https://acme.com/careers") {
		t.Error("candidate URL missing from prompt")
	}
	if !strings.Contains(prompt, `"Acme"`) {
		t.Error("company name missing from prompt")
	}
	if !strings.Contains(prompt, `{"url": "", "confidence": 0, "reason": "no career link found"}`) {
		t.Error("empty-choice instruction missing from prompt")
	}
}

func TestBuildExtractionPromptEmbedsContent(t *testing.T) {
	p := &ClaudeProvider{}
	prompt := p.buildExtractionPrompt("Acme", "https://acme.com/careers", "Backend Engineer - Berlin")

	if !strings.Contains(prompt, "Backend Engineer - Berlin") {
		t.Error("page content missing from prompt")
	}
	if !strings.Contains(prompt, `"jobs": [`) {
		t.Error("response schema missing from prompt")
	}
}
