package processors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLCleaner reduces raw career page HTML to content suitable for LLM
// consumption: noise elements stripped, text compacted, application links
// preserved inline.
type HTMLCleaner struct {
	noiseSelectors []string
}

// NewHTMLCleaner creates a new HTML cleaner instance
func NewHTMLCleaner() *HTMLCleaner {
	return &HTMLCleaner{
		noiseSelectors: []string{
			"script", "style", "noscript", "iframe", "svg",
			"nav", "header", "footer", "aside",
			".cookie-banner", ".cookie-consent", "#cookie-banner",
			".newsletter", ".social-links", ".breadcrumb",
		},
	}
}

// CleanPageContent strips noise from the HTML document and returns the
// remaining text. Anchor hrefs are kept inline so the LLM can recover
// application URLs.
func (c *HTMLCleaner) CleanPageContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, selector := range c.noiseSelectors {
		doc.Find(selector).Remove()
	}

	// Keep hrefs visible in the text output
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if text != "" && href != "" && !strings.HasPrefix(href, "#") {
			s.SetText(fmt.Sprintf("%s (%s)", text, href))
		}
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	return compactWhitespace(body.Text()), nil
}

var (
	multiSpaceRe   = regexp.MustCompile(`[ \t]+`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

func compactWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpaceRe.ReplaceAllString(line, " "))
	}
	out := strings.Join(lines, "\n")
	out = multiNewlineRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
