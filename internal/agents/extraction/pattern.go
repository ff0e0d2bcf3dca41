package extraction

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"jobscout/pkg/models"
)

// jobContainerSelectors are tried in order; the first selector yielding
// repeated listing-shaped elements wins.
var jobContainerSelectors = []string{
	"[class*='job-listing']", "[class*='job-item']", "[class*='job-card']",
	"[class*='opening']", "[class*='position']", "[class*='vacancy']",
	"ul[class*='job'] li", "div[class*='job'] a[href]",
	"[data-job-id]", "[data-qa*='posting']",
}

// jobPathHints mark anchor hrefs that point at individual postings
var jobPathHints = []string{
	"/job/", "/jobs/", "/position/", "/positions/", "/opening/", "/openings/",
	"/careers/", "/vacancy/", "/vacancies/", "/role/",
	"greenhouse.io", "lever.co", "workable.com", "ashbyhq.com", "bamboohr.com",
}

var roleWords = []string{
	"engineer", "developer", "designer", "manager", "analyst", "scientist",
	"architect", "specialist", "consultant", "director", "lead", "intern",
	"marketing", "sales", "product", "support", "recruiter", "writer",
	"accountant", "counsel", "devops", "administrator", "researcher",
}

// extractByPattern walks common repeated-markup shapes of career pages and
// builds listings from anchors that look like individual postings.
func extractByPattern(html, pageURL, companyName string) ([]models.JobListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, _ := url.Parse(pageURL)

	// Pass 1: recognizable listing containers
	for _, selector := range jobContainerSelectors {
		nodes := doc.Find(selector)
		if nodes.Length() < 2 {
			continue
		}
		listings := listingsFromContainers(nodes, base, companyName)
		if len(listings) >= 2 {
			return listings, nil
		}
	}

	// Pass 2: anchors whose href or text looks like a posting
	listings := listingsFromAnchors(doc, base, companyName)
	if len(listings) == 0 {
		return nil, fmt.Errorf("no job-shaped markup found on page")
	}
	return listings, nil
}

func listingsFromContainers(nodes *goquery.Selection, base *url.URL, companyName string) []models.JobListing {
	var listings []models.JobListing

	nodes.Each(func(_ int, s *goquery.Selection) {
		title, href := titleAndLink(s)
		if title == "" || !looksLikeRoleTitle(title) {
			return
		}

		listing := models.JobListing{
			Title:            title,
			CompanyName:      companyName,
			ApplicationURL:   absoluteURL(base, href),
			Location:         findLocationHint(s),
			ExtractionMethod: models.ExtractionHTMLPattern,
			SourceExcerpt:    excerpt(s),
		}
		listings = append(listings, listing)
	})

	return models.DeduplicateListings(listings)
}

func listingsFromAnchors(doc *goquery.Document, base *url.URL, companyName string) []models.JobListing {
	var listings []models.JobListing

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		title := strings.Join(strings.Fields(s.Text()), " ")
		if title == "" || len(title) > 120 {
			return
		}

		if !hasJobPath(href) && !looksLikeRoleTitle(title) {
			return
		}
		// Anchors with job-ish paths but navigation-ish text are noise
		if hasJobPath(href) && !looksLikeRoleTitle(title) && len(strings.Fields(title)) < 2 {
			return
		}

		listings = append(listings, models.JobListing{
			Title:            title,
			CompanyName:      companyName,
			ApplicationURL:   absoluteURL(base, href),
			ExtractionMethod: models.ExtractionHTMLPattern,
		})
	})

	return models.DeduplicateListings(listings)
}

// titleAndLink finds the most title-like text in a listing container
func titleAndLink(s *goquery.Selection) (string, string) {
	for _, sel := range []string{"h1", "h2", "h3", "h4", "a[href]", "[class*='title']"} {
		node := s.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		title := strings.Join(strings.Fields(node.Text()), " ")
		if title == "" {
			continue
		}
		href, _ := node.Attr("href")
		if href == "" {
			href, _ = s.Find("a[href]").First().Attr("href")
		}
		return title, href
	}

	if goquery.NodeName(s) == "a" {
		href, _ := s.Attr("href")
		return strings.Join(strings.Fields(s.Text()), " "), href
	}
	return "", ""
}

func findLocationHint(s *goquery.Selection) string {
	for _, sel := range []string{"[class*='location']", "[class*='city']", "[data-location]"} {
		if node := s.Find(sel).First(); node.Length() > 0 {
			return strings.Join(strings.Fields(node.Text()), " ")
		}
	}
	return ""
}

func looksLikeRoleTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, word := range roleWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func hasJobPath(href string) bool {
	lower := strings.ToLower(href)
	for _, hint := range jobPathHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func absoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func excerpt(s *goquery.Selection) string {
	text := strings.Join(strings.Fields(s.Text()), " ")
	if len(text) > 300 {
		cut := 300
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

// countRoleAnchors estimates how many individual postings a page links to.
// The extraction agent uses it to judge whether a small result is complete
// or a sign the strategy missed listings.
func countRoleAnchors(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	count := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.Join(strings.Fields(s.Text()), " ")
		if hasJobPath(href) || looksLikeRoleTitle(text) {
			count++
		}
	})
	return count
}
