package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobscout/pkg/models"
)

// extractStructuredData pulls JobPosting objects out of schema.org JSON-LD
// blocks. Sites embedding these give us perfectly structured listings for
// free, so this strategy runs first.
func extractStructuredData(html, companyName string) ([]models.JobListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var listings []models.JobListing

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var payload interface{}
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return
		}
		collectJobPostings(payload, companyName, &listings)
	})

	if len(listings) == 0 {
		return nil, fmt.Errorf("no JobPosting structured data on page")
	}

	return listings, nil
}

// collectJobPostings walks arbitrarily nested JSON-LD (top-level arrays,
// @graph containers, ItemList elements) collecting JobPosting nodes.
func collectJobPostings(node interface{}, companyName string, out *[]models.JobListing) {
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			collectJobPostings(item, companyName, out)
		}
	case map[string]interface{}:
		if isType(v, "JobPosting") {
			if listing, ok := jobPostingToListing(v, companyName); ok {
				*out = append(*out, listing)
			}
			return
		}
		for _, key := range []string{"@graph", "itemListElement", "item", "mainEntity"} {
			if child, exists := v[key]; exists {
				collectJobPostings(child, companyName, out)
			}
		}
	}
}

func isType(node map[string]interface{}, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

func jobPostingToListing(node map[string]interface{}, companyName string) (models.JobListing, bool) {
	listing := models.JobListing{
		Title:            stringField(node, "title"),
		CompanyName:      companyName,
		Description:      stripTags(stringField(node, "description")),
		EmploymentType:   employmentTypeField(node),
		ApplicationURL:   stringField(node, "url"),
		ExtractionMethod: models.ExtractionStructuredData,
	}

	if org, ok := node["hiringOrganization"].(map[string]interface{}); ok {
		if name := stringField(org, "name"); name != "" {
			listing.CompanyName = name
		}
	}

	listing.Location = jobLocationField(node)

	if salary := baseSalaryField(node); salary != nil {
		listing.Salary = salary
	}

	if posted := stringField(node, "datePosted"); posted != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, posted); err == nil {
				listing.PostedDate = &t
				break
			}
		}
	}

	if !listing.IsWellFormed() {
		return models.JobListing{}, false
	}
	return listing, true
}

func jobLocationField(node map[string]interface{}) string {
	if v, ok := node["jobLocationType"].(string); ok && strings.EqualFold(v, "TELECOMMUTE") {
		return "Remote"
	}

	loc := node["jobLocation"]
	if arr, ok := loc.([]interface{}); ok && len(arr) > 0 {
		loc = arr[0]
	}
	place, ok := loc.(map[string]interface{})
	if !ok {
		if s, ok := loc.(string); ok {
			return s
		}
		return ""
	}

	if addr, ok := place["address"].(map[string]interface{}); ok {
		parts := make([]string, 0, 3)
		for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
			if v := stringField(addr, key); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, ", ")
	}
	return stringField(place, "name")
}

func baseSalaryField(node map[string]interface{}) *models.SalaryRange {
	base, ok := node["baseSalary"].(map[string]interface{})
	if !ok {
		return nil
	}

	salary := &models.SalaryRange{Currency: stringField(base, "currency")}

	if value, ok := base["value"].(map[string]interface{}); ok {
		salary.Min = int(numberField(value, "minValue"))
		salary.Max = int(numberField(value, "maxValue"))
		if salary.Min == 0 && salary.Max == 0 {
			if v := numberField(value, "value"); v > 0 {
				salary.Min = int(v)
				salary.Max = int(v)
			}
		}
		salary.Period = stringField(value, "unitText")
	}

	if salary.Min == 0 && salary.Max == 0 {
		return nil
	}
	return salary
}

func employmentTypeField(node map[string]interface{}) string {
	switch v := node["employmentType"].(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func stringField(node map[string]interface{}, key string) string {
	if v, ok := node[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func numberField(node map[string]interface{}, key string) float64 {
	switch v := node[key].(type) {
	case float64:
		return v
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f
		}
	}
	return 0
}

// stripTags removes markup from description fields, which schema.org allows
// to contain HTML.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}
