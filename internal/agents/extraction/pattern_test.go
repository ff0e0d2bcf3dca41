package extraction

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

func TestExcerptTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("a", 299) + strings.Repeat("é", 20)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + long + "</div>"))
	if err != nil {
		t.Fatal(err)
	}

	got := excerpt(doc.Find("div"))

	if len(got) > 300 {
		t.Errorf("excerpt length = %d bytes, want <= 300", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("excerpt is not valid UTF-8: %q", got[len(got)-4:])
	}
}

func TestExcerptKeepsShortTextIntact(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>  Backend   Engineer </div>"))
	if err != nil {
		t.Fatal(err)
	}
	if got := excerpt(doc.Find("div")); got != "Backend Engineer" {
		t.Errorf("excerpt = %q", got)
	}
}
