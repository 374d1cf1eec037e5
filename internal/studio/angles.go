package studio

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML reduces the service's formatted strongest-angle markup to plain
// text for the rail. Unparseable input is returned as-is rather than lost.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}
