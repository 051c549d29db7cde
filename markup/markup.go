// Package markup compares the HTML markup of a source string with that of
// its translation.
package markup

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Tags returns the element names in s in document order. Text without
// markup yields nil.
func Tags(s string) []string {
	if !strings.Contains(s, "<") {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return nil
	}

	var tags []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tags = append(tags, strings.ToLower(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// The parser wraps fragments in html/head/body; only the body's
	// descendants belong to the string.
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		for _, n := range body.Nodes {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	})

	return tags
}

// Preserved reports whether translated carries the same multiset of element
// names as source. Element order may differ since word order does.
func Preserved(source, translated string) bool {
	a, b := Tags(source), Tags(translated)
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
