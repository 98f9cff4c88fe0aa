// Package pageinfo extracts descriptive metadata from a rendered page so
// that screenshots can be labelled in the manifest and capture records.
package pageinfo

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Info struct {
	Title       string
	Description string
	Canonical   string
}

var spaces = regexp.MustCompile(`\s+`)

// Parse читает title/description из HTML страницы
func Parse(html string) (*Info, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	info := &Info{}

	// Title: og:title → <title> → h1
	info.Title = firstNonEmpty(
		attr(doc, "meta[property='og:title']", "content"),
		doc.Find("head title").First().Text(),
		doc.Find("h1").First().Text(),
	)

	info.Description = firstNonEmpty(
		attr(doc, "meta[name='description']", "content"),
		attr(doc, "meta[property='og:description']", "content"),
	)

	info.Canonical = strings.TrimSpace(attr(doc, "link[rel='canonical']", "href"))

	return info, nil
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(spaces.ReplaceAllString(strings.ReplaceAll(v, "\u00a0", " "), " "))
		if v != "" {
			return v
		}
	}
	return ""
}
