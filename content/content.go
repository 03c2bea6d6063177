// Package content enriches the dispatcher's "text" and "html" verbs
// (spec.md §4.4 §8.1) beyond a bare CDP eval pass-through. It is adapted
// directly from the teacher's cleaner package: the same readability
// extraction with the same fallback ladder, and the same CSS-selector
// outer-HTML extraction.
package content

import (
	"bytes"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minContentLength mirrors the teacher's cleaner.minContentLength: below
// this many characters of extracted text, readability is assumed to have
// failed to find the article body.
const minContentLength = 50

// ExtractReadableText runs Mozilla Readability over rawHTML and returns its
// plain-text content. If URL parsing fails, extraction errors, or the
// extracted text is implausibly short, it falls back to rawHTML itself —
// the text verb must never error just because readability couldn't find an
// article body (spec.md §4.4: text/html are "straightforward pass-throughs").
func ExtractReadableText(rawHTML, sourceURL string) string {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return rawHTML
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return rawHTML
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		return rawHTML
	}

	return article.TextContent
}

// Link is one anchor found on the page, resolved against the page's URL.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// ExtractLinks enriches the html verb with the page's outbound link list
// (HTMLResponse.Links), grounded in the
// teacher's cleaner.ExtractLinks (cleaner/extract.go's goquery
// doc.Find("a[href]") walk). Relative hrefs are resolved against baseURL;
// hrefs that fail to parse are skipped rather than erroring the whole call.
func ExtractLinks(rawHTML, baseURL string) []Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	base, _ := nurl.Parse(baseURL)

	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		resolved := href
		if base != nil {
			if u, err := base.Parse(href); err == nil {
				resolved = u.String()
			}
		}
		links = append(links, Link{Href: resolved, Text: strings.TrimSpace(s.Text())})
	})
	return links
}

// ApplySelector parses rawHTML, matches elements against the given CSS
// selector, and returns the concatenated outer HTML of all matches. If the
// selector is invalid or matches nothing, rawHTML is returned unchanged so
// the html verb still has something to return.
func ApplySelector(rawHTML, selector string) string {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return rawHTML
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return rawHTML
	}

	var buf bytes.Buffer
	for _, node := range matches {
		if err := html.Render(&buf, node); err != nil {
			return rawHTML
		}
	}
	return buf.String()
}
