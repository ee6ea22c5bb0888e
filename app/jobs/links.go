package jobs

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Per-page ceiling on followed links so one index page cannot flood a job
const maxLinksPerPage = 50

// sameHostLinks extracts absolute, same-host HTTP links from a page for
// depth crawling. Fragments are stripped so anchors on one page dedupe.
func sameHostLinks(body []byte, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return true
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return true
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if !strings.EqualFold(resolved.Hostname(), base.Hostname()) {
			return true
		}

		resolved.Fragment = ""
		link := resolved.String()
		if link == pageURL || seen[link] {
			return true
		}
		seen[link] = true
		links = append(links, link)

		return len(links) < maxLinksPerPage
	})

	return links
}
