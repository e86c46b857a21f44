// Package crawl extracts same-origin path candidates from an HTML response
// body, feeding the content-crawling supplement to recursion: a DOM walk
// over the anchor/script/image/form attributes that commonly carry links,
// falling back to a regex sweep when goquery can't parse the body at all.
package crawl

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var linkAttrs = []struct {
	selector string
	attr     string
}{
	{"a[href]", "href"},
	{"script[src]", "src"},
	{"img[src]", "src"},
	{"form[action]", "action"},
	{"link[href]", "href"},
}

var fallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)src\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)action\s*=\s*["']([^"']+)["']`),
}

// ExtractPaths parses an HTML body and returns de-duplicated, same-origin
// paths referenced from it, relative to baseURL.
func ExtractPaths(body []byte, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var raw []string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body))); err == nil {
		for _, la := range linkAttrs {
			doc.Find(la.selector).Each(func(_ int, sel *goquery.Selection) {
				if v, ok := sel.Attr(la.attr); ok {
					raw = append(raw, v)
				}
			})
		}
	} else {
		raw = regexExtract(body)
	}

	return normalize(raw, base)
}

func regexExtract(body []byte) []string {
	content := string(body)
	var raw []string
	for _, re := range fallbackPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if len(m) == 2 {
				raw = append(raw, m[1])
			}
		}
	}
	return raw
}

func normalize(raw []string, base *url.URL) []string {
	seen := make(map[string]struct{})
	var paths []string

	for _, v := range raw {
		v = strings.TrimSpace(v)
		lower := strings.ToLower(v)
		if v == "" || strings.HasPrefix(v, "#") ||
			strings.HasPrefix(lower, "javascript:") ||
			strings.HasPrefix(lower, "mailto:") ||
			strings.HasPrefix(lower, "data:") ||
			strings.HasPrefix(lower, "tel:") {
			continue
		}

		ref, err := url.Parse(v)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Host != "" && resolved.Host != base.Host {
			continue
		}

		path := strings.TrimPrefix(strings.TrimRight(resolved.Path, "/"), "/")
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	return paths
}
