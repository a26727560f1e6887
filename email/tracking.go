package email

import (
	"net/url"
	"regexp"
	"strings"
)

var anchorHrefPattern = regexp.MustCompile(`(?i)<a\s([^>]*?)href="([^"]*)"([^>]*)>`)

// QueryEscape is stricter than encodeURIComponent which redirect services
// usually expect, so we relax it back.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeComponent escapes s the way encodeURIComponent does.
func EscapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// TrackURL routes link through tracking prefix. Empty prefix or link leave
// link as is.
func TrackURL(prefix, link string) string {
	if prefix == "" || link == "" {
		return link
	}
	return prefix + EscapeComponent(link)
}

// ApplyLinkTracking rewrites href of every anchor with non-empty link.
func ApplyLinkTracking(doc, prefix string) string {
	if prefix == "" {
		return doc
	}
	return anchorHrefPattern.ReplaceAllStringFunc(doc, func(match string) string {
		m := anchorHrefPattern.FindStringSubmatch(match)
		if m[2] == "" {
			return match
		}
		return `<a ` + m[1] + `href="` + TrackURL(prefix, m[2]) + `"` + m[3] + `>`
	})
}
