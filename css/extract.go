package css

import (
	"regexp"
	"strings"
)

var (
	styleTagPattern  = regexp.MustCompile(`(?is)<style[^>]*>(.*?)</style>`)
	scriptTagPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	metaTagPattern   = regexp.MustCompile(`(?i)<meta[^>]*>`)
	mainTagPattern   = regexp.MustCompile(`(?is)<main[^>]*>(.*?)</main>`)
)

// ExtractStyles pulls bodies of all <style> tags out of html. Bodies are
// concatenated, each followed by a new line. Returned html has style tags
// removed. Without style tags css is empty and html is returned unchanged.
func ExtractStyles(html string) (css, rest string) {
	matches := styleTagPattern.FindAllStringSubmatchIndex(html, -1)
	if len(matches) == 0 {
		return "", html
	}

	var sheet, out strings.Builder
	last := 0
	for _, m := range matches {
		out.WriteString(html[last:m[0]])
		sheet.WriteString(html[m[2]:m[3]])
		sheet.WriteByte('\n')
		last = m[1]
	}
	out.WriteString(html[last:])
	return sheet.String(), out.String()
}

// StripNonContentTags removes <script> blocks (with content) and <meta> tags.
func StripNonContentTags(html string) string {
	html = scriptTagPattern.ReplaceAllLiteralString(html, "")
	return metaTagPattern.ReplaceAllLiteralString(html, "")
}

// ExtractMainContent returns inner HTML of the first <main> element or html
// itself when there is none.
func ExtractMainContent(html string) string {
	m := mainTagPattern.FindStringSubmatch(html)
	if m == nil {
		return html
	}
	return m[1]
}
