package email

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const (
	DefaultSectionPadding = "0 32px 16px"
	DefaultAccent         = "#666666"
	DefaultRadius         = "4px"
)

// Section wraps content into full width single cell table with padding.
func Section(content, padding string) string {
	if padding == "" {
		padding = DefaultSectionPadding
	}
	return `<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td style="padding:` +
		padding + `;">` + content + `</td></tr></table>`
}

// Columns lays out two blocks side by side separated by gap. Empty widths
// default to 60%/40% and 16px gap.
func Columns(left, right, leftWidth, rightWidth, gap string) string {
	if leftWidth == "" {
		leftWidth = "60%"
	}
	if rightWidth == "" {
		rightWidth = "40%"
	}
	if gap == "" {
		gap = "16px"
	}
	return strings.Join([]string{
		`<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr>`,
		`<td style="width:` + leftWidth + `;vertical-align:top;">` + left + `</td>`,
		`<td style="width:` + gap + `;"></td>`,
		`<td style="width:` + rightWidth + `;vertical-align:top;">` + right + `</td>`,
		`</tr></table>`,
	}, "")
}

// ButtonStyle controls Button rendering, empty fields use defaults.
type ButtonStyle struct {
	Accent         string
	Radius         string
	FontBody       string
	TrackingPrefix string
}

// Button renders bulletproof link button. Unsafe links (javascript: and
// friends) produce empty href.
func Button(link, label string, style ButtonStyle) string {
	if style.Accent == "" {
		style.Accent = DefaultAccent
	}
	if style.Radius == "" {
		style.Radius = DefaultRadius
	}
	if style.FontBody == "" {
		style.FontBody = DefaultDefaults().FontBody
	}

	href := ""
	if IsSafeURL(link) {
		href = html.EscapeString(link)
	}

	return strings.Join([]string{
		`<table role="presentation" cellpadding="0" cellspacing="0" style="margin:16px auto;">`,
		`<tr><td style="border-radius:`, style.Radius, `;background:`, style.Accent, `;">`,
		`<a href="`, TrackURL(style.TrackingPrefix, href),
		`" style="display:inline-block;padding:12px 24px;font-family:`, style.FontBody,
		`;font-size:16px;color:#ffffff;text-decoration:none;">`,
		html.EscapeString(label),
		`</a></td></tr></table>`,
	}, "")
}

var safeSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
}

// IsSafeURL reports whether link is relative or uses one of http, https,
// mailto and tel schemes.
func IsSafeURL(link string) bool {
	link = strings.TrimSpace(link)
	if link == "" {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return u.Scheme == "" || safeSchemes[strings.ToLower(u.Scheme)]
}
