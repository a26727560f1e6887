package email

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"mailc/css"
)

// Defaults are used for body styling when document root does not declare
// its own font, color or background.
type Defaults struct {
	FontBody  string
	ColorText string
	ColorBg   string
}

// DefaultDefaults returns values used by compiled documents when nothing is
// configured.
func DefaultDefaults() Defaults {
	return Defaults{
		FontBody:  "Helvetica, Arial, sans-serif",
		ColorText: "#333333",
		ColorBg:   "#ffffff",
	}
}

const msoSettings = `<!--[if mso]><noscript><xml><o:OfficeDocumentSettings><o:AllowPNG/><o:PixelsPerInch>96</o:PixelsPerInch></o:OfficeDocumentSettings></xml></noscript><![endif]-->`

// escapeMetaContent escapes value for double quoted attribute.
func escapeMetaContent(value string) string {
	return metaEscaper.Replace(value)
}

var metaEscaper = strings.NewReplacer(`&`, `&amp;`, `"`, `&quot;`, `<`, `&lt;`)

func metaTags(meta *Meta) []string {
	tags := make([]string, 0, len(meta.Uses)+len(meta.Keys()))
	for _, kit := range meta.Uses {
		tags = append(tags, `<meta name="`+metaPrefix+metaUse+`" content="`+escapeMetaContent(kit)+`">`)
	}
	for _, key := range meta.Keys() {
		value, _ := meta.Get(key)
		tags = append(tags, `<meta name="`+metaPrefix+escapeMetaContent(key)+`" content="`+escapeMetaContent(value)+`">`)
	}
	return tags
}

// firstOf returns value of the first present declaration or def.
func firstOf(styles *css.Declarations, def string, props ...string) string {
	for _, p := range props {
		if v, ok := styles.Get(p); ok {
			return v
		}
	}
	return def
}

// Wrap produces complete email document around inlined content. Body font,
// text color and background come from document styles when present.
func Wrap(content string, meta *Meta, styles *css.Declarations, defaults Defaults) string {
	if meta == nil {
		meta = newMeta()
	}

	fontBody := firstOf(styles, defaults.FontBody, "font-family")
	colorText := firstOf(styles, defaults.ColorText, "color")
	colorBg := firstOf(styles, defaults.ColorBg, "background-color", "background")
	width := strconv.Itoa(meta.MaxWidth)

	lines := []string{
		`<!DOCTYPE html>`,
		`<html>`,
		`<head>`,
		`<meta charset="utf-8">`,
		`<meta name="viewport" content="width=device-width,initial-scale=1.0">`,
		`<title>` + html.EscapeString(meta.Title()) + `</title>`,
	}
	lines = append(lines, metaTags(meta)...)
	lines = append(lines,
		msoSettings,
		`</head>`,
		`<body style="margin:0;padding:0;font-family:`+fontBody+`;color:`+colorText+`;background:`+colorBg+`;">`,
		`<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:`+colorBg+`;">`,
		`<tr><td align="center">`,
		`<table role="presentation" width="`+width+`" cellpadding="0" cellspacing="0" style="max-width:`+width+`px;width:100%;background:`+colorBg+`;">`,
		`<tr><td>`,
		content,
		`</td></tr>`,
		`</table>`,
		`</td></tr>`,
		`</table>`,
		`</body>`,
		`</html>`,
	)
	return strings.Join(lines, "\n")
}
