// Package email turns compiled web documents into email ready HTML: styles
// are inlined, links tracked and content wrapped into table based layout.
package email

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const (
	metaPrefix = "mkly:"
	metaUse    = "use"

	// DefaultMaxWidth is content width used when document does not specify
	// its own.
	DefaultMaxWidth = 600
)

var maxWidthPattern = regexp.MustCompile(`max-width:\s*(\d+)px`)

// Meta is document metadata carried by web HTML in "mkly:" meta tags.
type Meta struct {
	// Uses lists kits declared with "mkly:use" in order of appearance.
	Uses []string
	// MaxWidth is taken from <main> style, DefaultMaxWidth otherwise.
	MaxWidth int

	widthSet bool
	keys     []string
	values   map[string]string
}

func newMeta() *Meta {
	return &Meta{MaxWidth: DefaultMaxWidth, values: make(map[string]string)}
}

// Set adds or replaces meta value, keeping original position.
func (m *Meta) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns meta value for key.
func (m *Meta) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns meta keys in order of appearance.
func (m *Meta) Keys() []string {
	return m.keys
}

// Title is document subject, falling back to its title.
func (m *Meta) Title() string {
	if v, ok := m.values["subject"]; ok {
		return v
	}
	return m.values["title"]
}

// ExtractMeta collects "mkly:" meta tags and content width from web HTML.
// It has to run before styles are inlined since inlining removes meta tags.
func ExtractMeta(doc string) *Meta {
	meta := newMeta()
	seenMain := false

	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or markup tokenizer cannot recover from, keep what we have
			return meta

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr {
				continue
			}
			switch string(name) {
			case "meta":
				attrs := readAttrs(z)
				key, ok := strings.CutPrefix(attrs["name"], metaPrefix)
				if !ok {
					continue
				}
				content, ok := attrs["content"]
				if !ok {
					continue
				}
				if key == metaUse {
					meta.Uses = append(meta.Uses, content)
				} else {
					meta.Set(key, content)
				}
			case "main":
				if seenMain {
					continue
				}
				seenMain = true
				if m := maxWidthPattern.FindStringSubmatch(readAttrs(z)["style"]); m != nil {
					if w, err := strconv.Atoi(m[1]); err == nil && w > 0 {
						meta.MaxWidth, meta.widthSet = w, true
					}
				}
			}
		}
	}
}

// readAttrs returns attributes of current tag, values are unescaped by the
// tokenizer.
func readAttrs(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		if _, ok := attrs[string(key)]; !ok {
			attrs[string(key)] = string(val)
		}
		if !more {
			return attrs
		}
	}
}
