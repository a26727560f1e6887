package email

import (
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// maxPreheaderRunes is about what mail clients show next to subject.
const maxPreheaderRunes = 150

const hiddenStyle = "display:none;max-height:0;overflow:hidden;mso-hide:all;"

// Preheader produces inbox preview text from document content.
type Preheader struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPreheader loads english sentence tokenizer. When training data cannot
// be loaded Preheader falls back to plain truncation.
func NewPreheader(log *zap.Logger) *Preheader {
	if log == nil {
		log = zap.NewNop()
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		log.Warn("Unable to load sentences tokenizer data, preheader will be truncated text", zap.Error(err))
		return &Preheader{}
	}
	return &Preheader{tokenizer: tokenizer}
}

// Text returns first sentence of visible content text, shortened to what
// mail clients display.
func (p *Preheader) Text(content string) string {
	text := VisibleText(content)
	if text == "" {
		return ""
	}
	if p != nil && p.tokenizer != nil {
		for _, s := range p.tokenizer.Tokenize(text) {
			if first := strings.TrimSpace(s.Text); first != "" {
				text = first
				break
			}
		}
	}
	return truncate(text, maxPreheaderRunes)
}

// Insert prepends hidden preheader block to content.
func (p *Preheader) Insert(content string) string {
	text := p.Text(content)
	if text == "" {
		return content
	}
	return `<div style="` + hiddenStyle + `">` + html.EscapeString(text) + `</div>` + content
}

// VisibleText returns text of the fragment with whitespace collapsed. Style
// and script contents are skipped.
func VisibleText(fragment string) string {
	var (
		sb   strings.Builder
		skip int
	)

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if tt == html.StartTagToken && isHiddenTag(string(name)) {
				skip++
			}
			if blockTags[string(name)] {
				sb.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isHiddenTag(string(name)) && skip > 0 {
				skip--
			}
			if blockTags[string(name)] {
				sb.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

// blockTags separate words of adjacent elements.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "td": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "header": true, "footer": true, "blockquote": true,
}

func isHiddenTag(name string) bool {
	return name == "style" || name == "script" || name == "title"
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)[:limit]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "…"
}
