package css

import (
	"regexp"
	"strings"
)

var (
	tagPattern       = regexp.MustCompile(`<(/)?(\w+)([^>]*?)(/?)\s*>`)
	classAttrPattern = regexp.MustCompile(`\bclass="([^"]*)"`)
	styleAttrPattern = regexp.MustCompile(`\bstyle="([^"]*)"`)
)

// voidTags never have closing tag and are not tracked as ancestors.
var voidTags = map[string]bool{
	"img":   true,
	"br":    true,
	"hr":    true,
	"meta":  true,
	"link":  true,
	"input": true,
}

// InlineStyles walks html tag by tag and moves matching stylesheet
// declarations into style attributes. Rules in source order are applied
// first (later wins), then the element own style attribute overrides them.
// Class attributes are removed from rewritten tags. Tags without classes and
// without matched declarations are copied verbatim. Rules on the document
// root that only carry custom properties are ignored.
func InlineStyles(html string, rules []Rule, rootClass string) string {
	styleRules := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if IsRootSelector(rule.Selector, rootClass) && rule.OnlyCustomProperties() {
			continue
		}
		styleRules = append(styleRules, rule)
	}

	var (
		out  strings.Builder
		anc  Ancestors
		last int
	)
	out.Grow(len(html))

	for _, m := range tagPattern.FindAllStringSubmatchIndex(html, -1) {
		out.WriteString(html[last:m[0]])
		last = m[1]

		raw := html[m[0]:m[1]]
		tag := html[m[4]:m[5]]

		if m[2] >= 0 {
			// closing tag
			anc.Pop(tag)
			out.WriteString(raw)
			continue
		}

		attrs := html[m[6]:m[7]]
		selfClosing := m[9] > m[8] || voidTags[strings.ToLower(tag)]

		el := Element{Tag: tag, Classes: make(ClassSet)}
		if c := classAttrPattern.FindStringSubmatch(attrs); c != nil {
			el.Classes = NewClassSet(c[1])
		}

		matched := NewDeclarations()
		for _, rule := range styleRules {
			if !SelectorMatches(rule.Selector, el, &anc) {
				continue
			}
			for prop, value := range rule.Declarations.All() {
				if !IsCustomProperty(prop) {
					matched.Set(prop, value)
				}
			}
		}

		if matched.Len() > 0 || len(el.Classes) > 0 {
			out.WriteString(rewriteTag(tag, attrs, matched, selfClosing))
		} else {
			out.WriteString(raw)
		}

		if !selfClosing {
			anc.Push(el)
		}
	}
	out.WriteString(html[last:])
	return out.String()
}

// rewriteTag produces opening tag without class attribute and with matched
// declarations merged under the existing inline style.
func rewriteTag(tag, attrs string, matched *Declarations, selfClosing bool) string {
	final := matched.Clone()
	if s := styleAttrPattern.FindStringSubmatch(attrs); s != nil && s[1] != "" {
		final.Merge(ParseDeclarations(s[1]))
	}

	rest := removeFirst(classAttrPattern, attrs)
	rest = strings.TrimSpace(removeFirst(styleAttrPattern, rest))

	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(tag)
	if rest != "" {
		sb.WriteByte(' ')
		sb.WriteString(rest)
	}
	if final.Len() > 0 {
		sb.WriteString(` style="`)
		// attribute value is double quoted
		sb.WriteString(strings.ReplaceAll(final.String(), `"`, `'`))
		sb.WriteByte('"')
	}
	if selfClosing {
		sb.WriteString(" /")
	}
	sb.WriteByte('>')
	return sb.String()
}

func removeFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
