package css

import (
	"regexp"
	"strings"
)

// rulePattern matches innermost "selector { declarations }" groups. Selectors
// never contain braces.
var rulePattern = regexp.MustCompile(`([^{}]+)\{([^{}]*)\}`)

// ParseRules tokenizes flattened CSS into rules. Grouped selectors produce one
// rule per selector, each with its own copy of the declarations. Groups with
// empty selector or empty body are skipped.
func ParseRules(css string) []Rule {
	var rules []Rule
	for _, m := range rulePattern.FindAllStringSubmatch(css, -1) {
		selector, body := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if selector == "" || body == "" {
			continue
		}

		decls := ParseDeclarations(body)
		for s := range strings.SplitSeq(selector, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			rules = append(rules, Rule{Selector: s, Declarations: decls.Clone()})
		}
	}
	return rules
}

// ParseDeclarations splits declaration block (or inline style attribute) on
// semicolons which are not inside parentheses, so url(data:...;base64,...)
// stays intact. Semicolons inside quoted strings are still treated as
// boundaries. Every declaration is split on its first colon, declarations
// with empty property or value are dropped.
func ParseDeclarations(raw string) *Declarations {
	decls := NewDeclarations()

	depth, start := 0, 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				addDeclaration(decls, raw[start:i])
				start = i + 1
			}
		}
	}
	addDeclaration(decls, raw[start:])
	return decls
}

func addDeclaration(decls *Declarations, raw string) {
	prop, value, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found {
		return
	}
	prop, value = strings.TrimSpace(prop), strings.TrimSpace(value)
	if prop == "" || value == "" {
		return
	}
	decls.Set(prop, value)
}
