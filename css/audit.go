package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Audit reports stylesheet constructs which inlining drops silently:
// unsupported combinators and selectors, pseudo-classes, pseudo-elements and
// at-rules surviving UnwrapLayers. Input is expected to be flattened
// already. Warnings are returned in source order, each reported once.
func Audit(flat string) []string {
	a := &auditor{seen: make(map[string]struct{})}

	parser := css.NewParser(parse.NewInput(strings.NewReader(flat)), false)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			// end of input or unrecoverable error
			return a.warnings

		case css.AtRuleGrammar, css.BeginAtRuleGrammar:
			a.add("unsupported at-rule: " + string(data))

		case css.BeginRulesetGrammar, css.QualifiedRuleGrammar:
			var sb strings.Builder
			sb.Write(data)
			for _, v := range parser.Values() {
				sb.Write(v.Data)
			}
			for s := range strings.SplitSeq(strings.Trim(sb.String(), "{ \t\r\n"), ",") {
				a.selector(strings.TrimSpace(s))
			}
		}
	}
}

type auditor struct {
	warnings []string
	seen     map[string]struct{}
}

func (a *auditor) add(w string) {
	if _, ok := a.seen[w]; ok {
		return
	}
	a.seen[w] = struct{}{}
	a.warnings = append(a.warnings, w)
}

func (a *auditor) selector(s string) {
	switch {
	case s == "" || s == ":root":
	case strings.ContainsAny(s, ">+~"):
		a.add("unsupported combinator selector: " + s)
	case strings.Contains(s, "["):
		a.add("unsupported attribute selector: " + s)
	case strings.Contains(s, "::"):
		a.add("dropped pseudo-element selector: " + s)
	case pseudoPattern.MatchString(s):
		a.add("dropped pseudo-class selector: " + s)
	case strings.Contains(s, "#"):
		a.add("unsupported id selector: " + s)
	default:
		for _, part := range strings.Fields(s) {
			if part == "*" {
				a.add("unsupported universal selector: " + s)
				break
			}
		}
	}
}
