package css

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// maxResolvePasses bounds var() substitution so cyclic definitions terminate.
const maxResolvePasses = 10

var (
	varPattern  = regexp.MustCompile(`var\(([^()]+)\)`)
	calcPattern = regexp.MustCompile(`calc\(([^()]+)\)`)

	calcPxTimesNumber = regexp.MustCompile(`^([\d.]+)px\s*\*\s*([\d.]+)$`)
	calcNumberTimesPx = regexp.MustCompile(`^([\d.]+)\s*\*\s*([\d.]+)px$`)
)

// IsRootSelector reports whether selector designates document root: either
// ":root" or the document root class.
func IsRootSelector(selector, rootClass string) bool {
	return selector == ":root" || selector == "."+rootClass
}

// CollectCustomProperties builds variables table from custom properties
// declared on ":root" or the document root class. Custom properties declared
// on any other selector are ignored.
func CollectCustomProperties(rules []Rule, rootClass string) Vars {
	vars := make(Vars)
	for _, rule := range rules {
		if !IsRootSelector(rule.Selector, rootClass) {
			continue
		}
		for prop, value := range rule.Declarations.All() {
			if IsCustomProperty(prop) {
				vars[prop] = value
			}
		}
	}
	return vars
}

// ResolveVarReferences substitutes var(name[, fallback]) references in value.
// Innermost references are replaced first. Known names are replaced by their
// value, unknown ones by the fallback (everything after the first comma) and
// are left verbatim when there is no fallback. Substitution repeats until
// nothing changes or the pass limit is reached.
func ResolveVarReferences(value string, vars Vars) string {
	resolved := value
	for range maxResolvePasses {
		if !strings.Contains(resolved, "var(") {
			break
		}
		before := resolved
		resolved = varPattern.ReplaceAllStringFunc(resolved, func(match string) string {
			name, fallback, hasFallback := strings.Cut(match[len("var("):len(match)-1], ",")
			if v, ok := vars[strings.TrimSpace(name)]; ok {
				return v
			}
			if hasFallback {
				return strings.TrimSpace(fallback)
			}
			return match
		})
		if resolved == before {
			break
		}
	}
	return resolved
}

// ResolveDeclarations resolves var() references in the variables table
// itself (until fixed point or pass limit), then in every rule declaration,
// and finally simplifies calc() expressions which became numeric. Both vars
// and rules are updated in place.
func ResolveDeclarations(rules []Rule, vars Vars) {
	names := vars.Names()
	for range maxResolvePasses {
		changed := false
		for _, name := range names {
			value := vars[name]
			if !strings.Contains(value, "var(") {
				continue
			}
			if resolved := ResolveVarReferences(value, vars); resolved != value {
				vars[name] = resolved
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for _, rule := range rules {
		for _, prop := range rule.Declarations.Keys() {
			if value, _ := rule.Declarations.Get(prop); strings.Contains(value, "var(") {
				rule.Declarations.Set(prop, ResolveVarReferences(value, vars))
			}
		}
	}

	for _, rule := range rules {
		for _, prop := range rule.Declarations.Keys() {
			if value, _ := rule.Declarations.Get(prop); strings.Contains(value, "calc(") {
				rule.Declarations.Set(prop, SimplifyCalc(value))
			}
		}
	}
}

// SimplifyCalc reduces "calc(Npx * M)" and "calc(M * Npx)" to a single px
// value rounded to 2 decimals. Every other calc() shape, including ones with
// unresolved var(), is left untouched.
func SimplifyCalc(value string) string {
	return calcPattern.ReplaceAllStringFunc(value, func(match string) string {
		expr := strings.TrimSpace(match[len("calc(") : len(match)-1])

		m := calcPxTimesNumber.FindStringSubmatch(expr)
		if m == nil {
			m = calcNumberTimesPx.FindStringSubmatch(expr)
		}
		if m == nil {
			return match
		}

		a, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return match
		}
		b, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return match
		}
		return formatPx(a * b)
	})
}

func formatPx(v float64) string {
	v = math.Floor(v*100+0.5) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
