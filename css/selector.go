package css

import (
	"regexp"
	"strings"
)

var (
	// pseudoPattern catches both pseudo-classes (":hover") and
	// pseudo-elements ("::marker").
	pseudoPattern = regexp.MustCompile(`:[\w-]+`)
	classPattern  = regexp.MustCompile(`\.([\w-]+)`)
)

// ClassSet is a set of element class names.
type ClassSet map[string]struct{}

// NewClassSet splits value of class attribute into a set.
func NewClassSet(attr string) ClassSet {
	set := make(ClassSet)
	for _, name := range strings.Fields(attr) {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether class is in the set.
func (s ClassSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Element is a snapshot of an opening tag for selector matching.
type Element struct {
	Tag     string
	Classes ClassSet
}

// Ancestors tracks currently open elements in document order, outermost
// first.
type Ancestors struct {
	elements []Element
}

// Push registers newly opened element.
func (a *Ancestors) Push(el Element) {
	a.elements = append(a.elements, el)
}

// Pop closes the innermost element when its tag equals tag. Mismatched
// closing tags leave the stack untouched.
func (a *Ancestors) Pop(tag string) bool {
	n := len(a.elements)
	if n == 0 || !strings.EqualFold(a.elements[n-1].Tag, tag) {
		return false
	}
	a.elements = a.elements[:n-1]
	return true
}

// Len returns number of open elements.
func (a *Ancestors) Len() int {
	if a == nil {
		return 0
	}
	return len(a.elements)
}

// SelectorMatches reports whether selector applies to el given its open
// ancestors. Only descendant combinators are supported: the last part of the
// selector must match el and the earlier parts must match a chain of
// ancestors in outer to inner order. Selectors with pseudo-classes or
// pseudo-elements never match.
func SelectorMatches(selector string, el Element, anc *Ancestors) bool {
	if pseudoPattern.MatchString(selector) {
		return false
	}

	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return false
	}

	last := len(parts) - 1
	if !partMatches(parts[last], el) {
		return false
	}

	next := last - 1
	for i := anc.Len() - 1; i >= 0 && next >= 0; i-- {
		if partMatches(parts[next], anc.elements[i]) {
			next--
		}
	}
	return next < 0
}

// partMatches checks compound selector part ("tag", ".a", "tag.a.b")
// against a single element. Tag comparison is case-insensitive, all classes
// must be present. Parts with combinator, attribute or id syntax never match.
func partMatches(part string, el Element) bool {
	if part == "" || strings.ContainsAny(part, ">+~[#:") {
		return false
	}

	tag := part
	if dot := strings.IndexByte(part, '.'); dot >= 0 {
		tag = part[:dot]
	}
	hasTag := tag != "" && isASCIILetter(tag[0])
	if hasTag && !strings.EqualFold(tag, el.Tag) {
		return false
	}

	classes := classPattern.FindAllStringSubmatch(part, -1)
	if len(classes) == 0 {
		return hasTag
	}
	for _, c := range classes {
		if !el.Classes.Has(c[1]) {
			return false
		}
	}
	return true
}

func isASCIILetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
