package css

import (
	"iter"
	"slices"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Declarations is an insertion ordered set of CSS property declarations.
// Setting an already present property replaces its value in place, so the
// property keeps the position of its first appearance and the last write wins.
type Declarations struct {
	keys   []string
	values map[string]string
}

// NewDeclarations creates empty declarations set.
func NewDeclarations() *Declarations {
	return &Declarations{values: make(map[string]string)}
}

// Set adds or replaces property value.
func (d *Declarations) Set(prop, value string) {
	if _, exists := d.values[prop]; !exists {
		d.keys = append(d.keys, prop)
	}
	d.values[prop] = value
}

// Get returns value for the property.
func (d *Declarations) Get(prop string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.values[prop]
	return v, ok
}

// Len returns number of declarations, nil is empty.
func (d *Declarations) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns property names in declaration order.
func (d *Declarations) Keys() []string {
	if d == nil {
		return nil
	}
	return slices.Clone(d.keys)
}

// All iterates over declarations in order.
func (d *Declarations) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if d == nil {
			return
		}
		for _, k := range d.keys {
			if !yield(k, d.values[k]) {
				return
			}
		}
	}
}

// Clone returns independent copy.
func (d *Declarations) Clone() *Declarations {
	c := NewDeclarations()
	for k, v := range d.All() {
		c.Set(k, v)
	}
	return c
}

// Merge sets every declaration of other on top of d.
func (d *Declarations) Merge(other *Declarations) {
	for k, v := range other.All() {
		d.Set(k, v)
	}
}

// String returns declarations in inline style form: "prop:value;prop:value".
func (d *Declarations) String() string {
	var sb strings.Builder
	for k, v := range d.All() {
		if sb.Len() > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(v)
	}
	return sb.String()
}

// Rule is a single (non comma separated) selector with its declarations.
type Rule struct {
	Selector     string
	Declarations *Declarations
}

// OnlyCustomProperties reports whether rule carries nothing but custom
// properties (rule without declarations included).
func (r Rule) OnlyCustomProperties() bool {
	for prop := range r.Declarations.All() {
		if !IsCustomProperty(prop) {
			return false
		}
	}
	return true
}

// Vars is custom property table: "--name" -> value. It is built per document
// and never shared between invocations.
type Vars map[string]string

// Names returns custom property names in natural order.
func (v Vars) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// Result is the outcome of inlining a single document.
type Result struct {
	// ContentHTML is inner HTML of the document <main> region with all
	// styles inlined.
	ContentHTML string
	// DocumentStyles holds non custom declarations of the document root
	// class, to be applied by the caller on an outer wrapper.
	DocumentStyles *Declarations
	// Warnings lists dropped stylesheet constructs (when audit is on).
	Warnings []string

	Rules []Rule
	Vars  Vars
}

const customPropertyPrefix = "--"

// IsCustomProperty reports whether property name is a custom property.
func IsCustomProperty(prop string) bool {
	return strings.HasPrefix(prop, customPropertyPrefix)
}
