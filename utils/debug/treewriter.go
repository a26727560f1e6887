// Package debug has helpers producing human readable dumps for debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indent = "  "

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

// Empty reports whether nothing was written yet.
func (tw TreeWriter) Empty() bool {
	return tw.w.Len() == 0
}

// Line writes formatted line at depth.
func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Field writes "label: value" line with value quoted, empty values are left
// as is.
func (tw TreeWriter) Field(depth int, label, value string) {
	tw.pad(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(quote(value))
	tw.w.WriteByte('\n')
}

// Section writes a header line followed by one indented field per pair in
// the order given. Nothing is written for an empty list.
func (tw TreeWriter) Section(depth int, title string, labels, values []string) {
	if len(labels) == 0 {
		return
	}
	tw.Line(depth, "%s (%d)", title, len(labels))
	for i, label := range labels {
		var v string
		if i < len(values) {
			v = values[i]
		}
		tw.Field(depth+1, label, v)
	}
}

func (tw TreeWriter) pad(depth int) {
	for range depth {
		tw.w.WriteString(indent)
	}
}

func quote(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
