package css_test

import (
	"strings"
	"testing"

	"mailc/css"
)

func TestUnwrapLayers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "nested layer blocks",
			input:    `@layer kit { @layer inner { .foo { color: red; } } }`,
			contains: []string{".foo { color: red; }"},
			absent:   []string{"@layer"},
		},
		{
			name:     "comments",
			input:    "/* comment */ .foo { color: red; } /* another\n multi line */",
			contains: []string{".foo { color: red; }"},
			absent:   []string{"comment", "/*"},
		},
		{
			name:     "media blocks",
			input:    `.foo { color: red; } @media (max-width:600px) { .foo { color: blue; } }`,
			contains: []string{".foo { color: red; }"},
			absent:   []string{"@media", "blue"},
		},
		{
			name:     "keyframes blocks",
			input:    `@keyframes spin { 0% { transform: rotate(0deg); } 100% { transform: rotate(360deg); } } .foo { color: red; }`,
			contains: []string{".foo { color: red; }"},
			absent:   []string{"@keyframes", "rotate"},
		},
		{
			name:     "vendor keyframes",
			input:    `@-webkit-keyframes spin { from { opacity: 0 } } .foo { color: red; }`,
			contains: []string{".foo { color: red; }"},
			absent:   []string{"keyframes", "opacity"},
		},
		{
			name:     "layer statements",
			input:    "@layer kit, theme;\n@layer preset, user;\n.foo { color: red; }",
			contains: []string{".foo { color: red; }"},
			absent:   []string{"@layer"},
		},
		{
			name:     "media inside layer",
			input:    `@layer kit { .a { color: red; } @media print { .a { color: black; } } .b { margin: 0; } }`,
			contains: []string{".a { color: red; }", ".b { margin: 0; }"},
			absent:   []string{"@layer", "@media", "black"},
		},
		{
			name:     "dotted and anonymous layers",
			input:    `@layer kit.base { .a { color: red; } } @layer { .b { color: blue; } }`,
			contains: []string{".a { color: red; }", ".b { color: blue; }"},
			absent:   []string{"@layer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := css.UnwrapLayers(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(got, bad) {
					t.Errorf("unexpected %q in %q", bad, got)
				}
			}
		})
	}
}

func TestUnwrapLayers_Unterminated(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "layer", input: `.a { color: red; } @layer kit { .b { color: blue; }`},
		{name: "media", input: `.a { color: red; } @media print { .b { color: blue; }`},
		{name: "media without brace", input: `.a { color: red; } @media print`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// must terminate and leave text alone
			if got := css.UnwrapLayers(tt.input); got != tt.input {
				t.Errorf("UnwrapLayers() = %q, want input unchanged", got)
			}
		})
	}
}

func TestExtractStyles(t *testing.T) {
	html := `<head><style>.a{color:red}</style><STYLE type="text/css">
.b{color:blue}
</STYLE></head><body><p>x</p></body>`

	sheet, rest := css.ExtractStyles(html)
	if sheet != ".a{color:red}\n\n.b{color:blue}\n\n" {
		t.Errorf("unexpected css %q", sheet)
	}
	if rest != `<head></head><body><p>x</p></body>` {
		t.Errorf("unexpected html %q", rest)
	}

	plain := `<p>no styles</p>`
	sheet, rest = css.ExtractStyles(plain)
	if sheet != "" || rest != plain {
		t.Errorf("ExtractStyles() without style tags = %q, %q", sheet, rest)
	}
}

func TestStripNonContentTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "script",
			input: `<div>text</div><script>alert(1)</script><p>more</p>`,
			want:  `<div>text</div><p>more</p>`,
		},
		{
			name:  "multiline script",
			input: "<SCRIPT type=\"module\">\nlet a = 1;\n</SCRIPT><p>x</p>",
			want:  `<p>x</p>`,
		},
		{
			name:  "meta",
			input: `<meta name="viewport" content="width=device-width"><div>text</div><META charset="utf-8" />`,
			want:  `<div>text</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := css.StripNonContentTags(tt.input); got != tt.want {
				t.Errorf("StripNonContentTags() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractMainContent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "main", input: `<main class="mkly-document"><div>Content</div></main>`, want: `<div>Content</div>`},
		{name: "no main", input: `<div>No main here</div>`, want: `<div>No main here</div>`},
		{name: "first main", input: "<main>\n<p>a</p>\n</main><main>b</main>", want: "\n<p>a</p>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := css.ExtractMainContent(tt.input); got != tt.want {
				t.Errorf("ExtractMainContent() = %q, want %q", got, tt.want)
			}
		})
	}
}
