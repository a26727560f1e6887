package css

import (
	"regexp"
	"strings"
)

var (
	commentPattern        = regexp.MustCompile(`(?s)/\*.*?\*/`)
	layerStatementPattern = regexp.MustCompile(`@layer\s+[^;{]+;`)
	layerBlockPattern     = regexp.MustCompile(`@layer(?:\s+[\w.-]+)?\s*\{`)
	keyframesPattern      = regexp.MustCompile(`@(?:-[a-z]+-)?keyframes\b`)
	mediaPattern          = regexp.MustCompile(`@media\b`)
)

// UnwrapLayers flattens stylesheet for inlining: comments and layer
// statements are dropped, @layer blocks are replaced by their bodies (nested
// ones included) and @keyframes and @media blocks are removed entirely.
// Unterminated blocks are left as they are.
func UnwrapLayers(css string) string {
	result := commentPattern.ReplaceAllLiteralString(css, "")
	result = layerStatementPattern.ReplaceAllLiteralString(result, "")

	for {
		loc := layerBlockPattern.FindStringIndex(result)
		if loc == nil {
			break
		}
		open := loc[1] - 1
		end := findMatchingBrace(result, open)
		if end < 0 {
			break
		}
		result = result[:loc[0]] + result[open+1:end] + result[end+1:]
	}

	result = removeAtBlocks(result, keyframesPattern)
	return removeAtBlocks(result, mediaPattern)
}

// findMatchingBrace returns index of the brace closing the one at open, or
// -1 when braces are not balanced.
func findMatchingBrace(css string, open int) int {
	depth := 1
	for i := open + 1; i < len(css); i++ {
		switch css[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// removeAtBlocks cuts every at-rule matched by re together with its block.
func removeAtBlocks(css string, re *regexp.Regexp) string {
	for {
		loc := re.FindStringIndex(css)
		if loc == nil {
			return css
		}
		open := strings.IndexByte(css[loc[0]:], '{')
		if open < 0 {
			return css
		}
		end := findMatchingBrace(css, loc[0]+open)
		if end < 0 {
			return css
		}
		css = css[:loc[0]] + css[end+1:]
	}
}
