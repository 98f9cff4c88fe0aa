package compare

import (
	"html"
	"html/template"
)

const highlightOpen = `<span style="color:red;font-weight:bold">`

// HighlightURLDiff returns target as HTML with the part that differs from
// orig wrapped in a red bold span. The common prefix and suffix are left
// plain; the suffix never overlaps the prefix.
func HighlightURLDiff(orig, target string) template.HTML {
	prefix, suffix := commonAffixes(orig, target)
	middle := target[prefix : len(target)-suffix]

	out := html.EscapeString(target[:prefix]) +
		highlightOpen + html.EscapeString(middle) + `</span>` +
		html.EscapeString(target[len(target)-suffix:])
	return template.HTML(out)
}

// commonAffixes returns the byte lengths of the common prefix and of the
// common suffix of the remainders after that prefix.
func commonAffixes(a, b string) (prefix, suffix int) {
	n := min(len(a), len(b))
	for prefix < n && a[prefix] == b[prefix] {
		prefix++
	}
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	return prefix, suffix
}
