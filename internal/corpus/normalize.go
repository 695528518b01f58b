package corpus

import (
	"regexp"
	"strings"
)

// fenceRe matches a complete fenced code block, including the delimiters.
var fenceRe = regexp.MustCompile("(?s)```.*?```")

// Normalize flattens prose onto single lines while keeping fenced code blocks
// byte-for-byte intact. An unterminated fence counts as prose. Idempotent:
// normalizing normalized text is a no-op.
func Normalize(body string) string {
	var b strings.Builder
	last := 0
	for _, loc := range fenceRe.FindAllStringIndex(body, -1) {
		b.WriteString(flattenProse(body[last:loc[0]]))
		b.WriteString(body[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(flattenProse(body[last:]))
	return b.String()
}

func flattenProse(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
