package corpus

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoFrontMatter indicates a markup file without the required front-matter
// block. Callers drop the file and count it rather than failing the run.
var ErrNoFrontMatter = errors.New("missing front matter")

// frontMatterRe matches the leading metadata block of a markup page.
// Title is required, description optional; both keys tolerate an uppercase
// first letter. (?s) lets values span lines.
var frontMatterRe = regexp.MustCompile(`(?s)---\n[tT]itle: (.+?)(?:\n[dD]escription: (.+?))?\n---`)

// Parse interprets one corpus file.
func Parse(name, content string) (Document, error) {
	if !isMarkup(name) {
		return Document{
			SourceID:    name,
			Title:       name,
			Description: "Cookbook in " + languageOf(name),
			Body:        content,
		}, nil
	}

	m := frontMatterRe.FindStringSubmatch(content)
	if m == nil {
		return Document{}, ErrNoFrontMatter
	}

	return Document{
		SourceID:    name,
		Title:       m[1],
		Description: m[2],
		Body:        bodyAfterFrontMatter(content),
		Markup:      true,
	}, nil
}

// bodyAfterFrontMatter returns everything past the closing front-matter
// delimiter, the second "---" in the file.
func bodyAfterFrontMatter(content string) string {
	parts := strings.SplitN(content, "---", 3)
	return parts[len(parts)-1]
}

func isMarkup(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".mdx"
}

// languageOf guesses the cookbook language from the file extension.
func languageOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".go":
		return "Go"
	case ".js", ".mjs":
		return "JavaScript"
	case ".ts":
		return "TypeScript"
	case ".sh":
		return "Shell"
	default:
		return "Python"
	}
}
