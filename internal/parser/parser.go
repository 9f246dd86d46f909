// Package parser extracts frontmatter, wikilinks, and titles from Markdown content.
package parser

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter Frontmatter
	Body        string
	Links       []string
	Title       string
}

// Parse extracts frontmatter, body, wikilinks, and title from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       extractLinks(body),
		Title:       deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (Frontmatter, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm Frontmatter
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: keep the file readable as plain body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target, _ := SplitLink("[[" + m[1] + "]]")
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm Frontmatter, body string) string {
	if s := fm.String("title"); s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// SplitLink splits a reference such as "[[Target|Alias]]" into its target
// and alias. Plain strings are returned as the target. A "#heading" suffix
// is dropped from the target.
func SplitLink(ref string) (target, alias string) {
	s := strings.TrimSpace(ref)
	s = strings.TrimPrefix(s, "!")
	if strings.HasPrefix(s, "[[") && strings.HasSuffix(s, "]]") {
		s = s[2 : len(s)-2]
	}
	if i := strings.Index(s, "|"); i >= 0 {
		alias = strings.TrimSpace(s[i+1:])
		s = s[:i]
	}
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s), alias
}

// LinkDisplay returns the text a reference is shown as: the alias when set,
// otherwise the target's base name without a .md extension.
func LinkDisplay(ref string) string {
	target, alias := SplitLink(ref)
	if alias != "" {
		return alias
	}
	if target == "" {
		return ""
	}
	return strings.TrimSuffix(path.Base(target), ".md")
}

// Frontmatter is a decoded YAML frontmatter block.
type Frontmatter map[string]any

// String returns the scalar at key rendered as a string. Numbers such as a
// bare year are formatted back to their text form.
func (fm Frontmatter) String(key string) string {
	if fm == nil {
		return ""
	}
	return scalarString(fm[key])
}

// Strings returns the value at key as a list. A scalar becomes a one-element
// list; empty entries are dropped.
func (fm Frontmatter) Strings(key string) []string {
	if fm == nil {
		return nil
	}
	switch v := fm[key].(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := scalarString(v); s != "" {
			return []string{s}
		}
		return nil
	}
}

// Int returns the integer at key.
func (fm Frontmatter) Int(key string) (int, bool) {
	if fm == nil {
		return 0, false
	}
	switch v := fm[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
