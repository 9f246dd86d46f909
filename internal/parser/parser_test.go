package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ncr_type: event\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if got := r.Frontmatter.String("cr_type"); got != "event" {
		t.Errorf("cr_type = %q, want event", got)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestExtractLinks_Basic(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again."
	links := extractLinks(body)
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2", len(links))
	}
	if links[0] != "Note A" || links[1] != "Note B" {
		t.Errorf("links = %v", links)
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	links := extractLinks("see [[ ]] and [[|alias]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := Frontmatter{"title": "FM Title"}
	title := deriveTitle(fm, "# H1 Title\ntext")
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	title := deriveTitle(nil, "some text\n# My Heading\nmore")
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}

func TestSplitLink(t *testing.T) {
	cases := []struct {
		in, target, alias string
	}{
		{"[[People/John Smith|John]]", "People/John Smith", "John"},
		{"[[Wedding#Guests]]", "Wedding", ""},
		{"  plain text ", "plain text", ""},
		{"![[embed.md]]", "embed.md", ""},
	}
	for _, c := range cases {
		target, alias := SplitLink(c.in)
		if target != c.target || alias != c.alias {
			t.Errorf("SplitLink(%q) = (%q, %q), want (%q, %q)", c.in, target, alias, c.target, c.alias)
		}
	}
}

func TestLinkDisplay(t *testing.T) {
	if got := LinkDisplay("[[People/John Smith.md]]"); got != "John Smith" {
		t.Errorf("got %q, want John Smith", got)
	}
	if got := LinkDisplay("[[People/John Smith|Johnny]]"); got != "Johnny" {
		t.Errorf("got %q, want Johnny", got)
	}
}

func TestFrontmatterAccessors(t *testing.T) {
	r, err := Parse([]byte("---\ndate: 1900\nsort_order: 3\npersons:\n  - \"[[A]]\"\n  - \"\"\n  - \"[[B]]\"\ngroups: Clan A\n---\n"))
	if err != nil {
		t.Fatal(err)
	}
	fm := r.Frontmatter
	if got := fm.String("date"); got != "1900" {
		t.Errorf("date = %q", got)
	}
	if n, ok := fm.Int("sort_order"); !ok || n != 3 {
		t.Errorf("sort_order = %d, %v", n, ok)
	}
	if got := fm.Strings("persons"); len(got) != 2 || got[1] != "[[B]]" {
		t.Errorf("persons = %v", got)
	}
	if got := fm.Strings("groups"); len(got) != 1 || got[0] != "Clan A" {
		t.Errorf("groups = %v", got)
	}
	if _, ok := fm.Int("missing"); ok {
		t.Error("missing key should not parse")
	}
}
