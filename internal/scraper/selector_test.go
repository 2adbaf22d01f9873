package scraper

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseFragment(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	return doc
}

func TestParseSelectorTagClassID(t *testing.T) {
	sel := parseSelector("div.card#first")
	if len(sel.steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(sel.steps))
	}
	step := sel.steps[0]
	if step.tag != "div" || step.class != "card" || step.id != "first" {
		t.Errorf("got %+v", step)
	}
}

func TestFindAllMatchesClass(t *testing.T) {
	doc := parseFragment(t, `<html><body>
		<div class="card"><span class="title">Engineer</span></div>
		<div class="card"><span class="title">Designer</span></div>
		<div class="other"><span class="title">Ignore</span></div>
	</body></html>`)

	cards := findAll(doc, parseSelector("div.card"))
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
}

func TestFindAllDescendantCombinator(t *testing.T) {
	doc := parseFragment(t, `<html><body>
		<div class="card"><span class="title">Inside</span></div>
		<span class="title">Outside</span>
	</body></html>`)

	titles := findAll(doc, parseSelector("div.card span.title"))
	if len(titles) != 1 {
		t.Fatalf("expected 1 title scoped under .card, got %d", len(titles))
	}
	if textContent(titles[0]) != "Inside" {
		t.Errorf("got text %q, want Inside", textContent(titles[0]))
	}
}

func TestExtractFieldText(t *testing.T) {
	doc := parseFragment(t, `<div class="title">  Software Engineer  </div>`)
	got, ok := extractField(doc, ".title", "")
	if !ok {
		t.Fatal("expected field to be found")
	}
	if got != "Software Engineer" {
		t.Errorf("got %q, want trimmed text", got)
	}
}

func TestExtractFieldAttribute(t *testing.T) {
	doc := parseFragment(t, `<a class="apply" href="/jobs/123">Apply</a>`)
	got, ok := extractField(doc, "a.apply", "href")
	if !ok {
		t.Fatal("expected field to be found")
	}
	if got != "/jobs/123" {
		t.Errorf("got %q, want /jobs/123", got)
	}
}

func TestExtractFieldMissingSelector(t *testing.T) {
	doc := parseFragment(t, `<div class="card"></div>`)
	_, ok := extractField(doc, ".does-not-exist", "")
	if ok {
		t.Error("expected not found for a selector with no match")
	}
}
