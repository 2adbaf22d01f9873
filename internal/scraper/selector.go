package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// selector is a minimal CSS-like matcher: a sequence of descendant steps,
// each of the form tag?.class?#id?, e.g. "div.card", ".title", "a#apply".
// It covers the shapes the html and browser strategies actually need.
type selector struct {
	steps []selectorStep
}

type selectorStep struct {
	tag   string
	class string
	id    string
}

func parseSelector(s string) selector {
	var steps []selectorStep
	for _, part := range strings.Fields(s) {
		steps = append(steps, parseStep(part))
	}
	return selector{steps: steps}
}

func parseStep(part string) selectorStep {
	var step selectorStep
	var tag strings.Builder
	i := 0
	for i < len(part) && part[i] != '.' && part[i] != '#' {
		tag.WriteByte(part[i])
		i++
	}
	step.tag = tag.String()
	for i < len(part) {
		switch part[i] {
		case '.':
			j := i + 1
			for j < len(part) && part[j] != '.' && part[j] != '#' {
				j++
			}
			step.class = part[i+1 : j]
			i = j
		case '#':
			j := i + 1
			for j < len(part) && part[j] != '.' && part[j] != '#' {
				j++
			}
			step.id = part[i+1 : j]
			i = j
		default:
			i++
		}
	}
	return step
}

func nodeMatches(n *html.Node, step selectorStep) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if step.tag != "" && n.Data != step.tag {
		return false
	}
	if step.class != "" && !hasClass(n, step.class) {
		return false
	}
	if step.id != "" && attr(n, "id") != step.id {
		return false
	}
	return true
}

func hasClass(n *html.Node, class string) bool {
	classes := strings.Fields(attr(n, "class"))
	for _, c := range classes {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// findAll returns every descendant of root matching the last step of sel,
// where ancestors must also match the earlier steps in order (a simplified
// descendant combinator, sufficient for the flat card layouts site configs
// describe).
func findAll(root *html.Node, sel selector) []*html.Node {
	if len(sel.steps) == 0 {
		return nil
	}
	var matches []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if nodeMatches(n, sel.steps[len(sel.steps)-1]) {
			matches = append(matches, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if len(sel.steps) == 1 {
		return matches
	}
	// Filter to nodes that have an ancestor matching the preceding step.
	var filtered []*html.Node
	for _, m := range matches {
		if hasAncestorMatching(m, sel.steps[:len(sel.steps)-1]) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func hasAncestorMatching(n *html.Node, steps []selectorStep) bool {
	if len(steps) == 0 {
		return true
	}
	target := steps[len(steps)-1]
	for p := n.Parent; p != nil; p = p.Parent {
		if nodeMatches(p, target) {
			return hasAncestorMatching(p, steps[:len(steps)-1])
		}
	}
	return false
}

// findFirst returns the first descendant of root matching sel, or nil.
func findFirst(root *html.Node, sel selector) *html.Node {
	all := findAll(root, sel)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// textContent concatenates all text node descendants.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// extractField reads either the text content or a named attribute from the
// first node matching rule.Selector, per the {selector, attribute} contract.
func extractField(root *html.Node, sel string, attribute string) (string, bool) {
	n := findFirst(root, parseSelector(sel))
	if n == nil {
		return "", false
	}
	if attribute == "" || attribute == "text" {
		return textContent(n), true
	}
	return attr(n, attribute), true
}
