package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cmendes/jobhunter/internal/model"
)

const listingPageHTML = `<html><body>
<div class="job-card">
  <a class="title" href="/jobs/1">Engineer</a>
  <span class="company">Acme</span>
</div>
<div class="job-card">
  <a class="title" href="/jobs/2">Designer</a>
  <span class="company">Globex</span>
</div>
<a class="next" href="/jobs?page=2">Next</a>
</body></html>`

func htmlStrategyConfig() model.HTMLConfig {
	return model.HTMLConfig{
		ListPageURLTemplate: "PLACEHOLDER/jobs?page={page}",
		CardSelector:        "div.job-card",
		Fields: map[string]model.FieldRule{
			"title":   {Selector: "a.title", Attribute: "text"},
			"url":     {Selector: "a.title", Attribute: "href", URLPrefix: ""},
			"company": {Selector: "span.company", Attribute: "text"},
		},
	}
}

func TestHTMLStrategyFetchPageExtractsCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPageHTML)
	}))
	defer srv.Close()

	cfg := htmlStrategyConfig()
	cfg.ListPageURLTemplate = srv.URL + "/jobs?page={page}"
	s := newHTMLStrategy(model.SiteConfig{SiteID: "acme"}, cfg, 5)

	result, err := s.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(result.Rows), result.Rows)
	}
	if result.Rows[0]["title"] != "Engineer" || result.Rows[0]["company"] != "Acme" {
		t.Errorf("row[0] = %+v", result.Rows[0])
	}
	if !strings.HasSuffix(result.Rows[0]["url"], "/jobs/1") {
		t.Errorf("url = %q, want it to end in /jobs/1", result.Rows[0]["url"])
	}
}

func TestHTMLStrategyNextButtonPaginationFollowsLink(t *testing.T) {
	var gotPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path+"?"+r.URL.RawQuery)
		fmt.Fprint(w, listingPageHTML)
	}))
	defer srv.Close()

	cfg := htmlStrategyConfig()
	cfg.ListPageURLTemplate = srv.URL + "/jobs"
	cfg.Pagination = model.PaginationConfig{Mode: "next_button", NextSelector: "a.next"}
	s := newHTMLStrategy(model.SiteConfig{SiteID: "acme"}, cfg, 5)

	if _, err := s.FetchPage(context.Background(), 1); err != nil {
		t.Fatalf("FetchPage page 1: %v", err)
	}
	if _, err := s.FetchPage(context.Background(), 2); err != nil {
		t.Fatalf("FetchPage page 2: %v", err)
	}
	if len(gotPaths) != 2 || !strings.Contains(gotPaths[1], "page=2") {
		t.Errorf("expected the second fetch to follow the discovered next link, got %v", gotPaths)
	}
}

func TestHTMLStrategyNextButtonPaginationNoLinkIsError(t *testing.T) {
	cfg := htmlStrategyConfig()
	cfg.Pagination = model.PaginationConfig{Mode: "next_button", NextSelector: "a.next"}
	s := newHTMLStrategy(model.SiteConfig{SiteID: "acme"}, cfg, 5)

	if _, err := s.FetchPage(context.Background(), 2); err == nil {
		t.Fatal("expected an error requesting page 2 before page 1 discovered a next link")
	}
}

func TestHTMLStrategyUnknownPaginationModeIsError(t *testing.T) {
	cfg := htmlStrategyConfig()
	cfg.Pagination = model.PaginationConfig{Mode: "scroll"}
	s := newHTMLStrategy(model.SiteConfig{SiteID: "acme"}, cfg, 5)

	if _, err := s.FetchPage(context.Background(), 1); err == nil {
		t.Fatal("expected an error for an unknown pagination mode")
	}
}

func TestHTMLStrategyFetchDetailDisabledIsANoop(t *testing.T) {
	s := newHTMLStrategy(model.SiteConfig{DetailPage: model.DetailPageConfig{Enabled: false}}, model.HTMLConfig{}, 5)
	desc, reqs, err := s.FetchDetail(context.Background(), "https://example.com/job/1")
	if err != nil || desc != "" || reqs != "" {
		t.Errorf("expected a no-op detail fetch, got (%q, %q, %v)", desc, reqs, err)
	}
}

func TestHTMLStrategyFetchDetailExtractsDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="description">Build things.</div></body></html>`)
	}))
	defer srv.Close()

	site := model.SiteConfig{
		DetailPage: model.DetailPageConfig{
			Enabled:     true,
			Description: model.FieldRule{Selector: "div.description", Attribute: "text"},
		},
	}
	s := newHTMLStrategy(site, model.HTMLConfig{}, 5)

	desc, _, err := s.FetchDetail(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchDetail: %v", err)
	}
	if desc != "Build things." {
		t.Errorf("description = %q, want %q", desc, "Build things.")
	}
}

func TestResolveURLHandlesRootRelativeAndAbsolute(t *testing.T) {
	cases := []struct{ base, href, want string }{
		{"https://example.com/jobs", "/jobs/2", "https://example.com/jobs/2"},
		{"https://example.com/jobs", "https://other.com/x", "https://other.com/x"},
	}
	for _, c := range cases {
		if got := resolveURL(c.base, c.href); got != c.want {
			t.Errorf("resolveURL(%q, %q) = %q, want %q", c.base, c.href, got, c.want)
		}
	}
}
