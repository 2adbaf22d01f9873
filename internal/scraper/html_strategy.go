package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cmendes/jobhunter/internal/model"
	"golang.org/x/net/html"
)

// htmlStrategy implements Strategy for strategy=="html": {list-page URL
// template, outer-card selector, per-field {selector, attribute, url_prefix,
// optional}, pagination mode}.
type htmlStrategy struct {
	site   model.SiteConfig
	cfg    model.HTMLConfig
	client *http.Client

	nextURL string // tracks the next_button pagination mode's current page
}

func newHTMLStrategy(site model.SiteConfig, cfg model.HTMLConfig, timeoutSeconds int) *htmlStrategy {
	return &htmlStrategy{site: site, cfg: cfg, client: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}}
}

func (s *htmlStrategy) pageURL(page int) (string, error) {
	switch s.cfg.Pagination.Mode {
	case "", "url_param":
		param := s.cfg.Pagination.PageParam
		if param == "" {
			param = "{page}"
		}
		return strings.ReplaceAll(s.cfg.ListPageURLTemplate, param, strconv.Itoa(page)), nil
	case "next_button":
		if page == 1 {
			return s.cfg.ListPageURLTemplate, nil
		}
		if s.nextURL == "" {
			return "", fmt.Errorf("next_button pagination: no next link discovered for page %d", page)
		}
		return s.nextURL, nil
	default:
		return "", fmt.Errorf("unknown pagination mode %q", s.cfg.Pagination.Mode)
	}
}

func (s *htmlStrategy) FetchPage(ctx context.Context, page int) (PageResult, error) {
	url, err := s.pageURL(page)
	if err != nil {
		return PageResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PageResult{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return PageResult{}, fmt.Errorf("fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return PageResult{}, fmt.Errorf("read body: %w", err)
	}
	result := PageResult{RawBody: string(raw)}
	if resp.StatusCode/100 != 2 {
		return result, fmt.Errorf("non-2xx status %d fetching page %d", resp.StatusCode, page)
	}

	doc, err := html.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return result, fmt.Errorf("parse html: %w", err)
	}

	rows, err := s.extractRows(doc)
	if err != nil {
		return result, err
	}
	result.Rows = rows

	if s.cfg.Pagination.Mode == "next_button" {
		s.nextURL = ""
		if n := findFirst(doc, parseSelector(s.cfg.Pagination.NextSelector)); n != nil {
			if href := attr(n, "href"); href != "" {
				s.nextURL = resolveURL(url, href)
			}
		}
	}
	return result, nil
}

func (s *htmlStrategy) extractRows(doc *html.Node) ([]RawRow, error) {
	cards := findAll(doc, parseSelector(s.cfg.CardSelector))
	rows := make([]RawRow, 0, len(cards))
	for _, card := range cards {
		row := RawRow{}
		for field, rule := range s.cfg.Fields {
			v, ok := extractField(card, rule.Selector, rule.Attribute)
			if !ok {
				if rule.Optional {
					continue
				}
				continue // required-field absence is handled by normalize
			}
			if rule.URLPrefix != "" && rule.Attribute == "href" {
				v = rule.URLPrefix + v
			}
			row[field] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *htmlStrategy) FetchDetail(ctx context.Context, url string) (string, string, error) {
	if !s.site.DetailPage.Enabled {
		return "", "", nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("build detail request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch detail page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", "", fmt.Errorf("non-2xx status %d fetching detail page", resp.StatusCode)
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("parse detail html: %w", err)
	}
	description, _ := extractField(doc, s.site.DetailPage.Description.Selector, s.site.DetailPage.Description.Attribute)
	requirements, _ := extractField(doc, s.site.DetailPage.Requirements.Selector, s.site.DetailPage.Requirements.Attribute)
	return description, requirements, nil
}

// resolveURL joins a relative href against the page it was found on. Site
// configs may emit absolute or root-relative hrefs; this keeps both working
// without pulling in a URL-resolution library the pack never uses for HTML
// scraping.
func resolveURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		if idx := strings.Index(base[strings.Index(base, "://")+3:], "/"); idx >= 0 {
			schemeEnd := strings.Index(base, "://") + 3
			return base[:schemeEnd+idx] + href
		}
		return base + href
	}
	return href
}
