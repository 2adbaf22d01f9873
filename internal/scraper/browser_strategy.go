package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cmendes/jobhunter/internal/model"
	"golang.org/x/net/html"
)

// browserStrategy implements Strategy for strategy=="browser": the same
// card/field extraction as htmlStrategy, but the list page is first rendered
// by a headless-render sidecar (browser_render_url) instead of fetched
// directly.
type browserStrategy struct {
	site        model.SiteConfig
	cfg         model.BrowserConfig
	client      *http.Client
	renderURL   string

	nextURL string
}

func newBrowserStrategy(site model.SiteConfig, cfg model.BrowserConfig, timeoutSeconds int) *browserStrategy {
	return &browserStrategy{
		site:   site,
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

// SetRenderURL wires the sidecar endpoint in; called by the engine once it
// has loaded Settings, so strategy construction itself stays config-free.
func (s *browserStrategy) SetRenderURL(url string) {
	s.renderURL = url
}

type renderRequest struct {
	URL             string `json:"url"`
	WaitForSelector string `json:"wait_for_selector,omitempty"`
	ScrollPasses    int    `json:"scroll_passes,omitempty"`
}

type renderResponse struct {
	HTML string `json:"html"`
}

func (s *browserStrategy) pageURL(page int) (string, error) {
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

func (s *browserStrategy) render(ctx context.Context, url string) (string, error) {
	if s.renderURL == "" {
		return "", fmt.Errorf("browser strategy: no browser_render_url configured")
	}
	reqBody, err := json.Marshal(renderRequest{
		URL:             url,
		WaitForSelector: s.cfg.WaitForSelector,
		ScrollPasses:    s.cfg.ScrollPasses,
	})
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.renderURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call render sidecar: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read render response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("render sidecar returned status %d", resp.StatusCode)
	}
	var out renderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode render response: %w", err)
	}
	return out.HTML, nil
}

func (s *browserStrategy) FetchPage(ctx context.Context, page int) (PageResult, error) {
	url, err := s.pageURL(page)
	if err != nil {
		return PageResult{}, err
	}

	rendered, err := s.render(ctx, url)
	if err != nil {
		return PageResult{}, err
	}
	result := PageResult{RawBody: rendered}

	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return result, fmt.Errorf("parse rendered html: %w", err)
	}

	cards := findAll(doc, parseSelector(s.cfg.CardSelector))
	rows := make([]RawRow, 0, len(cards))
	for _, card := range cards {
		row := RawRow{}
		for field, rule := range s.cfg.Fields {
			v, ok := extractField(card, rule.Selector, rule.Attribute)
			if !ok {
				continue
			}
			if rule.URLPrefix != "" && rule.Attribute == "href" {
				v = rule.URLPrefix + v
			}
			row[field] = v
		}
		rows = append(rows, row)
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

func (s *browserStrategy) FetchDetail(ctx context.Context, url string) (string, string, error) {
	if !s.site.DetailPage.Enabled {
		return "", "", nil
	}
	rendered, err := s.render(ctx, url)
	if err != nil {
		return "", "", err
	}
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return "", "", fmt.Errorf("parse rendered detail html: %w", err)
	}
	description, _ := extractField(doc, s.site.DetailPage.Description.Selector, s.site.DetailPage.Description.Attribute)
	requirements, _ := extractField(doc, s.site.DetailPage.Requirements.Selector, s.site.DetailPage.Requirements.Attribute)
	return description, requirements, nil
}
