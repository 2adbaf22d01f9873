package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cmendes/jobhunter/internal/model"
)

// apiStrategy implements Strategy for strategy=="api": an opaque recipe of
// {URL template, method, {page}-substituted params, headers, JSON path to
// the listings array, per-field dot-path mapping}.
type apiStrategy struct {
	site   model.SiteConfig
	cfg    model.APIConfig
	client *http.Client
}

func newAPIStrategy(site model.SiteConfig, cfg model.APIConfig, timeoutSeconds int) *apiStrategy {
	return &apiStrategy{site: site, cfg: cfg, client: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}}
}

func (s *apiStrategy) FetchPage(ctx context.Context, page int) (PageResult, error) {
	method := s.cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	url := strings.ReplaceAll(s.cfg.URLTemplate, "{page}", strconv.Itoa(page))
	for k, v := range s.cfg.Params {
		v = strings.ReplaceAll(v, "{page}", strconv.Itoa(page))
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + k + "=" + v
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return PageResult{}, fmt.Errorf("build request: %w", err)
	}
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
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
	// The raw body is returned for archival regardless of status or parse outcome.
	result := PageResult{RawBody: string(raw)}
	if resp.StatusCode/100 != 2 {
		return result, fmt.Errorf("non-2xx status %d fetching page %d", resp.StatusCode, page)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return result, fmt.Errorf("decode json: %w", err)
	}
	list, ok := extractList(doc, s.cfg.ListPath)
	if !ok {
		return result, fmt.Errorf("list_path %q did not resolve to an array", s.cfg.ListPath)
	}

	rows := make([]RawRow, 0, len(list))
	for _, item := range list {
		row := RawRow{}
		for field, path := range s.cfg.FieldPaths {
			if v, ok := lookupPath(item, path); ok {
				row[field] = v
			}
		}
		rows = append(rows, row)
	}
	result.Rows = rows
	return result, nil
}

func (s *apiStrategy) FetchDetail(ctx context.Context, url string) (string, string, error) {
	// api-strategy listings already carry full description/requirements
	// inline; no separate detail fetch is defined for this strategy.
	return "", "", nil
}
