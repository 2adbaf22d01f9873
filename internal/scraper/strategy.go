package scraper

import (
	"context"
	"fmt"

	"github.com/cmendes/jobhunter/constants"
	"github.com/cmendes/jobhunter/internal/model"
)

// RawRow is one extracted listing, keyed by the field names a normalize step
// understands (title, company, location, url, salary, description,
// requirements, posted_date). Extra keys are ignored.
type RawRow map[string]string

// PageResult is what a Strategy returns for one page: the raw response body
// (archived before parsing) and the rows parsed from it.
type PageResult struct {
	RawBody string
	Rows    []RawRow
}

// Strategy is the opaque-to-the-core contract each of api/html/browser
// implements.
type Strategy interface {
	FetchPage(ctx context.Context, page int) (PageResult, error)
	FetchDetail(ctx context.Context, url string) (description, requirements string, err error)
}

// NewStrategy dispatches on the tagged union's Strategy field, failing with a
// clear message rather than silently. browserRenderURL is only consulted
// for strategy=="browser" sites.
func NewStrategy(site model.SiteConfig, httpTimeoutSeconds int, browserRenderURL string) (Strategy, error) {
	switch site.Strategy {
	case constants.StrategyAPI:
		if site.APIConfig == nil {
			return nil, fmt.Errorf("site %q: strategy=api requires api_config", site.SiteID)
		}
		return newAPIStrategy(site, *site.APIConfig, httpTimeoutSeconds), nil
	case constants.StrategyHTML:
		if site.HTMLConfig == nil {
			return nil, fmt.Errorf("site %q: strategy=html requires html_config", site.SiteID)
		}
		return newHTMLStrategy(site, *site.HTMLConfig, httpTimeoutSeconds), nil
	case constants.StrategyBrowser:
		if site.BrowserConfig == nil {
			return nil, fmt.Errorf("site %q: strategy=browser requires browser_config", site.SiteID)
		}
		strat := newBrowserStrategy(site, *site.BrowserConfig, httpTimeoutSeconds)
		strat.SetRenderURL(browserRenderURL)
		return strat, nil
	default:
		return nil, fmt.Errorf("site %q: unknown strategy %q", site.SiteID, site.Strategy)
	}
}
