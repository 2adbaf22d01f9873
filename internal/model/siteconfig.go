package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cmendes/jobhunter/constants"
)

// FieldRule maps one extracted field to a selector/attribute pair. Used by
// both the html and browser strategies.
type FieldRule struct {
	Selector  string `json:"selector"`
	Attribute string `json:"attribute"` // "text", "href", or an arbitrary HTML attribute name
	URLPrefix string `json:"url_prefix,omitempty"`
	Optional  bool   `json:"optional,omitempty"`
}

// APIConfig is the strategy payload for strategy=="api".
type APIConfig struct {
	URLTemplate string            `json:"url_template"` // may contain "{page}"
	Method      string            `json:"method"`
	Params      map[string]string `json:"params,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	ListPath    string            `json:"list_path"` // dot-path to the array of listings
	FieldPaths  map[string]string `json:"field_paths"`
}

// HTMLConfig is the strategy payload for strategy=="html".
type HTMLConfig struct {
	ListPageURLTemplate string               `json:"list_page_url_template"`
	CardSelector        string               `json:"card_selector"`
	Fields              map[string]FieldRule `json:"fields"`
	Pagination          PaginationConfig     `json:"pagination"`
}

// PaginationConfig selects how the html/browser strategies advance pages.
type PaginationConfig struct {
	Mode          string `json:"mode"` // "url_param" or "next_button"
	PageParam     string `json:"page_param,omitempty"`
	NextSelector  string `json:"next_selector,omitempty"`
}

// BrowserConfig is the strategy payload for strategy=="browser": the same
// selector schema as HTMLConfig, preceded by a headless-render step.
type BrowserConfig struct {
	HTMLConfig
	WaitForSelector string `json:"wait_for_selector,omitempty"`
	ScrollPasses    int    `json:"scroll_passes,omitempty"`
}

// DetailPageConfig describes the optional detail-page follow-up fetch.
type DetailPageConfig struct {
	Enabled      bool      `json:"enabled"`
	Description  FieldRule `json:"description"`
	Requirements FieldRule `json:"requirements"`
}

// SiteConfig is one entry of site_configs/*.json. The strategy-specific
// payload is a tagged union selected by Strategy: {APIConfig, HTMLConfig,
// BrowserConfig}.
type SiteConfig struct {
	SiteID          string                    `json:"site_id"`
	Name            string                    `json:"name"`
	URL             string                    `json:"url"`
	Country         string                    `json:"country"`
	Enabled         bool                      `json:"enabled"`
	Strategy        constants.Strategy        `json:"strategy"`
	MaxPages        int                       `json:"max_pages"`
	APIConfig       *APIConfig                `json:"api_config,omitempty"`
	HTMLConfig      *HTMLConfig               `json:"html_config,omitempty"`
	BrowserConfig   *BrowserConfig            `json:"browser_config,omitempty"`
	DetailPage      DetailPageConfig          `json:"detail_page,omitempty"`
	KeywordOverride *KeywordConfig            `json:"keywords,omitempty"`
}

// UnmarshalJSON fails the parse with a clear message rather than silently
// accepting a strategy/payload mismatch in the tagged union.
func (s *SiteConfig) UnmarshalJSON(data []byte) error {
	type alias SiteConfig
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = SiteConfig(a)
	if s.MaxPages <= 0 {
		s.MaxPages = 1
	}
	switch s.Strategy {
	case constants.StrategyAPI:
		if s.APIConfig == nil {
			return fmt.Errorf("site %q: strategy=api requires api_config", s.SiteID)
		}
	case constants.StrategyHTML:
		if s.HTMLConfig == nil {
			return fmt.Errorf("site %q: strategy=html requires html_config", s.SiteID)
		}
	case constants.StrategyBrowser:
		if s.BrowserConfig == nil {
			return fmt.Errorf("site %q: strategy=browser requires browser_config", s.SiteID)
		}
	default:
		return fmt.Errorf("site %q: unknown strategy %q", s.SiteID, s.Strategy)
	}
	return nil
}

// KeywordConfig holds the three ordered keyword sequences, plus the Override
// flag governing global/per-site merge semantics.
type KeywordConfig struct {
	MustHaveAny      []string `json:"must_have_any"`
	MustNotHave      []string `json:"must_not_have"`
	TitleMustHaveAny []string `json:"title_must_have_any"`
	Override         bool     `json:"override"`
}

// Effective computes the per-site effective KeywordConfig: when Override is
// set, the per-site config entirely replaces the global one;
// otherwise per-site lists are unioned into the global lists (duplicates
// collapsed, case-insensitive).
func (global KeywordConfig) Effective(perSite *KeywordConfig) KeywordConfig {
	if perSite == nil {
		return global
	}
	if perSite.Override {
		return *perSite
	}
	return KeywordConfig{
		MustHaveAny:      unionFold(global.MustHaveAny, perSite.MustHaveAny),
		MustNotHave:      unionFold(global.MustNotHave, perSite.MustNotHave),
		TitleMustHaveAny: unionFold(global.TitleMustHaveAny, perSite.TitleMustHaveAny),
	}
}

func unionFold(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	add := func(list []string) {
		for _, s := range list {
			key := strings.ToLower(strings.TrimSpace(s))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
	}
	add(a)
	add(b)
	return out
}
