package model

import (
	"encoding/json"
	"reflect"
	"sort"
	"testing"

	"github.com/cmendes/jobhunter/constants"
)

func TestKeywordConfigEffectiveUnion(t *testing.T) {
	global := KeywordConfig{
		MustHaveAny: []string{"golang", "python"},
		MustNotHave: []string{"unpaid"},
	}
	perSite := &KeywordConfig{
		MustHaveAny: []string{"Golang", "rust"}, // "Golang" duplicates "golang" case-insensitively
	}
	got := global.Effective(perSite)

	sort.Strings(got.MustHaveAny)
	want := []string{"golang", "python", "rust"}
	sort.Strings(want)
	if !reflect.DeepEqual(got.MustHaveAny, want) {
		t.Errorf("MustHaveAny = %v, want %v", got.MustHaveAny, want)
	}
	if !reflect.DeepEqual(got.MustNotHave, global.MustNotHave) {
		t.Errorf("MustNotHave = %v, want %v (unioned with empty per-site)", got.MustNotHave, global.MustNotHave)
	}
}

func TestKeywordConfigEffectiveOverride(t *testing.T) {
	global := KeywordConfig{MustHaveAny: []string{"golang"}}
	perSite := &KeywordConfig{MustHaveAny: []string{"rust"}, Override: true}
	got := global.Effective(perSite)
	if !reflect.DeepEqual(got.MustHaveAny, []string{"rust"}) {
		t.Errorf("expected override to replace wholesale, got %v", got.MustHaveAny)
	}
}

func TestKeywordConfigEffectiveNilPerSite(t *testing.T) {
	global := KeywordConfig{MustHaveAny: []string{"golang"}}
	got := global.Effective(nil)
	if !reflect.DeepEqual(got, global) {
		t.Errorf("expected nil per-site to return global unchanged, got %v", got)
	}
}

func TestSiteConfigUnmarshalRequiresMatchingPayload(t *testing.T) {
	raw := `{"site_id": "acme", "strategy": "api"}`
	var cfg SiteConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err == nil {
		t.Fatal("expected error for strategy=api with no api_config")
	}
}

func TestSiteConfigUnmarshalUnknownStrategy(t *testing.T) {
	raw := `{"site_id": "acme", "strategy": "smoke_signal"}`
	var cfg SiteConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestSiteConfigUnmarshalDefaultsMaxPages(t *testing.T) {
	raw := `{"site_id": "acme", "strategy": "api", "api_config": {"url_template": "https://x", "list_path": "items", "field_paths": {}}}`
	var cfg SiteConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxPages != 1 {
		t.Errorf("MaxPages = %d, want 1", cfg.MaxPages)
	}
	if cfg.Strategy != constants.StrategyAPI {
		t.Errorf("Strategy = %q, want %q", cfg.Strategy, constants.StrategyAPI)
	}
}
