// Package siteconfig loads site_configs/*.json: one file per site, skipping
// template files (name begins with "_") and disabled sites.
package siteconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cmendes/jobhunter/internal/common"
	"github.com/cmendes/jobhunter/internal/model"
)

// LoadDir reads every *.json file in dir, skipping names beginning with "_"
// and configs with enabled=false, and returns the remaining configs sorted
// by site_id for deterministic ordering.
func LoadDir(dir string) ([]model.SiteConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.Fatal(common.NewAppError("CONFIG_ERROR", "read site_configs dir", err))
	}

	var out []model.SiteConfig
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if strings.HasPrefix(e.Name(), "_") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, common.Fatal(common.NewAppError("CONFIG_ERROR", fmt.Sprintf("read site config %s", e.Name()), err))
		}
		var cfg model.SiteConfig
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, common.Fatal(common.NewAppError("CONFIG_ERROR", fmt.Sprintf("parse site config %s", e.Name()), err))
		}
		if !cfg.Enabled {
			continue
		}
		out = append(out, cfg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SiteID < out[j].SiteID })
	return out, nil
}
