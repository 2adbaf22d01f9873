package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// archivePage writes a page's raw response body to
// data/raw/<YYYY-MM-DD>/<site_id>_page<N>.html. Strategies return the raw
// body alongside any parse error, so a parse failure never loses the raw bytes.
func archivePage(dataDir, siteID string, page int, body string) error {
	dir := filepath.Join(dataDir, "raw", time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_page%d.html", siteID, page))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write archive file %s: %w", path, err)
	}
	return nil
}
