package scraper

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestArchivePageWritesRawBodyUnderDateDir(t *testing.T) {
	dir := t.TempDir()
	if err := archivePage(dir, "acme", 2, "<html>raw body</html>"); err != nil {
		t.Fatalf("archivePage: %v", err)
	}

	expected := filepath.Join(dir, "raw", time.Now().Format("2006-01-02"), "acme_page2.html")
	got, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("expected archive file at %s: %v", expected, err)
	}
	if string(got) != "<html>raw body</html>" {
		t.Errorf("archived body = %q, want the raw page body", got)
	}
}
