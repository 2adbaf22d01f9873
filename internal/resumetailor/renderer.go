package resumetailor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cmendes/jobhunter/internal/httpx"
)

// httpRenderer posts tailored résumé HTML to an external renderer service
// and writes the returned PDF bytes to disk. No PDF-from-HTML library
// appears anywhere in the example pack, so rendering is delegated to a
// sidecar over HTTP the same way the browser strategy delegates rendering.
type httpRenderer struct {
	rendererURL string
	client      *http.Client
	logger      *slog.Logger
}

func NewHTTPRenderer(rendererURL string, timeout time.Duration, logger *slog.Logger) Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpRenderer{rendererURL: rendererURL, client: &http.Client{Timeout: timeout}, logger: logger}
}

type renderPDFResponse struct {
	PDFBase64 string `json:"pdf_base64"`
}

func (r *httpRenderer) RenderPDF(ctx context.Context, html, outputPath string) error {
	if r.rendererURL == "" {
		return fmt.Errorf("resumetailor: no renderer url configured")
	}
	raw, _, err := httpx.SendJSON(ctx, r.client, r.rendererURL, map[string]any{"html": html}, nil, r.logger)
	if err != nil {
		return fmt.Errorf("render request: %w", err)
	}
	var resp renderPDFResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode render response: %w", err)
	}
	pdfBytes, err := base64.StdEncoding.DecodeString(resp.PDFBase64)
	if err != nil {
		return fmt.Errorf("decode pdf payload: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
