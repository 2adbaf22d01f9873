// Package export renders the applications table to an XLSX workbook, a
// manual review surface for tracked applications, over
// github.com/xuri/excelize/v2.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cmendes/jobhunter/internal/store"
)

// Service is a tiny façade over the application repository that produces
// XLSX bytes for export.
type Service struct {
	applications store.ApplicationRepository
	logger       *slog.Logger
}

func NewService(applications store.ApplicationRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{applications: applications, logger: logger}
}

// ExportApplicationsXLSX returns an XLSX workbook (as bytes) covering every
// tracked application, most recently updated first.
func (s *Service) ExportApplicationsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	apps, err := s.applications.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Applications"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Company",
		"Role",
		"Country",
		"Status",
		"Applied Date",
		"Status Updated",
		"Résumé Version",
		"Source Site",
		"Notes",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, a := range apps {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, a.Company)
		write(2, a.Role)
		write(3, a.Country)
		write(4, a.Status)
		if a.AppliedDate != nil {
			write(5, a.AppliedDate.Format("2006-01-02"))
		} else {
			write(5, "")
		}
		write(6, a.StatusUpdated.Format("2006-01-02"))
		write(7, a.ResumeVersion)
		write(8, a.SourceSite)
		write(9, a.Notes)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "B", 26)
	_ = f.SetColWidth(sheet, "C", "C", 14)
	_ = f.SetColWidth(sheet, "D", "D", 14)
	_ = f.SetColWidth(sheet, "E", "F", 16)
	_ = f.SetColWidth(sheet, "G", "G", 40)
	_ = f.SetColWidth(sheet, "H", "H", 18)
	_ = f.SetColWidth(sheet, "I", "I", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok", "rows", len(apps), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
