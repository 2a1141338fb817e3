package xlsx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

const sheetName = "Jobs"

var headers = []string{
	"Doc Name", "Job ID", "Title", "Commitment", "Department", "Team", "Level",
	"Location", "All Locations", "Country", "Workplace Type", "Tags", "Updated At",
}

// Exporter writes a corpus snapshot workbook after each refresh, one row per
// posting. The workbook is a human-facing artifact; full_text stays out of it.
type Exporter struct{}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(ctx context.Context, jobs []domain.JobPosting, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("export path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("write header %s: %w", header, err)
		}
	}

	for i, job := range jobs {
		values := []any{
			job.DocName, job.JobID, job.JobTitle, job.Commitment, job.Department,
			job.Team, job.Level, job.Location, job.AllLocations, job.Country,
			job.WorkplaceType, job.Tags, job.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
