package xlsx

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

func TestExportWritesOneRowPerJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "jobs.xlsx")
	jobs := []domain.JobPosting{
		{DocName: "PALANTIR_JOBS_1", JobID: "a", JobTitle: "Backend Engineer", Department: "Engineering", UpdatedAt: time.Now()},
		{DocName: "PALANTIR_JOBS_2", JobID: "b", JobTitle: "Data Engineer", Department: "Data", UpdatedAt: time.Now()},
	}

	if err := New().Export(context.Background(), jobs, path); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Doc Name" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}
	if rows[1][0] != "PALANTIR_JOBS_1" || rows[1][2] != "Backend Engineer" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][0] != "PALANTIR_JOBS_2" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}

func TestExportRejectsEmptyPath(t *testing.T) {
	if err := New().Export(context.Background(), nil, ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
