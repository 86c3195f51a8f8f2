package bootcamp

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Enrollments"

var exportHeader = []string{
	"ID", "Name", "Email", "Phone", "Courses Interested", "Status", "Assigned Course",
	"Approval Date", "Experience", "Motivation", "Notes", "Applied At",
}

// Export writes the filtered enrollments to w as an xlsx workbook.
func (s *Service) Export(ctx context.Context, status string, w io.Writer) error {
	list, err := s.List(ctx, status)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	for i, e := range list {
		approval := ""
		if e.ApprovalDate != nil {
			approval = e.ApprovalDate.Format("2006-01-02")
		}
		row := []any{
			e.ID, e.Name, e.Email, e.Phone, strings.Join(e.CoursesInterested, ", "), string(e.Status),
			e.AssignedCourse, approval, e.Experience, e.Motivation, e.Notes, e.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}
