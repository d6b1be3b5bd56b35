package attendance

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
)

const (
	summarySheet = "Summary"
	recordsSheet = "Records"
)

// Export renders a student's subject-wise report and raw records as an
// xlsx workbook. It returns the workbook and a download file name.
func (s *Service) Export(ctx context.Context, caller access.Identity, studentID string) (*bytes.Buffer, string, error) {
	target, err := access.RequireTarget(caller, studentID)
	if err != nil {
		return nil, "", err
	}

	records, err := s.records.Find(ctx, shared.AttendanceFilter{StudentID: target})
	if err != nil {
		return nil, "", err
	}

	buf, err := buildWorkbook(target, records)
	if err != nil {
		s.logger.Error("failed to write attendance workbook", zap.String("student_id", target), zap.Error(err))
		return nil, "", shared.Internal("failed to generate export", err)
	}
	return buf, fmt.Sprintf("attendance_%s.xlsx", target), nil
}

func buildWorkbook(studentID string, records []shared.AttendanceRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	if _, err := f.NewSheet(recordsSheet); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 1. Summary sheet
	f.SetColWidth(summarySheet, "A", "A", 24)
	f.SetColWidth(summarySheet, "B", "E", 14)
	f.SetCellValue(summarySheet, "A1", fmt.Sprintf("Attendance report: %s", studentID))
	f.MergeCell(summarySheet, "A1", "E1")
	f.SetCellStyle(summarySheet, "A1", "A1", headerStyle)

	headers := []string{"Subject", "Total Classes", "Present", "Absent", "Percentage"}
	for i, h := range headers {
		f.SetCellValue(summarySheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(summarySheet, "A2", "E2", headerStyle)

	row := 3
	for _, subj := range sortedSubjects(AggregateBySubject(records)) {
		writeTally(f, row, subj.Subject, subj.Tally)
		row++
	}
	writeTally(f, row, "Overall", Aggregate(records))

	// 2. Records sheet
	f.SetColWidth(recordsSheet, "A", "C", 16)
	for i, h := range []string{"Date", "Subject", "Status"} {
		f.SetCellValue(recordsSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(recordsSheet, "A1", "C1", headerStyle)
	for i, r := range records {
		f.SetCellValue(recordsSheet, cell("A", i+2), r.Date)
		f.SetCellValue(recordsSheet, cell("B", i+2), r.Subject)
		f.SetCellValue(recordsSheet, cell("C", i+2), r.Status)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeTally(f *excelize.File, row int, label string, t Tally) {
	f.SetCellValue(summarySheet, cell("A", row), label)
	f.SetCellValue(summarySheet, cell("B", row), t.TotalClasses)
	f.SetCellValue(summarySheet, cell("C", row), t.Present)
	f.SetCellValue(summarySheet, cell("D", row), t.Absent)
	f.SetCellValue(summarySheet, cell("E", row), t.Percentage)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
