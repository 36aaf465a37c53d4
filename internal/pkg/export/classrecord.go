// Package export renders class records as Excel workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"github.com/yigit/crms/internal/pkg/grading"
)

// ContentType of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	recordSheet = "Class Record"
	itemsSheet  = "Items"
	headerRow   = 4
)

// ClassRecord is the data rendered into the workbook
type ClassRecord struct {
	CourseCode  string
	CourseTitle string
	SectionCode string
	Columns     []grading.Item
	Rows        []Row
}

// Row is one enrollment of the class record
type Row struct {
	StudentNumber string
	StudentName   string
	Result        grading.Result
}

type itemKey struct {
	kind grading.ItemKind
	id   int64
}

// ClassRecordWorkbook builds an .xlsx with one row per student and one column
// per assessment or sub-assessment, followed by the overall and weighted grades.
func ClassRecordWorkbook(rec ClassRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	set := func(sheet string, col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	if err := set(recordSheet, 1, 1, fmt.Sprintf("%s %s", rec.CourseCode, rec.CourseTitle)); err != nil {
		return nil, err
	}
	if err := set(recordSheet, 1, 2, "Section "+rec.SectionCode); err != nil {
		return nil, err
	}

	headers := []string{"Student Number", "Student Name"}
	for _, c := range rec.Columns {
		headers = append(headers, fmt.Sprintf("%s (/%g)", c.Title, c.TotalPoints))
	}
	headers = append(headers, "Overall Grade", "Weighted Grade")
	for i, h := range headers {
		if err := set(recordSheet, i+1, headerRow, h); err != nil {
			return nil, err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(recordSheet, "A1", fmt.Sprintf("%s%d", lastCol, headerRow), bold); err != nil {
		return nil, err
	}

	for r, row := range rec.Rows {
		line := headerRow + 1 + r
		scores := make(map[itemKey]*float64, len(row.Result.Items))
		for _, it := range row.Result.Items {
			scores[itemKey{it.Kind, it.ID}] = it.Score
		}

		values := []any{row.StudentNumber, row.StudentName}
		for _, c := range rec.Columns {
			values = append(values, optional(scores[itemKey{c.Kind, c.ID}]))
		}
		values = append(values, optional(row.Result.OverallGrade), optional(row.Result.WeightedGrade))

		for i, v := range values {
			if err := set(recordSheet, i+1, line, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(recordSheet, "A", "A", 16); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(recordSheet, "B", "B", 28); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("failed to add items sheet: %w", err)
	}
	for i, h := range []string{"Kind", "Title", "Total Points", "Weight %"} {
		if err := set(itemsSheet, i+1, 1, h); err != nil {
			return nil, err
		}
	}
	for r, c := range rec.Columns {
		for i, v := range []any{string(c.Kind), c.Title, c.TotalPoints, c.WeightPercentage} {
			if err := set(itemsSheet, i+1, r+2, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
