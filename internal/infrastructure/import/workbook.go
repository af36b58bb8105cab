package csvimport

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

// IsWorkbook reports whether data looks like an xlsx workbook
func IsWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// ReadWorkbook reads every non-empty row of the active sheet. Cells keep their
// raw values, so amounts carry no display formatting; cells styled as dates
// become YYYY-MM-DD. A header row, when the profile has one, is the first
// record returned.
func ReadWorkbook(data []byte) ([]Record, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	defer func() { _ = wb.Close() }()

	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrMalformedFeed, sheet, err)
	}

	date1904 := false
	if props, err := wb.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	var records []Record
	for i, row := range rows {
		fields := make([]string, len(row))
		for j, v := range row {
			v = trimSpaces(v)
			if v != "" {
				v = dateCell(wb, sheet, i+1, j+1, v, date1904)
			}
			fields[j] = v
		}
		if isBlank(fields) {
			continue
		}
		records = append(records, Record{Line: i + 1, Fields: fields})
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return records, nil
}

// dateCell renders a date-styled serial number as YYYY-MM-DD and returns any
// other value unchanged
func dateCell(wb *excelize.File, sheet string, row, col int, raw string, date1904 bool) string {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	styleID, err := wb.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return raw
	}
	style, err := wb.GetStyle(styleID)
	if err != nil || !isDateFormat(style) {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}

// isDateFormat matches the built-in date formats (14-17, 22) and custom
// formats that carry both a year and a day token
func isDateFormat(s *excelize.Style) bool {
	if s.CustomNumFmt != nil {
		f := strings.ToLower(*s.CustomNumFmt)
		return strings.Contains(f, "y") && strings.Contains(f, "d")
	}
	return (s.NumFmt >= 14 && s.NumFmt <= 17) || s.NumFmt == 22
}
