package services

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const responsesSheet = "Responses"

// ExportTableCSV renders the table as comma-separated text with a header row.
func ExportTableCSV(tbl ExportTable) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(tbl.Header); err != nil {
		return nil, err
	}
	for _, row := range tbl.Rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportTableXLSX renders the same content as a single-sheet workbook.
func ExportTableXLSX(tbl ExportTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", responsesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	writeRow := func(rowNum int, cells []string) error {
		for i, v := range cells {
			ref, err := excelize.CoordinatesToCellName(i+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(responsesSheet, ref, v); err != nil {
				return err
			}
		}
		return nil
	}
	if err := writeRow(1, tbl.Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range tbl.Rows {
		if err := writeRow(i+2, row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if len(tbl.Header) > 0 {
		last, err := excelize.ColumnNumberToName(len(tbl.Header))
		if err == nil {
			_ = f.SetColWidth(responsesSheet, "A", last, 24)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
