package mapping

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dendrascience/filecoder/util"
)

// xlsxFormat keeps the mapping in the first sheet of an Excel workbook,
// code in column A and identity in column B, under an optional header row.
// Codes are written as text cells so wide codes keep every digit.
type xlsxFormat struct{}

func (xlsxFormat) Name() string         { return "xlsx" }
func (xlsxFormat) Extensions() []string { return []string{".xlsx"} }

func (xlsxFormat) Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wb, err := excelize.OpenReader(f)
	if err != nil {
		return nil, &util.FormatError{Path: path, Reason: "not a readable xlsx workbook", Err: err}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &util.FormatError{Path: path, Reason: "workbook has no sheets"}
	}
	rows, err := wb.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &util.FormatError{Path: path, Reason: "unreadable sheet " + sheets[0], Err: err}
	}

	var records []Record
	for i, cells := range rows {
		row := i + 1
		if len(cells) == 0 {
			continue
		}
		if row == 1 && isHeader(cells) {
			continue
		}
		if len(cells) > 2 {
			return nil, &util.FormatError{Path: path, Row: row, Reason: fmt.Sprintf("expected 2 columns, found %d", len(cells))}
		}
		// Trailing empty cells are trimmed by GetRows.
		for len(cells) < 2 {
			cells = append(cells, "")
		}
		records = append(records, Record{Entry: Entry{Code: strings.TrimSpace(cells[0]), Identity: cells[1]}, Row: row})
	}
	return records, nil
}

func (xlsxFormat) Write(path string, entries []Entry) error {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)

	if err := wb.SetSheetRow(sheet, "A1", &[]any{csvHeader[0], csvHeader[1]}); err != nil {
		return err
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &[]any{e.Code, e.Identity}); err != nil {
			return fmt.Errorf("failed to write code %s: %w", e.Code, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := wb.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}
