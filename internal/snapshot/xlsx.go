package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first sheet of an XLSX snapshot using the same header
// rules as the CSV reader.
func ReadXLSX(path string, date time.Time) ([]domain.InventoryRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var (
		cols    columns
		haveHdr bool
		out     = make([]domain.InventoryRecord, 0)
	)
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		if !haveHdr {
			if cols, err = mapColumns(record); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			haveHdr = true
			continue
		}
		if row, ok := cols.toRecord(record, date); ok {
			out = append(out, row)
		}
	}

	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in %s: %w", path, err)
	}
	if !haveHdr {
		return nil, fmt.Errorf("xlsx file %s has no header row", path)
	}

	return out, nil
}

// ConvertXLSXToCSV converts the first sheet of an XLSX file to a CSV file.
func ConvertXLSXToCSV(xlsxPath, csvPath string) error {
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("failed to open xlsx file %s: %w", xlsxPath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("xlsx file %s has no sheets", xlsxPath)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create csv file %s: %w", csvPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read row from %s: %w", xlsxPath, err)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row to %s: %w", csvPath, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", csvPath, err)
	}

	return rows.Error()
}
