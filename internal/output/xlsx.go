package output

import (
	"fmt"

	"github.com/henrybloomingdale/pubmed-go/internal/eutils"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Articles"

// writeRecordsXLSX writes records to a workbook with a single "Articles"
// sheet: a bold RecordKeys header row followed by one row per record.
func writeRecordsXLSX(path string, records []eutils.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(eutils.RecordKeys))
	for i, k := range eutils.RecordKeys {
		header[i] = k
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(eutils.RecordKeys), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", last, style); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := r.Row()
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return fmt.Errorf("writing row for PMID %s: %w", r.PMID, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
