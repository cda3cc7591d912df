package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetAssets      = "Assets"
	sheetReadings    = "Readings"
	sheetMaintenance = "Maintenance"
)

// WriteXLSX writes a workbook with the sheets Assets, Readings and Maintenance.
func WriteXLSX(w io.Writer, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetAssets); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	for _, name := range []string{sheetReadings, sheetMaintenance} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]any
	}{
		{sheetAssets, assetHeader, assetCells(ds)},
		{sheetReadings, readingHeader, readingCells(ds)},
		{sheetMaintenance, maintenanceHeader, maintenanceCells(ds)},
	}
	for _, s := range sheets {
		header := make([]any, len(s.header))
		for i, h := range s.header {
			header[i] = h
		}
		if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.name, err)
		}
		for i, row := range s.rows {
			if err := f.SetSheetRow(s.name, fmt.Sprintf("A%d", i+2), &row); err != nil {
				return fmt.Errorf("failed to write %s: %w", s.name, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func assetCells(ds *Dataset) [][]any {
	rows := make([][]any, 0, len(ds.Assets))
	for _, a := range ds.Assets {
		rows = append(rows, []any{a.ID, a.Name, a.Location, string(a.Kind), dateStr(a.InstalledOn)})
	}
	return rows
}

func readingCells(ds *Dataset) [][]any {
	rows := make([][]any, 0, len(ds.Readings))
	for _, r := range ds.Readings {
		rows = append(rows, []any{r.ID, r.AssetID, r.Timestamp.UTC(), r.Temperature, r.Humidity})
	}
	return rows
}

func maintenanceCells(ds *Dataset) [][]any {
	rows := make([][]any, 0, len(ds.Maintenance))
	for _, m := range ds.Maintenance {
		rows = append(rows, []any{m.ID, m.AssetID, m.PerformedAt.UTC(), m.Kind, m.Technician, m.Description})
	}
	return rows
}
