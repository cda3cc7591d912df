package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes a zip archive holding assets.csv, readings.csv and maintenance.csv.
func WriteCSV(w io.Writer, ds *Dataset) error {
	zw := zip.NewWriter(w)

	files := []struct {
		name   string
		header []string
		rows   func(*csv.Writer) error
	}{
		{"assets.csv", assetHeader, func(cw *csv.Writer) error {
			for _, a := range ds.Assets {
				if err := cw.Write(assetRow(a)); err != nil {
					return err
				}
			}
			return nil
		}},
		{"readings.csv", readingHeader, func(cw *csv.Writer) error {
			for _, r := range ds.Readings {
				if err := cw.Write(readingRow(r)); err != nil {
					return err
				}
			}
			return nil
		}},
		{"maintenance.csv", maintenanceHeader, func(cw *csv.Writer) error {
			for _, m := range ds.Maintenance {
				if err := cw.Write(maintenanceRow(m)); err != nil {
					return err
				}
			}
			return nil
		}},
	}

	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: ds.GeneratedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", f.name, err)
		}
		cw := csv.NewWriter(fw)
		if err := cw.Write(f.header); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		if err := f.rows(cw); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}
