package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"procodus.dev/climate-monitor/internal/monitor"
)

// WritePDF writes a one-page statistics report: global figures and one row per location.
func WritePDF(w io.Writer, ds *Dataset) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, "Climate Monitoring Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", ds.GeneratedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Assets: %d", len(ds.Assets)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Readings: %d", ds.Global.TotalReadings))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Maintenance records: %d", len(ds.Maintenance)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Temperature (C) / Humidity (%)")
	pdf.Ln(7)

	widths := []float64{40, 18, 33, 33, 33, 33}
	header := []string{"Location", "Count", "Mean", "Min", "Max", "Std dev"}
	for i, h := range header {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	row := func(label string, s monitor.StatisticsSummary) {
		cells := []string{
			label,
			fmt.Sprintf("%d", s.Count),
			pair(s.Temperature.Mean, s.Humidity.Mean),
			pair(s.Temperature.Min, s.Humidity.Min),
			pair(s.Temperature.Max, s.Humidity.Max),
			pair(s.Temperature.StdDev, s.Humidity.StdDev),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	for _, loc := range ds.Locations {
		row(loc.Location, loc.Summary)
	}
	pdf.SetFont("Arial", "B", 9)
	row("All locations", ds.Global.Summary)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func pair(temp, hum float64) string {
	return fmt.Sprintf("%.2f / %.2f", temp, hum)
}
