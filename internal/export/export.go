// Package export renders asset, reading and maintenance data as CSV archives, Excel workbooks
// and PDF statistics reports.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"procodus.dev/climate-monitor/internal/monitor"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", &monitor.ValidationError{Field: "format", Reason: "must be csv, xlsx or pdf"}
	}
}

// ContentType returns the MIME type of files in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "application/zip"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Filename returns the download name for an export generated at t.
func (f Format) Filename(t time.Time) string {
	ext := string(f)
	if f == FormatCSV {
		ext = "zip"
	}
	return fmt.Sprintf("climate-export-%s.%s", t.UTC().Format("20060102-150405"), ext)
}

// Dataset is everything an export contains.
type Dataset struct {
	GeneratedAt time.Time
	Assets      []monitor.Asset
	Readings    []monitor.Reading
	Maintenance []monitor.Maintenance
	Global      monitor.GlobalStatistics
	Locations   []monitor.LocationStatistics
}

// Write renders ds to w in format f.
func Write(w io.Writer, f Format, ds *Dataset) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, ds)
	case FormatXLSX:
		return WriteXLSX(w, ds)
	case FormatPDF:
		return WritePDF(w, ds)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

var (
	assetHeader       = []string{"id", "name", "location", "kind", "installed_on"}
	readingHeader     = []string{"id", "asset_id", "timestamp", "temperature", "humidity"}
	maintenanceHeader = []string{"id", "asset_id", "performed_at", "kind", "technician", "description"}
)

func assetRow(a monitor.Asset) []string {
	return []string{uintStr(a.ID), a.Name, a.Location, string(a.Kind), dateStr(a.InstalledOn)}
}

func readingRow(r monitor.Reading) []string {
	return []string{
		uintStr(r.ID),
		uintStr(r.AssetID),
		r.Timestamp.UTC().Format(time.RFC3339),
		floatStr(r.Temperature),
		floatStr(r.Humidity),
	}
}

func maintenanceRow(m monitor.Maintenance) []string {
	return []string{
		uintStr(m.ID),
		uintStr(m.AssetID),
		m.PerformedAt.UTC().Format(time.RFC3339),
		m.Kind,
		m.Technician,
		m.Description,
	}
}

func uintStr(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func floatStr(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dateStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
