package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	apierrors "lobstats/internal/errors"
	"lobstats/internal/lobstats"
)

// SheetName is the worksheet holding the averages
const SheetName = "Averages"

var header = []string{"country", "lob", "average"}

// Row is one country/lob average
type Row struct {
	Country string
	Lob     string
	Average decimal.Decimal
}

// Report is a set of averages computed over one window
type Report struct {
	Metric string
	Window lobstats.Window
	Rows   []Row
}

// NewReport flattens per-country results into rows ordered by country, then lob
func NewReport(metric string, window lobstats.Window, results map[string]lobstats.Averages) Report {
	rows := make([]Row, 0, len(results))
	for country, averages := range results {
		for lob, avg := range averages {
			rows = append(rows, Row{Country: country, Lob: lob, Average: avg})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Country != rows[j].Country {
			return rows[i].Country < rows[j].Country
		}
		return rows[i].Lob < rows[j].Lob
	})

	return Report{Metric: metric, Window: window, Rows: rows}
}

// WriteXLSX writes the report to a workbook with an Averages sheet and a
// Summary sheet describing the window
func WriteXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", bold); err != nil {
		return err
	}

	for i, row := range report.Rows {
		line := i + 2
		if err := f.SetCellStr(SheetName, cellName(1, line), row.Country); err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cellName(2, line), row.Lob); err != nil {
			return err
		}
		if err := f.SetCellFloat(SheetName, cellName(3, line), row.Average.InexactFloat64(), -1, 64); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetName, "A", "B", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "C", "C", 22); err != nil {
		return err
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"metric", report.Metric},
		{"year_from", report.Window.From},
		{"year_to", report.Window.To},
		{"rows", len(report.Rows)},
	}
	for i, line := range summary {
		line := line
		if err := f.SetSheetRow("Summary", cellName(1, i+1), &line); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// SaveFile writes the report to path, choosing the format from the extension
func SaveFile(path string, report Report) error {
	return SaveFileWithOptions(path, report, CSVOptions{})
}

// SaveFileWithOptions is SaveFile with CSV options. opts is ignored for XLSX.
func SaveFileWithOptions(path string, report Report, opts CSVOptions) error {
	write := func(w io.Writer, report Report) error {
		return WriteCSVWithOptions(w, report, opts)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		write = WriteXLSX
	case ".csv":
	default:
		return apierrors.NewAppValidationError(fmt.Sprintf("unsupported export format %q", filepath.Ext(path))).
			WithContext("path", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apierrors.NewStorageError("create export directory", err).WithContext("path", path)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return apierrors.NewStorageError("create export file", err).WithContext("path", path)
	}

	if err := write(file, report); err != nil {
		file.Close()
		return apierrors.NewStorageError("write export file", err).WithContext("path", path)
	}
	if err := file.Close(); err != nil {
		return apierrors.NewStorageError("close export file", err).WithContext("path", path)
	}
	return nil
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		// col and row are always positive here
		return "A" + strconv.Itoa(row)
	}
	return name
}
