// Package exporter writes computed averages to files.
//
// A Report holds the averages of one or more countries over a single year
// window, ordered by country and then line of business. It can be written
// as CSV, optionally with a UTF-8 BOM for Excel, or as an XLSX workbook with
// an Averages sheet and a Summary sheet.
//
// Example usage:
//
//	report := exporter.NewReport("gwp", window, map[string]lobstats.Averages{
//	    "ae": averages,
//	})
//	err := exporter.SaveFile("reports/averages.xlsx", report)
package exporter
