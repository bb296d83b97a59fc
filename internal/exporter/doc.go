// Package exporter writes CSV files next to generated report workbooks.
//
// CSVWriter is the core writer, with optional UTF-8 BOM for Excel and a
// streaming mode for large outputs. ExportSeries writes one chart series as
// a CSV whose header is the x column followed by the MM/DD/YYYY snapshot
// labels.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(outputDir, logger)
//	err := writer.ExportSeries("Cono1_grph_Section11_LastWk.csv", series)
package exporter
