package exporter

import (
	"log/slog"

	"snapcli/internal/temporal"
)

// SeriesTable flattens a series into CSV headers and records: the x column
// followed by one column per snapshot label.
func SeriesTable(s *temporal.Series) ([]string, [][]string) {
	headers := append([]string{s.XColumn}, s.DisplayLabels...)
	records := make([][]string, 0, s.Len())
	for i, x := range s.XValues {
		record := make([]string, 0, len(headers))
		record = append(record, x)
		for _, y := range s.YValues[i] {
			record = append(record, formatNumber(y))
		}
		records = append(records, record)
	}
	return headers, records
}

// ExportSeries writes s to filePath as a streamed CSV.
func (w *CSVWriter) ExportSeries(filePath string, s *temporal.Series) error {
	headers, records := SeriesTable(s)

	stream, err := w.CreateStreamWriter(filePath, headers)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return err
		}
	}
	if err := stream.Close(); err != nil {
		return err
	}

	w.logger.Info("Series exported",
		slog.String("file", w.resolvePath(filePath)),
		slog.String("metric", s.MetricID),
		slog.Int("rows", len(records)))
	return nil
}
