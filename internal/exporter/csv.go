package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM helps Excel recognize UTF-8 CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	BOMPrefix bool
}

// StreamWriter writes report rows one at a time
type StreamWriter struct {
	writer *csv.Writer
	rows   int
}

// NewStreamWriter writes the optional BOM and the header line
func NewStreamWriter(w io.Writer, opts CSVOptions) (*StreamWriter, error) {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	return &StreamWriter{writer: writer}, nil
}

// WriteRow writes one country/lob average with its exact decimal value
func (s *StreamWriter) WriteRow(row Row) error {
	if err := s.writer.Write([]string{row.Country, row.Lob, row.Average.String()}); err != nil {
		return fmt.Errorf("failed to write record %d: %w", s.rows, err)
	}
	s.rows++
	return nil
}

// Rows returns the number of rows written so far
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Close flushes buffered rows
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	return s.writer.Error()
}

// WriteCSV writes the report as country,lob,average
func WriteCSV(w io.Writer, report Report) error {
	return WriteCSVWithOptions(w, report, CSVOptions{})
}

// WriteCSVWithOptions writes the report with the given options
func WriteCSVWithOptions(w io.Writer, report Report, opts CSVOptions) error {
	stream, err := NewStreamWriter(w, opts)
	if err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := stream.WriteRow(row); err != nil {
			return err
		}
	}
	return stream.Close()
}
