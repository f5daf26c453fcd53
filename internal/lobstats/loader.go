package lobstats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Fixed column headers, matched case-insensitively.
const (
	ColumnCountry        = "country"
	ColumnVariableID     = "variableId"
	ColumnVariableName   = "variableName"
	ColumnLineOfBusiness = "lineOfBusiness"
)

var (
	yearHeaderPattern = regexp.MustCompile(`^Y([0-9]{4})$`)

	fixedColumns = []string{ColumnCountry, ColumnVariableID, ColumnVariableName, ColumnLineOfBusiness}

	errMissingColumn   = errors.New("required column missing")
	errInvalidNumber   = errors.New("not a valid number")
	errValueOutOfRange = errors.New("value out of range")

	// maxValue is the largest magnitude a 96-bit decimal with scale 0 holds.
	maxValue = decimal.RequireFromString("79228162514264337593543950335")
)

// maxScale is the number of fractional digits kept for a year value.
const maxScale = 28

// Format identifies the encoding of a dataset source.
type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// rowSource yields raw rows, header first. It returns io.EOF when exhausted.
type rowSource interface {
	next() ([]string, error)
	close() error
}

type yearColumn struct {
	index  int
	year   int
	header string
}

// RecordReader turns a tabular source into StatRecord values one row at a time.
// It is not restartable: once it returns an error, every later call returns
// the same error.
type RecordReader struct {
	src    rowSource
	closer io.Closer
	fixed  [4]int
	years  []yearColumn
	row    int
	err    error
}

// NewCSVReader reads the header row from r and returns a reader over the
// remaining rows. Fields follow RFC 4180 quoting; rows may be shorter or longer
// than the header.
func NewCSVReader(r io.Reader) (*RecordReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return newRecordReader(&csvRows{reader: cr})
}

// NewXLSXReader reads the named worksheet (the first one when sheet is empty)
// with the same header and cell rules as NewCSVReader. Close releases the
// workbook.
func NewXLSXReader(r io.Reader, sheet string) (*RecordReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("open workbook: %w", err)}
	}

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			f.Close()
			return nil, &ParseError{Err: errors.New("workbook has no sheets")}
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, &ParseError{Column: sheet, Err: fmt.Errorf("open sheet: %w", err)}
	}

	return newRecordReader(&xlsxRows{file: f, rows: rows})
}

func newRecordReader(src rowSource) (*RecordReader, error) {
	header, err := src.next()
	if err != nil {
		src.close()
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Row: 1, Err: errors.New("header row missing")}
		}
		return nil, &ParseError{Row: 1, Err: err}
	}

	rr := &RecordReader{src: src, row: 1}
	if err := rr.parseHeader(header); err != nil {
		src.close()
		return nil, err
	}
	return rr, nil
}

func (rr *RecordReader) parseHeader(header []string) error {
	for i := range rr.fixed {
		rr.fixed[i] = -1
	}

	for idx, raw := range header {
		h := strings.TrimSpace(raw)
		if idx == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}

		if m := yearHeaderPattern.FindStringSubmatch(h); m != nil {
			year, _ := strconv.Atoi(m[1])
			rr.years = append(rr.years, yearColumn{index: idx, year: year, header: h})
			continue
		}

		for i, name := range fixedColumns {
			if rr.fixed[i] == -1 && strings.EqualFold(h, name) {
				rr.fixed[i] = idx
				break
			}
		}
	}

	for i, name := range fixedColumns {
		if rr.fixed[i] == -1 {
			return &ParseError{Row: 1, Column: name, Err: errMissingColumn}
		}
	}
	return nil
}

// Read returns the next record, or io.EOF after the last row.
func (rr *RecordReader) Read() (StatRecord, error) {
	if rr.err != nil {
		return StatRecord{}, rr.err
	}

	for {
		fields, err := rr.src.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				rr.err = io.EOF
			} else {
				rr.err = &ParseError{Row: rr.row + 1, Err: err}
			}
			return StatRecord{}, rr.err
		}
		rr.row++

		if blankRow(fields) {
			continue
		}

		rec, err := rr.buildRecord(fields)
		if err != nil {
			rr.err = err
			return StatRecord{}, err
		}
		return rec, nil
	}
}

// ReadAll reads every remaining record. On error no records are returned.
func (rr *RecordReader) ReadAll() ([]StatRecord, error) {
	var records []StatRecord
	for {
		rec, err := rr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// Close releases resources held by the underlying source.
func (rr *RecordReader) Close() error {
	err := rr.src.close()
	if rr.closer != nil {
		if cerr := rr.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (rr *RecordReader) buildRecord(fields []string) (StatRecord, error) {
	rec := StatRecord{
		Country:        cell(fields, rr.fixed[0]),
		VariableID:     cell(fields, rr.fixed[1]),
		VariableName:   cell(fields, rr.fixed[2]),
		LineOfBusiness: cell(fields, rr.fixed[3]),
		values:         make(map[int]decimal.Decimal, len(rr.years)),
	}

	for _, col := range rr.years {
		raw := cell(fields, col.index)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return StatRecord{}, &ParseError{Row: rr.row, Column: col.header, Value: raw, Err: errInvalidNumber}
		}
		v, err = boundValue(v)
		if err != nil {
			return StatRecord{}, &ParseError{Row: rr.row, Column: col.header, Value: raw, Err: err}
		}
		rec.values[col.year] = v
	}
	return rec, nil
}

func cell(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

func blankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

type csvRows struct {
	reader *csv.Reader
}

func (s *csvRows) next() ([]string, error) {
	return s.reader.Read()
}

func (s *csvRows) close() error {
	return nil
}

type xlsxRows struct {
	file *excelize.File
	rows *excelize.Rows
}

func (s *xlsxRows) next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return s.rows.Columns(excelize.Options{RawCellValue: true})
}

func (s *xlsxRows) close() error {
	rowsErr := s.rows.Close()
	if err := s.file.Close(); err != nil {
		return err
	}
	return rowsErr
}

// boundValue keeps v within ±maxValue and maxScale fractional digits. Values
// smaller than the scale can express become zero. The magnitude is checked
// from the coefficient length and exponent before any arithmetic, since
// rescaling to an extreme exponent does not terminate in practice.
func boundValue(v decimal.Decimal) (decimal.Decimal, error) {
	coef := v.Coefficient()
	if coef.Sign() == 0 {
		return decimal.Zero, nil
	}

	digits := int64(len(coef.Abs(coef).String()))
	exp := int64(v.Exponent())
	// |v| lies in [10^(magnitude-1), 10^magnitude)
	magnitude := digits + exp

	switch {
	case magnitude > 29:
		return decimal.Decimal{}, errValueOutOfRange
	case magnitude < -maxScale:
		return decimal.Zero, nil
	case exp < -maxScale:
		v = v.Round(maxScale)
	}

	if v.Abs().GreaterThan(maxValue) {
		return decimal.Decimal{}, errValueOutOfRange
	}
	return v, nil
}
