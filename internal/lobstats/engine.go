package lobstats

import (
	"github.com/shopspring/decimal"
)

// Window is an inclusive range of years.
type Window struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Validate fails with InvalidRangeError when To precedes From.
func (w Window) Validate() error {
	if w.To < w.From {
		return &InvalidRangeError{YearFrom: w.From, YearTo: w.To}
	}
	return nil
}

// Len returns the number of years in the window.
func (w Window) Len() int {
	return w.To - w.From + 1
}

// Contains reports whether year lies inside the window.
func (w Window) Contains(year int) bool {
	return year >= w.From && year <= w.To
}

// ComputeAverages averages variableID over [yearFrom, yearTo] for every record
// of country whose line of business is in lobs.
//
// Missing years count as zero and the divisor is always the full window
// length. Lobs without a matching record are absent from the result. When the
// dataset holds several records for the same lob, the first one wins.
func ComputeAverages(records []StatRecord, country, variableID string, lobs []string, yearFrom, yearTo int) (Averages, error) {
	window := Window{From: yearFrom, To: yearTo}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(lobs))
	for _, lob := range lobs {
		wanted[lob] = struct{}{}
	}

	divisor := decimal.NewFromInt(int64(window.Len()))
	result := make(Averages, len(lobs))

	for _, rec := range records {
		if rec.Country != country || rec.VariableID != variableID {
			continue
		}
		if _, ok := wanted[rec.LineOfBusiness]; !ok {
			continue
		}
		if _, done := result[rec.LineOfBusiness]; done {
			continue
		}

		sum := decimal.Zero
		for year, v := range rec.values {
			if window.Contains(year) {
				sum = sum.Add(v)
			}
		}
		result[rec.LineOfBusiness] = sum.Div(divisor)
	}

	return result, nil
}
