package lobstats

import (
	"sort"

	"github.com/shopspring/decimal"
)

// StatRecord is one row of the statistics table.
type StatRecord struct {
	Country        string
	VariableID     string
	VariableName   string
	LineOfBusiness string

	values map[int]decimal.Decimal
}

// NewStatRecord builds a record. The values map is copied; a year present in
// values means the source cell was non-empty.
func NewStatRecord(country, variableID, variableName, lineOfBusiness string, values map[int]decimal.Decimal) StatRecord {
	copied := make(map[int]decimal.Decimal, len(values))
	for year, v := range values {
		copied[year] = v
	}
	return StatRecord{
		Country:        country,
		VariableID:     variableID,
		VariableName:   variableName,
		LineOfBusiness: lineOfBusiness,
		values:         copied,
	}
}

// Value returns the value recorded for year and whether the year had data.
func (r StatRecord) Value(year int) (decimal.Decimal, bool) {
	v, ok := r.values[year]
	return v, ok
}

// Years returns the years with data in ascending order.
func (r StatRecord) Years() []int {
	years := make([]int, 0, len(r.values))
	for year := range r.values {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Len returns the number of years with data.
func (r StatRecord) Len() int {
	return len(r.values)
}

// Equal reports whether two records carry the same identity and values.
// Values are compared numerically, so 1.50 equals 1.5.
func (r StatRecord) Equal(other StatRecord) bool {
	if r.Country != other.Country ||
		r.VariableID != other.VariableID ||
		r.VariableName != other.VariableName ||
		r.LineOfBusiness != other.LineOfBusiness ||
		len(r.values) != len(other.values) {
		return false
	}
	for year, v := range r.values {
		ov, ok := other.values[year]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Averages maps a line of business to its average over the configured window.
type Averages map[string]decimal.Decimal

// Clone returns an independent copy.
func (a Averages) Clone() Averages {
	out := make(Averages, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
