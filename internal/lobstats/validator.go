package lobstats

import (
	"github.com/go-playground/validator/v10"
)

// QueryValidator checks query parameters before any computation.
type QueryValidator struct {
	validate *validator.Validate
}

// NewQueryValidator creates a validator. It is safe for concurrent use.
func NewQueryValidator() *QueryValidator {
	return &QueryValidator{validate: validator.New()}
}

var defaultQueryValidator = NewQueryValidator()

// Validate checks a query with the package default validator.
func Validate(country string, lobs []string) error {
	return defaultQueryValidator.Validate(country, lobs)
}

// Validate rejects, in order: a country that is not two lowercase ASCII
// letters, an empty lob list, and a lob list with repeated values.
func (v *QueryValidator) Validate(country string, lobs []string) error {
	if err := v.validate.Var(country, "len=2,alpha,lowercase"); err != nil {
		return &ValidationError{Field: "country", Value: country, Err: ErrInvalidCountryCode}
	}

	if err := v.validate.Var(lobs, "min=1"); err != nil {
		return &ValidationError{Field: "lob", Err: ErrEmptyLobList}
	}

	if err := v.validate.Var(lobs, "unique"); err != nil {
		return &ValidationError{Field: "lob", Value: firstDuplicate(lobs), Err: ErrDuplicateLob}
	}

	return nil
}

func firstDuplicate(values []string) string {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
}
