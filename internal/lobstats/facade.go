package lobstats

import (
	"context"

	"github.com/shopspring/decimal"
)

// AverageProvider answers average queries for a country and a set of lobs.
type AverageProvider interface {
	GetAverages(ctx context.Context, country string, lobs []string) (Averages, error)
}

// DatasetProvider hands out the loaded dataset.
type DatasetProvider interface {
	EnsureLoaded(ctx context.Context) ([]StatRecord, error)
}

// Facade runs the query path: validate, load, average, backfill.
type Facade struct {
	dataset   DatasetProvider
	window    Window
	metric    string
	validator *QueryValidator
}

// NewFacade creates a facade averaging metric over window.
func NewFacade(dataset DatasetProvider, window Window, metric string) *Facade {
	return &Facade{
		dataset:   dataset,
		window:    window,
		metric:    metric,
		validator: defaultQueryValidator,
	}
}

// Window returns the configured year window.
func (f *Facade) Window() Window {
	return f.window
}

// Metric returns the averaged variable id.
func (f *Facade) Metric() string {
	return f.metric
}

// GetAverages returns exactly one entry per element of lobs. Lobs without data
// are reported as zero.
func (f *Facade) GetAverages(ctx context.Context, country string, lobs []string) (Averages, error) {
	if err := f.validator.Validate(country, lobs); err != nil {
		return nil, err
	}

	records, err := f.dataset.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	averages, err := ComputeAverages(records, country, f.metric, lobs, f.window.From, f.window.To)
	if err != nil {
		return nil, err
	}

	for _, lob := range lobs {
		if _, ok := averages[lob]; !ok {
			averages[lob] = decimal.Zero
		}
	}
	return averages, nil
}
