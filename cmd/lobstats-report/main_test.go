package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobstats/internal/lobstats"
	"lobstats/internal/shared/testutil"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		wantCountries []string
		wantLobs      []string
		wantWindow    lobstats.Window
		wantErr       string
	}{
		{
			name:          "repeated and comma separated values",
			args:          []string{"-country", "ae,ao", "-country", "ba", "-lob", "transport, freight"},
			wantCountries: []string{"ae", "ao", "ba"},
			wantLobs:      []string{"transport", "freight"},
			wantWindow:    lobstats.Window{From: 2008, To: 2015},
		},
		{
			name:          "custom window",
			args:          []string{"-country", "ae", "-lob", "transport", "-from", "2010", "-to", "2012"},
			wantCountries: []string{"ae"},
			wantLobs:      []string{"transport"},
			wantWindow:    lobstats.Window{From: 2010, To: 2012},
		},
		{
			name:    "missing country",
			args:    []string{"-lob", "transport"},
			wantErr: "-country",
		},
		{
			name:    "missing lob",
			args:    []string{"-country", "ae"},
			wantErr: "-lob",
		},
		{
			name:    "csv flag with xlsx path",
			args:    []string{"-country", "ae", "-lob", "transport", "-csv", "report.xlsx"},
			wantErr: "-csv",
		},
		{
			name:    "xlsx flag with csv path",
			args:    []string{"-country", "ae", "-lob", "transport", "-xlsx", "out/report.csv"},
			wantErr: "-xlsx",
		},
		{
			name:          "upper case extension",
			args:          []string{"-country", "ae", "-lob", "transport", "-csv", "REPORT.CSV", "-xlsx", "report.XLSX"},
			wantCountries: []string{"ae"},
			wantLobs:      []string{"transport"},
			wantWindow:    lobstats.Window{From: 2008, To: 2015},
		},
		{
			name:    "inverted window",
			args:    []string{"-country", "ae", "-lob", "transport", "-from", "2015", "-to", "2008"},
			wantErr: "2015",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCountries, opts.countries)
			assert.Equal(t, tt.wantLobs, opts.lobs)
			assert.Equal(t, tt.wantWindow, opts.window)
			assert.Equal(t, "gwp", opts.metric)
		})
	}
}

func TestRun(t *testing.T) {
	dataset := testutil.WriteDatasetFile(t, "gwp.csv", testutil.GWPDatasetCSV)
	csvOut := filepath.Join(t.TempDir(), "report.csv")
	xlsxOut := filepath.Join(t.TempDir(), "report.xlsx")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-file", dataset,
		"-country", "ae,ao",
		"-lob", "transport",
		"-csv", csvOut,
		"-xlsx", xlsxOut,
	}, &stdout, io.Discard)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "249495209.66")
	assert.Contains(t, stdout.String(), "16041791.40")

	data, err := os.ReadFile(csvOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ae,transport,249495209.6625")
	assert.Contains(t, string(data), "ao,transport,16041791.4025")

	info, err := os.Stat(xlsxOut)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	dataset := testutil.WriteDatasetFile(t, "gwp.csv", testutil.GWPDatasetCSV)
	csvOut := filepath.Join(t.TempDir(), "report.csv")

	var stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-file", dataset, "-country", "ae", "-lob", "transport", "-csv", csvOut, "-v",
	}, io.Discard, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "Report written")

	stderr.Reset()
	err = run(context.Background(), []string{
		"-file", dataset, "-country", "ae", "-lob", "transport", "-csv", csvOut,
	}, io.Discard, &stderr)
	require.NoError(t, err)
	assert.NotContains(t, stderr.String(), "Report written")
}

func TestRun_InvalidCountry(t *testing.T) {
	dataset := testutil.WriteDatasetFile(t, "gwp.csv", testutil.GWPDatasetCSV)

	err := run(context.Background(), []string{"-file", dataset, "-country", "AE", "-lob", "transport"}, io.Discard, io.Discard)

	require.Error(t, err)
	assert.True(t, lobstats.IsValidationError(err))
}

func TestRun_MissingDataset(t *testing.T) {
	err := run(context.Background(), []string{"-file", "/nonexistent/gwp.csv", "-country", "ae", "-lob", "transport"}, io.Discard, io.Discard)

	var missing *lobstats.MissingSourceError
	require.ErrorAs(t, err, &missing)
}
