package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// GWPDatasetCSV is a small GWP extract with padded cells, sparse years and a
// trailing empty Y2015 column.
const GWPDatasetCSV = `country,variableId,variableName,lineOfBusiness,Y2000,Y2001,Y2002,Y2003,Y2004,Y2005,Y2006,Y2007,Y2008,Y2009,Y2010,Y2011,Y2012,Y2013,Y2014,Y2015
ae,gwp,Direct Premiums,transport,    ,    ,     ,     ,     ,    ,     , 231441262.7, 268744928.7, 284448918.2, 314413884.1, 327740154.4, 326126300.6, 240322742.6, 234164748.7,
ae,gwp,Direct Premiums,freight  ,    ,     ,     ,     ,     ,     ,     , 217119663.1, 252114975.9, 266847201.6, 294957933.5, 307459573.3, 305945585  , 225451556.4, 219674619.6,
ao,gwp,Direct Premiums,transport,    ,     ,     ,     ,     ,     ,     ,            , 42327844.88, 23032172.17, 62974314.17,            ,            ,            ,            ,
ao,gwp,Direct Premiums,property ,    ,     ,     ,     ,     ,     ,     ,            , 167698763.3, 310172299.8, 231376228.2,            ,            ,            ,            ,
ao,gwp,Direct Premiums,liability,    ,     ,     ,     ,     ,     ,     ,            , 14778761.71, 17701152.73, 33597471.76,            ,            ,            ,            ,
`

// MixedDatasetCSV exercises quoting, exponent notation and non-contiguous
// year columns.
const MixedDatasetCSV = `country,variableId,variableName,lineOfBusiness,Y1994,Y1998,Y2000,Y2015,Y2020,Y2110
ba,xx,Unknown,smugglers,,2000,1990,1803.2,1900.2,
cz,gwp,"What, we want",traffic,6.2E-5,0.03,1,2,2.5,130
`

// WriteDatasetFile writes content to name inside a per-test temp directory
// and returns the full path.
func WriteDatasetFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset fixture: %v", err)
	}
	return path
}
