// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RawInsuranceCSV mimics the raw export: padded, mixed-case headers and two exact
// duplicate rows (data rows 3 and 9 repeat rows 1 and 5).
const RawInsuranceCSV = ` Age ,Sex,BMI, Children,Smoker,Region ,Charges
19,female,27.9,0,yes,southwest,16884.924
18,male,33.77,1,no,southeast,1725.5523
19,female,27.9,0,yes,southwest,16884.924
28,male,33,3,no,southeast,4449.462
33,male,22.705,0,no,northwest,21984.47061
32,male,28.88,0,no,northwest,3866.8552
31,female,25.74,0,no,southeast,3756.6216
46,female,33.44,1,no,southeast,8240.5896
33,male,22.705,0,no,northwest,21984.47061
37,female,27.74,3,no,northwest,7281.5056
60,female,25.84,0,no,northwest,28923.13692
62,female,26.29,0,yes,southeast,27808.7251
27,male,42.13,0,yes,southeast,39611.7577
52,female,30.78,1,no,northeast,10797.3362
23,male,23.845,0,no,northeast,2395.17155
56,female,40.3,0,no,southwest,10602.385
`

// Expected shape of RawInsuranceCSV.
const (
	RawRows        = 16
	RawDuplicates  = 2
	CleanRows      = RawRows - RawDuplicates
	SmokerValues   = 2
	RegionValues   = 4
	MaxCharges     = 39611.7577
	SmokerRowsYes  = 3 // after cleaning
	RawFirstHeader = " Age "
)

// WriteRawCSV writes RawInsuranceCSV under dir and returns its path.
func WriteRawCSV(t testing.TB, dir string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(dir, "insurance.csv"), RawInsuranceCSV)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
