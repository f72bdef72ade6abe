package analysis

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/healthrisk-cli/internal/dataset"
	"github.com/KaramelBytes/healthrisk-cli/internal/testutil"
)

func TestInsightsOnSample(t *testing.T) {
	raw, err := dataset.Read(strings.NewReader(testutil.RawInsuranceCSV))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	tbl, _ := dataset.Clean(raw)
	got := Insights(tbl)
	if len(got) != 4 {
		t.Fatalf("insights=%d want 4", len(got))
	}
	for i, in := range got {
		if in.ID != i+1 {
			t.Fatalf("insight %d has id %d", i, in.ID)
		}
		if in.Title == "" || in.Detail == "" {
			t.Fatalf("insight %d missing text: %+v", i, in)
		}
	}

	var smokers, others []float64
	for _, r := range tbl.Records {
		if r.Smoker == "yes" {
			smokers = append(smokers, r.Charges)
		} else {
			others = append(others, r.Charges)
		}
	}
	if len(smokers) != testutil.SmokerRowsYes {
		t.Fatalf("smokers=%d", len(smokers))
	}
	ratio := mean(smokers) / mean(others)
	if !almostEqual(got[0].Value, ratio, 1e-9) || !got[0].Supported {
		t.Fatalf("smoker insight=%+v want ratio %f", got[0], ratio)
	}
	if !got[1].Supported {
		t.Fatalf("age insight not supported on sample: %+v", got[1])
	}
	if got[3].Value <= 0 || !strings.Contains(got[3].Detail, "highest") {
		t.Fatalf("region insight=%+v", got[3])
	}
}

func TestInsightsMissingSmokerGroup(t *testing.T) {
	tbl := &dataset.Table{Records: []dataset.Record{
		{Age: 30, Sex: "male", BMI: 25, Smoker: "no", Region: "northeast", Charges: 100},
		{Age: 40, Sex: "female", BMI: 30, Smoker: "no", Region: "southeast", Charges: 200},
	}}
	got := Insights(tbl)
	if len(got) != 4 {
		t.Fatalf("insights=%d want 4", len(got))
	}
	if got[0].Supported || got[0].Detail != "no smokers in data" {
		t.Fatalf("smoker insight=%+v", got[0])
	}
	if !got[1].Supported || !got[3].Supported {
		t.Fatalf("age/region insights should still be computed: %+v", got)
	}
}

func TestInsightsEmptyTable(t *testing.T) {
	got := Insights(&dataset.Table{})
	if len(got) != 4 {
		t.Fatalf("insights=%d want 4", len(got))
	}
	for _, in := range got {
		if in.Supported || in.Detail == "" {
			t.Fatalf("insight on empty table should be unsupported with a reason: %+v", in)
		}
	}
}
