package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/healthrisk-cli/internal/dataset"
)

// Insight is one headline finding derived from the cleaned table.
type Insight struct {
	ID     int
	Title  string
	Detail string
	Value  float64
	// Supported reports whether the data backs the headline.
	Supported bool
}

// Insights computes the four headline findings: smoker cost ratio, age and BMI
// correlation with charges, and the spread of regional mean charges. A finding the
// data cannot back (a missing group, too few rows) comes back with Supported false
// and the reason in Detail.
func Insights(t *dataset.Table) []Insight {
	var smokers, others []float64
	regional := map[string][]float64{}
	ages := make([]float64, 0, t.Len())
	bmis := make([]float64, 0, t.Len())
	charges := make([]float64, 0, t.Len())
	for _, r := range t.Records {
		if r.Smoker == "yes" {
			smokers = append(smokers, r.Charges)
		} else {
			others = append(others, r.Charges)
		}
		regional[r.Region] = append(regional[r.Region], r.Charges)
		ages = append(ages, float64(r.Age))
		bmis = append(bmis, r.BMI)
		charges = append(charges, r.Charges)
	}

	out := make([]Insight, 0, 4)

	smoker := Insight{ID: 1, Title: "Smokers have significantly higher medical costs."}
	switch {
	case len(smokers) == 0:
		smoker.Detail = "no smokers in data"
	case len(others) == 0:
		smoker.Detail = "no non-smokers in data"
	default:
		ms, mo := stat.Mean(smokers, nil), stat.Mean(others, nil)
		smoker.Value = ms / mo
		smoker.Detail = fmt.Sprintf("mean charges %.2f for smokers vs %.2f for non-smokers (%.2fx)", ms, mo, smoker.Value)
		smoker.Supported = smoker.Value > 1
	}
	out = append(out, smoker)

	out = append(out, corrInsight(2, "Medical charges increase with age.", "age", ages, charges))
	out = append(out, corrInsight(3, "Higher BMI contributes to increased healthcare expenses.", "bmi", bmis, charges))

	region := Insight{ID: 4, Title: "Regional variations exist in healthcare costs."}
	if len(regional) == 0 {
		region.Detail = "no rows in data"
		return append(out, region)
	}
	regions := make([]string, 0, len(regional))
	for k := range regional {
		regions = append(regions, k)
	}
	sort.Strings(regions)
	hi, lo := regions[0], regions[0]
	means := make(map[string]float64, len(regions))
	for _, k := range regions {
		means[k] = stat.Mean(regional[k], nil)
		if means[k] > means[hi] {
			hi = k
		}
		if means[k] < means[lo] {
			lo = k
		}
	}
	region.Value = means[hi] - means[lo]
	region.Detail = fmt.Sprintf("highest %s (%.2f), lowest %s (%.2f), spread %.2f", hi, means[hi], lo, means[lo], region.Value)
	region.Supported = region.Value > 0
	return append(out, region)
}

func corrInsight(id int, title, column string, x, charges []float64) Insight {
	in := Insight{ID: id, Title: title}
	if len(x) < 2 {
		in.Detail = fmt.Sprintf("need at least 2 rows for r(%s, charges), have %d", column, len(x))
		return in
	}
	in.Value = correlation(x, charges)
	in.Detail = fmt.Sprintf("Pearson r(%s, charges) = %.3f", column, in.Value)
	in.Supported = in.Value > 0
	return in
}

func correlation(x, y []float64) float64 {
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}
