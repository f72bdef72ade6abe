package analysis

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/KaramelBytes/healthrisk-cli/internal/testutil"
)

var metricRows = []string{
	"group;score;weight;label;note",
	"A;10;1,5;alpha;first",
	"A;11;2,5;alpha;second",
	"A;9.5;NA;beta;third",
	"B;10.5;3;alpha;fourth",
	"B;9.8;3.5;beta;fifth",
	"B;10.2;4;alpha;sixth",
	"A;8.8;4.5;gamma;seventh",
	"B;9.7;5;beta;eighth",
	"A;50;5.5;alpha;ninth",
	"B;10.1;6;gamma;tenth",
}

var processedScore = []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}

func TestAnalyzeCSVAndMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	if err := os.WriteFile(path, []byte(strings.Join(metricRows, "\n")), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	opt := DefaultOptions()
	opt.Delimiter = ';'
	opt.SampleRows = 3
	opt.MaxRows = 9
	opt.GroupBy = []string{"Group"}

	rep, err := AnalyzeCSV(path, opt)
	if err != nil {
		t.Fatalf("AnalyzeCSV: %v", err)
	}
	if rep.Name != "metrics.csv" || rep.Rows != 10 || rep.Processed != 9 {
		t.Fatalf("unexpected report header: name=%q rows=%d processed=%d", rep.Name, rep.Rows, rep.Processed)
	}
	if len(rep.Samples) != 3 {
		t.Fatalf("samples=%d want 3", len(rep.Samples))
	}

	score := columnByName(t, rep, "score")
	if score.Kind != KindNumeric {
		t.Fatalf("score kind=%q", score.Kind)
	}
	checkDescribe(t, score, processedScore)
	count, maxZ := robustOutlierStats(processedScore, 3.5)
	if score.OutliersCount != count || !almostEqual(score.OutliersMaxAbsZ, maxZ, 1e-6) {
		t.Fatalf("outliers=%d/%f want %d/%f", score.OutliersCount, score.OutliersMaxAbsZ, count, maxZ)
	}

	// "1,5" is not a number: weight still wins numeric by majority, NA counts as missing.
	weight := columnByName(t, rep, "weight")
	if weight.Kind != KindNumeric || weight.Missing != 1 {
		t.Fatalf("weight=%+v", weight)
	}

	label := columnByName(t, rep, "label")
	if label.Kind != KindCategorical || label.TopValues[0].Value != "alpha" || label.TopValues[0].Count != 5 {
		t.Fatalf("label=%+v", label)
	}

	if len(rep.Groups) != 2 {
		t.Fatalf("groups=%d want 2", len(rep.Groups))
	}
	if rep.Groups[0].Key != "group=A" || rep.Groups[0].Size != 5 {
		t.Fatalf("group A=%+v", rep.Groups[0])
	}
	gA := rep.Groups[0].Metrics["score"]
	if gA.Count != 5 || !almostEqual(gA.Mean, mean([]float64{10, 11, 9.5, 8.8, 50}), 1e-9) {
		t.Fatalf("group A score=%+v", gA)
	}

	if rep.Corr == nil || len(rep.Corr.Columns) != 2 {
		t.Fatalf("corr=%+v", rep.Corr)
	}
	if r, ok := rep.Corr.Get("score", "score"); !ok || r != 1 {
		t.Fatalf("diagonal=%v %v", r, ok)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: metrics.csv",
		"Rows: ~10 (processed 9)",
		"Shape: (10, 5)",
		"- score: numeric",
		"[DESCRIBE]",
		"| 25% |",
		"[MISSING VALUES]",
		"- weight: 1",
		"[GROUP-BY SUMMARY]",
		"group=A (n=5)",
		"[CORRELATIONS]",
		"[HEAD AND SAMPLE ROWS]",
		"processed only 9/10 rows due to MaxRows",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestAnalyzeInsuranceSample(t *testing.T) {
	path := testutil.WriteRawCSV(t, t.TempDir())
	rep, err := AnalyzeCSV(path, DefaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeCSV: %v", err)
	}
	if rep.Rows != testutil.RawRows || len(rep.Cols) != 7 {
		t.Fatalf("rows=%d cols=%d", rep.Rows, len(rep.Cols))
	}
	kinds := map[string]string{}
	for _, c := range rep.Cols {
		kinds[strings.ToLower(c.Name)] = c.Kind
		if c.Missing != 0 {
			t.Fatalf("column %s has %d missing", c.Name, c.Missing)
		}
	}
	want := map[string]string{
		"age": KindNumeric, "sex": KindCategorical, "bmi": KindNumeric, "children": KindNumeric,
		"smoker": KindCategorical, "region": KindCategorical, "charges": KindNumeric,
	}
	for k, v := range want {
		if kinds[k] != v {
			t.Fatalf("kind[%s]=%q want %q", k, kinds[k], v)
		}
	}
	charges := columnByName(t, rep, "Charges")
	if charges.Max != testutil.MaxCharges {
		t.Fatalf("max charges=%f", charges.Max)
	}
	if _, ok := rep.Corr.Get("age", "charges"); !ok {
		t.Fatalf("missing age~charges correlation")
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	rep, err := Analyze("empty.csv", strings.NewReader(""), DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Rows != 0 || len(rep.Cols) != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.Contains(rep.Markdown(), "Rows: 0") {
		t.Fatalf("markdown missing rows line")
	}
}

func TestQuantileMatchesLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	if got := quantile(sorted, 0.25); !almostEqual(got, 1.75, 1e-12) {
		t.Fatalf("q25=%f", got)
	}
	if got := quantile(sorted, 0.5); !almostEqual(got, 2.5, 1e-12) {
		t.Fatalf("q50=%f", got)
	}
}

func columnByName(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return ColumnSummary{}
}

func checkDescribe(t *testing.T, col ColumnSummary, vals []float64) {
	t.Helper()
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if col.Count != len(vals) {
		t.Fatalf("count=%d want %d", col.Count, len(vals))
	}
	if !almostEqual(col.Mean, mean(vals), 1e-9) {
		t.Fatalf("mean=%f want %f", col.Mean, mean(vals))
	}
	if !almostEqual(col.Std, sampleStd(vals), 1e-9) {
		t.Fatalf("std=%f want %f", col.Std, sampleStd(vals))
	}
	if col.Min != sorted[0] || col.Max != sorted[len(sorted)-1] {
		t.Fatalf("min/max=%f/%f", col.Min, col.Max)
	}
	if !almostEqual(col.Median, quantileValue(sorted, 0.5), 1e-9) {
		t.Fatalf("median=%f", col.Median)
	}
	if !almostEqual(col.Q1, quantileValue(sorted, 0.25), 1e-9) || !almostEqual(col.Q3, quantileValue(sorted, 0.75), 1e-9) {
		t.Fatalf("quartiles=%f/%f", col.Q1, col.Q3)
	}
}

func robustOutlierStats(vals []float64, threshold float64) (count int, maxAbs float64) {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	med := quantileValue(cp, 0.5)
	devs := make([]float64, len(cp))
	for i, v := range cp {
		devs[i] = math.Abs(v - med)
	}
	sort.Float64s(devs)
	mad := quantileValue(devs, 0.5)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range cp {
		az := math.Abs(0.6745 * (v - med) / mad)
		if az > threshold {
			count++
		}
		if az > maxAbs {
			maxAbs = az
		}
	}
	return
}

func quantileValue(sortedVals []float64, q float64) float64 {
	pos := q * float64(len(sortedVals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	w := pos - float64(lo)
	return sortedVals[lo]*(1-w) + sortedVals[hi]*w
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
