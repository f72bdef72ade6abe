package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Options controls profiling of tabular data.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// SampleRows is the number of head rows kept for the report.
	SampleRows int
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// GroupBy computes per-group numeric summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outliers counts values with robust |z| (MAD based) above OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		MaxRows:          100000,
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly profile of a tabular dataset.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Samples   [][]string
	Warnings  []string
	Groups    []GroupResult
	Corr      *CorrMatrix
}

// Column kinds.
const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
	KindText        = "text"
	KindUnknown     = "unknown"
)

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string
	NonNull int
	Missing int
	Unique  int
	// describe() statistics for numeric columns
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Get returns r for a pair of column names.
func (m *CorrMatrix) Get(a, b string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if strings.EqualFold(c, a) {
			ia = i
		}
		if strings.EqualFold(c, b) {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// AnalyzeCSV profiles a CSV file.
func AnalyzeCSV(path string, opt Options) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return Analyze(filepath.Base(path), f, opt)
}

// Analyze profiles CSV data read from r. name is used as the report title.
func Analyze(name string, in io.Reader, opt Options) (*Report, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	if opt.Delimiter != 0 {
		r.Comma = opt.Delimiter
	}

	rep := &Report{Name: name}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return rep, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	if ncol == 0 {
		return rep, nil
	}

	type colAcc struct {
		name   string
		nonNil int
		miss   int
		numCnt int
		txtCnt int
		vals   []float64 // aligned with processed rows, NaN where not numeric
		cats   map[string]int
		exText []string
	}
	cols := make([]*colAcc, ncol)
	byName := make(map[string]int, ncol)
	for i, h := range header {
		name := strings.TrimSpace(h)
		cols[i] = &colAcc{name: name, cats: make(map[string]int)}
		byName[strings.ToLower(name)] = i
	}

	var gbIdx []int
	for _, g := range opt.GroupBy {
		if idx, ok := byName[strings.ToLower(strings.TrimSpace(g))]; ok {
			gbIdx = append(gbIdx, idx)
		} else {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by column %q not found", g))
		}
	}
	groups := map[string][]int{}

	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}

	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", rep.Rows+1, err)
		}
		rep.Rows++
		if len(rec) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, rec)
			rec = tmp
		}
		if rep.Processed >= maxRows {
			continue
		}
		row := rep.Processed
		rep.Processed++

		if len(rep.Samples) < sampleRows {
			rep.Samples = append(rep.Samples, append([]string(nil), rec[:ncol]...))
		}
		if len(gbIdx) > 0 {
			parts := make([]string, 0, len(gbIdx))
			for _, idx := range gbIdx {
				parts = append(parts, fmt.Sprintf("%s=%s", cols[idx].name, safeVal(strings.TrimSpace(rec[idx]))))
			}
			key := strings.Join(parts, " | ")
			groups[key] = append(groups[key], row)
		}

		for j := 0; j < ncol; j++ {
			c := cols[j]
			v := strings.TrimSpace(rec[j])
			if isMissing(v) {
				c.miss++
				c.vals = append(c.vals, math.NaN())
				continue
			}
			c.nonNil++
			if x, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(x) && !math.IsInf(x, 0) {
				c.numCnt++
				c.vals = append(c.vals, x)
				continue
			}
			c.vals = append(c.vals, math.NaN())
			c.txtCnt++
			if len(c.cats) <= 10000 && len(v) <= 64 {
				c.cats[v]++
			}
			if len(c.exText) < 3 {
				c.exText = append(c.exText, v)
			}
		}
	}

	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	var numCols []int
	rep.Cols = make([]ColumnSummary, 0, ncol)
	for idx, c := range cols {
		s := ColumnSummary{Name: c.name, NonNull: c.nonNil, Missing: c.miss, Kind: KindUnknown}
		switch {
		case c.numCnt > 0 && c.numCnt >= c.txtCnt:
			s.Kind = KindNumeric
			describe(&s, present(c.vals))
			if opt.Outliers && s.Count >= 8 {
				s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(present(c.vals), thr)
				s.OutlierThreshold = thr
			}
			numCols = append(numCols, idx)
		case len(c.cats) > 0 && len(c.cats) <= categoricalLimit(c.txtCnt):
			s.Kind = KindCategorical
			s.TopValues = topValues(c.cats, 8)
			s.Unique = len(c.cats)
		case c.txtCnt > 0:
			s.Kind = KindText
			s.ExampleTexts = c.exText
			s.Unique = len(c.cats)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if rep.Processed < rep.Rows {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Processed, rep.Rows))
	}

	if len(groups) > 0 {
		out := make([]GroupResult, 0, len(groups))
		for key, rows := range groups {
			gr := GroupResult{Key: key, Size: len(rows), Metrics: map[string]NumSummary{}}
			for _, idx := range numCols {
				if ns, ok := summarize(cols[idx].vals, rows); ok {
					gr.Metrics[cols[idx].name] = ns
				}
			}
			out = append(out, gr)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Size == out[j].Size {
				return out[i].Key < out[j].Key
			}
			return out[i].Size > out[j].Size
		})
		if len(out) > 20 {
			out = out[:20]
		}
		rep.Groups = out
	}

	if opt.Correlations && len(numCols) >= 2 {
		n := len(numCols)
		m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
		for a, idx := range numCols {
			m.Columns[a] = cols[idx].name
			m.Values[a] = make([]float64, n)
		}
		for a := 0; a < n; a++ {
			m.Values[a][a] = 1
			for b := a + 1; b < n; b++ {
				r := pairwiseCorr(cols[numCols[a]].vals, cols[numCols[b]].vals)
				m.Values[a][b] = r
				m.Values[b][a] = r
			}
		}
		rep.Corr = m
	}
	return rep, nil
}

func describe(s *ColumnSummary, vals []float64) {
	s.Count = len(vals)
	if len(vals) == 0 {
		return
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	s.Min = sorted[0]
	s.Q1 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q3 = quantile(sorted, 0.75)
	s.Max = sorted[len(sorted)-1]
}

func summarize(vals []float64, rows []int) (NumSummary, bool) {
	var ns NumSummary
	var sum float64
	for _, r := range rows {
		x := vals[r]
		if math.IsNaN(x) {
			continue
		}
		if ns.Count == 0 || x < ns.Min {
			ns.Min = x
		}
		if ns.Count == 0 || x > ns.Max {
			ns.Max = x
		}
		sum += x
		ns.Count++
	}
	if ns.Count == 0 {
		return ns, false
	}
	ns.Mean = sum / float64(ns.Count)
	return ns, true
}

// pairwiseCorr computes Pearson r over rows where both columns are numeric.
func pairwiseCorr(a, b []float64) float64 {
	var xs, ys []float64
	for i := range a {
		if i >= len(b) || math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

func robustOutliers(vals []float64, thr float64) (int, float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	var cnt int
	maxAbsZ := 0.0
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			cnt++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return cnt, maxAbsZ
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// categoricalLimit is the number of distinct values above which a text column is free text.
func categoricalLimit(n int) int {
	if n < 40 {
		return n
	}
	return max(20, n/2)
}

func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func isMissing(v string) bool {
	switch strings.ToLower(v) {
	case "", "na", "n/a", "nan", "null":
		return true
	}
	return false
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between closest ranks (pandas' default).
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
