package charts

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const kdeSamples = 200

// HistogramBins picks a bin count with numpy's "auto" rule: the larger of the Sturges and
// Freedman-Diaconis counts, Sturges alone when the IQR is zero.
func HistogramBins(values []float64) int {
	n := len(values)
	if n < 2 {
		return 1
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	span := sorted[n-1] - sorted[0]
	if span == 0 {
		return 1
	}
	sturges := int(math.Ceil(math.Log2(float64(n)) + 1))
	iqr := stat.Quantile(0.75, stat.LinInterp, sorted, nil) - stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	if iqr <= 0 {
		return sturges
	}
	fdWidth := 2 * iqr / math.Cbrt(float64(n))
	fd := int(math.Ceil(span / fdWidth))
	if fd > sturges {
		return fd
	}
	return sturges
}

// ScottBandwidth returns the Gaussian kernel bandwidth std * n^(-1/5).
func ScottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil) * math.Pow(float64(len(values)), -0.2)
}

// KDE evaluates a Gaussian kernel density estimate of values at each x.
func KDE(values, xs []float64) []float64 {
	out := make([]float64, len(xs))
	h := ScottBandwidth(values)
	if h == 0 || len(values) == 0 {
		return out
	}
	norm := 1 / (float64(len(values)) * h * math.Sqrt(2*math.Pi))
	for i, x := range xs {
		var sum float64
		for _, v := range values {
			u := (x - v) / h
			sum += math.Exp(-0.5 * u * u)
		}
		out[i] = sum * norm
	}
	return out
}

// kdeLine builds the density curve scaled to the histogram's counts.
func kdeLine(values []float64, h *plotter.Histogram) *plotter.Line {
	if len(values) < 2 || len(h.Bins) == 0 {
		return nil
	}
	lo, hi := h.Bins[0].Min, h.Bins[len(h.Bins)-1].Max
	xs := make([]float64, kdeSamples)
	step := (hi - lo) / float64(kdeSamples-1)
	for i := range xs {
		xs[i] = lo + float64(i)*step
	}
	dens := KDE(values, xs)
	scale := float64(len(values)) * h.Width
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = dens[i] * scale
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil
	}
	l.Color = kdeOrange
	l.Width = vg.Points(2)
	return l
}
