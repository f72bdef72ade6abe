// Package charts renders the five dashboard images from the cleaned insurance table.
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/healthrisk-cli/internal/dataset"
	"github.com/KaramelBytes/healthrisk-cli/internal/utils"
)

// Dashboard file names, in render order.
const (
	ChargesDistributionFile = "charges_distribution.png"
	SmokerVsChargesFile     = "smoker_vs_charges.png"
	AgeVsChargesFile        = "age_vs_charges.png"
	BMIVsChargesFile        = "bmi_vs_charges.png"
	RegionAvgChargesFile    = "region_avg_charges.png"
)

// Files lists the dashboard images in the order RenderAll produces them.
var Files = []string{
	ChargesDistributionFile,
	SmokerVsChargesFile,
	AgeVsChargesFile,
	BMIVsChargesFile,
	RegionAvgChargesFile,
}

// ErrNoData is returned when a chart is asked to render an empty table.
var ErrNoData = errors.New("no data to plot")

var (
	barBlue   = color.RGBA{R: 76, G: 114, B: 176, A: 255}
	kdeOrange = color.RGBA{R: 221, G: 132, B: 82, A: 255}
	boxColors = []color.Color{
		color.RGBA{R: 76, G: 114, B: 176, A: 255},
		color.RGBA{R: 221, G: 132, B: 82, A: 255},
		color.RGBA{R: 85, G: 168, B: 104, A: 255},
		color.RGBA{R: 196, G: 78, B: 82, A: 255},
	}
)

// Options controls image size.
type Options struct {
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions returns 8x5 inch images.
func DefaultOptions() Options {
	return Options{Width: 8 * vg.Inch, Height: 5 * vg.Inch}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}

// RenderAll writes the five dashboard charts into dir and returns their paths.
func RenderAll(t *dataset.Table, dir string, opt Options) ([]string, error) {
	if t.Len() == 0 {
		return nil, ErrNoData
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create dashboard dir: %w", err)
	}
	renderers := []func(*dataset.Table, string, Options) error{
		ChargesDistribution,
		ChargesBySmoker,
		AgeVsCharges,
		BMIVsCharges,
		RegionAverage,
	}
	paths := make([]string, 0, len(Files))
	for i, render := range renderers {
		path := filepath.Join(dir, Files[i])
		if err := render(t, path, opt); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ChargesDistribution draws a histogram of charges with a KDE overlay.
func ChargesDistribution(t *dataset.Table, path string, opt Options) error {
	charges, err := dataset.Numeric(t, dataset.ColCharges)
	if err != nil {
		return err
	}
	if len(charges) == 0 {
		return ErrNoData
	}
	p := newPlot("Distribution of Medical Charges", "charges", "Count")

	h, err := plotter.NewHist(plotter.Values(charges), HistogramBins(charges))
	if err != nil {
		return chartErr(path, err)
	}
	h.FillColor = withAlpha(barBlue, 160)
	h.LineStyle.Color = color.White
	p.Add(h)

	if kde := kdeLine(charges, h); kde != nil {
		p.Add(kde)
	}
	return save(p, path, opt)
}

// ChargesBySmoker draws one box per smoker value.
func ChargesBySmoker(t *dataset.Table, path string, opt Options) error {
	groups, order, err := groupCharges(t, dataset.ColSmoker, false)
	if err != nil {
		return err
	}
	p := newPlot("Medical Charges by Smoking Status", "smoker", "charges")
	w := vg.Points(40)
	for i, key := range order {
		box, err := plotter.NewBoxPlot(w, float64(i), plotter.Values(groups[key]))
		if err != nil {
			return chartErr(path, err)
		}
		box.FillColor = boxColors[i%len(boxColors)]
		p.Add(box)
	}
	p.NominalX(order...)
	return save(p, path, opt)
}

// AgeVsCharges draws a scatter of age against charges.
func AgeVsCharges(t *dataset.Table, path string, opt Options) error {
	return scatter(t, dataset.ColAge, "Age vs Medical Charges", path, opt)
}

// BMIVsCharges draws a scatter of BMI against charges.
func BMIVsCharges(t *dataset.Table, path string, opt Options) error {
	return scatter(t, dataset.ColBMI, "BMI vs Medical Charges", path, opt)
}

// RegionAverage draws a bar per region with the mean charges.
func RegionAverage(t *dataset.Table, path string, opt Options) error {
	names, means, err := GroupMeans(t, dataset.ColRegion)
	if err != nil {
		return err
	}
	p := newPlot("Average Charges by Region", "region", "Average Charges")
	bars, err := plotter.NewBarChart(plotter.Values(means), vg.Points(40))
	if err != nil {
		return chartErr(path, err)
	}
	bars.Color = barBlue
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	p.Y.Min = 0
	return save(p, path, opt)
}

// GroupMeans returns mean charges per value of a categorical column, keys sorted.
func GroupMeans(t *dataset.Table, column string) ([]string, []float64, error) {
	groups, keys, err := groupCharges(t, column, true)
	if err != nil {
		return nil, nil, err
	}
	means := make([]float64, len(keys))
	for i, k := range keys {
		means[i] = stat.Mean(groups[k], nil)
	}
	return keys, means, nil
}

func scatter(t *dataset.Table, xcol, title, path string, opt Options) error {
	xs, err := dataset.Numeric(t, xcol)
	if err != nil {
		return err
	}
	ys, err := dataset.Numeric(t, dataset.ColCharges)
	if err != nil {
		return err
	}
	if len(xs) == 0 {
		return ErrNoData
	}
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	p := newPlot(title, xcol, "charges")
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return chartErr(path, err)
	}
	s.GlyphStyle.Color = withAlpha(barBlue, 200)
	s.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(s)
	return save(p, path, opt)
}

// groupCharges splits charges by a categorical column. Keys come back in first-seen
// order, or sorted when sorted is true.
func groupCharges(t *dataset.Table, column string, sorted bool) (map[string][]float64, []string, error) {
	if t.Len() == 0 {
		return nil, nil, ErrNoData
	}
	keys, err := dataset.Categorical(t, column)
	if err != nil {
		return nil, nil, err
	}
	groups := make(map[string][]float64)
	var order []string
	for i, k := range keys {
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], t.Records[i].Charges)
	}
	if sorted {
		sort.Strings(order)
	}
	return groups, order, nil
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, path string, opt Options) error {
	opt = opt.withDefaults()
	if err := utils.EnsureParentDir(path); err != nil {
		return chartErr(path, err)
	}
	if err := p.Save(opt.Width, opt.Height, path); err != nil {
		return chartErr(path, err)
	}
	return nil
}

func chartErr(path string, err error) error {
	return fmt.Errorf("chart %s: %w", filepath.Base(path), err)
}

func withAlpha(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}
