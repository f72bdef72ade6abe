// Package pipeline runs the analysis end to end: load, profile, clean, chart,
// derive insights, load the reporting store, run the KPIs and record the run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/healthrisk-cli/internal/analysis"
	"github.com/KaramelBytes/healthrisk-cli/internal/charts"
	"github.com/KaramelBytes/healthrisk-cli/internal/dataset"
	"github.com/KaramelBytes/healthrisk-cli/internal/kpi"
	"github.com/KaramelBytes/healthrisk-cli/internal/logger"
	"github.com/KaramelBytes/healthrisk-cli/internal/manifest"
	"github.com/KaramelBytes/healthrisk-cli/internal/store"
	"github.com/KaramelBytes/healthrisk-cli/internal/utils"
)

// ProfileFile is the profile written next to the charts.
const ProfileFile = "profile.md"

// Paths locates every input and output of a run.
type Paths struct {
	Raw       string
	Clean     string
	Dashboard string
	Database  string
}

// Options tunes a run.
type Options struct {
	Charts charts.Options
	// Format is the KPI output format (see kpi.Render).
	Format string
	// Profile prints the raw dataset overview and saves it as profile.md.
	Profile bool
}

// DefaultOptions profiles the data and prints KPIs as tables.
func DefaultOptions() Options {
	return Options{Charts: charts.DefaultOptions(), Format: kpi.FormatTable, Profile: true}
}

// Run executes every step in order and stops at the first failure. The returned error
// names the failing step.
func Run(ctx context.Context, paths Paths, opt Options, w io.Writer) (*manifest.Manifest, error) {
	if !kpi.ValidFormat(opt.Format) {
		return nil, fmt.Errorf("kpi format: %w: %q", kpi.ErrFormat, opt.Format)
	}
	m := manifest.New(paths.Raw)

	// Loader
	logger.Step("load", paths.Raw, "")
	raw, err := dataset.Load(paths.Raw)
	if err != nil {
		return nil, stepErr("load", err)
	}
	m.RowsRaw = raw.Len()

	// Profiler
	if opt.Profile {
		if err := ctx.Err(); err != nil {
			return nil, stepErr("profile", err)
		}
		profilePath := filepath.Join(paths.Dashboard, ProfileFile)
		logger.Step("profile", paths.Raw, profilePath)
		rep, err := analysis.AnalyzeCSV(paths.Raw, analysis.DefaultOptions())
		if err != nil {
			return nil, stepErr("profile", err)
		}
		md := rep.Markdown()
		fmt.Fprintln(w, md)
		if err := utils.SafeWriteFile(profilePath, []byte(md)); err != nil {
			return nil, stepErr("profile", err)
		}
		if err := m.Add(manifest.KindProfile, profilePath); err != nil {
			return nil, stepErr("profile", err)
		}
	}

	// Cleaner
	if err := ctx.Err(); err != nil {
		return nil, stepErr("clean", err)
	}
	logger.Step("clean", paths.Raw, paths.Clean)
	clean, report := dataset.Clean(raw)
	PrintCleanReport(w, report)
	if err := dataset.WriteCSV(clean, paths.Clean); err != nil {
		return nil, stepErr("clean", err)
	}
	fmt.Fprintf(w, "✓ Cleaned dataset saved: %s\n", paths.Clean)
	m.RowsClean, m.DuplicatesRemoved = report.RowsAfter, report.DuplicatesRemoved
	if err := m.Add(manifest.KindCleanCSV, paths.Clean); err != nil {
		return nil, stepErr("clean", err)
	}

	// Visualizer
	if err := ctx.Err(); err != nil {
		return nil, stepErr("charts", err)
	}
	logger.Step("charts", paths.Clean, paths.Dashboard)
	fmt.Fprintln(w, "\n--- Exploratory Data Analysis ---")
	pngs, err := charts.RenderAll(clean, paths.Dashboard, opt.Charts)
	if err != nil {
		return nil, stepErr("charts", err)
	}
	for _, p := range pngs {
		fmt.Fprintf(w, "✓ Chart saved: %s\n", p)
		if err := m.Add(manifest.KindChart, p); err != nil {
			return nil, stepErr("charts", err)
		}
	}

	// Insights
	logger.Step("insights", paths.Clean, "")
	PrintInsights(w, analysis.Insights(clean))

	// Reporting store
	if err := ctx.Err(); err != nil {
		return nil, stepErr("store", err)
	}
	logger.Step("store", paths.Clean, paths.Database)
	s, err := store.Open(paths.Database)
	if err != nil {
		return nil, stepErr("store", err)
	}
	defer func() { _ = s.Close() }()
	logSchemaVersion(s)
	n, err := s.ReplaceInsurance(ctx, clean)
	if err != nil {
		return nil, stepErr("store", err)
	}
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 40))
	fmt.Fprintln(w, "SQL DATABASE & KPI ANALYSIS")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "✓ Loaded %d rows into table %q (%s)\n\n", n, store.TableName, paths.Database)

	// KPIs
	logger.Step("kpi", paths.Database, "")
	results, err := kpi.RunAll(ctx, s.DB())
	if err != nil {
		return nil, stepErr("kpi", err)
	}
	if err := kpi.Render(w, results, opt.Format); err != nil {
		return nil, stepErr("kpi", err)
	}
	// Close before stat so the size reflects what was committed.
	if err := s.Close(); err != nil {
		return nil, stepErr("store", err)
	}
	if paths.Database != ":memory:" {
		if err := m.Add(manifest.KindDatabase, paths.Database); err != nil {
			return nil, stepErr("store", err)
		}
	}

	// Manifest
	logger.Step("manifest", "", filepath.Join(paths.Dashboard, manifest.FileName))
	mpath, err := m.Save(paths.Dashboard)
	if err != nil {
		return nil, stepErr("manifest", err)
	}
	fmt.Fprintf(w, "✓ Run %s recorded: %s\n", m.RunID, mpath)
	return m, nil
}

// PrintCleanReport writes the cleaning summary the way the notebook printed it.
func PrintCleanReport(w io.Writer, r dataset.CleanReport) {
	fmt.Fprintln(w, "--- Data Cleaning ---")
	fmt.Fprintf(w, "Duplicate rows: %d\n", r.DuplicatesRemoved)
	fmt.Fprintf(w, "Rows: %d -> %d\n", r.RowsBefore, r.RowsAfter)
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(r.Columns, ", "))
	for _, col := range dataset.CategoricalColumns {
		fmt.Fprintf(w, "%s: [%s]\n", col, strings.Join(r.Categories[col], ", "))
	}
}

// PrintInsights writes the numbered key insights with the figures behind them.
func PrintInsights(w io.Writer, insights []analysis.Insight) {
	fmt.Fprintln(w, "\n--- Key Insights ---")
	for _, in := range insights {
		mark := "✓"
		if !in.Supported {
			mark = "⚠"
		}
		fmt.Fprintf(w, "%d. %s\n   %s %s\n", in.ID, in.Title, mark, in.Detail)
	}
}

func logSchemaVersion(s *store.Store) {
	v, err := s.Version()
	if err != nil {
		logger.Warnf("read schema version of %s: %v", s.Path(), err)
		return
	}
	logger.Debugf("database %s at schema version %d", s.Path(), v)
}

func stepErr(step string, err error) error {
	return fmt.Errorf("%s: %w", step, err)
}
