// Package report assembles the final document: it runs the enrichment and
// filtering pass, builds the fixed chart sequence, and writes one
// self-contained HTML file with the charts embedded as data URIs.
package report

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"eduatlas/internal/config"
	"eduatlas/internal/countries"
	"eduatlas/internal/dataset"
	"eduatlas/internal/enrich"
)

//go:embed template.html
var reportTemplate string

type section struct {
	Title   string
	Caption string
	Image   template.URL
}

type page struct {
	Narrative Narrative
	Sections  []section
}

// Generate runs the whole pipeline once: enrich, filter, render each chart
// in document order, and write the report to cfg.Output. It returns the
// narrative figures for the caller's completion summary. Row-level data
// issues are logged and excluded, never returned; degenerate smoothing
// input is the one data condition that fails the run.
func Generate(cfg *config.Config, reg *countries.Registry, raw dataset.Table, logger *zap.Logger, runID string) (Narrative, error) {
	enriched := enrich.Apply(reg, raw)
	for _, rec := range enriched {
		switch {
		case !rec.HasObsValue():
			logger.Debug("row dropped, missing observation value",
				zap.String("country", rec.Country), zap.Int("year", rec.Year))
		case rec.CountryCode == "":
			logger.Debug("row dropped, country name not in registry",
				zap.String("country", rec.Country), zap.Int("year", rec.Year))
		}
	}

	drops := enrich.CountDrops(enriched)
	for name, rows := range drops.Unresolved {
		logger.Warn("country name not in registry, rows dropped",
			zap.String("country", name),
			zap.Int("rows", rows),
			zap.Strings("near_misses", reg.Suggest(name, 2)))
	}

	valid := enrich.FilterValid(enriched)
	logger.Info("rows filtered",
		zap.Int("read", len(raw)),
		zap.Int("kept", len(valid)),
		zap.Int("missing_obs_value", drops.MissingObs),
		zap.Int("unresolved_names", len(drops.Unresolved)))
	if len(valid) == 0 {
		return Narrative{}, fmt.Errorf("no usable rows after filtering")
	}

	nar := BuildNarrative(runID, raw, valid)
	latest := valid.ForYear(nar.LatestYear)

	// One country reporting GDP is not a correlation; keep the fabricated
	// figure out of the caption the same way the scatter omits its fit line.
	gdpCaption := "Too few countries report GDP per capita to quote a correlation."
	if nar.GDPSamples >= 2 {
		gdpCaption = fmt.Sprintf("Across the %d countries reporting GDP per capita, the linear correlation with "+
			"completion rate is %.2f.", nar.GDPSamples, nar.GDPCorrelation)
	}

	charts := []struct {
		title   string
		caption string
		width   vg.Length
		height  vg.Length
		build   func() (*plot.Plot, error)
	}{
		{
			title: "World Map",
			caption: fmt.Sprintf("Completion rates for %d across %d countries, placed at each country's centroid. "+
				"Darker green marks higher completion.", nar.LatestYear, nar.CountryCount),
			width: 14, height: 8,
			build: func() (*plot.Plot, error) { return worldMapChart(latest, reg) },
		},
		{
			title: "Highest Completion Rates",
			caption: fmt.Sprintf("%s leads with %.1f%% of its youth cohort completing the education level.",
				nar.TopCountry, nar.TopRate),
			width: 12, height: 7,
			build: func() (*plot.Plot, error) { return topBarChart(latest, cfg.TopN) },
		},
		{
			title: "Lowest Completion Rates",
			caption: fmt.Sprintf("At the other end, %s records %.1f%%, a gap of %.1f points against the leader.",
				nar.BottomCountry, nar.BottomRate, nar.TopRate-nar.BottomRate),
			width: 12, height: 7,
			build: func() (*plot.Plot, error) { return bottomBarChart(latest, cfg.TopN) },
		},
		{
			title:   "Completion Rate and GDP",
			caption: gdpCaption,
			width:   12, height: 8,
			build: func() (*plot.Plot, error) { return gdpScatterChart(latest) },
		},
		{
			title: "Regional Trends",
			caption: fmt.Sprintf("Mean completion rate per year for the four curated regions, %d to %d. "+
				"Countries outside the curated lists are not drawn.", nar.FirstYear, nar.LatestYear),
			width: 12, height: 7,
			build: func() (*plot.Plot, error) { return regionSeriesChart(valid) },
		},
		{
			title: "Completion Rate and Life Expectancy",
			caption: fmt.Sprintf("Each bubble is one country/year observation, sized by population and colored "+
				"by region, with a LOWESS trend at fraction %.2f.", cfg.SmoothFraction),
			width: 12, height: 8,
			build: func() (*plot.Plot, error) { return bubbleChart(valid, cfg.SmoothFraction) },
		},
		{
			title: "Distribution by Income Group",
			caption: fmt.Sprintf("Completion rate spread within each income tier for %d. Boundary rows sit in "+
				"the lower tier.", nar.LatestYear),
			width: 12, height: 7,
			build: func() (*plot.Plot, error) { return incomeBoxChart(latest) },
		},
	}

	sections := make([]section, 0, len(charts))
	for _, c := range charts {
		p, err := c.build()
		if err != nil {
			return Narrative{}, fmt.Errorf("chart %q: %w", c.title, err)
		}
		png, err := renderPNG(p, c.width*vg.Inch, c.height*vg.Inch)
		if err != nil {
			return Narrative{}, fmt.Errorf("render %q: %w", c.title, err)
		}
		logger.Info("chart rendered", zap.String("chart", c.title), zap.Int("bytes", len(png)))
		sections = append(sections, section{
			Title:   c.title,
			Caption: c.caption,
			Image:   pngDataURI(png),
		})
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return Narrative{}, fmt.Errorf("parse report template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page{Narrative: nar, Sections: sections}); err != nil {
		return Narrative{}, fmt.Errorf("execute report template: %w", err)
	}

	if err := os.WriteFile(cfg.Output, buf.Bytes(), 0o644); err != nil {
		return Narrative{}, fmt.Errorf("write report: %w", err)
	}
	logger.Info("report written", zap.String("path", cfg.Output), zap.Int("bytes", buf.Len()))
	return nar, nil
}

func renderPNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	writer, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pngDataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
