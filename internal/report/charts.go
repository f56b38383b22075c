package report

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"eduatlas/internal/countries"
	"eduatlas/internal/dataset"
	"eduatlas/internal/smooth"
)

var regionColors = map[dataset.Region]color.RGBA{
	dataset.RegionAmericas: {R: 31, G: 119, B: 180, A: 255},
	dataset.RegionEurope:   {R: 44, G: 160, B: 44, A: 255},
	dataset.RegionAsia:     {R: 255, G: 127, B: 14, A: 255},
	dataset.RegionAfrica:   {R: 214, G: 39, B: 40, A: 255},
	dataset.RegionOther:    {R: 127, G: 127, B: 127, A: 255},
}

// worldMapChart places one glyph per country at its registry centroid,
// color-graded by completion rate. The input must already be filtered to a
// single year.
func worldMapChart(latest dataset.Table, reg *countries.Registry) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Youth Education Completion Rate by Country"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	points := make(plotter.XYs, len(latest))
	labels := make([]string, len(latest))

	for i, rec := range latest {
		c, ok := reg.ByCode(rec.CountryCode)
		if !ok {
			return nil, fmt.Errorf("country code %s missing from registry", rec.CountryCode)
		}
		points[i].X = c.Lon
		points[i].Y = c.Lat
		labels[i] = rec.CountryCode
	}

	for i, rec := range latest {
		glyph, err := plotter.NewScatter(plotter.XYs{points[i]})
		if err != nil {
			return nil, err
		}

		if rec.ObsValue > 90 {
			glyph.GlyphStyle.Color = color.RGBA{R: 0, G: 100, B: 0, A: 255}
		} else if rec.ObsValue > 75 {
			glyph.GlyphStyle.Color = color.RGBA{R: 34, G: 139, B: 34, A: 255}
		} else if rec.ObsValue > 50 {
			glyph.GlyphStyle.Color = color.RGBA{R: 173, G: 255, B: 47, A: 255}
		} else if rec.ObsValue > 25 {
			glyph.GlyphStyle.Color = color.RGBA{R: 255, G: 165, B: 0, A: 255}
		} else {
			glyph.GlyphStyle.Color = color.RGBA{R: 220, G: 20, B: 60, A: 255}
		}
		glyph.GlyphStyle.Radius = vg.Points(5)
		glyph.GlyphStyle.Shape = draw.CircleGlyph{}

		p.Add(glyph)
	}

	labelPoints, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    points,
		Labels: labels,
	})
	if err != nil {
		return nil, err
	}
	p.Add(labelPoints)
	p.Add(plotter.NewGrid())

	p.X.Min = -180
	p.X.Max = 180
	p.Y.Min = -60
	p.Y.Max = 80

	return p, nil
}

// rankByRate returns up to n rows sorted by completion rate. Ascending
// ranks from the bottom, descending from the top.
func rankByRate(latest dataset.Table, n int, ascending bool) dataset.Table {
	ranked := make(dataset.Table, len(latest))
	copy(ranked, latest)
	sort.Slice(ranked, func(i, j int) bool {
		if ascending {
			return ranked[i].ObsValue < ranked[j].ObsValue
		}
		return ranked[i].ObsValue > ranked[j].ObsValue
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func topBarChart(latest dataset.Table, n int) (*plot.Plot, error) {
	return rankedBarChart(
		rankByRate(latest, n, false),
		fmt.Sprintf("Top %d Countries by Completion Rate", n),
		color.RGBA{R: 34, G: 139, B: 34, A: 255},
	)
}

func bottomBarChart(latest dataset.Table, n int) (*plot.Plot, error) {
	return rankedBarChart(
		rankByRate(latest, n, true),
		fmt.Sprintf("Bottom %d Countries by Completion Rate", n),
		color.RGBA{R: 220, G: 20, B: 60, A: 255},
	)
}

func rankedBarChart(ranked dataset.Table, title string, barColor color.RGBA) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Country"
	p.Y.Label.Text = "Completion Rate (%)"

	values := make(plotter.Values, len(ranked))
	labels := make([]string, len(ranked))
	for i, rec := range ranked {
		values[i] = rec.ObsValue
		labels[i] = rec.CountryCode
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XCenter

	p.Y.Min = 0
	p.Y.Max = 105

	for i, val := range values {
		label, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    []plotter.XY{{X: float64(i), Y: val + 2}},
			Labels: []string{fmt.Sprintf("%.1f", val)},
		})
		if err != nil {
			return nil, err
		}
		p.Add(label)
	}

	return p, nil
}

// gdpScatterChart plots GDP per capita against completion rate for rows
// that carry a GDP value, with an ordinary least squares fit line.
func gdpScatterChart(latest dataset.Table) (*plot.Plot, error) {
	rows := latest.WithGDP()

	p := plot.New()
	p.Title.Text = "GDP per Capita vs Completion Rate"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "GDP per Capita (constant US$)"
	p.Y.Label.Text = "Completion Rate (%)"

	points := make(plotter.XYs, len(rows))
	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, rec := range rows {
		points[i].X = rec.GDPPerCapita
		points[i].Y = rec.ObsValue
		xs[i] = rec.GDPPerCapita
		ys[i] = rec.ObsValue
	}

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	scatter.GlyphStyle.Radius = vg.Points(4)
	p.Add(scatter)
	p.Add(plotter.NewGrid())

	if len(rows) >= 2 {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		fit := plotter.NewFunction(func(x float64) float64 { return alpha + beta*x })
		fit.Color = color.RGBA{R: 0, G: 0, B: 0, A: 255}
		fit.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(fit)
	}

	p.Y.Min = 0
	p.Y.Max = 105

	return p, nil
}

// regionSeriesChart draws the mean completion rate per year as one line per
// curated region. Other is presentation-filtered out: its membership is a
// grab bag, so its mean says nothing.
func regionSeriesChart(valid dataset.Table) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Mean Completion Rate by Region Over Time"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Mean Completion Rate (%)"

	for _, region := range dataset.NamedRegions {
		byYear := make(map[int][]float64)
		for _, rec := range valid {
			if rec.Region == region {
				byYear[rec.Year] = append(byYear[rec.Year], rec.ObsValue)
			}
		}
		if len(byYear) == 0 {
			continue
		}

		years := make([]int, 0, len(byYear))
		for year := range byYear {
			years = append(years, year)
		}
		sort.Ints(years)

		points := make(plotter.XYs, len(years))
		for i, year := range years {
			points[i].X = float64(year)
			points[i].Y = stat.Mean(byYear[year], nil)
		}

		line, err := plotter.NewLine(points)
		if err != nil {
			return nil, err
		}
		line.Color = regionColors[region]
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(string(region), line)
	}

	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Y.Min = 0
	p.Y.Max = 105

	return p, nil
}

// bubbleChart plots completion rate against life expectancy, radius bucketed
// by population and color by region, with a LOWESS trend overlay. Rows
// lacking life expectancy or population are excluded from this chart only.
// A degenerate smoothing input fails the whole chart.
func bubbleChart(valid dataset.Table, frac float64) (*plot.Plot, error) {
	rows := valid.WithLifeExpectancy().WithPopulation()

	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, rec := range rows {
		xs[i] = rec.ObsValue
		ys[i] = rec.LifeExpectancy
	}

	trend, err := smooth.Lowess(xs, ys, frac)
	if err != nil {
		return nil, fmt.Errorf("trend line: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Completion Rate vs Life Expectancy"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Completion Rate (%)"
	p.Y.Label.Text = "Life Expectancy (years)"

	for _, rec := range rows {
		bubble, err := plotter.NewScatter(plotter.XYs{{X: rec.ObsValue, Y: rec.LifeExpectancy}})
		if err != nil {
			return nil, err
		}

		bubble.GlyphStyle.Color = regionColors[rec.Region]

		radius := vg.Points(3)
		if rec.Population > 100000000 {
			radius = vg.Points(10)
		} else if rec.Population > 25000000 {
			radius = vg.Points(7)
		} else if rec.Population > 5000000 {
			radius = vg.Points(5)
		}
		bubble.GlyphStyle.Radius = radius
		bubble.GlyphStyle.Shape = draw.CircleGlyph{}

		p.Add(bubble)
	}

	trendPoints := make(plotter.XYs, len(trend))
	for i, pt := range trend {
		trendPoints[i].X = pt.X
		trendPoints[i].Y = pt.Y
	}
	trendLine, err := plotter.NewLine(trendPoints)
	if err != nil {
		return nil, err
	}
	trendLine.Color = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	trendLine.Width = vg.Points(2)
	trendLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(trendLine)
	p.Legend.Add("LOWESS trend", trendLine)
	p.Legend.Top = true

	p.Add(plotter.NewGrid())

	return p, nil
}

// incomeBoxChart draws the completion rate distribution per income tier in
// fixed tier order, skipping empty tiers.
func incomeBoxChart(latest dataset.Table) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Completion Rate Distribution by Income Group"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Income Group"
	p.Y.Label.Text = "Completion Rate (%)"

	var names []string
	loc := 0.0
	for _, group := range dataset.IncomeGroups {
		var values plotter.Values
		for _, rec := range latest {
			if rec.IncomeGroup == group {
				values = append(values, rec.ObsValue)
			}
		}
		if len(values) == 0 {
			continue
		}

		box, err := plotter.NewBoxPlot(vg.Points(40), loc, values)
		if err != nil {
			return nil, err
		}
		p.Add(box)
		names = append(names, string(group))
		loc++
	}

	p.NominalX(names...)
	p.Y.Min = 0
	p.Y.Max = 105

	return p, nil
}
