package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"eduatlas/internal/dataset"
)

// RegionSummary is the mean completion rate of one curated region in the
// latest year.
type RegionSummary struct {
	Region dataset.Region
	Mean   float64
	Rows   int
}

// Narrative holds the computed figures interpolated into the report's
// commentary paragraphs.
type Narrative struct {
	RunID       string
	GeneratedAt time.Time

	RowsRead  int
	RowsKept  int
	KeptShare float64

	FirstYear  int
	LatestYear int

	CountryCount  int
	TopCountry    string
	TopRate       float64
	BottomCountry string
	BottomRate    float64

	GDPSamples     int
	GDPCorrelation float64

	Regions []RegionSummary
}

// BuildNarrative computes the report figures from the raw and filtered
// tables. All figures except the year range come from the latest year.
func BuildNarrative(runID string, raw, valid dataset.Table) Narrative {
	n := Narrative{
		RunID:       runID,
		GeneratedAt: time.Now(),
		RowsRead:    len(raw),
		RowsKept:    len(valid),
		LatestYear:  valid.LatestYear(),
	}
	if n.RowsRead > 0 {
		n.KeptShare = float64(n.RowsKept) / float64(n.RowsRead) * 100
	}

	n.FirstYear = n.LatestYear
	for _, rec := range valid {
		if rec.Year < n.FirstYear {
			n.FirstYear = rec.Year
		}
	}

	latest := valid.ForYear(n.LatestYear)

	codes := make(map[string]struct{}, len(latest))
	for _, rec := range latest {
		codes[rec.CountryCode] = struct{}{}
	}
	n.CountryCount = len(codes)

	for i, rec := range latest {
		if i == 0 || rec.ObsValue > n.TopRate {
			n.TopRate = rec.ObsValue
			n.TopCountry = rec.Country
		}
		if i == 0 || rec.ObsValue < n.BottomRate {
			n.BottomRate = rec.ObsValue
			n.BottomCountry = rec.Country
		}
	}

	withGDP := latest.WithGDP()
	n.GDPSamples = len(withGDP)
	if len(withGDP) >= 2 {
		xs := make([]float64, len(withGDP))
		ys := make([]float64, len(withGDP))
		for i, rec := range withGDP {
			xs[i] = rec.GDPPerCapita
			ys[i] = rec.ObsValue
		}
		n.GDPCorrelation = stat.Correlation(xs, ys, nil)
	}

	for _, region := range dataset.NamedRegions {
		var rates []float64
		for _, rec := range latest {
			if rec.Region == region {
				rates = append(rates, rec.ObsValue)
			}
		}
		if len(rates) == 0 {
			continue
		}
		n.Regions = append(n.Regions, RegionSummary{
			Region: region,
			Mean:   stat.Mean(rates, nil),
			Rows:   len(rates),
		})
	}
	sort.Slice(n.Regions, func(i, j int) bool { return n.Regions[i].Mean > n.Regions[j].Mean })

	return n
}
