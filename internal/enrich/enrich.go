// Package enrich is the row enricher: it resolves country codes, assigns
// the income tier and the coarse region per row, and decides which rows are
// excluded. Every function here is pure and total; missing values and failed
// lookups exclude rows, they never raise.
package enrich

import (
	"math"
	"sort"

	"eduatlas/internal/countries"
	"eduatlas/internal/dataset"
)

// GDP-per-capita tier boundaries, constant US$. A boundary value belongs to
// the tier below it: exactly 1000 is Low Income, exactly 12000 is
// Upper-Middle Income.
const (
	LowIncomeMax         = 1000.0
	LowerMiddleIncomeMax = 4000.0
	UpperMiddleIncomeMax = 12000.0
)

// ClassifyIncome buckets a GDP per capita value into the five income tiers.
// NaN (value absent in the source row) maps to Unknown.
func ClassifyIncome(gdpPerCapita float64) dataset.IncomeGroup {
	switch {
	case math.IsNaN(gdpPerCapita):
		return dataset.IncomeUnknown
	case gdpPerCapita > UpperMiddleIncomeMax:
		return dataset.IncomeHigh
	case gdpPerCapita > LowerMiddleIncomeMax:
		return dataset.IncomeUpperMiddle
	case gdpPerCapita > LowIncomeMax:
		return dataset.IncomeLowerMiddle
	default:
		return dataset.IncomeLow
	}
}

// regionOf is a small hand-curated membership table, not a geographic
// classifier: five representative countries per region, everything else
// falls through to Other. Its incompleteness is deliberate and documented;
// extend the table rather than special-casing callers.
var regionOf = map[string]dataset.Region{
	"United States": dataset.RegionAmericas,
	"Brazil":        dataset.RegionAmericas,
	"Mexico":        dataset.RegionAmericas,
	"Argentina":     dataset.RegionAmericas,
	"Canada":        dataset.RegionAmericas,

	"France":         dataset.RegionEurope,
	"Germany":        dataset.RegionEurope,
	"Italy":          dataset.RegionEurope,
	"Spain":          dataset.RegionEurope,
	"United Kingdom": dataset.RegionEurope,

	"China":      dataset.RegionAsia,
	"India":      dataset.RegionAsia,
	"Japan":      dataset.RegionAsia,
	"Indonesia":  dataset.RegionAsia,
	"Bangladesh": dataset.RegionAsia,

	"Nigeria":  dataset.RegionAfrica,
	"Ethiopia": dataset.RegionAfrica,
	"Kenya":    dataset.RegionAfrica,
	"Chad":     dataset.RegionAfrica,
	"Egypt":    dataset.RegionAfrica,
}

// RegionMembers returns the curated member names of a region, sorted.
// Other has no member list.
func RegionMembers(region dataset.Region) []string {
	var names []string
	for name, r := range regionOf {
		if r == region {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ClassifyRegion assigns the coarse region for a country name. Any name not
// in the membership table is Other, including real countries the table
// simply does not list.
func ClassifyRegion(countryName string) dataset.Region {
	if region, ok := regionOf[countryName]; ok {
		return region
	}
	return dataset.RegionOther
}

// Apply returns a copy of the table with CountryCode, IncomeGroup and
// Region populated on every row. It never drops rows; an unresolvable
// country name leaves CountryCode empty for FilterValid to handle.
func Apply(reg *countries.Registry, t dataset.Table) dataset.Table {
	out := make(dataset.Table, len(t))
	for i, rec := range t {
		if c, ok := reg.Resolve(rec.Country); ok {
			rec.CountryCode = c.Alpha3
		}
		rec.IncomeGroup = ClassifyIncome(rec.GDPPerCapita)
		rec.Region = ClassifyRegion(rec.Country)
		out[i] = rec
	}
	return out
}

// FilterValid drops rows missing the observation value, then rows whose
// country name did not resolve. It is idempotent, and every surviving row
// has a defined ObsValue and a non-empty CountryCode.
func FilterValid(t dataset.Table) dataset.Table {
	out := make(dataset.Table, 0, len(t))
	for _, rec := range t {
		if !rec.HasObsValue() {
			continue
		}
		if rec.CountryCode == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Drops is the row-exclusion accounting for an enriched table. Rows counted
// under MissingObs are excluded before the country check, matching the
// FilterValid order.
type Drops struct {
	MissingObs int
	Unresolved map[string]int // distinct unresolvable name -> row count
}

// CountDrops reports what FilterValid would exclude from an enriched table.
func CountDrops(t dataset.Table) Drops {
	d := Drops{Unresolved: make(map[string]int)}
	for _, rec := range t {
		if !rec.HasObsValue() {
			d.MissingObs++
			continue
		}
		if rec.CountryCode == "" {
			d.Unresolved[rec.Country]++
		}
	}
	return d
}
