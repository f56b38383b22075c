// Package dataset loads the pre-merged education/economic indicator table
// and defines the record model shared by every downstream step. Missing
// numeric values are represented as NaN so that per-chart filters can test
// presence without sentinel magic numbers.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IncomeGroup is the coarse economic tier derived from GDP per capita.
type IncomeGroup string

const (
	IncomeLow         IncomeGroup = "Low Income"
	IncomeLowerMiddle IncomeGroup = "Lower-Middle Income"
	IncomeUpperMiddle IncomeGroup = "Upper-Middle Income"
	IncomeHigh        IncomeGroup = "High Income"
	IncomeUnknown     IncomeGroup = "Unknown"
)

// IncomeGroups lists the tiers in ascending economic order, Unknown last.
// Chart group ordering follows this slice.
var IncomeGroups = []IncomeGroup{
	IncomeLow, IncomeLowerMiddle, IncomeUpperMiddle, IncomeHigh, IncomeUnknown,
}

// Region is the coarse continental bucket assigned during enrichment.
type Region string

const (
	RegionAmericas Region = "Americas"
	RegionEurope   Region = "Europe"
	RegionAsia     Region = "Asia"
	RegionAfrica   Region = "Africa"
	RegionOther    Region = "Other"
)

// NamedRegions lists the four curated regions, excluding Other.
var NamedRegions = []Region{RegionAmericas, RegionEurope, RegionAsia, RegionAfrica}

// Record is one country/year observation. The first block comes straight
// from the input file; the second block is filled in by the enrichment pass
// and is zero-valued until then.
type Record struct {
	Country        string
	Year           int
	ObsValue       float64
	GDPPerCapita   float64
	LifeExpectancy float64
	Population     float64

	CountryCode string
	IncomeGroup IncomeGroup
	Region      Region
}

func (r Record) HasObsValue() bool       { return !math.IsNaN(r.ObsValue) }
func (r Record) HasGDP() bool            { return !math.IsNaN(r.GDPPerCapita) }
func (r Record) HasLifeExpectancy() bool { return !math.IsNaN(r.LifeExpectancy) }
func (r Record) HasPopulation() bool     { return !math.IsNaN(r.Population) }

// Columns maps the record fields to header names in the input file. The
// exact header text is a contract with the upstream merge process, so it is
// configurable rather than hard-coded.
type Columns struct {
	Country        string `yaml:"country"`
	ObsValue       string `yaml:"obs_value"`
	Year           string `yaml:"year"`
	GDPPerCapita   string `yaml:"gdp_per_capita"`
	LifeExpectancy string `yaml:"life_expectancy"`
	Population     string `yaml:"population"`
}

// DefaultColumns returns the header names the upstream merge emits today.
func DefaultColumns() Columns {
	return Columns{
		Country:        "country",
		ObsValue:       "obs_value",
		Year:           "year",
		GDPPerCapita:   "gdp_per_capita",
		LifeExpectancy: "life_expectancy",
		Population:     "population",
	}
}

// ErrMissingColumn reports that a required header was not found in the input.
var ErrMissingColumn = errors.New("required column missing")

// Table is an immutable-by-convention slice of records. Helpers return new
// slices; nothing here mutates the receiver.
type Table []Record

// Load reads the input file, dispatching on extension: .csv and .tsv go
// through encoding/csv, .xlsx through excelize (first sheet). The first row
// must be a header naming at least the configured columns.
func Load(path string, cols Columns) (Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return loadDelimited(path, ',', cols)
	case ".tsv":
		return loadDelimited(path, '\t', cols)
	case ".xlsx":
		return loadWorkbook(path, cols)
	default:
		return nil, fmt.Errorf("load %s: unsupported input format %q", path, ext)
	}
}

func loadDelimited(path string, comma rune, cols Columns) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fromRows(path, rows, cols)
}

func loadWorkbook(path string, cols Columns) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fromRows(path, rows, cols)
}

func fromRows(path string, rows [][]string, cols Columns) (Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("load %s: empty input", path)
	}

	idx, err := headerIndex(rows[0], cols)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var table Table
	for _, row := range rows[1:] {
		year, err := strconv.Atoi(strings.TrimSpace(cell(row, idx.year)))
		if err != nil {
			continue
		}

		table = append(table, Record{
			Country:        strings.TrimSpace(cell(row, idx.country)),
			Year:           year,
			ObsValue:       parseFloat(cell(row, idx.obsValue)),
			GDPPerCapita:   parseFloat(cell(row, idx.gdp)),
			LifeExpectancy: parseFloat(cell(row, idx.lifeExp)),
			Population:     parseFloat(cell(row, idx.population)),
		})
	}
	return table, nil
}

type columnIndex struct {
	country, obsValue, year, gdp, lifeExp, population int
}

func headerIndex(header []string, cols Columns) (columnIndex, error) {
	find := func(name string) (int, error) {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}

	var idx columnIndex
	var err error
	if idx.country, err = find(cols.Country); err != nil {
		return idx, err
	}
	if idx.obsValue, err = find(cols.ObsValue); err != nil {
		return idx, err
	}
	if idx.year, err = find(cols.Year); err != nil {
		return idx, err
	}
	if idx.gdp, err = find(cols.GDPPerCapita); err != nil {
		return idx, err
	}
	if idx.lifeExp, err = find(cols.LifeExpectancy); err != nil {
		return idx, err
	}
	if idx.population, err = find(cols.Population); err != nil {
		return idx, err
	}
	return idx, nil
}

// cell tolerates ragged rows (trailing empty cells are dropped by xlsx).
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// LatestYear returns the highest year in the table, or 0 for an empty table.
func (t Table) LatestYear() int {
	latest := 0
	for _, r := range t {
		if r.Year > latest {
			latest = r.Year
		}
	}
	return latest
}

// ForYear returns the rows observed in the given year.
func (t Table) ForYear(year int) Table {
	var out Table
	for _, r := range t {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}

// WithGDP returns the rows that carry a GDP per capita value.
func (t Table) WithGDP() Table {
	var out Table
	for _, r := range t {
		if r.HasGDP() {
			out = append(out, r)
		}
	}
	return out
}

// WithLifeExpectancy returns the rows that carry a life expectancy value.
func (t Table) WithLifeExpectancy() Table {
	var out Table
	for _, r := range t {
		if r.HasLifeExpectancy() {
			out = append(out, r)
		}
	}
	return out
}

// WithPopulation returns the rows that carry a population value.
func (t Table) WithPopulation() Table {
	var out Table
	for _, r := range t {
		if r.HasPopulation() {
			out = append(out, r)
		}
	}
	return out
}
