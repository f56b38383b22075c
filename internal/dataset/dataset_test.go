package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `country,obs_value,year,gdp_per_capita,life_expectancy,population
France,92.3,2020,35000,82.5,67000000
Chad,28.4,2020,700,54.2,16000000
Kenya,,2020,1800,66.1,53000000
Atlantis,50.0,2020,,,
France,91.8,not-a-year,35000,82.4,66800000
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "input.csv", sampleCSV)

	table, err := Load(path, DefaultColumns())
	require.NoError(t, err)

	// The unparseable-year row is skipped, everything else survives.
	require.Len(t, table, 4)

	france := table[0]
	assert.Equal(t, "France", france.Country)
	assert.Equal(t, 2020, france.Year)
	assert.Equal(t, 92.3, france.ObsValue)
	assert.Equal(t, 35000.0, france.GDPPerCapita)
	assert.Equal(t, 82.5, france.LifeExpectancy)
	assert.Equal(t, 67000000.0, france.Population)

	kenya := table[2]
	assert.False(t, kenya.HasObsValue(), "empty obs_value must load as NaN")
	assert.True(t, kenya.HasGDP())

	atlantis := table[3]
	assert.True(t, atlantis.HasObsValue())
	assert.False(t, atlantis.HasGDP())
	assert.False(t, atlantis.HasLifeExpectancy())
	assert.False(t, atlantis.HasPopulation())

	// Derived fields stay zero-valued until enrichment.
	assert.Empty(t, france.CountryCode)
}

func TestLoadTSV(t *testing.T) {
	tsv := "country\tobs_value\tyear\tgdp_per_capita\tlife_expectancy\tpopulation\n" +
		"Brazil\t78.2\t2019\t8700\t75.3\t211000000\n"
	path := writeFile(t, "input.tsv", tsv)

	table, err := Load(path, DefaultColumns())
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Brazil", table[0].Country)
	assert.Equal(t, 8700.0, table[0].GDPPerCapita)
}

func TestLoadCustomHeaders(t *testing.T) {
	csvData := `REF_AREA_NAME,OBS_VALUE,TIME_PERIOD,NY_GDP_PCAP,SP_DYN_LE00,SP_POP_TOTL
Ghana,55.1,2018,2200,63.8,29700000
`
	path := writeFile(t, "input.csv", csvData)

	cols := Columns{
		Country:        "REF_AREA_NAME",
		ObsValue:       "OBS_VALUE",
		Year:           "TIME_PERIOD",
		GDPPerCapita:   "NY_GDP_PCAP",
		LifeExpectancy: "SP_DYN_LE00",
		Population:     "SP_POP_TOTL",
	}

	table, err := Load(path, cols)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Ghana", table[0].Country)
	assert.Equal(t, 2018, table[0].Year)
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeFile(t, "input.csv", "country,year\nFrance,2020\n")

	_, err := Load(path, DefaultColumns())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "obs_value")
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "input.parquet", "whatever")
	_, err := Load(path, DefaultColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported input format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), DefaultColumns())
	require.Error(t, err)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"country", "obs_value", "year", "gdp_per_capita", "life_expectancy", "population"},
		{"Japan", 97.1, 2021, 39000, 84.6, 125000000},
		{"Nepal", 64.2, 2021, "", 70.5, 29000000},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := Load(path, DefaultColumns())
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, "Japan", table[0].Country)
	assert.Equal(t, 2021, table[0].Year)
	assert.InDelta(t, 97.1, table[0].ObsValue, 1e-9)

	assert.Equal(t, "Nepal", table[1].Country)
	assert.False(t, table[1].HasGDP(), "empty workbook cell must load as NaN")
	assert.True(t, table[1].HasLifeExpectancy())
}

func TestTableHelpers(t *testing.T) {
	table := Table{
		{Country: "France", Year: 2019, ObsValue: 91.0, GDPPerCapita: 34000, LifeExpectancy: 82.3, Population: 66900000},
		{Country: "France", Year: 2020, ObsValue: 92.3, GDPPerCapita: 35000, LifeExpectancy: 82.5, Population: 67000000},
		{Country: "Chad", Year: 2020, ObsValue: 28.4, GDPPerCapita: 700, LifeExpectancy: math.NaN(), Population: math.NaN()},
		{Country: "Kenya", Year: 2020, ObsValue: 61.5, GDPPerCapita: math.NaN(), LifeExpectancy: 66.1, Population: math.NaN()},
	}

	assert.Equal(t, 2020, table.LatestYear())
	assert.Len(t, table.ForYear(2020), 3)
	assert.Len(t, table.WithGDP(), 3)
	assert.Len(t, table.WithLifeExpectancy(), 3)
	assert.Len(t, table.WithPopulation(), 2)

	// Helpers never mutate the receiver.
	assert.Len(t, table, 4)

	var empty Table
	assert.Equal(t, 0, empty.LatestYear())
	assert.Empty(t, empty.ForYear(2020))
}
