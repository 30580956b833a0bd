package ecmwf

import (
	"hstin/reanalysis/common"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhhuango/json"
)

func TestOptions_ConfigDateRange(t *testing.T) {
	opt := Options{
		Params:    []string{"t2m"},
		Stream:    "moda",
		LevType:   "sfc",
		DateRange: []string{"2010-03-01", "2010-05-31"},
		Years:     []int{1999},
	}

	cfg, err := opt.Config()
	require.NoError(t, err)
	assert.Equal(t, DateRange{Start: day(2010, 3, 1), End: day(2010, 5, 31)}, cfg.Dates)

	req, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, "20100300/20100400/20100500", mustGet(t, req, "date"))
}

func TestOptions_ConfigSingleDay(t *testing.T) {
	cfg, err := Options{DateRange: []string{"20200105"}}.Config()
	require.NoError(t, err)
	assert.Equal(t, DateRange{Start: day(2020, 1, 5), End: day(2020, 1, 5)}, cfg.Dates)
}

func TestOptions_ConfigYearsAndMonths(t *testing.T) {
	tests := []struct {
		name     string
		opt      Options
		expected Dates
	}{
		{
			name:     "lists",
			opt:      Options{Years: []int{2000, 2001}, Months: []int{6, 7}},
			expected: YearMonths{Years: common.List[int]{2000, 2001}, Months: common.List[int]{6, 7}},
		},
		{
			name:     "ranges",
			opt:      Options{YearRange: []int{2000, 2005}, MonthRange: []int{6, 8}},
			expected: YearMonths{Years: common.Range[int]{From: 2000, To: 2005}, Months: common.Range[int]{From: 6, To: 8}},
		},
		{
			name:     "single values",
			opt:      Options{YearRange: []int{2000}, MonthRange: []int{2}},
			expected: YearMonths{Years: common.Single[int]{Value: 2000}, Months: common.Single[int]{Value: 2}},
		},
		{
			name:     "list wins over range",
			opt:      Options{Years: []int{1990}, YearRange: []int{2000, 2005}},
			expected: YearMonths{Years: common.List[int]{1990}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.opt.Config()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.Dates)
		})
	}
}

func TestOptions_ConfigNoDates(t *testing.T) {
	cfg, err := Options{Months: []int{1}}.Config()
	require.NoError(t, err)
	assert.Nil(t, cfg.Dates)

	_, err = Build(Config{Params: []string{"t2m"}, Stream: StreamMODA, LevType: "sfc", Dates: cfg.Dates})
	assert.ErrorIs(t, err, common.ErrMissingDateSelection)
}

func TestOptions_ConfigLevels(t *testing.T) {
	cfg, err := Options{LevRange: []float64{100, 300}}.Config()
	require.NoError(t, err)
	assert.Equal(t, common.Range[float64]{From: 100, To: 300}, cfg.Levels)

	cfg, err = Options{Levs: []float64{500}, LevRange: []float64{100, 300}}.Config()
	require.NoError(t, err)
	assert.Equal(t, common.List[float64]{500}, cfg.Levels)

	cfg, err = Options{LevRange: []float64{850}}.Config()
	require.NoError(t, err)
	assert.Equal(t, common.Single[float64]{Value: 850}, cfg.Levels)

	_, err = Options{LevRange: []float64{1, 2, 3}}.Config()
	assert.ErrorIs(t, err, common.ErrInvalidSelection)
}

func TestOptions_ConfigGrid(t *testing.T) {
	res := 1.5
	cfg, err := Options{Grid: "N80", Res: &res}.Config()
	require.NoError(t, err)
	assert.Equal(t, Resolution(1.5), cfg.Grid)

	cfg, err = Options{Grid: "N80"}.Config()
	require.NoError(t, err)
	assert.Equal(t, GridSpec("N80"), cfg.Grid)

	cfg, err = Options{}.Config()
	require.NoError(t, err)
	assert.Nil(t, cfg.Grid)
}

func TestOptions_ConfigInvalidDates(t *testing.T) {
	_, err := Options{DateRange: []string{"yesterday"}}.Config()
	assert.ErrorIs(t, err, common.ErrInvalidDateRange)

	_, err = Options{DateRange: []string{"2000-01-01", "2000-01-02", "2000-01-03"}}.Config()
	assert.ErrorIs(t, err, common.ErrInvalidDateRange)
}

func TestBox_JSON(t *testing.T) {
	var opt Options
	require.NoError(t, json.Unmarshal([]byte(`{"box": [10, 20, 30, 40]}`), &opt))
	cfg, err := opt.Config()
	require.NoError(t, err)
	assert.Equal(t, Bounds{West: 10, South: 20, East: 30, North: 40}, cfg.Area)

	require.NoError(t, json.Unmarshal([]byte(`{"box": "europe"}`), &opt))
	cfg, err = opt.Config()
	require.NoError(t, err)
	assert.Equal(t, Region("europe"), cfg.Area)

	data, err := json.Marshal(Box{Bounds: []float64{1, 2, 3, 4}})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3,4]`, string(data))
}

func TestBox_WrongLength(t *testing.T) {
	_, err := Options{Box: &Box{Bounds: []float64{1, 2}}}.Config()
	assert.ErrorIs(t, err, common.ErrInvalidSelection)
}

func TestParseBox(t *testing.T) {
	assert.Nil(t, ParseBox(" "))
	assert.Equal(t, &Box{Region: "europe"}, ParseBox("europe"))
	assert.Equal(t, &Box{Bounds: []float64{-10, 35, 30, 70}}, ParseBox("-10,35,30,70"))
	assert.Equal(t, &Box{Region: "a,b,c,d"}, ParseBox("a,b,c,d"))
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.yaml")
	content := `
params: [t, u, v]
stream: moda
levtype: pl
yearrange: [1979, 1980]
months: [12, 1, 2]
levrange: [100, 300]
res: 2.5
box: [-180, -90, 180, 90]
forecast: true
step: 12
format: grib2
filename: djf.grib
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	opt, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"t", "u", "v"}, opt.Params)
	assert.Equal(t, []int{1979, 1980}, opt.YearRange)
	require.NotNil(t, opt.Box)
	assert.Equal(t, []float64{-180, -90, 180, 90}, opt.Box.Bounds)

	cfg, err := opt.Config()
	require.NoError(t, err)
	req, err := Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, "130.128/131.128/132.128", mustGet(t, req, "param"))
	assert.Equal(t, "19791200/19790100/19790200/19801200/19800100/19800200", mustGet(t, req, "date"))
	assert.Equal(t, "100/125/150/175/200/225/250/300", mustGet(t, req, "levelist"))
	assert.Equal(t, "2.50000/2.50000", mustGet(t, req, "grid"))
	assert.Equal(t, "90/-180/-90/180", mustGet(t, req, "area"))
	assert.Equal(t, "fc", mustGet(t, req, "type"))
	assert.Equal(t, "12", mustGet(t, req, "step"))
	assert.Equal(t, "djf.grib", mustGet(t, req, "target"))
}

func TestLoadOptions_RegionBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte("box: europe\n"), 0644))

	opt, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, &Box{Region: "europe"}, opt.Box)
}

func TestLoadOptions_Missing(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseDate_Layouts(t *testing.T) {
	for _, s := range []string{"2010-03-01", "20100301", "2010-03", "2010-03-01T12:00:00Z"} {
		got, err := parseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2010, got.Year())
		assert.Equal(t, time.March, got.Month())
	}
}
