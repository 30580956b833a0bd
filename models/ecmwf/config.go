package ecmwf

import (
	"fmt"
	"hstin/reanalysis/common"
	"strconv"
	"strings"
	"time"
)

type Stream string

const (
	StreamOper Stream = "oper" // synoptic analyses and forecasts
	StreamMODA Stream = "moda" // monthly means of daily means
	StreamMOFM Stream = "mofm" // monthly means of daily forecast accumulations
	StreamMDFA Stream = "mdfa" // monthly means of daily forecast accumulations per step
	StreamMNTH Stream = "mnth" // monthly means of synoptic times
)

var streams = map[Stream]struct{}{
	StreamOper: {},
	StreamMODA: {},
	StreamMOFM: {},
	StreamMDFA: {},
	StreamMNTH: {},
}

func (s Stream) validate() error {
	if _, ok := streams[s]; !ok {
		return fmt.Errorf("%w: %q, choose from oper, moda, mofm, mdfa, mnth", common.ErrInvalidStream, string(s))
	}
	return nil
}

// Daily reports whether the stream is archived per calendar day rather than per month.
func (s Stream) Daily() bool {
	return s == StreamOper
}

// Dates is either a DateRange or a YearMonths selection.
type Dates interface {
	encode(stream Stream) (string, error)
}

// DateRange selects every date between two calendar boundaries, inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// YearMonths selects the cross product of years and months. A nil Months
// selects the whole year.
type YearMonths struct {
	Years  common.Selection[int]
	Months common.Selection[int]
}

// Grid is either a GridSpec or a Resolution.
type Grid interface {
	gridToken() string
}

// GridSpec is passed to the archive verbatim, e.g. "N32" or "F128".
type GridSpec string

// Resolution is a regular lat/lon grid spacing in degrees.
type Resolution float64

func (g GridSpec) gridToken() string {
	return string(g)
}

func (r Resolution) gridToken() string {
	return fmt.Sprintf("%.5f/%.5f", float64(r), float64(r))
}

// Area is either a named Region or a Bounds box.
type Area interface {
	areaToken() string
}

type Region string

func (r Region) areaToken() string {
	return string(r)
}

type Bounds struct {
	West, South, East, North float64
}

// areaToken orders the bounds north/west/south/east as MARS expects.
func (b Bounds) areaToken() string {
	return joinFloats([]float64{b.North, b.West, b.South, b.East})
}

// Config describes one retrieval.
type Config struct {
	Params   []string
	Stream   Stream
	LevType  string
	Dates    Dates
	Levels   common.Selection[float64]
	Grid     Grid
	Area     Area
	Hours    []int
	Hour     *int
	Forecast bool
	Step     *int
	Format   string
	Target   string
	Dataset  string
}

const (
	DefaultFormat  = "netcdf"
	DefaultTarget  = "era.nc"
	DefaultDataset = "interim"
)

var DefaultHours = []int{0, 6, 12, 18}

var formats = map[string]struct{}{
	"grib1":  {},
	"grib2":  {},
	"netcdf": {},
}

type datasetDetails struct {
	class       string
	expver      string
	dataset     string
	resol       string
	gaussian    string
	defaultGrid string
}

var datasets = map[string]datasetDetails{
	"interim": {
		class:   "ei",
		expver:  "1",
		dataset: "interim",
		// truncate after the transformation to the target grid
		resol:       "av",
		gaussian:    "reduced",
		defaultGrid: "N32",
	},
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, "/")
}

func joinInts(values []int, width int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%0*d", width, v)
	}
	return strings.Join(parts, "/")
}
