package ecmwf

import (
	"fmt"
	"hstin/reanalysis/common"
	"os"
	"strconv"
	"strings"
	"time"

	. "hstin/reanalysis/helper"

	"github.com/xhhuango/json"
	"gopkg.in/yaml.v3"
)

// Options is the flat keyword form of a request as it arrives from a
// request file, an HTTP body or a gRPC struct.
type Options struct {
	Params     []string  `json:"params" yaml:"params"`
	Stream     string    `json:"stream" yaml:"stream"`
	LevType    string    `json:"levtype" yaml:"levtype"`
	DateRange  []string  `json:"daterange,omitempty" yaml:"daterange,omitempty"`
	Years      []int     `json:"years,omitempty" yaml:"years,omitempty"`
	YearRange  []int     `json:"yearrange,omitempty" yaml:"yearrange,omitempty"`
	Months     []int     `json:"months,omitempty" yaml:"months,omitempty"`
	MonthRange []int     `json:"monthrange,omitempty" yaml:"monthrange,omitempty"`
	Levs       []float64 `json:"levs,omitempty" yaml:"levs,omitempty"`
	LevRange   []float64 `json:"levrange,omitempty" yaml:"levrange,omitempty"`
	Grid       string    `json:"grid,omitempty" yaml:"grid,omitempty"`
	Res        *float64  `json:"res,omitempty" yaml:"res,omitempty"`
	Box        *Box      `json:"box,omitempty" yaml:"box,omitempty"`
	Hours      []int     `json:"hours,omitempty" yaml:"hours,omitempty"`
	Hour       *int      `json:"hour,omitempty" yaml:"hour,omitempty"`
	Forecast   bool      `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	Step       *int      `json:"step,omitempty" yaml:"step,omitempty"`
	Format     string    `json:"format,omitempty" yaml:"format,omitempty"`
	Filename   string    `json:"filename,omitempty" yaml:"filename,omitempty"`
	Dataset    string    `json:"dataset,omitempty" yaml:"dataset,omitempty"`
}

// Box is a region name or four west, south, east, north bounds.
type Box struct {
	Region string
	Bounds []float64
}

func (b *Box) UnmarshalJSON(data []byte) error {
	*b = Box{}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.Region)
	}
	return json.Unmarshal(data, &b.Bounds)
}

func (b Box) MarshalJSON() ([]byte, error) {
	if b.Region != "" {
		return json.Marshal(b.Region)
	}
	return json.Marshal(b.Bounds)
}

func (b *Box) UnmarshalYAML(value *yaml.Node) error {
	*b = Box{}
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&b.Region)
	}
	return value.Decode(&b.Bounds)
}

// ParseBox reads "west,south,east,north" as bounds and anything else as a
// region name.
func ParseBox(s string) *Box {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(c rune) bool { return c == ',' || c == '/' })
	if len(parts) != 4 {
		return &Box{Region: s}
	}
	bounds := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return &Box{Region: s}
		}
		bounds[i] = v
	}
	return &Box{Bounds: bounds}
}

func (b *Box) area() (Area, error) {
	if b == nil {
		return nil, nil
	}
	if b.Region != "" {
		return Region(b.Region), nil
	}
	if len(b.Bounds) != 4 {
		return nil, fmt.Errorf("%w: box needs west, south, east, north bounds, got %d values", common.ErrInvalidSelection, len(b.Bounds))
	}
	return Bounds{West: b.Bounds[0], South: b.Bounds[1], East: b.Bounds[2], North: b.Bounds[3]}, nil
}

// LoadOptions reads a YAML request file.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading request file: %w", err)
	}
	var opt Options
	if err := yaml.Unmarshal(data, &opt); err != nil {
		return Options{}, fmt.Errorf("parsing request file %s: %w", path, err)
	}
	return opt, nil
}

var dateLayouts = []string{time.DateOnly, "20060102", "2006-01", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q", common.ErrInvalidDateRange, s)
}

// rangeSelection turns a one or two element range option into a selection.
func rangeSelection[T common.Number](name string, values []T) (common.Selection[T], error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		return common.Single[T]{Value: values[0]}, nil
	case 2:
		return common.Range[T]{From: values[0], To: values[1]}, nil
	}
	return nil, fmt.Errorf("%w: %s takes one or two values, got %d", common.ErrInvalidSelection, name, len(values))
}

// listSelection prefers an explicit list over a range. A shadowed range is
// reported and otherwise ignored.
func listSelection[T common.Number](name string, list []T, rangeName string, rng []T) (common.Selection[T], error) {
	if len(list) > 0 {
		if len(rng) > 0 {
			Log.Warn().Msgf("Both %s and %s given, using %s", name, rangeName, name)
		}
		return common.List[T](list), nil
	}
	return rangeSelection(rangeName, rng)
}

// Config normalizes the options into a Config. Where the keyword form
// allows competing options, daterange wins over years and months, explicit
// lists win over ranges and res wins over grid.
func (o Options) Config() (Config, error) {
	cfg := Config{
		Params:   o.Params,
		Stream:   Stream(o.Stream),
		LevType:  o.LevType,
		Hours:    o.Hours,
		Hour:     o.Hour,
		Forecast: o.Forecast,
		Step:     o.Step,
		Format:   o.Format,
		Target:   o.Filename,
		Dataset:  o.Dataset,
	}

	switch {
	case len(o.DateRange) > 0:
		if len(o.Years)+len(o.YearRange)+len(o.Months)+len(o.MonthRange) > 0 {
			Log.Warn().Msg("Both daterange and years/months given, using daterange")
		}
		if len(o.DateRange) > 2 {
			return Config{}, fmt.Errorf("%w: daterange takes one or two dates, got %d", common.ErrInvalidDateRange, len(o.DateRange))
		}
		start, err := parseDate(o.DateRange[0])
		if err != nil {
			return Config{}, err
		}
		end := start
		if len(o.DateRange) == 2 {
			if end, err = parseDate(o.DateRange[1]); err != nil {
				return Config{}, err
			}
		}
		cfg.Dates = DateRange{Start: start, End: end}
	case len(o.Years) > 0 || len(o.YearRange) > 0:
		years, err := listSelection("years", o.Years, "yearrange", o.YearRange)
		if err != nil {
			return Config{}, err
		}
		months, err := listSelection("months", o.Months, "monthrange", o.MonthRange)
		if err != nil {
			return Config{}, err
		}
		cfg.Dates = YearMonths{Years: years, Months: months}
	}

	levels, err := listSelection("levs", o.Levs, "levrange", o.LevRange)
	if err != nil {
		return Config{}, err
	}
	cfg.Levels = levels

	switch {
	case o.Res != nil:
		if o.Grid != "" {
			Log.Warn().Msg("Both res and grid given, using res")
		}
		cfg.Grid = Resolution(*o.Res)
	case o.Grid != "":
		cfg.Grid = GridSpec(o.Grid)
	}

	if cfg.Area, err = o.Box.area(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
