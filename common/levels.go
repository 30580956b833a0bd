package common

import (
	"fmt"
	"math"
	"sort"
)

type LevelSetKind int

const (
	NO_LEVELS LevelSetKind = iota
	FIXED_LEVELS
	OPEN_LEVELS
)

// LevelSet is the set of levels a level type can be subset by.
type LevelSet struct {
	kind   LevelSetKind
	fixed  []float64
	lo, hi int
}

// LevelType describes one of the MARS vertical coordinate types.
type LevelType struct {
	Tag         string
	Description string
	Levels      LevelSet
}

var potentialTemperatureLevels = []float64{
	265, 270, 285, 300, 315, 330, 350, 370, 395, 430, 475, 530, 600, 700, 850,
}

var pressureLevels = []float64{
	1, 2, 3, 5, 7, 10, 20, 30, 50, 70, 100, 125, 150, 175, 200, 225, 250,
	300, 350, 400, 450, 500, 550, 600, 650, 700, 750, 775, 800, 825, 850,
	875, 900, 925, 950, 975, 1000,
}

var levelTypes = map[string]LevelType{
	"ml":  {Tag: "ml", Description: "model levels", Levels: LevelSet{kind: OPEN_LEVELS, lo: 1, hi: 137}},
	"pl":  {Tag: "pl", Description: "pressure levels", Levels: LevelSet{kind: FIXED_LEVELS, fixed: pressureLevels}},
	"pt":  {Tag: "pt", Description: "potential temperature levels", Levels: LevelSet{kind: FIXED_LEVELS, fixed: potentialTemperatureLevels}},
	"pv":  {Tag: "pv", Description: "2 PVU surface", Levels: LevelSet{kind: NO_LEVELS}},
	"sfc": {Tag: "sfc", Description: "surface", Levels: LevelSet{kind: NO_LEVELS}},
}

func LookupLevelType(tag string) (LevelType, error) {
	lt, ok := levelTypes[tag]
	if !ok {
		return LevelType{}, fmt.Errorf("%w: %q, choose from ml, pl, pt, pv, sfc", ErrInvalidLevelType, tag)
	}
	return lt, nil
}

// LevelTypes returns every level type ordered by tag.
func LevelTypes() []LevelType {
	out := make([]LevelType, 0, len(levelTypes))
	for _, lt := range levelTypes {
		out = append(out, lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

func (s LevelSet) Kind() LevelSetKind {
	return s.kind
}

// HasLevels reports whether requests on this level type need a level selection.
func (lt LevelType) HasLevels() bool {
	return lt.Levels.kind != NO_LEVELS
}

// Values returns a copy of the allowed levels. Open sets are enumerated.
func (s LevelSet) Values() []float64 {
	switch s.kind {
	case FIXED_LEVELS:
		return append([]float64(nil), s.fixed...)
	case OPEN_LEVELS:
		out := make([]float64, 0, s.hi-s.lo+1)
		for l := s.lo; l <= s.hi; l++ {
			out = append(out, float64(l))
		}
		return out
	}
	return nil
}

// Filter returns the levels of the set inside [lo, hi], ascending.
func (s LevelSet) Filter(lo, hi float64) []float64 {
	switch s.kind {
	case FIXED_LEVELS:
		out := make([]float64, 0, len(s.fixed))
		for _, l := range s.fixed {
			if l >= lo && l <= hi {
				out = append(out, l)
			}
		}
		return out
	case OPEN_LEVELS:
		from := max(int(math.Ceil(lo)), s.lo)
		to := min(int(math.Floor(hi)), s.hi)
		var out []float64
		for l := from; l <= to; l++ {
			out = append(out, float64(l))
		}
		return out
	}
	return nil
}
