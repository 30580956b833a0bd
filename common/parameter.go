package common

import (
	"fmt"
	"sort"
)

// Variable is an archive field addressable by a short mnemonic.
type Variable struct {
	Name        string
	ParameterID string
	Description string
	// DefaultStep is the forecast lead time in hours used when a forecast
	// request does not set one. Accumulated and tendency fields are
	// archived at 12 hour steps, instantaneous fields at 6.
	DefaultStep int
}

// MARS ids from the ERA-Interim GRIB table
// (https://rda.ucar.edu/datasets/ds627.0/docs/era_interim_grib_table.html).
var variables = map[string]Variable{
	"q":      {Name: "q", ParameterID: "133.128", Description: "specific humidity", DefaultStep: 6},
	"r":      {Name: "r", ParameterID: "157.128", Description: "relative humidity", DefaultStep: 6},
	"t":      {Name: "t", ParameterID: "130.128", Description: "temperature", DefaultStep: 6},
	"u":      {Name: "u", ParameterID: "131.128", Description: "u wind", DefaultStep: 6},
	"v":      {Name: "v", ParameterID: "132.128", Description: "v wind", DefaultStep: 6},
	"w":      {Name: "w", ParameterID: "135.128", Description: "vertical velocity", DefaultStep: 6},
	"z":      {Name: "z", ParameterID: "129.128", Description: "geopotential", DefaultStep: 6},
	"p":      {Name: "p", ParameterID: "54.128", Description: "pressure", DefaultStep: 6},
	"pt":     {Name: "pt", ParameterID: "3.128", Description: "potential temperature", DefaultStep: 6},
	"vo":     {Name: "vo", ParameterID: "138.128", Description: "relative vorticity", DefaultStep: 6},
	"pv":     {Name: "pv", ParameterID: "60.128", Description: "potential vorticity", DefaultStep: 6},
	"sp":     {Name: "sp", ParameterID: "134.128", Description: "surface pressure", DefaultStep: 6},
	"msl":    {Name: "msl", ParameterID: "151.128", Description: "mean sea level pressure", DefaultStep: 6},
	"slp":    {Name: "slp", ParameterID: "151.128", Description: "mean sea level pressure", DefaultStep: 6},
	"msp":    {Name: "msp", ParameterID: "152.128", Description: "model level surface pressure", DefaultStep: 6},
	"sst":    {Name: "sst", ParameterID: "34.128", Description: "sea surface temperature", DefaultStep: 6},
	"t2m":    {Name: "t2m", ParameterID: "167.128", Description: "2 metre temperature", DefaultStep: 6},
	"d2m":    {Name: "d2m", ParameterID: "168.128", Description: "2 metre dewpoint", DefaultStep: 6},
	"tdt":    {Name: "tdt", ParameterID: "110.162", Description: "diabatic temperature tendency", DefaultStep: 12},
	"precip": {Name: "precip", ParameterID: "228.128", Description: "total precipitation", DefaultStep: 12},
}

func LookupVariable(name string) (Variable, error) {
	v, ok := variables[name]
	if !ok {
		return Variable{}, fmt.Errorf("%w: %q", ErrInvalidVariable, name)
	}
	return v, nil
}

// Variables returns every known variable ordered by mnemonic.
func Variables() []Variable {
	out := make([]Variable, 0, len(variables))
	for _, v := range variables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
