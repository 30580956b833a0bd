package ecmwf

import (
	"context"
	"fmt"
	"hstin/reanalysis/common"
	"path/filepath"
	"strconv"
	"strings"

	. "hstin/reanalysis/helper"

	"github.com/google/uuid"
)

// Submitter hands a finished request to the archive.
type Submitter interface {
	Submit(ctx context.Context, req *Request) (*Result, error)
}

type SubmitterFunc func(ctx context.Context, req *Request) (*Result, error)

func (f SubmitterFunc) Submit(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// Result describes a completed retrieval.
type Result struct {
	RequestID string   `json:"request_id"`
	Request   *Request `json:"request"`
	Target    string   `json:"target"`
	Href      string   `json:"href,omitempty"`
	Size      int64    `json:"size"`
}

// Build validates cfg and assembles the MARS request. No request is
// returned unless every option is valid.
func Build(cfg Config) (*Request, error) {
	dataset := cfg.Dataset
	if dataset == "" {
		dataset = DefaultDataset
	}
	details, ok := datasets[dataset]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidDataset, dataset)
	}

	vars, params, err := resolveParams(cfg.Params)
	if err != nil {
		return nil, err
	}

	if err := cfg.Stream.validate(); err != nil {
		return nil, err
	}

	if cfg.Dates == nil {
		return nil, common.ErrMissingDateSelection
	}
	dates, err := cfg.Dates.encode(cfg.Stream)
	if err != nil {
		return nil, err
	}

	levType, err := common.LookupLevelType(cfg.LevType)
	if err != nil {
		return nil, err
	}
	levels, err := resolveLevels(levType, cfg.Levels)
	if err != nil {
		return nil, err
	}

	grid := details.defaultGrid
	if cfg.Grid != nil {
		if r, ok := cfg.Grid.(Resolution); ok && r <= 0 {
			return nil, fmt.Errorf("%w: resolution must be positive, got %v", common.ErrInvalidSelection, float64(r))
		}
		grid = cfg.Grid.gridToken()
	}

	hours := cfg.Hours
	if len(hours) == 0 {
		hours = DefaultHours
	}
	if err := common.CheckBounds("hour", hours, 0, 23); err != nil {
		return nil, err
	}

	format := cfg.Format
	if format == "" {
		format = DefaultFormat
	}
	if _, ok := formats[format]; !ok {
		return nil, fmt.Errorf("%w: format %q, choose from grib1, grib2, netcdf", common.ErrInvalidSelection, format)
	}

	target := cfg.Target
	if target == "" {
		target = DefaultTarget
	}
	if err := checkTarget(target); err != nil {
		return nil, err
	}

	fieldType, step := "an", "0"
	if cfg.Forecast {
		s, err := resolveStep(vars, cfg.Step)
		if err != nil {
			return nil, err
		}
		fieldType, step = "fc", strconv.Itoa(s)
	}

	req := &Request{}
	req.set("class", details.class)
	req.set("expver", details.expver)
	req.set("dataset", details.dataset)
	req.set("type", fieldType)
	req.set("resol", details.resol)
	req.set("gaussian", details.gaussian)
	req.set("format", format)
	req.set("step", step)
	req.set("grid", grid)
	req.set("stream", string(cfg.Stream))
	req.set("date", dates)
	req.set("time", joinInts(hours, 2))
	req.set("levtype", levType.Tag)
	req.set("param", params)
	req.set("target", target)

	if levels != "" {
		req.set("levelist", levels)
	}
	if cfg.Area != nil {
		req.set("area", cfg.Area.areaToken())
	}
	if cfg.Stream.Daily() && cfg.Hour != nil {
		req.set("hour", strconv.Itoa(*cfg.Hour))
	}

	return req, nil
}

// Retrieve builds the request and submits it once. Submitter errors are
// returned as they are.
func Retrieve(ctx context.Context, cfg Config, sub Submitter) (*Result, error) {
	req, err := Build(cfg)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	event := Log.Info().Str("request_id", id)
	for _, f := range req.Fields() {
		event = event.Str(f.Key, f.Value)
	}
	event.Msg("MARS request")

	res, err := sub.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &Result{}
	}
	if res.RequestID == "" {
		res.RequestID = id
	}
	if res.Request == nil {
		res.Request = req
	}
	return res, nil
}

// checkTarget accepts only a bare file name, so the download stays inside
// the output folder.
func checkTarget(target string) error {
	if target == "." || !filepath.IsLocal(target) || filepath.Base(target) != target {
		return fmt.Errorf("%w: target %q must be a plain file name", common.ErrInvalidSelection, target)
	}
	return nil
}

func resolveParams(names []string) ([]common.Variable, string, error) {
	if len(names) == 0 {
		return nil, "", common.ErrMissingParams
	}
	vars := make([]common.Variable, len(names))
	ids := make([]string, len(names))
	for i, name := range names {
		v, err := common.LookupVariable(name)
		if err != nil {
			return nil, "", err
		}
		vars[i] = v
		ids[i] = v.ParameterID
	}
	return vars, strings.Join(ids, "/"), nil
}

func resolveLevels(lt common.LevelType, sel common.Selection[float64]) (string, error) {
	if !lt.HasLevels() {
		if sel != nil {
			Log.Debug().Str("levtype", lt.Tag).Msg("Ignoring level selection for level type without levels")
		}
		return "", nil
	}

	var levels []float64
	switch s := sel.(type) {
	case nil:
		return "", fmt.Errorf("%w: %s", common.ErrMissingLevelSelection, lt.Tag)
	case common.List[float64]:
		levels = s
	case common.Single[float64]:
		levels = []float64{s.Value}
	case common.Range[float64]:
		if s.To < s.From {
			return "", fmt.Errorf("%w: level range %v to %v is reversed", common.ErrInvalidSelection, s.From, s.To)
		}
		levels = lt.Levels.Filter(s.From, s.To)
	default:
		return "", fmt.Errorf("%w: unsupported level selection %T", common.ErrInvalidSelection, sel)
	}

	if len(levels) == 0 {
		return "", fmt.Errorf("%w: no %s levels selected", common.ErrMissingLevelSelection, lt.Tag)
	}
	return joinFloats(levels), nil
}

func resolveStep(vars []common.Variable, step *int) (int, error) {
	if step != nil {
		if *step < 0 {
			return 0, fmt.Errorf("%w: negative step %d", common.ErrInvalidSelection, *step)
		}
		return *step, nil
	}

	s := vars[0].DefaultStep
	for _, v := range vars[1:] {
		if v.DefaultStep != s {
			return 0, fmt.Errorf("%w: %s has %dh, %s has %dh; set the step explicitly",
				common.ErrAmbiguousStep, vars[0].Name, s, v.Name, v.DefaultStep)
		}
	}
	return s, nil
}
