package base

import (
	"context"
	"fmt"
	"hstin/reanalysis/models/ecmwf"
	"hstin/reanalysis/models/merra"
	"hstin/reanalysis/models/ncar"
	"sort"
)

type BaseArchive interface {
	Name() string
	Retrieve(ctx context.Context, opt ecmwf.Options) (*ecmwf.Result, error)
}

type eraArchive struct {
	submitter ecmwf.Submitter
}

func (a eraArchive) Name() string {
	return "era"
}

func (a eraArchive) Retrieve(ctx context.Context, opt ecmwf.Options) (*ecmwf.Result, error) {
	cfg, err := opt.Config()
	if err != nil {
		return nil, err
	}
	return ecmwf.Retrieve(ctx, cfg, a.submitter)
}

type placeholderArchive struct {
	name     string
	retrieve func(ctx context.Context) error
}

func (a placeholderArchive) Name() string {
	return a.name
}

func (a placeholderArchive) Retrieve(ctx context.Context, _ ecmwf.Options) (*ecmwf.Result, error) {
	return nil, a.retrieve(ctx)
}

var placeholders = map[string]placeholderArchive{
	merra.ArchiveName: {name: merra.ArchiveName, retrieve: merra.Retrieve},
	ncar.ArchiveName:  {name: ncar.ArchiveName, retrieve: ncar.Retrieve},
}

// GetArchive returns the archive registered under name. Only era submits
// anything; sub is unused by the others.
func GetArchive(name string, sub ecmwf.Submitter) (BaseArchive, error) {
	if name == "era" {
		return eraArchive{submitter: sub}, nil
	}
	if a, ok := placeholders[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("unknown archive %q, available archives are %v", name, ArchiveNames())
}

func ArchiveNames() []string {
	names := []string{"era"}
	for name := range placeholders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
