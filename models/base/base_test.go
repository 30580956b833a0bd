package base

import (
	"context"
	"hstin/reanalysis/common"
	"hstin/reanalysis/models/ecmwf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveNames(t *testing.T) {
	assert.Equal(t, []string{"era", "merra", "ncar"}, ArchiveNames())
}

func TestGetArchive_Unknown(t *testing.T) {
	_, err := GetArchive("jra55", nil)
	assert.Error(t, err)
}

func TestPlaceholders_NeverSubmit(t *testing.T) {
	sub := ecmwf.SubmitterFunc(func(ctx context.Context, req *ecmwf.Request) (*ecmwf.Result, error) {
		t.Fatal("placeholder archive submitted a request")
		return nil, nil
	})

	for _, name := range []string{"merra", "ncar"} {
		archive, err := GetArchive(name, sub)
		require.NoError(t, err)
		assert.Equal(t, name, archive.Name())

		_, err = archive.Retrieve(context.Background(), ecmwf.Options{Params: []string{"t2m"}})
		assert.ErrorIs(t, err, common.ErrNotImplemented)
	}
}

func TestEraArchive_Retrieve(t *testing.T) {
	var submitted *ecmwf.Request
	sub := ecmwf.SubmitterFunc(func(ctx context.Context, req *ecmwf.Request) (*ecmwf.Result, error) {
		submitted = req
		return &ecmwf.Result{Target: "era.nc"}, nil
	})

	archive, err := GetArchive("era", sub)
	require.NoError(t, err)

	res, err := archive.Retrieve(context.Background(), ecmwf.Options{
		Params:  []string{"t2m"},
		Stream:  "moda",
		LevType: "sfc",
		Years:   []int{2000},
		Months:  []int{1},
	})
	require.NoError(t, err)
	require.NotNil(t, submitted)
	assert.Same(t, submitted, res.Request)

	date, _ := submitted.Get("date")
	assert.Equal(t, "20000100", date)
}

func TestEraArchive_InvalidOptions(t *testing.T) {
	archive, err := GetArchive("era", nil)
	require.NoError(t, err)

	_, err = archive.Retrieve(context.Background(), ecmwf.Options{Params: []string{"t2m"}, Stream: "moda", LevType: "sfc"})
	assert.ErrorIs(t, err, common.ErrMissingDateSelection)
}
