// Package ncar will download NCAR CFSR reanalysis data. There is no
// backend yet.
package ncar

import (
	"context"
	"fmt"
	"hstin/reanalysis/common"
)

const ArchiveName = "ncar"

func Retrieve(ctx context.Context) error {
	return fmt.Errorf("%s: %w", ArchiveName, common.ErrNotImplemented)
}
