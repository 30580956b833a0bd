// Package merra will download NASA MERRA-2 reanalysis data. There is no
// backend yet.
package merra

import (
	"context"
	"fmt"
	"hstin/reanalysis/common"
)

const ArchiveName = "merra"

func Retrieve(ctx context.Context) error {
	return fmt.Errorf("%s: %w", ArchiveName, common.ErrNotImplemented)
}
