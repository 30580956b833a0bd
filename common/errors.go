package common

import "errors"

var (
	ErrInvalidVariable       = errors.New("unknown variable")
	ErrInvalidLevelType      = errors.New("invalid level type")
	ErrInvalidStream         = errors.New("invalid stream")
	ErrInvalidDataset        = errors.New("unknown dataset")
	ErrMissingParams         = errors.New("no parameters requested")
	ErrMissingLevelSelection = errors.New("level type requires a level list or level range")
	ErrMissingDateSelection  = errors.New("a date range or a year selection is required")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrInvalidSelection      = errors.New("invalid selection")
	ErrAmbiguousStep         = errors.New("variables disagree on the default forecast step")
	ErrNotImplemented        = errors.New("not implemented")
)
