package server

import (
	"errors"
	"hstin/reanalysis/common"
	"hstin/reanalysis/models/ecmwf"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc/codes"
)

var invalidRequestErrors = []error{
	common.ErrInvalidVariable,
	common.ErrInvalidLevelType,
	common.ErrInvalidStream,
	common.ErrInvalidDataset,
	common.ErrMissingParams,
	common.ErrMissingLevelSelection,
	common.ErrMissingDateSelection,
	common.ErrInvalidDateRange,
	common.ErrInvalidSelection,
	common.ErrAmbiguousStep,
}

func isInvalidRequest(err error) bool {
	for _, target := range invalidRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func httpStatus(err error) int {
	var apiErr *ecmwf.APIError
	switch {
	case isInvalidRequest(err):
		return fiber.StatusBadRequest
	case errors.Is(err, common.ErrNotImplemented):
		return fiber.StatusNotImplemented
	case errors.As(err, &apiErr):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func grpcCode(err error) codes.Code {
	var apiErr *ecmwf.APIError
	switch {
	case isInvalidRequest(err):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrNotImplemented):
		return codes.Unimplemented
	case errors.As(err, &apiErr):
		return codes.Unavailable
	}
	return codes.Internal
}

type levelTypeInfo struct {
	Tag         string    `json:"tag"`
	Description string    `json:"description"`
	Levels      []float64 `json:"levels"`
}

func levelTypeList() []levelTypeInfo {
	out := []levelTypeInfo{}
	for _, lt := range common.LevelTypes() {
		out = append(out, levelTypeInfo{Tag: lt.Tag, Description: lt.Description, Levels: lt.Levels.Values()})
	}
	return out
}

type variableInfo struct {
	Name        string `json:"name"`
	ParameterID string `json:"parameter_id"`
	Description string `json:"description"`
	DefaultStep int    `json:"default_step"`
}

func variableList() []variableInfo {
	out := []variableInfo{}
	for _, v := range common.Variables() {
		out = append(out, variableInfo{Name: v.Name, ParameterID: v.ParameterID, Description: v.Description, DefaultStep: v.DefaultStep})
	}
	return out
}
