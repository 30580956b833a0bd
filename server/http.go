package server

import (
	. "hstin/reanalysis/helper"
	"hstin/reanalysis/models/base"
	"hstin/reanalysis/models/ecmwf"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xhhuango/json"
)

type RequestResponse struct {
	RequestID       string         `json:"request_id"`
	CalculationTime int64          `json:"calculation_time"`
	Request         *ecmwf.Request `json:"request"`
}

func NewApp(sub ecmwf.Submitter) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
		ServerHeader:          "reanalysis",
	})

	app.Get("/variables", func(c *fiber.Ctx) error {
		return c.JSON(variableList())
	})

	app.Get("/levtypes", func(c *fiber.Ctx) error {
		return c.JSON(levelTypeList())
	})

	// dry run, the request is only assembled
	app.Post("/request", func(c *fiber.Ctx) error {
		startCalculation := time.Now()

		var opt ecmwf.Options
		if err := c.BodyParser(&opt); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		cfg, err := opt.Config()
		if err != nil {
			return c.Status(httpStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}

		req, err := ecmwf.Build(cfg)
		if err != nil {
			return c.Status(httpStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(RequestResponse{
			RequestID:       uuid.NewString(),
			CalculationTime: time.Since(startCalculation).Microseconds(),
			Request:         req,
		})
	})

	app.Post("/retrieve/:archive", func(c *fiber.Ctx) error {
		archive, err := base.GetArchive(c.Params("archive"), sub)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}

		var opt ecmwf.Options
		if err := c.BodyParser(&opt); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		res, err := archive.Retrieve(c.UserContext(), opt)
		if err != nil {
			Log.Error().Err(err).Str("archive", archive.Name()).Msg("Retrieval failed")
			return c.Status(httpStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(res)
	})

	return app
}

func StartServer(port string, sub ecmwf.Submitter) {
	app := NewApp(sub)

	Log.Info().Msg("HTTP server started on port " + port)

	Log.Fatal().Err(app.Listen(":" + port)).Msg("Failed to start HTTP server")
}
