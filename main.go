package main

import (
	"context"
	"errors"
	"fmt"
	"hstin/reanalysis/common"
	. "hstin/reanalysis/helper"
	"hstin/reanalysis/models/base"
	"hstin/reanalysis/models/ecmwf"
	"hstin/reanalysis/server"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
)

var eraFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "request",
		Aliases: []string{"r"},
		Usage:   "YAML request file, flags override its values",
		EnvVars: []string{"REQUEST_FILE"},
	},
	&cli.StringSliceFlag{
		Name:    "params",
		Aliases: []string{"p"},
		Usage:   "Variable mnemonics, e.g. t2m",
		EnvVars: []string{"PARAMS"},
	},
	&cli.StringFlag{
		Name:    "stream",
		Value:   "oper",
		Usage:   "Data stream: oper, moda, mofm, mdfa, mnth",
		EnvVars: []string{"STREAM"},
	},
	&cli.StringFlag{
		Name:    "levtype",
		Usage:   "Level type: ml, pl, pt, pv, sfc",
		EnvVars: []string{"LEVTYPE"},
	},
	&cli.StringSliceFlag{
		Name:  "daterange",
		Usage: "First and last date, YYYY-MM-DD",
	},
	&cli.IntSliceFlag{
		Name:  "years",
		Usage: "Year list",
	},
	&cli.IntSliceFlag{
		Name:  "yearrange",
		Usage: "Single year or first and last year",
	},
	&cli.IntSliceFlag{
		Name:  "months",
		Usage: "Month list, defaults to the whole year",
	},
	&cli.IntSliceFlag{
		Name:  "monthrange",
		Usage: "Single month or first and last month",
	},
	&cli.Float64SliceFlag{
		Name:  "levs",
		Usage: "Level list",
	},
	&cli.Float64SliceFlag{
		Name:  "levrange",
		Usage: "Single level or lowest and highest level",
	},
	&cli.StringFlag{
		Name:  "grid",
		Usage: "Grid name, defaults to N32",
	},
	&cli.Float64Flag{
		Name:  "res",
		Usage: "Grid resolution in degrees, overrides --grid",
	},
	&cli.StringFlag{
		Name:  "box",
		Usage: "Region name or west,south,east,north",
	},
	&cli.IntSliceFlag{
		Name:  "hours",
		Usage: "UTC hours, defaults to 0,6,12,18",
	},
	&cli.IntFlag{
		Name:  "hour",
		Usage: "Hour field for the oper stream",
	},
	&cli.BoolFlag{
		Name:  "forecast",
		Usage: "Request forecast fields instead of analyses",
	},
	&cli.IntFlag{
		Name:  "step",
		Usage: "Forecast step in hours, defaults per variable",
	},
	&cli.StringFlag{
		Name:    "format",
		Usage:   "Output format: grib1, grib2, netcdf",
		EnvVars: []string{"FORMAT"},
	},
	&cli.StringFlag{
		Name:    "filename",
		Aliases: []string{"o"},
		Usage:   "Output file name",
	},
	&cli.StringFlag{
		Name:    "output-dir",
		Value:   "data",
		Usage:   "Folder the output file is written to",
		EnvVars: []string{"OUTPUT_DIR"},
	},
	&cli.DurationFlag{
		Name:    "poll-interval",
		Usage:   "Status poll interval when the archive sends no Retry-After",
		EnvVars: []string{"POLL_INTERVAL"},
	},
	&cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Print the request without submitting it",
	},
	&cli.BoolFlag{
		Name:  "list-variables",
		Usage: "Print the known variables and level types",
	},
}

var serveFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "http",
		Value:   false,
		Usage:   "Start the HTTP server",
		EnvVars: []string{"START_HTTP"},
	},
	&cli.BoolFlag{
		Name:    "grpc",
		Value:   false,
		Usage:   "Start the gRPC server",
		EnvVars: []string{"START_GRPC"},
	},
	&cli.StringFlag{
		Name:    "http-port",
		Value:   "8081",
		Usage:   "HTTP server port",
		EnvVars: []string{"HTTP_PORT"},
	},
	&cli.StringFlag{
		Name:    "grpc-port",
		Value:   "50051",
		Usage:   "gRPC server port",
		EnvVars: []string{"GRPC_PORT"},
	},
	&cli.StringFlag{
		Name:    "output-dir",
		Value:   "data",
		Usage:   "Folder retrieved files are written to",
		EnvVars: []string{"OUTPUT_DIR"},
	},
	&cli.DurationFlag{
		Name:    "poll-interval",
		Usage:   "Status poll interval when the archive sends no Retry-After",
		EnvVars: []string{"POLL_INTERVAL"},
	},
}

func optionsFromFlags(cCtx *cli.Context) (ecmwf.Options, error) {
	var opt ecmwf.Options
	if path := cCtx.String("request"); path != "" {
		var err error
		if opt, err = ecmwf.LoadOptions(path); err != nil {
			return opt, err
		}
	}

	if cCtx.IsSet("params") {
		opt.Params = cCtx.StringSlice("params")
	}
	if cCtx.IsSet("stream") || opt.Stream == "" {
		opt.Stream = cCtx.String("stream")
	}
	if cCtx.IsSet("levtype") {
		opt.LevType = cCtx.String("levtype")
	}
	if cCtx.IsSet("daterange") {
		opt.DateRange = cCtx.StringSlice("daterange")
	}
	if cCtx.IsSet("years") {
		opt.Years = cCtx.IntSlice("years")
	}
	if cCtx.IsSet("yearrange") {
		opt.YearRange = cCtx.IntSlice("yearrange")
	}
	if cCtx.IsSet("months") {
		opt.Months = cCtx.IntSlice("months")
	}
	if cCtx.IsSet("monthrange") {
		opt.MonthRange = cCtx.IntSlice("monthrange")
	}
	if cCtx.IsSet("levs") {
		opt.Levs = cCtx.Float64Slice("levs")
	}
	if cCtx.IsSet("levrange") {
		opt.LevRange = cCtx.Float64Slice("levrange")
	}
	if cCtx.IsSet("grid") {
		opt.Grid = cCtx.String("grid")
	}
	if cCtx.IsSet("res") {
		res := cCtx.Float64("res")
		opt.Res = &res
	}
	if cCtx.IsSet("box") {
		opt.Box = ecmwf.ParseBox(cCtx.String("box"))
	}
	if cCtx.IsSet("hours") {
		opt.Hours = cCtx.IntSlice("hours")
	}
	if cCtx.IsSet("hour") {
		hour := cCtx.Int("hour")
		opt.Hour = &hour
	}
	if cCtx.IsSet("forecast") {
		opt.Forecast = cCtx.Bool("forecast")
	}
	if cCtx.IsSet("step") {
		step := cCtx.Int("step")
		opt.Step = &step
	}
	if cCtx.IsSet("format") {
		opt.Format = cCtx.String("format")
	}
	if cCtx.IsSet("filename") {
		opt.Filename = cCtx.String("filename")
	}
	return opt, nil
}

func printTables() {
	vars := table.NewWriter()
	vars.SetOutputMirror(os.Stdout)
	vars.AppendHeader(table.Row{"Variable", "MARS ID", "Default Step", "Description"})
	for _, v := range common.Variables() {
		vars.AppendRow(table.Row{v.Name, v.ParameterID, v.DefaultStep, v.Description})
	}
	vars.Render()

	levels := table.NewWriter()
	levels.SetOutputMirror(os.Stdout)
	levels.AppendHeader(table.Row{"Level Type", "Description", "Levels"})
	for _, lt := range common.LevelTypes() {
		count := "-"
		if lt.HasLevels() {
			count = fmt.Sprintf("%d", len(lt.Levels.Values()))
		}
		levels.AppendRow(table.Row{lt.Tag, lt.Description, count})
	}
	levels.Render()
}

func newSubmitter(cCtx *cli.Context) (ecmwf.Submitter, error) {
	creds, err := ecmwf.LoadCredentials()
	if err != nil {
		return nil, err
	}
	return ecmwf.NewClient(ecmwf.ClientOptions{
		Credentials:  creds,
		OutputFolder: cCtx.String("output-dir"),
		PollInterval: cCtx.Duration("poll-interval"),
	}), nil
}

func era(cCtx *cli.Context) error {
	if cCtx.Bool("list-variables") {
		printTables()
		return nil
	}

	opt, err := optionsFromFlags(cCtx)
	if err != nil {
		return err
	}

	if cCtx.Bool("dry-run") {
		cfg, err := opt.Config()
		if err != nil {
			return err
		}
		req, err := ecmwf.Build(cfg)
		if err != nil {
			return err
		}
		fmt.Print(req.String())
		return nil
	}

	sub, err := newSubmitter(cCtx)
	if err != nil {
		return err
	}
	archive, err := base.GetArchive("era", sub)
	if err != nil {
		return err
	}
	res, err := archive.Retrieve(cCtx.Context, opt)
	if err != nil {
		return err
	}

	Log.Info().Str("request_id", res.RequestID).Str("target", res.Target).Int64("size", res.Size).Msg("Retrieval complete")
	return nil
}

func placeholder(name string) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		archive, err := base.GetArchive(name, nil)
		if err != nil {
			return err
		}
		_, err = archive.Retrieve(cCtx.Context, ecmwf.Options{})
		return err
	}
}

func serve(cCtx *cli.Context) error {
	if !cCtx.Bool("http") && !cCtx.Bool("grpc") {
		return errors.New("nothing to serve, enable --http or --grpc")
	}

	sub, err := newSubmitter(cCtx)
	if err != nil {
		Log.Warn().Err(err).Msg("No ECMWF credentials, only dry runs are available")
		credErr := err
		sub = ecmwf.SubmitterFunc(func(ctx context.Context, req *ecmwf.Request) (*ecmwf.Result, error) {
			return nil, credErr
		})
	}

	var wg sync.WaitGroup

	if cCtx.Bool("http") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			server.StartServer(cCtx.String("http-port"), sub)
		}()
	}

	if cCtx.Bool("grpc") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			server.StartGRPCServer(cCtx.String("grpc-port"), sub)
		}()
	}

	wg.Wait()
	return nil
}

func main() {

	app := &cli.App{
		Name:      "reanalysis - Reanalysis Archive Retrieval",
		UsageText: "reanalysis [global options] command [command options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level: debug, info, warn, error",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(cCtx *cli.Context) error {
			SetLevel(cCtx.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "era",
				Usage:  "Retrieve ERA-Interim data from the ECMWF MARS archive",
				Flags:  eraFlags,
				Action: era,
			},
			{
				Name:   "merra",
				Usage:  "Retrieve NASA MERRA data (not implemented)",
				Action: placeholder("merra"),
			},
			{
				Name:   "ncar",
				Usage:  "Retrieve NCAR CFSR data (not implemented)",
				Action: placeholder("ncar"),
			},
			{
				Name:   "serve",
				Usage:  "Serve request building and retrieval over HTTP and gRPC",
				Flags:  serveFlags,
				Action: serve,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		Log.Error().Err(err).Msg("error")
		stop()
		os.Exit(1)
	}
}
