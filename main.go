package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/pdok/meshraster/aggregate"
	"github.com/pdok/meshraster/config"
	"github.com/pdok/meshraster/logger"
	"github.com/pdok/meshraster/mesh"
	"github.com/pdok/meshraster/processing"
	"github.com/pdok/meshraster/processing/csv"
	"github.com/pdok/meshraster/processing/gpkg"
	"github.com/pdok/meshraster/raster"
)

const MESHCOL string = `meshcol`
const VALUECOL string = `valuecol`
const METHOD string = `method`
const NODATA string = `nodata`
const NOHEADER string = `noheader`
const TABLE string = `table`
const EPSG string = `epsg`
const OVERWRITE string = `overwrite`
const PAGESIZE string = `pagesize`
const CONFIG string = `config`
const LOGLEVEL string = `log-level`
const LOGCONSOLE string = `log-console`

const gpkgExt = ".gpkg"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp().RunContext(ctx, os.Args)
	if err != nil {
		stop()
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("meshraster failed")
	}
}

//nolint:funlen
func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "meshraster"
	app.Usage = "Turns values keyed by Japan Standard Area Mesh codes into a georeferenced raster"
	app.ArgsUsage = "<source.csv|source.gpkg> <output.tif|output.asc|output.gpkg>"
	app.Version = versioninfo.Short()
	// -v selects the value column
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}

	app.Flags = []cli.Flag{
		&cli.IntFlag{
			Name:    MESHCOL,
			Aliases: []string{"m"},
			Usage:   "Column holding the mesh code, counted from 0 on the left",
			EnvVars: []string{strcase.ToScreamingSnake(MESHCOL)},
		},
		&cli.IntFlag{
			Name:    VALUECOL,
			Aliases: []string{"v"},
			Usage:   "Column holding the value, counted from 0 on the left. Default 1",
			EnvVars: []string{strcase.ToScreamingSnake(VALUECOL)},
		},
		&cli.StringFlag{
			Name:    METHOD,
			Usage:   "Aggregation of rows sharing a mesh code, one of " + strings.Join(aggregate.MethodNames(), ", "),
			EnvVars: []string{strcase.ToScreamingSnake(METHOD)},
		},
		&cli.Float64Flag{
			Name:    NODATA,
			Usage:   "Value of cells without data. Default -9999",
			EnvVars: []string{strcase.ToScreamingSnake(NODATA)},
		},
		&cli.BoolFlag{
			Name:    NOHEADER,
			Usage:   "The CSV has no header row",
			EnvVars: []string{strcase.ToScreamingSnake(NOHEADER)},
		},
		&cli.StringFlag{
			Name:    TABLE,
			Usage:   "Table of a GeoPackage source, may be left out when it holds a single table",
			EnvVars: []string{strcase.ToScreamingSnake(TABLE)},
		},
		&cli.IntFlag{
			Name:    EPSG,
			Usage:   "EPSG code of the geographic reference system of the output. Default 6668 (JGD2011)",
			EnvVars: []string{strcase.ToScreamingSnake(EPSG)},
		},
		&cli.BoolFlag{
			Name:    OVERWRITE,
			Aliases: []string{"o"},
			Usage:   "Overwrite a target GPKG if it exists",
			EnvVars: []string{strcase.ToScreamingSnake(OVERWRITE)},
		},
		&cli.IntFlag{
			Name:    PAGESIZE,
			Aliases: []string{"p"},
			Usage:   "Page Size, how many features are written per transaction to a target GPKG. Default 1000",
			EnvVars: []string{strcase.ToScreamingSnake(PAGESIZE)},
		},
		&cli.PathFlag{
			Name:    CONFIG,
			Aliases: []string{"c"},
			Usage:   "JSON file with options, flags take precedence",
			EnvVars: []string{strcase.ToScreamingSnake(CONFIG)},
		},
		&cli.StringFlag{
			Name:    LOGLEVEL,
			Usage:   "One of debug, info, warn, error. Default info",
			EnvVars: []string{strcase.ToScreamingSnake(LOGLEVEL)},
		},
		&cli.BoolFlag{
			Name:    LOGCONSOLE,
			Usage:   "Human friendly log lines instead of JSON",
			EnvVars: []string{strcase.ToScreamingSnake(LOGCONSOLE)},
		},
	}

	app.Action = func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("expected two arguments: %s", app.ArgsUsage)
		}
		sourcePath, targetPath := c.Args().Get(0), c.Args().Get(1)

		opts, err := loadOptions(c)
		if err != nil {
			return err
		}
		method, err := opts.AggregationMethod()
		if err != nil {
			return err
		}
		log := logger.Build(logger.Config{Level: opts.LogLevel, Console: opts.LogConsole}, c.App.ErrWriter)

		if _, err = os.Stat(sourcePath); err != nil {
			return err
		}
		target, err := newTarget(targetPath, opts, log)
		if err != nil {
			return err
		}

		log.Info().Str("source", sourcePath).Str("target", targetPath).Msg("=== start rasterizing ===")
		result, err := processing.Rasterize(c.Context, newSource(sourcePath, opts), target, mesh.Geocoder{}, processing.Options{
			Method: method,
			NoData: opts.NoData,
			Logger: logger.Component(log, "processing"),
		})
		if err != nil {
			return err
		}
		log.Info().
			Int("rows", result.Rows).
			Int("filled", result.Matrix.Filled).
			Msg("=== done rasterizing ===")
		return nil
	}
	return app
}

// loadOptions starts from the options file, or the defaults, and applies the flags that are set.
func loadOptions(c *cli.Context) (config.Options, error) {
	opts := config.Default()
	if path := c.Path(CONFIG); path != "" {
		var err error
		if opts, err = config.Load(path); err != nil {
			return opts, err
		}
	}
	if c.IsSet(MESHCOL) {
		opts.MeshColumn = c.Int(MESHCOL)
	}
	if c.IsSet(VALUECOL) {
		opts.ValueColumn = c.Int(VALUECOL)
	}
	if c.IsSet(METHOD) {
		opts.Method = c.String(METHOD)
	}
	if c.IsSet(NODATA) {
		opts.NoData = c.Float64(NODATA)
	}
	if c.IsSet(NOHEADER) {
		opts.NoHeader = c.Bool(NOHEADER)
	}
	if c.IsSet(TABLE) {
		opts.Table = c.String(TABLE)
	}
	if c.IsSet(EPSG) {
		opts.EPSG = c.Int(EPSG)
	}
	if c.IsSet(OVERWRITE) {
		opts.Overwrite = c.Bool(OVERWRITE)
	}
	if c.IsSet(PAGESIZE) {
		opts.PageSize = c.Int(PAGESIZE)
	}
	if c.IsSet(LOGLEVEL) {
		opts.LogLevel = c.String(LOGLEVEL)
	}
	if c.IsSet(LOGCONSOLE) {
		opts.LogConsole = c.Bool(LOGCONSOLE)
	}
	return opts, opts.Validate()
}

func newSource(path string, opts config.Options) processing.Source {
	if isGeoPackage(path) {
		return gpkg.Source{Path: path, Table: opts.Table, MeshColumn: opts.MeshColumn, ValueColumn: opts.ValueColumn}
	}
	return csv.Source{Path: path, MeshColumn: opts.MeshColumn, ValueColumn: opts.ValueColumn, NoHeader: opts.NoHeader}
}

func newTarget(path string, opts config.Options, log zerolog.Logger) (processing.Target, error) {
	if isGeoPackage(path) {
		return gpkg.Target{
			Path:      path,
			EPSG:      opts.EPSG,
			PageSize:  opts.PageSize,
			Overwrite: opts.Overwrite,
			Logger:    logger.Component(log, "gpkg"),
		}, nil
	}
	if _, err := raster.FormatOf(path); err != nil {
		return nil, err
	}
	return raster.FileTarget{Path: path, EPSG: opts.EPSG, Logger: logger.Component(log, "raster")}, nil
}

func isGeoPackage(path string) bool {
	return strings.EqualFold(filepath.Ext(path), gpkgExt)
}
