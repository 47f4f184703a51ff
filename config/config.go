// Package config holds the options of a rasterization run, with their defaults and
// validation, and reads them from an optional JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"
	"golang.org/x/exp/maps"

	"github.com/pdok/meshraster/aggregate"
)

var (
	ErrUnknownKeys    = errors.New("unknown keys in options file")
	ErrInvalidOptions = errors.New("invalid options")
)

type Options struct {
	// 0-based column holding the mesh code
	MeshColumn int `default:"0" validate:"min=0" json:"meshcol"`
	// 0-based column holding the value
	ValueColumn int `default:"1" validate:"min=0,nefield=MeshColumn" json:"valuecol"`
	// aggregation of rows sharing a mesh code, empty when every mesh code is unique
	Method string `validate:"omitempty,oneof=mean median min max sum stddev" json:"method,omitempty"`
	// value of cells without data
	NoData float64 `default:"-9999" json:"nodata"`
	// the CSV has no header row
	NoHeader bool `json:"noheader,omitempty"`
	// table to read from a GeoPackage source, may be empty when it has only one
	Table string `json:"table,omitempty"`
	// geographic reference system of the output
	EPSG int `default:"6668" validate:"min=1,max=32767" json:"epsg"`
	// replace an existing GeoPackage target
	Overwrite bool `json:"overwrite,omitempty"`
	// features per transaction for a GeoPackage target
	PageSize int `default:"1000" validate:"min=1" json:"pagesize"`
	LogLevel string `default:"info" validate:"oneof=debug info warn error" json:"logLevel"`
	// human friendly instead of JSON log lines
	LogConsole bool `json:"logConsole,omitempty"`
}

// Default returns the options with every default applied.
func Default() Options {
	var opts Options
	// only fails for a non-pointer or malformed default tags
	if err := defaults.Set(&opts); err != nil {
		panic(err)
	}
	return opts
}

// Load reads options from a JSON file. Keys missing from the file keep their default.
func Load(path string) (Options, error) {
	var opts Options
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err = json.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("reading options from %s: %w", path, err)
	}
	return opts, nil
}

func (o *Options) UnmarshalJSON(data []byte) error {
	err := defaults.Set(o)
	if err != nil {
		return err
	}
	unknown, err := marshmallow.Unmarshal(data, o, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		keys := maps.Keys(unknown)
		slices.Sort(keys)
		return fmt.Errorf("%w: %v", ErrUnknownKeys, keys)
	}
	return o.Validate()
}

func (o *Options) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// AggregationMethod is the parsed Method.
func (o *Options) AggregationMethod() (aggregate.Method, error) {
	return aggregate.ParseMethod(o.Method)
}
