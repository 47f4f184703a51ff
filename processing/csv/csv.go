// Package csv reads mesh code keyed rows from a delimited text file.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/reflow/truncate"

	"github.com/pdok/meshraster/grid"
)

var (
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrInvalidValue     = errors.New("value is not a number")
)

const byteOrderMark = "\ufeff"

// cells that mean "no value", as read_csv treats them
var missingValues = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"#N/A": {},
	"NULL": {},
	"null": {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
}

// Source reads the mesh code and the value of each record from two columns,
// counted from 0 on the left.
type Source struct {
	Path        string
	MeshColumn  int
	ValueColumn int
	// NoHeader treats the first record as data
	NoHeader bool
}

func (s Source) ReadRows(ctx context.Context, rows chan<- grid.Row) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.read(ctx, f, rows)
}

func (s Source) read(ctx context.Context, r io.Reader, rows chan<- grid.Row) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	skipHeader := !s.NoHeader
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.Path, err)
		}
		line, _ := reader.FieldPos(0)
		if line == 1 && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], byteOrderMark)
		}
		if !inRange(s.MeshColumn, record) || !inRange(s.ValueColumn, record) {
			return fmt.Errorf("%w: line %d has %d columns, mesh code column %d, value column %d",
				ErrColumnOutOfRange, line, len(record), s.MeshColumn, s.ValueColumn)
		}
		if skipHeader {
			skipHeader = false
			continue
		}

		value, err := parseValue(record[s.ValueColumn])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		row := grid.Row{Code: strings.TrimSpace(record[s.MeshColumn]), Value: value}
		select {
		case rows <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func inRange(col int, record []string) bool {
	return col >= 0 && col < len(record)
}

// parseValue reads a missing value as NaN.
func parseValue(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if _, ok := missingValues[cell]; ok {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, truncate.StringWithTail(cell, 24, "..."))
	}
	return v, nil
}
