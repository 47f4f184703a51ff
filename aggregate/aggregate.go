// Package aggregate reduces rows sharing a mesh code to a single row.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pdok/meshraster/grid"
	"github.com/pdok/meshraster/mapslicehelp"
)

var (
	ErrUnknownMethod       = errors.New("unknown aggregation method")
	ErrAggregationRequired = errors.New("mesh code occurs in more than one row, an aggregation method is required")
)

type Method uint8

const (
	None Method = iota
	Mean
	Median
	Min
	Max
	Sum
	StdDev
)

var methodNames = map[Method]string{
	None:   "",
	Mean:   "mean",
	Median: "median",
	Min:    "min",
	Max:    "max",
	Sum:    "sum",
	StdDev: "stddev",
}

// MethodNames lists the names ParseMethod accepts, the empty name excluded.
func MethodNames() []string {
	names := make([]string, 0, len(methodNames)-1)
	for m := Mean; m <= StdDev; m++ {
		names = append(names, methodNames[m])
	}
	return names
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		if name == "" {
			return "none"
		}
		return name
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return None, fmt.Errorf("%w: %q, use one of %v", ErrUnknownMethod, name, MethodNames())
}

// Aggregate groups rows by mesh code, in order of first appearance, and reduces each group
// with method. NaN values do not take part in a reduction. With method None the rows are
// returned as they are, provided every mesh code occurs only once.
func Aggregate(rows []grid.Row, method Method) ([]grid.Row, error) {
	if _, ok := methodNames[method]; !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, method)
	}
	groups := orderedmap.New[string, []float64](orderedmap.WithCapacity[string, []float64](len(rows)))
	for _, row := range rows {
		values, _ := groups.Get(row.Code)
		groups.Set(row.Code, append(values, row.Value))
	}

	if method == None {
		if groups.Len() == len(rows) {
			return rows, nil
		}
		for p := groups.Oldest(); p != nil; p = p.Next() {
			if len(p.Value) > 1 {
				return nil, fmt.Errorf("%w: %q occurs %d times", ErrAggregationRequired, p.Key, len(p.Value))
			}
		}
	}

	aggregated := make([]grid.Row, 0, groups.Len())
	for _, code := range mapslicehelp.OrderedMapKeys(groups) {
		values, _ := groups.Get(code)
		aggregated = append(aggregated, grid.Row{Code: code, Value: method.reduce(values)})
	}
	return aggregated, nil
}

func (m Method) reduce(values []float64) float64 {
	values = withoutNaN(values)
	if len(values) == 0 {
		if m == Sum {
			return 0
		}
		return math.NaN()
	}
	switch m {
	case Mean:
		return stat.Mean(values, nil)
	case Median:
		return median(values)
	case Min:
		return floats.Min(values)
	case Max:
		return floats.Max(values)
	case Sum:
		return floats.Sum(values)
	case StdDev:
		// sample standard deviation, NaN for a single value
		return stat.StdDev(values, nil)
	}
	return values[0]
}

// median averages the two middle values of an even number of values.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func withoutNaN(values []float64) []float64 {
	if !floats.HasNaN(values) {
		return values
	}
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			kept = append(kept, v)
		}
	}
	return kept
}
