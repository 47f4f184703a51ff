package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/meshraster/grid"
)

var duplicated = []grid.Row{
	{Code: "5339", Value: 4},
	{Code: "5340", Value: 10},
	{Code: "5339", Value: 1},
	{Code: "5339", Value: 7},
	{Code: "5339", Value: 2},
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		method Method
		want   []grid.Row
	}{
		{method: Mean, want: []grid.Row{{Code: "5339", Value: 3.5}, {Code: "5340", Value: 10}}},
		{method: Median, want: []grid.Row{{Code: "5339", Value: 3}, {Code: "5340", Value: 10}}},
		{method: Min, want: []grid.Row{{Code: "5339", Value: 1}, {Code: "5340", Value: 10}}},
		{method: Max, want: []grid.Row{{Code: "5339", Value: 7}, {Code: "5340", Value: 10}}},
		{method: Sum, want: []grid.Row{{Code: "5339", Value: 14}, {Code: "5340", Value: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			got, err := Aggregate(duplicated, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregate_StdDev(t *testing.T) {
	got, err := Aggregate(duplicated, StdDev)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "5339", got[0].Code)
	// sample standard deviation of 4, 1, 7, 2
	assert.InDelta(t, math.Sqrt(7), got[0].Value, 1e-12)
	assert.Equal(t, "5340", got[1].Code)
	assert.True(t, math.IsNaN(got[1].Value))
}

func TestAggregate_None(t *testing.T) {
	unique := []grid.Row{{Code: "5339", Value: 1}, {Code: "5340", Value: 2}}
	got, err := Aggregate(unique, None)
	require.NoError(t, err)
	assert.Equal(t, unique, got)

	_, err = Aggregate(duplicated, None)
	require.ErrorIs(t, err, ErrAggregationRequired)
	assert.Contains(t, err.Error(), `"5339" occurs 4 times`)
}

func TestAggregate_SkipsNaN(t *testing.T) {
	rows := []grid.Row{{Code: "5339", Value: math.NaN()}, {Code: "5339", Value: 3}, {Code: "5340", Value: math.NaN()}}
	got, err := Aggregate(rows, Mean)
	require.NoError(t, err)
	assert.Equal(t, 3., got[0].Value)
	assert.True(t, math.IsNaN(got[1].Value))

	got, err = Aggregate(rows, Sum)
	require.NoError(t, err)
	assert.Equal(t, 3., got[0].Value)
	assert.Equal(t, 0., got[1].Value)
}

func TestAggregate_UnknownMethod(t *testing.T) {
	_, err := Aggregate(duplicated, Method(42))
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestParseMethod(t *testing.T) {
	for _, name := range append(MethodNames(), "") {
		m, err := ParseMethod(name)
		require.NoError(t, err)
		if name == "" {
			assert.Equal(t, None, m)
			continue
		}
		assert.Equal(t, name, m.String())
	}
	_, err := ParseMethod("incorrectname")
	require.ErrorIs(t, err, ErrUnknownMethod)
	assert.Equal(t, []string{"mean", "median", "min", "max", "sum", "stddev"}, MethodNames())
}
