package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/twy/pkg/store"
)

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		current, target, want float64
	}{
		{120, 100, 100},
		{50, 100, 50},
		{0, 100, 0},
		{-20, 100, 0},
		{5000, 10000, 50},
		{1, 3, 100.0 / 3},
	}
	for _, tt := range tests {
		got, err := ProgressPercent(tt.current, tt.target)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "ProgressPercent(%v, %v)", tt.current, tt.target)
	}

	for _, target := range []float64{0, math.NaN(), math.Inf(1)} {
		_, err := ProgressPercent(10, target)
		assert.ErrorIs(t, err, ErrInvalidInput, "target %v", target)
	}
	_, err := ProgressPercent(math.NaN(), 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWeekOverWeekDelta(t *testing.T) {
	assert.Equal(t, Delta{Diff: 3000, IsPositive: true}, WeekOverWeekDelta(5000, 2000))
	assert.Equal(t, Delta{Diff: -1.5, IsPositive: false}, WeekOverWeekDelta(80, 81.5))
	assert.Equal(t, Delta{Diff: 0, IsPositive: false}, WeekOverWeekDelta(7, 7))
}

func TestFormat(t *testing.T) {
	f := Formatter{}
	tests := []struct {
		value  float64
		metric store.MetricType
		want   string
	}{
		{1234567, store.MetricCurrency, "AED 1,234,567"},
		{1234.5, store.MetricCurrency, "AED 1,234.5"},
		{42, store.MetricNumber, "42"},
		{2.5, store.MetricScore, "2.5"},
		{12, store.MetricCount, "12"},
		{87.5, store.MetricPercentage, "87.5%"},
		{80, store.MetricWeightKg, "80 kg"},
		{176, store.MetricWeightLbs, "176 lbs"},
		{8, store.MetricRating, "8/10"},
		{3.5, store.MetricDuration, "3.5 hrs"},
	}
	for _, tt := range tests {
		got, err := f.Format(tt.value, tt.metric)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := f.Format(1, store.MetricType("furlongs"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	usd, err := Formatter{Currency: "USD"}.Format(10000, store.MetricCurrency)
	require.NoError(t, err)
	assert.Equal(t, "USD 10,000", usd)
}

func TestFormatCoversEveryMetricType(t *testing.T) {
	for _, m := range store.MetricTypes {
		_, err := Formatter{}.Format(1, m)
		assert.NoError(t, err, m)
	}
}

func TestFormatOptional(t *testing.T) {
	got, err := Formatter{}.FormatOptional(nil, store.MetricWeightKg)
	require.NoError(t, err)
	assert.Equal(t, "--", got)

	v := 3.0
	got, err = Formatter{}.FormatOptional(&v, store.MetricRating)
	require.NoError(t, err)
	assert.Equal(t, "3/10", got)

	_, err = Formatter{}.FormatOptional(nil, "bogus")
	assert.Error(t, err)
}

func TestStatusForWeek(t *testing.T) {
	target := 10000.0
	ind := &store.LagIndicator{ID: "rev", MetricType: store.MetricCurrency, TargetValue: &target}
	snaps := []*store.LagSnapshot{
		{IndicatorID: "rev", WeekNumber: 1, Value: 2000},
		{IndicatorID: "rev", WeekNumber: 2, Value: 5000},
		{IndicatorID: "other", WeekNumber: 2, Value: 1},
	}

	st := StatusForWeek(ind, snaps, 2)
	require.NotNil(t, st.Current)
	require.NotNil(t, st.Previous)
	require.NotNil(t, st.Delta)
	assert.Equal(t, Delta{Diff: 3000, IsPositive: true}, *st.Delta)
	require.NotNil(t, st.Progress)
	assert.Equal(t, 50.0, *st.Progress)

	first := StatusForWeek(ind, snaps, 1)
	assert.Nil(t, first.Previous)
	assert.Nil(t, first.Delta)
	assert.Equal(t, 20.0, *first.Progress)

	none := StatusForWeek(ind, snaps, 5)
	assert.Nil(t, none.Current)
	assert.Nil(t, none.Progress)

	noTarget := StatusForWeek(&store.LagIndicator{ID: "rev"}, snaps, 2)
	assert.Nil(t, noTarget.Progress)
	assert.NotNil(t, noTarget.Delta)
}

func TestLatest(t *testing.T) {
	assert.Nil(t, Latest(nil))
	snaps := []*store.LagSnapshot{{WeekNumber: 2}, {WeekNumber: 5}, {WeekNumber: 3}}
	assert.Equal(t, 5, Latest(snaps).WeekNumber)
}
