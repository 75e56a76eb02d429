package score

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/stefanpenner/twy/pkg/store"
)

// DefaultCurrency prefixes currency values when none is configured.
const DefaultCurrency = "AED"

// ProgressPercent is current as a share of target, clamped to 0..100.
func ProgressPercent(current, target float64) (float64, error) {
	if target == 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return 0, fmt.Errorf("target %v: %w", target, ErrInvalidInput)
	}
	if math.IsNaN(current) || math.IsInf(current, 0) {
		return 0, fmt.Errorf("value %v: %w", current, ErrInvalidInput)
	}
	p := 100 * current / target
	return math.Max(0, math.Min(100, p)), nil
}

// Delta is the change of an indicator against the previous week.
type Delta struct {
	Diff       float64 `json:"diff"`
	IsPositive bool    `json:"is_positive"`
}

// WeekOverWeekDelta compares this week's value with last week's.
func WeekOverWeekDelta(current, previous float64) Delta {
	diff := current - previous
	return Delta{Diff: diff, IsPositive: diff > 0}
}

// Formatter renders indicator values in their unit.
type Formatter struct {
	Currency string
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Format renders v according to m. Unknown metric types are an error.
func (f Formatter) Format(v float64, m store.MetricType) (string, error) {
	switch m {
	case store.MetricNumber, store.MetricScore, store.MetricCount:
		return plain(v), nil
	case store.MetricCurrency:
		cur := f.Currency
		if cur == "" {
			cur = DefaultCurrency
		}
		return cur + " " + humanize.Commaf(v), nil
	case store.MetricPercentage:
		return plain(v) + "%", nil
	case store.MetricWeightKg:
		return plain(v) + " kg", nil
	case store.MetricWeightLbs:
		return plain(v) + " lbs", nil
	case store.MetricRating:
		return plain(v) + "/10", nil
	case store.MetricDuration:
		return plain(v) + " hrs", nil
	}
	return "", fmt.Errorf("unknown metric type %q: %w", m, ErrInvalidInput)
}

// FormatOptional renders a missing value as "--".
func (f Formatter) FormatOptional(v *float64, m store.MetricType) (string, error) {
	if v == nil {
		if _, err := f.Format(0, m); err != nil {
			return "", err
		}
		return "--", nil
	}
	return f.Format(*v, m)
}

// IndicatorStatus is the state of one lag indicator for a week.
type IndicatorStatus struct {
	Indicator *store.LagIndicator `json:"indicator"`
	Current   *store.LagSnapshot  `json:"current,omitempty"`
	Previous  *store.LagSnapshot  `json:"previous,omitempty"`
	Progress  *float64            `json:"progress,omitempty"`
	Delta     *Delta              `json:"delta,omitempty"`
}

// StatusForWeek picks the snapshots of week w and w-1 from an indicator's
// history and derives progress and delta where the data allows.
func StatusForWeek(ind *store.LagIndicator, snapshots []*store.LagSnapshot, w int) IndicatorStatus {
	st := IndicatorStatus{Indicator: ind}
	for _, s := range snapshots {
		if s.IndicatorID != ind.ID {
			continue
		}
		switch s.WeekNumber {
		case w:
			st.Current = s
		case w - 1:
			st.Previous = s
		}
	}
	if st.Current == nil {
		return st
	}
	if ind.TargetValue != nil {
		if p, err := ProgressPercent(st.Current.Value, *ind.TargetValue); err == nil {
			st.Progress = &p
		}
	}
	if st.Previous != nil {
		d := WeekOverWeekDelta(st.Current.Value, st.Previous.Value)
		st.Delta = &d
	}
	return st
}

// Latest returns the most recent snapshot of an indicator, or nil.
func Latest(snapshots []*store.LagSnapshot) *store.LagSnapshot {
	var latest *store.LagSnapshot
	for _, s := range snapshots {
		if latest == nil || s.WeekNumber > latest.WeekNumber {
			latest = s
		}
	}
	return latest
}
