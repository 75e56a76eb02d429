package store

import (
	"fmt"
	"strings"

	"github.com/stefanpenner/twy/pkg/week"
)

// MetricType is the unit a lag indicator is measured in.
type MetricType string

const (
	MetricNumber     MetricType = "number"
	MetricCurrency   MetricType = "currency"
	MetricPercentage MetricType = "percentage"
	MetricWeightKg   MetricType = "weight_kg"
	MetricWeightLbs  MetricType = "weight_lbs"
	MetricRating     MetricType = "rating"
	MetricScore      MetricType = "score"
	MetricCount      MetricType = "count"
	MetricDuration   MetricType = "duration"
)

// MetricTypes lists every supported unit in display order.
var MetricTypes = []MetricType{
	MetricNumber,
	MetricCurrency,
	MetricPercentage,
	MetricWeightKg,
	MetricWeightLbs,
	MetricRating,
	MetricScore,
	MetricCount,
	MetricDuration,
}

// ParseMetricType maps a name onto a MetricType. Empty means number.
func ParseMetricType(s string) (MetricType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MetricNumber, nil
	}
	for _, m := range MetricTypes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric type %q: %w", s, week.ErrInvalidInput)
}
