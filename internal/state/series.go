package state

import "moomoolah/internal/core"

// ForecastSeries is an ordered run of monthly forecasts keyed by "YYYY-M".
type ForecastSeries []core.MonthlyForecast

func (fs ForecastSeries) Len() int {
	return len(fs)
}

// Keys returns the month keys in series order.
func (fs ForecastSeries) Keys() []string {
	keys := make([]string, len(fs))
	for i, f := range fs {
		keys[i] = f.Key()
	}
	return keys
}

// Get returns the forecast for a "YYYY-M" key.
func (fs ForecastSeries) Get(key string) (core.MonthlyForecast, bool) {
	for _, f := range fs {
		if f.Key() == key {
			return f, true
		}
	}
	return core.MonthlyForecast{}, false
}

// Equal reports whether both series hold value-equal forecasts in the same order.
func (fs ForecastSeries) Equal(other ForecastSeries) bool {
	if len(fs) != len(other) {
		return false
	}
	for i := range fs {
		if !fs[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
