package export

import (
	"context"

	"moomoolah/internal/core"
)

// Ports for outbound adapters.
type (
	// ForecastWriter stores one monthly forecast and returns a reference to
	// where it landed. Writing the same month twice replaces or appends,
	// depending on the sink.
	ForecastWriter interface {
		WriteForecast(ctx context.Context, f core.MonthlyForecast, currency string) (ref string, err error)
	}

	// BatchWriter is implemented by sinks that can store many months in one
	// round trip.
	BatchWriter interface {
		WriteForecasts(ctx context.Context, fs []core.MonthlyForecast, currency string) (written int, err error)
	}
)
