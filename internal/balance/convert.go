package balance

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Converter turns an amount in one currency into another at a point in
// time. It may hit the network or a cache, so it is fallible and possibly
// slow; series conversion treats every failure as recoverable.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error)
}

// ConvertSeries converts each point to the display currency independently.
// A point whose conversion fails keeps its native-currency value; the
// series is never aborted part-way.
func ConvertSeries(ctx context.Context, points []Point, from, to string, conv Converter) []Point {
	if conv == nil || from == to || to == "" {
		return points
	}
	out := make([]Point, len(points))
	failed := 0
	for i, p := range points {
		out[i] = p
		converted, err := conv.Convert(ctx, p.Balance, from, to, p.Date.Time)
		if err != nil {
			failed++
			continue
		}
		out[i].Balance = converted
	}
	if failed > 0 {
		slog.WarnContext(ctx, "Some balance points kept their native currency",
			"from", from,
			"to", to,
			"failed_points", failed,
			"total_points", len(points))
	}
	return out
}
