package readrows

import (
	"context"
	"errors"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/litetable/litetable-readrows/internal/readrows"

type instruments struct {
	chunks metric.Int64Counter
	rows   metric.Int64Counter
	errors metric.Int64Counter
}

func newInstruments(mp metric.MeterProvider) (*instruments, error) {
	meter := mp.Meter(instrumentationName)

	chunks, err := meter.Int64Counter("readrows.chunks",
		metric.WithUnit("{chunk}"),
		metric.WithDescription("Number of chunks received"),
	)
	if err != nil {
		return nil, err
	}
	rows, err := meter.Int64Counter("readrows.rows",
		metric.WithUnit("{row}"),
		metric.WithDescription("Number of rows committed"),
	)
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter("readrows.errors",
		metric.WithUnit("{error}"),
		metric.WithDescription("Number of streams stopped by an error"),
	)
	if err != nil {
		return nil, err
	}
	return &instruments{chunks: chunks, rows: rows, errors: errs}, nil
}

func (i *instruments) recordError(ctx context.Context, err error) {
	i.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.type", errorType(err))))
}

func errorType(err error) string {
	switch {
	case errors.Is(err, chunk.ErrStructuralViolation):
		return "structural_violation"
	case errors.Is(err, chunk.ErrTruncatedStream):
		return "truncated_stream"
	case errors.Is(err, chunk.ErrDecodeInconsistency):
		return "decode_inconsistency"
	}
	return "transport"
}
