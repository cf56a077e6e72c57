package readrows

import (
	"context"
	"errors"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"io"
)

// Pipe reads every row of the stream into sink. Rows are handed over one at a time, so the
// stream is only read as fast as the sink consumes. ctx cancellation stops both sides; the
// stream itself should be bound to the same ctx so a blocked Recv is released too.
func (r *Reader) Pipe(ctx context.Context, sink Sink) error {
	ctx, span := r.tracer.Start(ctx, "readrows.Pipe",
		trace.WithAttributes(attribute.String("readrows.stream", r.ID())))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan *chunk.Row)

	g.Go(func() error {
		defer close(rows)
		for {
			row, err := r.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case rows <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	var emitted int64
	g.Go(func() error {
		for {
			select {
			case row, ok := <-rows:
				if !ok {
					return nil
				}
				if err := sink.Emit(gctx, row); err != nil {
					return err
				}
				emitted++
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	err := g.Wait()
	span.SetAttributes(attribute.Int64("readrows.rows", emitted))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	log.Info().Str("stream", r.ID()).Int64("rows", emitted).Msg("read rows stream drained")
	return nil
}
