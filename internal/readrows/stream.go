package readrows

import (
	"context"
	"github.com/litetable/litetable-readrows/internal/chunk"
)

//go:generate mockgen -destination=stream_mock.go -package=readrows -source=stream.go

// ResponseStream is the receiving side of a ReadRows call. Recv returns io.EOF once the server
// closed the stream cleanly.
type ResponseStream interface {
	Recv() (*chunk.Response, error)
}

// Sink consumes decoded rows.
type Sink interface {
	Emit(ctx context.Context, row *chunk.Row) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, row *chunk.Row) error

func (f SinkFunc) Emit(ctx context.Context, row *chunk.Row) error {
	return f(ctx, row)
}

// Tee emits every row to each sink in order and stops at the first failure.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, row *chunk.Row) error {
		for _, s := range sinks {
			if err := s.Emit(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
}
