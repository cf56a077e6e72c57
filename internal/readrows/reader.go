// Package readrows drives a chunk Transformer from a ReadRows response stream and hands the
// committed rows to the caller one at a time.
package readrows

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/codec"
	"github.com/litetable/litetable-readrows/internal/resume"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"io"
)

type Config struct {
	Stream ResponseStream
	// Decode controls how qualifiers and values are decoded.
	Decode codec.Options
	// Reversed must match the request the stream was opened with.
	Reversed bool
	// Strategy, when set, is kept up to date with every row handed out.
	Strategy *resume.Strategy
	// MeterProvider defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// TracerProvider defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Stream == nil {
		errGrp = append(errGrp, errors.New("stream required"))
	}
	if err := c.Decode.Validate(); err != nil {
		errGrp = append(errGrp, err)
	}
	return errors.Join(errGrp...)
}

// Reader pulls responses only when the caller asks for the next row, so a slow consumer
// slows down the stream. It must be used from a single goroutine.
type Reader struct {
	id          uuid.UUID
	stream      ResponseStream
	transformer *chunk.Transformer
	strategy    *resume.Strategy
	metrics     *instruments
	tracer      trace.Tracer

	// queue holds rows committed by the last response that were not handed out yet.
	queue []*chunk.Row
	err   error
	done  bool
}

// New creates a Reader for one stream.
func New(cfg *Config) (*Reader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	transformer, err := chunk.New(&chunk.Config{Decode: cfg.Decode, Reversed: cfg.Reversed})
	if err != nil {
		return nil, err
	}

	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	metrics, err := newInstruments(mp)
	if err != nil {
		return nil, err
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Reader{
		id:          uuid.New(),
		stream:      cfg.Stream,
		transformer: transformer,
		strategy:    cfg.Strategy,
		metrics:     metrics,
		tracer:      tp.Tracer(instrumentationName),
	}, nil
}

// ID identifies the stream in logs.
func (r *Reader) ID() string {
	return r.id.String()
}

// Next returns the next committed row. It returns io.EOF once the stream ended with every row
// committed. Rows committed before a failure are still returned; after that the failure is
// returned on every call.
func (r *Reader) Next() (*chunk.Row, error) {
	ctx := context.Background()
	for {
		if len(r.queue) > 0 {
			row := r.queue[0]
			r.queue[0] = nil
			r.queue = r.queue[1:]
			if r.strategy != nil {
				r.strategy.RowRead()
				r.strategy.Advance(row.Key)
			}
			return row, nil
		}
		if r.err != nil {
			return nil, r.err
		}
		if r.done {
			return nil, io.EOF
		}
		// every row of the previous response was handed out, the scan marker is now safe
		if r.strategy != nil {
			r.strategy.Advance(r.transformer.LastScannedRowKey())
		}
		r.receive(ctx)
	}
}

// receive reads one response and queues the rows it commits.
func (r *Reader) receive(ctx context.Context) {
	resp, err := r.stream.Recv()
	if errors.Is(err, io.EOF) {
		r.done = true
		if err = r.transformer.Finalize(); err != nil {
			r.fail(ctx, err)
			return
		}
		log.Debug().Str("stream", r.ID()).Msg("stream finished")
		return
	}
	if err != nil {
		r.fail(ctx, err)
		return
	}

	r.metrics.chunks.Add(ctx, int64(len(resp.Chunks)))
	err = r.transformer.Transform(resp, func(row *chunk.Row) error {
		r.queue = append(r.queue, row)
		return nil
	})
	r.metrics.rows.Add(ctx, int64(len(r.queue)))
	if err != nil {
		r.fail(ctx, err)
	}
}

func (r *Reader) fail(ctx context.Context, err error) {
	r.err = err
	r.metrics.recordError(ctx, err)
	log.Error().Err(err).Str("stream", r.ID()).Msg("read rows stream failed")
}

// LastRowKey returns the key of the last row committed by the stream.
func (r *Reader) LastRowKey() []byte {
	return r.transformer.LastRowKey()
}

// LastScannedRowKey returns the last progress marker sent by the server.
func (r *Reader) LastScannedRowKey() []byte {
	return r.transformer.LastScannedRowKey()
}

// Err returns the failure that stopped the stream, if any.
func (r *Reader) Err() error {
	return r.err
}
